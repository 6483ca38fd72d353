package domain

// Settings is the single-row table of economy knobs. Every mutating operation
// reads it inside its transaction so a knob change is totally ordered with the
// operations it governs.
type Settings struct {
	CurrentPackID     int64 `json:"current_pack_id"`
	PackPrice         int64 `json:"pack_price"`
	CardsPerPack      int   `json:"cards_per_pack"`
	SeasonPackLimit   int64 `json:"season_pack_limit"` // negative = unlimited, 0 = season closed
	SeasonPacksMinted int64 `json:"season_packs_minted"`
	MaxCardTypes      int   `json:"max_card_types"`
	AscendPrice       int64 `json:"ascend_price"`
	TransmogrifyFee   int64 `json:"transmogrify_fee"`
	OwnerCutBps       int   `json:"owner_cut_bps"` // 0..10000
	RewardThreshold   int64 `json:"reward_threshold"`
	RewardUnit        int64 `json:"reward_unit"`
	PackPriceDrem     int64 `json:"pack_price_drem"`
	DeckPaused        bool  `json:"deck_paused"`
	AuctionPaused     bool  `json:"auction_paused"`
}

// CanMintPacks reports whether n more packs fit under the season limit.
func (s *Settings) CanMintPacks(n int64) bool {
	if s.SeasonPackLimit < 0 {
		return true
	}
	return s.SeasonPacksMinted+n <= s.SeasonPackLimit
}

// SellerProceeds splits a sale price into the seller's share and the cut
// retained by the exchange.
func (s *Settings) SellerProceeds(price int64) (seller, cut int64) {
	cut = price * int64(s.OwnerCutBps) / 10000
	return price - cut, cut
}

// RoleSet holds the three privileged role-holders plus the pause owner.
// Each address is non-empty; the CEO reassigns roles.
type RoleSet struct {
	CEO   string `json:"ceo"`
	CFO   string `json:"cfo"`
	COO   string `json:"coo"`
	Owner string `json:"owner"`
}

// IsCLevel reports whether addr holds any of the three C-level roles.
func (r *RoleSet) IsCLevel(addr string) bool {
	return addr != ZeroAddress && (addr == r.CEO || addr == r.CFO || addr == r.COO)
}
