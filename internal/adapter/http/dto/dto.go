package dto

import (
	"strconv"
	"time"

	"card-exchange/internal/core/domain"
)

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for account login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	Address  string `json:"address"`
	Username string `json:"username"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CardResponse is the wire shape of a card. Traits are rendered as a decimal
// string because the mask uses the full 64 bits.
type CardResponse struct {
	ID            int64  `json:"id"`
	Traits        string `json:"traits"`
	CardType      int16  `json:"card_type"`
	MatronID      int64  `json:"matron_id,omitempty"`
	SireID        int64  `json:"sire_id,omitempty"`
	PackID        int64  `json:"pack_id"`
	CooldownEnd   string `json:"cooldown_end,omitempty"`
	CooldownIndex uint8  `json:"cooldown_index"`
	Owner         string `json:"owner"`
	Approved      string `json:"approved,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// ToCardResponse converts a domain card to its wire shape.
func ToCardResponse(c *domain.Card) CardResponse {
	resp := CardResponse{
		ID:            c.ID,
		Traits:        strconv.FormatUint(c.Traits, 10),
		CardType:      int16(c.CardType),
		MatronID:      c.MatronID,
		SireID:        c.SireID,
		PackID:        c.PackID,
		CooldownIndex: c.CooldownIndex,
		Owner:         c.Owner,
		Approved:      c.Approved,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
	if !c.CooldownEnd.IsZero() {
		resp.CooldownEnd = c.CooldownEnd.Format(time.RFC3339)
	}
	return resp
}

// ToCardResponses converts a slice of domain cards.
func ToCardResponses(cards []domain.Card) []CardResponse {
	out := make([]CardResponse, len(cards))
	for i := range cards {
		out[i] = ToCardResponse(&cards[i])
	}
	return out
}

// BuyPackRequest is the request body for a funded pack purchase.
type BuyPackRequest struct {
	Payment int64 `json:"payment" binding:"required,gt=0"`
}

// BuyPackWithDremRequest is the request body for a DREM pack purchase.
type BuyPackWithDremRequest struct {
	Packs int64 `json:"packs" binding:"required,gt=0"`
}

// PackStateResponse exposes the public economy knobs.
type PackStateResponse struct {
	CurrentPackID     int64 `json:"current_pack_id"`
	PackPrice         int64 `json:"pack_price"`
	CardsPerPack      int   `json:"cards_per_pack"`
	SeasonPackLimit   int64 `json:"season_pack_limit"`
	SeasonPacksMinted int64 `json:"season_packs_minted"`
	MaxCardTypes      int   `json:"max_card_types"`
	AscendPrice       int64 `json:"ascend_price"`
	TransmogrifyFee   int64 `json:"transmogrify_fee"`
	OwnerCutBps       int   `json:"owner_cut_bps"`
	RewardThreshold   int64 `json:"reward_threshold"`
	RewardUnit        int64 `json:"reward_unit"`
	PackPriceDrem     int64 `json:"pack_price_drem"`
	DeckPaused        bool  `json:"deck_paused"`
	AuctionPaused     bool  `json:"auction_paused"`
}

// ToPackStateResponse converts the settings row to its wire shape.
func ToPackStateResponse(s *domain.Settings) PackStateResponse {
	return PackStateResponse{
		CurrentPackID:     s.CurrentPackID,
		PackPrice:         s.PackPrice,
		CardsPerPack:      s.CardsPerPack,
		SeasonPackLimit:   s.SeasonPackLimit,
		SeasonPacksMinted: s.SeasonPacksMinted,
		MaxCardTypes:      s.MaxCardTypes,
		AscendPrice:       s.AscendPrice,
		TransmogrifyFee:   s.TransmogrifyFee,
		OwnerCutBps:       s.OwnerCutBps,
		RewardThreshold:   s.RewardThreshold,
		RewardUnit:        s.RewardUnit,
		PackPriceDrem:     s.PackPriceDrem,
		DeckPaused:        s.DeckPaused,
		AuctionPaused:     s.AuctionPaused,
	}
}

// CreateAuctionRequest is the request body for opening an auction.
type CreateAuctionRequest struct {
	TokenID       int64 `json:"token_id" binding:"required,gt=0"`
	StartingPrice int64 `json:"starting_price" binding:"min=0"`
	EndingPrice   int64 `json:"ending_price" binding:"min=0"`
	Duration      int64 `json:"duration" binding:"required,gt=0"` // seconds
}

// BidRequest is the request body for bidding on an auction.
type BidRequest struct {
	Payment int64 `json:"payment" binding:"required,gt=0"`
}

// AuctionResponse is the wire shape of a live auction.
type AuctionResponse struct {
	TokenID       int64  `json:"token_id"`
	Seller        string `json:"seller"`
	StartingPrice int64  `json:"starting_price"`
	EndingPrice   int64  `json:"ending_price"`
	Duration      int64  `json:"duration"`
	StartedAt     string `json:"started_at"`
	CurrentPrice  int64  `json:"current_price,omitempty"`
}

// ToAuctionResponse converts a domain auction to its wire shape.
func ToAuctionResponse(a *domain.Auction, currentPrice int64) AuctionResponse {
	return AuctionResponse{
		TokenID:       a.TokenID,
		Seller:        a.Seller,
		StartingPrice: a.StartingPrice,
		EndingPrice:   a.EndingPrice,
		Duration:      a.Duration,
		StartedAt:     a.StartedAt.Format(time.RFC3339),
		CurrentPrice:  currentPrice,
	}
}

// AscendRequest is the request body for breeding two cards.
type AscendRequest struct {
	MatronID int64 `json:"matron_id" binding:"required,gt=0"`
	SireID   int64 `json:"sire_id" binding:"required,gt=0"`
	Payment  int64 `json:"payment" binding:"min=0"`
}

// TransmogrifyRequest is the request body for burning three cards into one.
type TransmogrifyRequest struct {
	CardIDs []int64 `json:"card_ids" binding:"required,len=3"`
	Payment int64   `json:"payment" binding:"min=0"`
}

// CooldownResponse reports the remaining cooldown in seconds.
type CooldownResponse struct {
	CardID    int64 `json:"card_id"`
	Remaining int64 `json:"remaining_seconds"`
}

// TopupRequest is the request body for wallet topup.
type TopupRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

// ClaimResponse is the response for a reward claim.
type ClaimResponse struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

// MintRewardRequest is the request body for CFO DREM minting.
type MintRewardRequest struct {
	To     string `json:"to" binding:"required"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// PromoCardRequest is the request body for minting a promo card.
type PromoCardRequest struct {
	PackID   int64  `json:"pack_id" binding:"min=0"`
	CardType int16  `json:"card_type" binding:"min=0"`
	Traits   string `json:"traits,omitempty"` // decimal, empty = generated
	Owner    string `json:"owner,omitempty"`
}

// PromoAuctionRequest is the request body for minting a card straight into
// auction.
type PromoAuctionRequest struct {
	CardType      int16  `json:"card_type" binding:"min=0"`
	Traits        string `json:"traits,omitempty"`
	StartingPrice int64  `json:"starting_price" binding:"min=0"`
	EndingPrice   int64  `json:"ending_price" binding:"min=0"`
	Duration      int64  `json:"duration" binding:"required,gt=0"`
}

// KnobRequest is the request body for updating an economy knob.
type KnobRequest struct {
	Value int64 `json:"value"`
}

// RoleRequest is the request body for reassigning a role.
type RoleRequest struct {
	Address string `json:"address" binding:"required"`
}

// RolesResponse is the wire shape of the role-holder set.
type RolesResponse struct {
	CEO   string `json:"ceo"`
	CFO   string `json:"cfo"`
	COO   string `json:"coo"`
	Owner string `json:"owner"`
}
