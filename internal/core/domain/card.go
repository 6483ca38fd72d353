package domain

import "time"

// Reserved addresses. The empty string is the zero address: transfers from it
// are mints, and no account may hold it.
const (
	ZeroAddress    = ""
	EscrowAddress  = "escrow:auction"
	TreasuryAddress = "treasury"
	BurnedAddress  = "burned"
)

// CardType classifies a card. Type 0 is the hero (character) type; hero cards
// cannot be consumed by transmogrification.
type CardType int16

const CardTypeHero CardType = 0

// TraitSlots is the number of 4-bit trait slots packed into a trait mask.
const TraitSlots = 16

// Card is a collectible. Ownership and approval live on the card row itself;
// the id is assigned sequentially at mint and never reused. Id 0 is reserved.
type Card struct {
	ID            int64     `json:"id"`
	Traits        uint64    `json:"traits"`
	CardType      CardType  `json:"card_type"`
	MatronID      int64     `json:"matron_id"` // 0 if not bred
	SireID        int64     `json:"sire_id"`   // 0 if not bred
	PackID        int64     `json:"pack_id"`
	CooldownEnd   time.Time `json:"cooldown_end"` // zero value = ready
	CooldownIndex uint8     `json:"cooldown_index"`
	Owner         string    `json:"owner"`
	Approved      string    `json:"approved,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Cooldowns is the escalating breeding cooldown ladder. A card's
// CooldownIndex selects its next cooldown and is bumped on every ascend,
// capping at the last rung.
var Cooldowns = []time.Duration{
	time.Minute,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	30 * time.Minute,
	time.Hour,
	2 * time.Hour,
	4 * time.Hour,
	8 * time.Hour,
	16 * time.Hour,
	24 * time.Hour,
	48 * time.Hour,
	96 * time.Hour,
	168 * time.Hour,
}

// NextCooldown returns the cooldown duration the card incurs on its next breed.
func (c *Card) NextCooldown() time.Duration {
	i := int(c.CooldownIndex)
	if i >= len(Cooldowns) {
		i = len(Cooldowns) - 1
	}
	return Cooldowns[i]
}

// ReadyAt reports whether the card's cooldown has expired at the given time.
func (c *Card) ReadyAt(now time.Time) bool {
	return c.CooldownEnd.IsZero() || !c.CooldownEnd.After(now)
}

// RemainingCooldown returns how long until the card is ready, or 0.
func (c *Card) RemainingCooldown(now time.Time) time.Duration {
	if c.ReadyAt(now) {
		return 0
	}
	return c.CooldownEnd.Sub(now)
}

// TraitSlot extracts the 4-bit value of slot i (0 = least significant).
func TraitSlot(traits uint64, i int) uint64 {
	return (traits >> (uint(i) * 4)) & 0xF
}

// WithTraitSlot returns traits with slot i replaced by v.
func WithTraitSlot(traits uint64, i int, v uint64) uint64 {
	shift := uint(i) * 4
	return (traits &^ (0xF << shift)) | ((v & 0xF) << shift)
}
