package domain

import "time"

// Wallet holds an address's funding-currency balance in the smallest unit.
type Wallet struct {
	Address   string    `json:"address"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RewardAccount tracks an address's DREM balance and how many reward units
// were already paid out for its historical card count.
type RewardAccount struct {
	Address      string    `json:"address"`
	Balance      int64     `json:"balance"`
	ClaimedUnits int64     `json:"claimed_units"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClaimableUnits computes floor(cardCount/threshold) - ClaimedUnits, never
// negative. A threshold <= 0 disables claiming.
func (r *RewardAccount) ClaimableUnits(cardCount, threshold int64) int64 {
	if threshold <= 0 {
		return 0
	}
	units := cardCount/threshold - r.ClaimedUnits
	if units < 0 {
		return 0
	}
	return units
}
