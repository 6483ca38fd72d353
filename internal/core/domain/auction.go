package domain

import (
	"math/big"
	"time"
)

// Auction is a live clock auction. A record exists exactly while the token is
// escrowed; settlement and cancellation delete it.
type Auction struct {
	TokenID       int64     `json:"token_id"`
	Seller        string    `json:"seller"`
	StartingPrice int64     `json:"starting_price"`
	EndingPrice   int64     `json:"ending_price"`
	Duration      int64     `json:"duration"` // seconds
	StartedAt     time.Time `json:"started_at"`
}

// PriceAt returns the ask price at the given instant: linear interpolation
// from StartingPrice to EndingPrice over Duration, clamped to EndingPrice
// afterwards. The delta is multiplied by the elapsed time before dividing so
// integer truncation never loses more than one price unit; the intermediate
// product is taken at arbitrary precision since delta*elapsed can exceed
// int64 for large price/duration combinations.
func (a *Auction) PriceAt(now time.Time) int64 {
	elapsed := int64(now.Sub(a.StartedAt) / time.Second)
	if elapsed <= 0 {
		return a.StartingPrice
	}
	if elapsed >= a.Duration {
		return a.EndingPrice
	}
	delta := a.EndingPrice - a.StartingPrice
	step := new(big.Int).Mul(big.NewInt(delta), big.NewInt(elapsed))
	step.Quo(step, big.NewInt(a.Duration))
	return a.StartingPrice + step.Int64()
}
