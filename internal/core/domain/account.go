package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is an authenticated user of the exchange. Address is the identity
// every domain operation keys on; the password hash only gates token issuance.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Address      string    `json:"address"`
	CreatedAt    time.Time `json:"created_at"`
}
