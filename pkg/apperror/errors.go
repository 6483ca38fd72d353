package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
// The code prefix identifies the failure class: ACL (caller lacks a role or
// ownership), VAL (malformed input), STATE (operation not valid in the current
// state), RULE (business rule violated), NF (lookup miss), AUTH/SYS (ambient).
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Access control (ACL) ----

func ErrOnlyCEO() *AppError {
	return New("ACL_001", "Only the CEO can perform this action", http.StatusForbidden)
}

func ErrOnlyCFO() *AppError {
	return New("ACL_002", "Only the CFO can perform this action", http.StatusForbidden)
}

func ErrOnlyCOO() *AppError {
	return New("ACL_003", "Only the COO can perform this action", http.StatusForbidden)
}

func ErrOnlyCLevel() *AppError {
	return New("ACL_004", "Only the CFO, CEO, or COO can perform this action", http.StatusForbidden)
}

func ErrOnlyOwner() *AppError {
	return New("ACL_005", "Only the contract owner can perform this action", http.StatusForbidden)
}

func ErrNotCardOwner(cardID int64) *AppError {
	return New("ACL_006", fmt.Sprintf("Caller does not own card %d", cardID), http.StatusForbidden)
}

func ErrNotSeller() *AppError {
	return New("ACL_007", "Only the seller can cancel this auction", http.StatusForbidden)
}

// ---- Input validation (VAL) ----

func ErrZeroAddress() *AppError {
	return New("VAL_001", "Address must not be empty", http.StatusBadRequest)
}

func ErrInvalidPrice() *AppError {
	return New("VAL_002", "Price must not be negative", http.StatusBadRequest)
}

func ErrInvalidDuration() *AppError {
	return New("VAL_003", "Auction duration must be positive", http.StatusBadRequest)
}

func ErrInvalidOwnerCut() *AppError {
	return New("VAL_004", "Owner cut must be between 0 and 10000 basis points", http.StatusBadRequest)
}

func ErrInvalidCardType() *AppError {
	return New("VAL_005", "Card type exceeds the configured maximum", http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_006", "Amount must be positive", http.StatusBadRequest)
}

// Validation returns a VAL_007 request-shape validation error.
func Validation(message string) *AppError {
	return New("VAL_007", message, http.StatusBadRequest)
}

// ---- State machine (STATE) ----

func ErrPaused() *AppError {
	return New("STATE_001", "Contract is paused", http.StatusConflict)
}

func ErrNotPaused() *AppError {
	return New("STATE_002", "Contract is not paused", http.StatusConflict)
}

func ErrAuctionNotLive(tokenID int64) *AppError {
	return New("STATE_003", fmt.Sprintf("No live auction for token %d", tokenID), http.StatusConflict)
}

func ErrAlreadyOnAuction(tokenID int64) *AppError {
	return New("STATE_004", fmt.Sprintf("Token %d is already on auction", tokenID), http.StatusConflict)
}

// ---- Business rules (RULE) ----

func ErrInsufficientBid(price int64) *AppError {
	return New("RULE_001", fmt.Sprintf("Bid must be greater than or equal to the current price of %d", price), http.StatusPaymentRequired)
}

func ErrInsufficientPayment() *AppError {
	return New("RULE_002", "Payment does not cover the required fee", http.StatusPaymentRequired)
}

func ErrCardOnCooldown(cardID int64) *AppError {
	return New("RULE_003", fmt.Sprintf("Card %d is on cooldown", cardID), http.StatusConflict)
}

func ErrSeasonPackLimitReached() *AppError {
	return New("RULE_004", "Cannot mint any more packs this season", http.StatusConflict)
}

func ErrDuplicateTraits() *AppError {
	return New("RULE_005", "A card with these exact traits already exists", http.StatusConflict)
}

func ErrInsufficientBalance() *AppError {
	return New("RULE_006", "Transfer amount exceeds balance", http.StatusPaymentRequired)
}

func ErrHeroCard(cardID int64) *AppError {
	return New("RULE_007", fmt.Sprintf("Card %d is a hero card and cannot be transmogrified", cardID), http.StatusConflict)
}

// ---- Lookups (NF) ----

func ErrCardNotFound(cardID int64) *AppError {
	return New("NF_001", fmt.Sprintf("Card %d not found", cardID), http.StatusNotFound)
}

func ErrNotFound(entity string) *AppError {
	return New("NF_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
