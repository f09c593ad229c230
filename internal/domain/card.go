package domain

import (
	"errors"
	"time"
)

var (
	// ErrCardNotFound indicates that the card is not found.
	ErrCardNotFound = errors.New("card not found")
	// ErrCardBlocked indicates that a BLOCKED card was used for an expense.
	ErrCardBlocked = errors.New("card is blocked")
	// ErrCardNumberAlreadyExists indicates that a card with the same masked number is registered.
	ErrCardNumberAlreadyExists = errors.New("card number already exists")
	// ErrCardHasHistory indicates that ledger entries reference the card.
	ErrCardHasHistory = errors.New("card has ledger history")
)

// CardStatus is the card's directory status.
type CardStatus string

// Card statuses. The engine only reads these: a BLOCKED card rejects new
// card expenses.
const (
	CardActive  CardStatus = "ACTIVE"
	CardBlocked CardStatus = "BLOCKED"
)

// Card maps a payment card to its account.
type Card struct {
	ID        int64      `json:"id"`
	AccountID int64      `json:"account_id"`
	MaskedNo  string     `json:"masked_no"`
	Brand     string     `json:"brand"`
	Status    CardStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}
