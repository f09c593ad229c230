package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidAmount indicates a zero or negative amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrSameAccountTransfer indicates a transfer where source and destination coincide.
	ErrSameAccountTransfer = errors.New("transfer between the same account")
	// ErrEntryNotFound indicates that the ledger entry is not found.
	ErrEntryNotFound = errors.New("ledger entry not found")
	// ErrTxBusy indicates lock contention; the caller may retry the operation.
	ErrTxBusy = errors.New("operation busy, retry")
)

// Direction tells whether an entry credits or debits its account.
type Direction string

// Entry directions.
const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Method records how a balance change happened.
type Method string

// Entry methods.
const (
	MethodTransfer Method = "TRANSFER"
	MethodCard     Method = "CARD"
	MethodOther    Method = "OTHER"
)

// Entry is an immutable ledger record of a single balance-affecting event.
//
// TransferKey links exactly one OUT and one IN entry as the two legs of one
// transfer; it is set iff Method == MethodTransfer. CardID is set iff
// Method == MethodCard.
type Entry struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	Direction   Direction `json:"direction"`
	Method      Method    `json:"method"`
	Amount      int64     `json:"amount"` // positive, minor units
	Memo        *string   `json:"memo,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	TransferKey *string   `json:"transfer_key,omitempty"`
	CardID      *int64    `json:"card_id,omitempty"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateEntryParams is the input data for a single income or expense.
type CreateEntryParams struct {
	AccountID  int64
	Amount     int64
	Memo       *string
	OccurredAt *time.Time // nil means now
	CreatedBy  int64
}

// CreateCardExpenseParams is the input data for a card expense.
type CreateCardExpenseParams struct {
	CardID     int64
	Amount     int64
	Memo       *string
	OccurredAt *time.Time
	CreatedBy  int64
}

// CreateTransferParams is the input data for the transfer transaction.
type CreateTransferParams struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        int64
	Memo          *string
	CreatedBy     int64
}

// TransferTxResult is the result of the transfer transaction.
type TransferTxResult struct {
	TransferKey string  `json:"transfer_key"`
	FromAccount Account `json:"from_account"`
	ToAccount   Account `json:"to_account"`
	FromEntry   Entry   `json:"from_entry"`
	ToEntry     Entry   `json:"to_entry"`
}

// SearchEntriesParams filters the reporting read of the ledger.
//
// AccountIDs scopes the search to the given accounts; the service layer fills
// it with the accounts visible to the requesting user.
type SearchEntriesParams struct {
	AccountIDs []int64
	DateFrom   *time.Time
	DateTo     *time.Time
	MinAmount  *int64
	MaxAmount  *int64
	Limit      int32
	Offset     int32
}
