// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountNameAlreadyExists indicates that the owner already has a personal account with the given name.
	ErrAccountNameAlreadyExists = errors.New("account name already exists")
	// ErrOwnerNotFound indicates that the owner for the account is not found.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrAccountHasHistory indicates that ledger entries reference the account.
	ErrAccountHasHistory = errors.New("account has ledger history")
	// ErrNegativeInitialBalance indicates that the initial balance is negative.
	ErrNegativeInitialBalance = errors.New("negative initial balance")
	// ErrForbidden indicates that the acting user lacks permission for the action.
	ErrForbidden = errors.New("forbidden")
)

// AccountKind tells personal accounts from shared group wallets.
type AccountKind string

// Supported account kinds.
const (
	KindPersonal AccountKind = "PERSONAL"
	KindGroup    AccountKind = "GROUP"
)

// Account holds balance data for a personal account or a shared group wallet.
//
// Balance is stored in currency minor units. At any quiescent point it equals
// the sum of IN entries minus the sum of OUT entries of the account's ledger,
// and it never commits below zero.
type Account struct {
	ID          int64       `json:"id"`
	Number      string      `json:"number"`
	Kind        AccountKind `json:"kind"`
	Name        string      `json:"name"`
	OwnerUserID *int64      `json:"owner_user_id,omitempty"` // set iff Kind == KindPersonal
	Balance     int64       `json:"balance"`
	CreatedAt   time.Time   `json:"created_at"`
}

// CreatePersonalAccountParams is the input data for creating a personal account.
type CreatePersonalAccountParams struct {
	Name           string
	OwnerUserID    int64
	InitialBalance int64
}

// CreateGroupAccountParams is the input data for creating a group wallet.
//
// The creator becomes the wallet's first OWNER in the same transaction that
// creates the account row.
type CreateGroupAccountParams struct {
	Name           string
	CreatorUserID  int64
	InitialBalance int64
}
