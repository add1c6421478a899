// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrIBANAlreadyExists indicates that an account with the given IBAN already exists.
	ErrIBANAlreadyExists = errors.New("account iban already exists")
	// ErrOptimisticConflict indicates that a concurrent writer changed the row since it was read.
	ErrOptimisticConflict = errors.New("account version conflict")
)

// Account holds the balance of a single ledger account.
//
// Version increments on every successful write and backs the
// compare-and-swap contract of the account store.
type Account struct {
	ID        int64           `json:"id"`
	IBAN      string          `json:"iban"`
	OwnerName string          `json:"owner_name"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
}

// Withdraw subtracts amount from the balance.
//
// The balance must strictly exceed the amount; withdrawing the exact
// balance is rejected with ErrInsufficientBalance.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !a.Balance.GreaterThan(amount) {
		return ErrInsufficientBalance
	}

	a.Balance = a.Balance.Sub(amount)

	return nil
}

// Deposit adds amount to the balance.
func (a *Account) Deposit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}
