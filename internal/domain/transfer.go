package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates zero or negative amount.
	ErrNegativeAmount = errors.New("negative amount")
	// ErrInsufficientBalance indicates that the debitor account does not cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrTransferNotFound indicates that the transfer is not found.
	ErrTransferNotFound = errors.New("transfer not found")
	// ErrTransferFinalized indicates that the transfer already reached a terminal status.
	ErrTransferFinalized = errors.New("transfer already finalized")
)

// TransferStatus is the lifecycle state of a transfer.
type TransferStatus string

// Transfer statuses. EXECUTED and FAILED are terminal.
const (
	StatusPending  TransferStatus = "PENDING"
	StatusExecuted TransferStatus = "EXECUTED"
	StatusFailed   TransferStatus = "FAILED"
)

// Transfer is the durable audit record of a single transfer attempt.
//
// The row is created PENDING and transitions exactly once to EXECUTED
// or FAILED. ErrorText is set only on FAILED.
type Transfer struct {
	ID           int64          `json:"id"`
	DebitorIBAN  string         `json:"debitor_iban"`
	CreditorIBAN string         `json:"creditor_iban"`
	Amount       string         `json:"amount"` // must be positive
	Status       TransferStatus `json:"status"`
	ErrorText    string         `json:"error_text,omitempty"`
	Version      int64          `json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CreateTransferParams is the input data for booking a transfer.
type CreateTransferParams struct {
	DebitorIBAN  string `json:"debitor_iban"`
	CreditorIBAN string `json:"creditor_iban"`
	Amount       string `json:"amount"`
}

// TransferRequest is the input data for the transfer engine.
type TransferRequest struct {
	DebitorIBAN  string
	CreditorIBAN string
	Amount       decimal.Decimal
}
