// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/perit/credit-transfer/internal/domain"
)

// Repo provides data access layer interface needed by account service layer.
type Repo interface {
	Create(ctx context.Context, iban, ownerName, balance string) (domain.Account, error)
	GetForRead(ctx context.Context, iban string) (domain.Account, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// Create creates and returns an account with the given iban, owner and opening balance.
func (s *Service) Create(ctx context.Context, iban, ownerName, balance string) (domain.Account, error) {
	account, err := s.repo.Create(ctx, iban, ownerName, balance)
	if err != nil {
		return account, err
	}

	return account, nil
}

// Get returns the account with the given iban.
func (s *Service) Get(ctx context.Context, iban string) (domain.Account, error) {
	account, err := s.repo.GetForRead(ctx, iban)
	if err != nil {
		return account, err
	}

	return account, nil
}
