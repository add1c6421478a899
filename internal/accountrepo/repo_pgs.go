// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"

	"github.com/perit/credit-transfer/internal/domain"
	"github.com/perit/credit-transfer/pkg/dbpkg"
	"github.com/perit/credit-transfer/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates account repository layer logic.
//
// Constructed over *sql.DB it runs in autocommit mode; constructed over
// *sql.Tx every call is scoped to that transaction, which is how the
// transfer engine holds the debitor row lock until commit or rollback.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const createQuery = `
INSERT INTO
    accounts (iban, owner_name, balance)
VALUES
    ($1, $2, $3)
RETURNING id, iban, owner_name, balance, version, created_at
`

// Create creates the account and then returns it.
func (r *RepoPGS) Create(ctx context.Context, iban, ownerName, balance string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, iban, ownerName, balance)

	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.IBAN,
		&a.OwnerName,
		&a.Balance,
		&a.Version,
		&a.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "accounts_iban_key":
				return a, domain.ErrIBANAlreadyExists
			case "accounts_balance_check":
				return a, domain.ErrInsufficientBalance
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getForReadQuery = `
SELECT
	id, iban, owner_name, balance, version, created_at
FROM accounts
WHERE iban = $1
`

// GetForRead returns an unlocked snapshot of the account with the given iban.
//
// The returned version is the compare value for a later Save.
func (r *RepoPGS) GetForRead(ctx context.Context, iban string) (domain.Account, error) {
	return r.get(ctx, getForReadQuery, iban)
}

const getForUpdateQuery = `
SELECT
	id, iban, owner_name, balance, version, created_at
FROM accounts
WHERE iban = $1
FOR UPDATE
`

// GetForUpdate returns the account with the given iban under an exclusive
// row lock.
//
// The lock blocks every other GetForUpdate and Save on the same row and is
// held until the enclosing transaction ends, so it only makes sense on a
// RepoPGS constructed over *sql.Tx.
func (r *RepoPGS) GetForUpdate(ctx context.Context, iban string) (domain.Account, error) {
	return r.get(ctx, getForUpdateQuery, iban)
}

func (r *RepoPGS) get(ctx context.Context, query, iban string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, query, iban)

	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.IBAN,
		&a.OwnerName,
		&a.Balance,
		&a.Version,
		&a.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const saveQuery = `
UPDATE accounts
SET owner_name = $1, balance = $2, version = version + 1
WHERE id = $3 AND version = $4
RETURNING id, iban, owner_name, balance, version, created_at
`

// Save persists the account with a compare-and-swap on its version.
//
// A row locked via GetForUpdate in the same transaction cannot have moved,
// so the write always succeeds there. For a row obtained via GetForRead the
// swap fails with ErrOptimisticConflict when a concurrent writer got in
// first; the caller must re-read and retry the whole operation.
func (r *RepoPGS) Save(ctx context.Context, account domain.Account) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, saveQuery,
		account.OwnerName,
		account.Balance,
		account.ID,
		account.Version,
	)

	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.IBAN,
		&a.OwnerName,
		&a.Balance,
		&a.Version,
		&a.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Msgf("Save(ctx, %+v)", account)

		if err == sql.ErrNoRows {
			return a, domain.ErrOptimisticConflict
		}

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "accounts_balance_check" {
				return a, domain.ErrInsufficientBalance
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}
