// Package transferrepo manages repository layer of transfers.
package transferrepo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/perit/credit-transfer/internal/domain"
	"github.com/perit/credit-transfer/pkg/dbpkg"
	"github.com/perit/credit-transfer/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transfer repository layer logic.
//
// It always runs on the pool connection in autocommit mode. That is what
// makes SetStatus an independent transaction: the audit write commits even
// when the engine's own transaction rolled back.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns transfer RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const createQuery = `
INSERT INTO
    transfers (debitor_iban, creditor_iban, amount)
VALUES
    ($1, $2, $3)
RETURNING id, debitor_iban, creditor_iban, amount, status, error_text, version, created_at
`

// Create creates a PENDING transfer and then returns it.
//
// Create is not idempotent; identical requests produce distinct rows.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateTransferParams) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, arg.DebitorIBAN, arg.CreditorIBAN, arg.Amount)

	t, err := scanTransfer(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "transfers_amount_check" {
				return t, domain.ErrInvalidAmount
			}
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const getQuery = `
SELECT
	id, debitor_iban, creditor_iban, amount, status, error_text, version, created_at
FROM transfers
WHERE id = $1
`

// Get returns the transfer with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	t, err := scanTransfer(row)
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return t, domain.ErrTransferNotFound
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const listQuery = `
SELECT
	id, debitor_iban, creditor_iban, amount, status, error_text, version, created_at
FROM transfers
ORDER BY id
`

// List returns all transfers. Diagnostic use only.
func (r *RepoPGS) List(ctx context.Context) ([]domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transfer{}

	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(
			&t.ID,
			&t.DebitorIBAN,
			&t.CreditorIBAN,
			&t.Amount,
			&t.Status,
			&t.ErrorText,
			&t.Version,
			&t.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const setStatusQuery = `
UPDATE transfers
SET status = $1, error_text = $2, version = version + 1
WHERE id = $3 AND version = $4
RETURNING id, debitor_iban, creditor_iban, amount, status, error_text, version, created_at
`

// SetStatus finalizes the transfer with a compare-and-swap on its version.
//
// The version guard keeps two racing Execute calls on the same PENDING row
// from both finalizing it; the loser gets ErrOptimisticConflict.
func (r *RepoPGS) SetStatus(ctx context.Context, id int64, status domain.TransferStatus, errorText string, version int64) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, setStatusQuery, status, errorText, id, version)

	t, err := scanTransfer(row)
	if err != nil {
		l.Error().Err(err).Msgf("SetStatus(ctx, %v, %v, %q, %v)", id, status, errorText, version)

		if err == sql.ErrNoRows {
			return t, domain.ErrOptimisticConflict
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

func scanTransfer(row *sql.Row) (domain.Transfer, error) {
	var t domain.Transfer

	err := row.Scan(
		&t.ID,
		&t.DebitorIBAN,
		&t.CreditorIBAN,
		&t.Amount,
		&t.Status,
		&t.ErrorText,
		&t.Version,
		&t.CreatedAt,
	)

	return t, err
}
