// Package transferengine applies a booked transfer to two account rows.
//
// The protocol is fixed: the debitor row is taken under an exclusive lock,
// the creditor row is read without one. Transfers sharing a debitor are
// serialized by the lock; transfers sharing only a creditor run in parallel
// and the loser of the version check restarts. Because each transfer only
// ever locks the row it debits, two opposite-direction transfers cannot
// block each other.
package transferengine

import (
	"context"
	"database/sql"
	"errors"

	"github.com/perit/credit-transfer/internal/accountrepo"
	"github.com/perit/credit-transfer/internal/domain"
	"github.com/perit/credit-transfer/pkg/errorspkg"
	"github.com/rs/zerolog"
)

// Accounts provides account row access inside the engine's transaction.
//
//go:generate mockgen -source engine.go -destination engine_mock.go -package transferengine
type Accounts interface {
	GetForUpdate(ctx context.Context, iban string) (domain.Account, error)
	GetForRead(ctx context.Context, iban string) (domain.Account, error)
	Save(ctx context.Context, account domain.Account) (domain.Account, error)
}

// Engine moves money between two accounts.
//
// Engine keeps no state across calls; every Transfer operates on freshly
// loaded rows inside its own transaction.
type Engine struct {
	conn *sql.DB
}

// New returns a transfer engine running on the given connection pool.
func New(conn *sql.DB) *Engine {
	return &Engine{
		conn: conn,
	}
}

// Transfer debits the debitor account and credits the creditor account
// atomically.
//
// On any failure the transaction is rolled back and no balance changes.
// ErrOptimisticConflict means a concurrent transfer won the creditor write;
// the caller may retry the whole transfer from scratch. The engine never
// retries on its own.
func (e *Engine) Transfer(ctx context.Context, arg domain.TransferRequest) error {
	l := zerolog.Ctx(ctx)

	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Send()
		}
	}()

	if err := e.transfer(ctx, accountrepo.NewRepoPGS(tx), arg); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}

// transfer runs the locking protocol against the given transaction scope.
// The step order is load-bearing, see the package comment.
func (e *Engine) transfer(ctx context.Context, accounts Accounts, arg domain.TransferRequest) error {
	debitor, err := accounts.GetForUpdate(ctx, arg.DebitorIBAN)
	if err != nil {
		return err
	}

	creditor, err := accounts.GetForRead(ctx, arg.CreditorIBAN)
	if err != nil {
		return err
	}

	if err := debitor.Withdraw(arg.Amount); err != nil {
		return err
	}

	creditor.Deposit(arg.Amount)

	// Lock held, cannot conflict.
	if _, err := accounts.Save(ctx, debitor); err != nil {
		return err
	}

	// Unlocked read, may conflict with a concurrent credit.
	if _, err := accounts.Save(ctx, creditor); err != nil {
		return err
	}

	return nil
}
