// Package transferservice manages the business logic layer of transfers.
//
// It is the durable ledger of transfer attempts: every booked transfer gets
// a PENDING row, and Execute finalizes the row to EXECUTED or FAILED no
// matter how the balance mutation went.
package transferservice

import (
	"context"

	"github.com/perit/credit-transfer/internal/domain"
	"github.com/perit/credit-transfer/pkg/errorspkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by transfer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateTransferParams) (domain.Transfer, error)
	Get(ctx context.Context, id int64) (domain.Transfer, error)
	List(ctx context.Context) ([]domain.Transfer, error)
	SetStatus(ctx context.Context, id int64, status domain.TransferStatus, errorText string, version int64) (domain.Transfer, error)
}

// Engine applies a transfer request to the two account balances.
type Engine interface {
	Transfer(ctx context.Context, arg domain.TransferRequest) error
}

// Service facilitates transfer service layer logic.
type Service struct {
	repo   Repo
	engine Engine
}

// New returns transfer service struct to manage transfer bussines logic.
func New(repo Repo, engine Engine) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
	}
}

// Save books a transfer and returns the id of the new PENDING row.
//
// Save never deduplicates; booking the same request twice yields two rows.
func (s *Service) Save(ctx context.Context, arg domain.CreateTransferParams) (int64, error) {
	l := zerolog.Ctx(ctx)

	if _, err := parseAmount(arg.Amount); err != nil {
		l.Info().Err(err).Send()
		return 0, err
	}

	transfer, err := s.repo.Create(ctx, arg)
	if err != nil {
		return 0, err
	}

	l.Info().Int64("transfer_id", transfer.ID).Msg("transfer saved")

	return transfer.ID, nil
}

// Execute runs the booked transfer with the given id through the engine and
// records the outcome on the transfer row.
//
// The engine failure is recorded as status FAILED with the error text and
// then re-raised, so the caller always sees the original failure even
// though it has already been persisted. The status write runs outside the
// engine's transaction and commits even when that transaction rolled back.
func (s *Service) Execute(ctx context.Context, id int64) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	transfer, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Transfer{}, err
	}

	if transfer.Status != domain.StatusPending {
		l.Info().Int64("transfer_id", id).Str("status", string(transfer.Status)).Msg("transfer already finalized")
		return transfer, domain.ErrTransferFinalized
	}

	amount, err := parseAmount(transfer.Amount)
	if err != nil {
		l.Error().Err(err).Send()
		return transfer, errorspkg.ErrInternal
	}

	arg := domain.TransferRequest{
		DebitorIBAN:  transfer.DebitorIBAN,
		CreditorIBAN: transfer.CreditorIBAN,
		Amount:       amount,
	}

	if engineErr := s.engine.Transfer(ctx, arg); engineErr != nil {
		failed, err := s.repo.SetStatus(ctx, id, domain.StatusFailed, engineErr.Error(), transfer.Version)
		if err != nil {
			// The audit write itself failed; the engine error still wins.
			l.Error().Err(err).Int64("transfer_id", id).Msg("cannot record failed transfer")
			return transfer, engineErr
		}

		return failed, engineErr
	}

	executed, err := s.repo.SetStatus(ctx, id, domain.StatusExecuted, "", transfer.Version)
	if err != nil {
		return transfer, err
	}

	l.Info().Int64("transfer_id", id).Msg("transfer executed")

	return executed, nil
}

// Get returns the transfer with the given id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Transfer, error) {
	return s.repo.Get(ctx, id)
}

// List returns all transfers. Diagnostic use only.
func (s *Service) List(ctx context.Context) ([]domain.Transfer, error) {
	return s.repo.List(ctx)
}

func parseAmount(amount string) (decimal.Decimal, error) {
	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, domain.ErrNegativeAmount
	}

	return amountDecimal, nil
}
