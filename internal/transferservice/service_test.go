package transferservice

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/perit/credit-transfer/internal/domain"
	"github.com/perit/credit-transfer/pkg/errorspkg"
)

const (
	testDebitorIBAN  = "DE02120300000000202051"
	testCreditorIBAN = "DE02500105170137075030"
)

func pendingTransfer(id int64, amount string) domain.Transfer {
	return domain.Transfer{
		ID:           id,
		DebitorIBAN:  testDebitorIBAN,
		CreditorIBAN: testCreditorIBAN,
		Amount:       amount,
		Status:       domain.StatusPending,
		Version:      0,
	}
}

func TestSave(t *testing.T) {
	testArg := domain.CreateTransferParams{
		DebitorIBAN:  testDebitorIBAN,
		CreditorIBAN: testCreditorIBAN,
		Amount:       "100",
	}

	testCases := []struct {
		name       string
		arg        domain.CreateTransferParams
		buildStubs func(repo *MockRepo)
		wantID     int64
		wantErr    error
	}{
		{
			name: "OK",
			arg:  testArg,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().
					Create(gomock.Any(), gomock.Eq(testArg)).
					Times(1).
					Return(pendingTransfer(1, "100"), nil)
			},
			wantID: 1,
		},
		{
			name: "InvalidAmount",
			arg: domain.CreateTransferParams{
				DebitorIBAN:  testDebitorIBAN,
				CreditorIBAN: testCreditorIBAN,
				Amount:       "!@#$",
			},
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "NegativeAmount",
			arg: domain.CreateTransferParams{
				DebitorIBAN:  testDebitorIBAN,
				CreditorIBAN: testCreditorIBAN,
				Amount:       "-100",
			},
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrNegativeAmount,
		},
		{
			name: "ZeroAmount",
			arg: domain.CreateTransferParams{
				DebitorIBAN:  testDebitorIBAN,
				CreditorIBAN: testCreditorIBAN,
				Amount:       "0",
			},
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrNegativeAmount,
		},
		{
			name: "RepoError",
			arg:  testArg,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().
					Create(gomock.Any(), gomock.Eq(testArg)).
					Times(1).
					Return(domain.Transfer{}, errorspkg.ErrInternal)
			},
			wantErr: errorspkg.ErrInternal,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			engine := NewMockEngine(ctrl)
			tc.buildStubs(repo)

			id, err := New(repo, engine).Save(context.Background(), tc.arg)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantID, id)
		})
	}
}

func TestSaveIsNotIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := NewMockRepo(ctrl)
	engine := NewMockEngine(ctrl)
	service := New(repo, engine)

	arg := domain.CreateTransferParams{
		DebitorIBAN:  testDebitorIBAN,
		CreditorIBAN: testCreditorIBAN,
		Amount:       "100",
	}

	gomock.InOrder(
		repo.EXPECT().Create(gomock.Any(), gomock.Eq(arg)).Return(pendingTransfer(1, "100"), nil),
		repo.EXPECT().Create(gomock.Any(), gomock.Eq(arg)).Return(pendingTransfer(2, "100"), nil),
	)

	first, err := service.Save(context.Background(), arg)
	require.NoError(t, err)

	second, err := service.Save(context.Background(), arg)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestExecute(t *testing.T) {
	testTransfer := pendingTransfer(1, "100")

	testEngineArg := domain.TransferRequest{
		DebitorIBAN:  testDebitorIBAN,
		CreditorIBAN: testCreditorIBAN,
		Amount:       decimal.RequireFromString("100"),
	}

	executed := testTransfer
	executed.Status = domain.StatusExecuted
	executed.Version = 1

	failed := func(errText string) domain.Transfer {
		f := testTransfer
		f.Status = domain.StatusFailed
		f.ErrorText = errText
		f.Version = 1
		return f
	}

	testCases := []struct {
		name         string
		buildStubs   func(repo *MockRepo, engine *MockEngine)
		wantTransfer domain.Transfer
		wantErr      error
	}{
		{
			name: "OK",
			buildStubs: func(repo *MockRepo, engine *MockEngine) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Eq(testTransfer.ID)).
					Times(1).
					Return(testTransfer, nil)
				engine.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testEngineArg)).
					Times(1).
					Return(nil)
				repo.EXPECT().
					SetStatus(gomock.Any(), gomock.Eq(testTransfer.ID), gomock.Eq(domain.StatusExecuted), gomock.Eq(""), gomock.Eq(testTransfer.Version)).
					Times(1).
					Return(executed, nil)
			},
			wantTransfer: executed,
		},
		{
			name: "TransferNotFound",
			buildStubs: func(repo *MockRepo, engine *MockEngine) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Eq(testTransfer.ID)).
					Times(1).
					Return(domain.Transfer{}, domain.ErrTransferNotFound)
				engine.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().SetStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrTransferNotFound,
		},
		{
			// Terminal rows are immutable; a second execution is rejected
			// without touching the engine.
			name: "AlreadyExecuted",
			buildStubs: func(repo *MockRepo, engine *MockEngine) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Eq(testTransfer.ID)).
					Times(1).
					Return(executed, nil)
				engine.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().SetStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrTransferFinalized,
		},
		{
			name: "AlreadyFailed",
			buildStubs: func(repo *MockRepo, engine *MockEngine) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Eq(testTransfer.ID)).
					Times(1).
					Return(failed("insufficient balance"), nil)
				engine.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().SetStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrTransferFinalized,
		},
		{
			// The audit record outlives the failed balance mutation: the
			// row goes FAILED with the error text and the engine error is
			// re-raised.
			name: "InsufficientBalance",
			buildStubs: func(repo *MockRepo, engine *MockEngine) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Eq(testTransfer.ID)).
					Times(1).
					Return(testTransfer, nil)
				engine.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testEngineArg)).
					Times(1).
					Return(domain.ErrInsufficientBalance)
				repo.EXPECT().
					SetStatus(gomock.Any(), gomock.Eq(testTransfer.ID), gomock.Eq(domain.StatusFailed), gomock.Eq(domain.ErrInsufficientBalance.Error()), gomock.Eq(testTransfer.Version)).
					Times(1).
					Return(failed(domain.ErrInsufficientBalance.Error()), nil)
			},
			wantTransfer: failed(domain.ErrInsufficientBalance.Error()),
			wantErr:      domain.ErrInsufficientBalance,
		},
		{
			name: "AccountNotFound",
			buildStubs: func(repo *MockRepo, engine *MockEngine) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Eq(testTransfer.ID)).
					Times(1).
					Return(testTransfer, nil)
				engine.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testEngineArg)).
					Times(1).
					Return(domain.ErrAccountNotFound)
				repo.EXPECT().
					SetStatus(gomock.Any(), gomock.Eq(testTransfer.ID), gomock.Eq(domain.StatusFailed), gomock.Eq(domain.ErrAccountNotFound.Error()), gomock.Eq(testTransfer.Version)).
					Times(1).
					Return(failed(domain.ErrAccountNotFound.Error()), nil)
			},
			wantTransfer: failed(domain.ErrAccountNotFound.Error()),
			wantErr:      domain.ErrAccountNotFound,
		},
		{
			name: "OptimisticConflict",
			buildStubs: func(repo *MockRepo, engine *MockEngine) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Eq(testTransfer.ID)).
					Times(1).
					Return(testTransfer, nil)
				engine.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testEngineArg)).
					Times(1).
					Return(domain.ErrOptimisticConflict)
				repo.EXPECT().
					SetStatus(gomock.Any(), gomock.Eq(testTransfer.ID), gomock.Eq(domain.StatusFailed), gomock.Eq(domain.ErrOptimisticConflict.Error()), gomock.Eq(testTransfer.Version)).
					Times(1).
					Return(failed(domain.ErrOptimisticConflict.Error()), nil)
			},
			wantTransfer: failed(domain.ErrOptimisticConflict.Error()),
			wantErr:      domain.ErrOptimisticConflict,
		},
		{
			// Even when recording the failure fails, the caller still gets
			// the original engine error, not the audit write error.
			name: "FailedAuditWriteFails",
			buildStubs: func(repo *MockRepo, engine *MockEngine) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Eq(testTransfer.ID)).
					Times(1).
					Return(testTransfer, nil)
				engine.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testEngineArg)).
					Times(1).
					Return(domain.ErrInsufficientBalance)
				repo.EXPECT().
					SetStatus(gomock.Any(), gomock.Eq(testTransfer.ID), gomock.Eq(domain.StatusFailed), gomock.Any(), gomock.Eq(testTransfer.Version)).
					Times(1).
					Return(domain.Transfer{}, errorspkg.ErrInternal)
			},
			wantTransfer: testTransfer,
			wantErr:      domain.ErrInsufficientBalance,
		},
		{
			name: "ExecutedAuditWriteFails",
			buildStubs: func(repo *MockRepo, engine *MockEngine) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Eq(testTransfer.ID)).
					Times(1).
					Return(testTransfer, nil)
				engine.EXPECT().
					Transfer(gomock.Any(), gomock.Eq(testEngineArg)).
					Times(1).
					Return(nil)
				repo.EXPECT().
					SetStatus(gomock.Any(), gomock.Eq(testTransfer.ID), gomock.Eq(domain.StatusExecuted), gomock.Eq(""), gomock.Eq(testTransfer.Version)).
					Times(1).
					Return(domain.Transfer{}, errorspkg.ErrInternal)
			},
			wantTransfer: testTransfer,
			wantErr:      errorspkg.ErrInternal,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			engine := NewMockEngine(ctrl)
			tc.buildStubs(repo, engine)

			transfer, err := New(repo, engine).Execute(context.Background(), testTransfer.ID)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, tc.wantTransfer, transfer)
		})
	}
}

func TestGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := NewMockRepo(ctrl)
	engine := NewMockEngine(ctrl)

	testTransfer := pendingTransfer(1, "100")

	repo.EXPECT().
		Get(gomock.Any(), gomock.Eq(testTransfer.ID)).
		Times(1).
		Return(testTransfer, nil)

	transfer, err := New(repo, engine).Get(context.Background(), testTransfer.ID)
	require.NoError(t, err)
	require.Equal(t, testTransfer, transfer)
}

func TestList(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := NewMockRepo(ctrl)
	engine := NewMockEngine(ctrl)

	testTransfers := []domain.Transfer{
		pendingTransfer(1, "100"),
		pendingTransfer(2, "200"),
	}

	repo.EXPECT().
		List(gomock.Any()).
		Times(1).
		Return(testTransfers, nil)

	transfers, err := New(repo, engine).List(context.Background())
	require.NoError(t, err)
	require.Equal(t, testTransfers, transfers)
}
