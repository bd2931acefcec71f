package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
	"github.com/iho/cardledger/internal/usecase/mocks"
)

func TestReconciliationUseCase_CheckUser(t *testing.T) {
	ctx := context.Background()
	base := time.Now().UTC()

	t.Run("consistent user", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		ledgerRepo := mocks.NewMockLedgerRepository()
		uc := usecase.NewReconciliationUseCase(userRepo, ledgerRepo, zerolog.Nop())

		userRepo.AddUser(&domain.User{ID: "user-1", Balance: decimal.NewFromInt(70)})
		require.NoError(t, ledgerRepo.Append(ctx, ledgerEntry("e-1", "user-1", "100", "0", base)))
		require.NoError(t, ledgerRepo.Append(ctx, ledgerEntry("e-2", "user-1", "-30", "100", base.Add(time.Minute))))

		check, err := uc.CheckUser(ctx, "user-1")
		require.NoError(t, err)

		assert.True(t, check.Consistent())
		assert.True(t, check.Drift.IsZero())
		assert.Equal(t, 2, check.EntryCount)
	})

	t.Run("drift from a missing ledger entry", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		ledgerRepo := mocks.NewMockLedgerRepository()
		uc := usecase.NewReconciliationUseCase(userRepo, ledgerRepo, zerolog.Nop())

		// Balance moved by 10 more than the ledger accounts for, the
		// signature of a debit whose append failed.
		userRepo.AddUser(&domain.User{ID: "user-1", Balance: decimal.NewFromInt(90)})
		require.NoError(t, ledgerRepo.Append(ctx, ledgerEntry("e-1", "user-1", "100", "0", base)))

		check, err := uc.CheckUser(ctx, "user-1")
		require.NoError(t, err)

		assert.False(t, check.Consistent())
		assert.True(t, check.ChainIntact)
		assert.True(t, check.Drift.Equal(decimal.NewFromInt(-10)), "drift = %s", check.Drift)
	})

	t.Run("broken chain", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		ledgerRepo := mocks.NewMockLedgerRepository()
		uc := usecase.NewReconciliationUseCase(userRepo, ledgerRepo, zerolog.Nop())

		userRepo.AddUser(&domain.User{ID: "user-1", Balance: decimal.NewFromInt(50)})
		require.NoError(t, ledgerRepo.Append(ctx, ledgerEntry("e-1", "user-1", "100", "0", base)))
		// Gap: previous after was 100, this one claims before of 80.
		require.NoError(t, ledgerRepo.Append(ctx, ledgerEntry("e-2", "user-1", "-30", "80", base.Add(time.Minute))))

		check, err := uc.CheckUser(ctx, "user-1")
		require.NoError(t, err)

		assert.False(t, check.ChainIntact)
		assert.False(t, check.Consistent())
	})

	t.Run("no entries and zero balance is consistent", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		uc := usecase.NewReconciliationUseCase(userRepo, mocks.NewMockLedgerRepository(), zerolog.Nop())

		userRepo.AddUser(&domain.User{ID: "user-1", Balance: decimal.Zero})

		check, err := uc.CheckUser(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, check.Consistent())
	})
}

func TestReconciliationUseCase_CheckAll(t *testing.T) {
	ctx := context.Background()
	base := time.Now().UTC()

	userRepo := mocks.NewMockUserRepository()
	ledgerRepo := mocks.NewMockLedgerRepository()
	uc := usecase.NewReconciliationUseCase(userRepo, ledgerRepo, zerolog.Nop())

	userRepo.AddUser(&domain.User{ID: "user-1", Balance: decimal.NewFromInt(100)})
	require.NoError(t, ledgerRepo.Append(ctx, ledgerEntry("e-1", "user-1", "100", "0", base)))

	userRepo.AddUser(&domain.User{ID: "user-2", Balance: decimal.NewFromInt(999)})

	report, err := uc.CheckAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.UsersChecked)
	require.Len(t, report.Inconsistent, 1)
	assert.Equal(t, "user-2", report.Inconsistent[0].UserID)
}
