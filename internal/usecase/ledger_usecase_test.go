package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
	"github.com/iho/cardledger/internal/usecase/mocks"
)

func ledgerEntry(id, userID, amount, before string, at time.Time) *domain.LedgerEntry {
	amt := decimal.RequireFromString(amount)
	bef := decimal.RequireFromString(before)

	return &domain.LedgerEntry{
		ID:            id,
		UserID:        userID,
		Type:          domain.TransactionTypeAdjustment,
		Amount:        amt,
		BalanceBefore: bef,
		BalanceAfter:  bef.Add(amt),
		CreatedAt:     at,
	}
}

func TestLedgerUseCase_Append(t *testing.T) {
	ledgerRepo := mocks.NewMockLedgerRepository()
	uc := usecase.NewLedgerUseCase(ledgerRepo)

	now := time.Now().UTC()

	t.Run("valid entry", func(t *testing.T) {
		require.NoError(t, uc.Append(context.Background(), ledgerEntry("e-1", "user-1", "100", "0", now)))
		assert.Len(t, ledgerRepo.EntriesFor("user-1"), 1)
	})

	t.Run("rejects inconsistent snapshots", func(t *testing.T) {
		entry := ledgerEntry("e-2", "user-1", "100", "0", now)
		entry.BalanceAfter = decimal.NewFromInt(42)

		assert.ErrorIs(t, uc.Append(context.Background(), entry), domain.ErrLedgerSnapshotMismatch)
		assert.Len(t, ledgerRepo.EntriesFor("user-1"), 1)
	})
}

func TestLedgerUseCase_GetUserBalanceSummary(t *testing.T) {
	ledgerRepo := mocks.NewMockLedgerRepository()
	uc := usecase.NewLedgerUseCase(ledgerRepo)

	base := time.Now().UTC()
	ctx := context.Background()

	require.NoError(t, ledgerRepo.Append(ctx, ledgerEntry("e-1", "user-1", "200", "0", base)))
	require.NoError(t, ledgerRepo.Append(ctx, ledgerEntry("e-2", "user-1", "-50", "200", base.Add(time.Minute))))

	summary, err := uc.GetUserBalanceSummary(ctx, "user-1")
	require.NoError(t, err)

	assert.True(t, summary.TotalCredits.Equal(decimal.NewFromInt(200)))
	assert.True(t, summary.TotalDebits.Equal(decimal.NewFromInt(50)))
	assert.True(t, summary.NetAmount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 2, summary.TransactionCount)
}

func TestLedgerUseCase_LatestBalance(t *testing.T) {
	ledgerRepo := mocks.NewMockLedgerRepository()
	uc := usecase.NewLedgerUseCase(ledgerRepo)
	ctx := context.Background()

	t.Run("no entries yields nil", func(t *testing.T) {
		balance, err := uc.LatestBalance(ctx, "user-1")
		require.NoError(t, err)
		assert.Nil(t, balance)
	})

	t.Run("latest after snapshot", func(t *testing.T) {
		base := time.Now().UTC()
		require.NoError(t, ledgerRepo.Append(ctx, ledgerEntry("e-1", "user-1", "100", "0", base)))
		require.NoError(t, ledgerRepo.Append(ctx, ledgerEntry("e-2", "user-1", "-30", "100", base.Add(time.Minute))))

		balance, err := uc.LatestBalance(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, balance)
		assert.True(t, balance.Equal(decimal.NewFromInt(70)), "balance = %s", balance)
	})
}

func TestLedgerUseCase_ListEntriesByUser_CapsLimit(t *testing.T) {
	ledgerRepo := mocks.NewMockLedgerRepository()
	uc := usecase.NewLedgerUseCase(ledgerRepo)
	ctx := context.Background()

	base := time.Now().UTC()
	balance := decimal.Zero
	for i := 0; i < 150; i++ {
		entry := &domain.LedgerEntry{
			ID:            "e-" + time.Duration(i).String(),
			UserID:        "user-1",
			Type:          domain.TransactionTypeDeposit,
			Amount:        decimal.NewFromInt(1),
			BalanceBefore: balance,
			BalanceAfter:  balance.Add(decimal.NewFromInt(1)),
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		}
		balance = entry.BalanceAfter
		require.NoError(t, ledgerRepo.Append(ctx, entry))
	}

	entries, err := uc.ListEntriesByUser(ctx, usecase.ListEntriesByUserInput{UserID: "user-1", Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, entries, 100)

	entries, err = uc.ListEntriesByUser(ctx, usecase.ListEntriesByUserInput{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}
