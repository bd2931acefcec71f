package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
	"github.com/iho/cardledger/internal/usecase/mocks"
)

type fundingFixture struct {
	userRepo   *mocks.MockUserRepository
	ledgerRepo *mocks.MockLedgerRepository
	processor  *mocks.MockCryptoProcessor
	txManager  *mocks.MockTransactionManager
	idemStore  *mocks.MockIdempotencyStore
	funding    *usecase.FundingUseCase
}

func newFundingFixture(t *testing.T) *fundingFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	tierService := mocks.NewMockTierService(ctrl)
	tierService.EXPECT().GetUserTierInfo(gomock.Any(), gomock.Any()).Return(standardTier(), nil).AnyTimes()

	userRepo := mocks.NewMockUserRepository()
	ledgerRepo := mocks.NewMockLedgerRepository()
	feeRepo := mocks.NewMockMonthlyFeeRepository()
	processor := &mocks.MockCryptoProcessor{}
	txManager := mocks.NewMockTransactionManager()
	idemStore := mocks.NewMockIdempotencyStore()
	idGen := mocks.NewMockIDGenerator()

	pricing := usecase.NewPricingUseCase(
		userRepo, ledgerRepo, feeRepo, tierService,
		idGen, nil, zerolog.Nop(), nil,
	)

	funding := usecase.NewFundingUseCase(
		txManager, userRepo, ledgerRepo, pricing, processor,
		idemStore, &mocks.MockRetrier{}, idGen, zerolog.Nop(), nil,
	)

	return &fundingFixture{
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		processor:  processor,
		txManager:  txManager,
		idemStore:  idemStore,
		funding:    funding,
	}
}

func (f *fundingFixture) seedUser(id, balance string) {
	f.userRepo.AddUser(&domain.User{
		ID:      id,
		Email:   id + "@example.com",
		TierID:  "standard",
		Role:    domain.RoleUser,
		Balance: decimal.RequireFromString(balance),
		Active:  true,
	})
}

func TestFundingUseCase_ConfirmDeposit(t *testing.T) {
	t.Run("credits net and writes both entries", func(t *testing.T) {
		f := newFundingFixture(t)
		f.seedUser("user-1", "0")

		result, err := f.funding.ConfirmDeposit(context.Background(), usecase.ConfirmDepositInput{
			UserID:      "user-1",
			ProviderRef: "dep-1",
			Asset:       "USDT",
			GrossAmount: decimal.NewFromInt(1000),
		})
		require.NoError(t, err)
		require.NotNil(t, result)

		// 2% tier fee: 20 off the top, 980 credited.
		assert.True(t, result.FeeAmount.Equal(decimal.NewFromInt(20)))
		assert.True(t, result.NetAmount.Equal(decimal.NewFromInt(980)))
		assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(980)))
		assert.True(t, f.userRepo.Balance("user-1").Equal(decimal.NewFromInt(980)))

		entries := f.ledgerRepo.EntriesFor("user-1")
		require.Len(t, entries, 2)

		assert.Equal(t, domain.TransactionTypeDeposit, entries[0].Type)
		assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, domain.TransactionTypeDepositFee, entries[1].Type)
		assert.True(t, entries[1].Amount.Equal(decimal.NewFromInt(-20)))

		// Entries chain through the intermediate gross balance.
		assert.True(t, entries[0].BalanceAfter.Equal(entries[1].BalanceBefore))
		assert.True(t, entries[1].BalanceAfter.Equal(decimal.NewFromInt(980)))

		require.NotNil(t, f.txManager.Last)
		assert.True(t, f.txManager.Last.Committed)
	})

	t.Run("duplicate settlement is ignored", func(t *testing.T) {
		f := newFundingFixture(t)
		f.seedUser("user-1", "0")

		input := usecase.ConfirmDepositInput{
			UserID:      "user-1",
			ProviderRef: "dep-1",
			GrossAmount: decimal.NewFromInt(100),
		}

		first, err := f.funding.ConfirmDeposit(context.Background(), input)
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := f.funding.ConfirmDeposit(context.Background(), input)
		require.NoError(t, err)
		assert.Nil(t, second)

		assert.True(t, f.userRepo.Balance("user-1").Equal(decimal.NewFromInt(98)))
		assert.Len(t, f.ledgerRepo.EntriesFor("user-1"), 2)
	})

	t.Run("redelivery after transient failure credits the deposit", func(t *testing.T) {
		f := newFundingFixture(t)
		f.seedUser("user-1", "0")

		input := usecase.ConfirmDepositInput{
			UserID:      "user-1",
			ProviderRef: "dep-1",
			GrossAmount: decimal.NewFromInt(1000),
		}

		beginErr := errors.New("connection reset")
		f.txManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
			return nil, beginErr
		}

		_, err := f.funding.ConfirmDeposit(context.Background(), input)
		require.ErrorIs(t, err, beginErr)

		// The failed attempt must release its reservation.
		_, held := f.idemStore.Value("deposit:dep-1")
		assert.False(t, held)

		f.txManager.BeginFunc = nil

		result, err := f.funding.ConfirmDeposit(context.Background(), input)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.True(t, result.NetAmount.Equal(decimal.NewFromInt(980)))
		assert.True(t, f.userRepo.Balance("user-1").Equal(decimal.NewFromInt(980)))
		assert.Len(t, f.ledgerRepo.EntriesFor("user-1"), 2)

		value, held := f.idemStore.Value("deposit:dep-1")
		require.True(t, held)
		assert.Equal(t, "settled", string(value))
	})

	t.Run("concurrent settlement in flight is not a duplicate", func(t *testing.T) {
		f := newFundingFixture(t)
		f.seedUser("user-1", "0")

		_, _, err := f.idemStore.CheckAndSet(context.Background(), "deposit:dep-1", nil, usecase.IdempotencyKeyTTL)
		require.NoError(t, err)

		_, err = f.funding.ConfirmDeposit(context.Background(), usecase.ConfirmDepositInput{
			UserID:      "user-1",
			ProviderRef: "dep-1",
			GrossAmount: decimal.NewFromInt(100),
		})
		assert.ErrorIs(t, err, domain.ErrDepositInFlight)
		assert.True(t, f.userRepo.Balance("user-1").IsZero())
		assert.Empty(t, f.ledgerRepo.EntriesFor("user-1"))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		f := newFundingFixture(t)
		f.seedUser("user-1", "0")

		_, err := f.funding.ConfirmDeposit(context.Background(), usecase.ConfirmDepositInput{
			UserID:      "user-1",
			ProviderRef: "dep-1",
			GrossAmount: decimal.Zero,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestFundingUseCase_RequestWithdrawal(t *testing.T) {
	t.Run("debits amount plus fee and submits payout", func(t *testing.T) {
		f := newFundingFixture(t)
		f.seedUser("user-1", "2000")

		result, err := f.funding.RequestWithdrawal(context.Background(), usecase.RequestWithdrawalInput{
			UserID:      "user-1",
			Destination: "0xabc",
			Asset:       "USDT",
			Amount:      decimal.NewFromInt(1000),
		})
		require.NoError(t, err)

		// 1.5% on top: 1015 leaves the balance.
		assert.True(t, result.TotalDebit.Equal(decimal.NewFromInt(1015)))
		assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(985)))
		assert.NotEmpty(t, result.ProviderRef)
		assert.True(t, f.userRepo.Balance("user-1").Equal(decimal.NewFromInt(985)))

		entries := f.ledgerRepo.EntriesFor("user-1")
		require.Len(t, entries, 2)
		assert.Equal(t, domain.TransactionTypeWithdrawal, entries[0].Type)
		assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(-1000)))
		assert.Equal(t, domain.TransactionTypeFee, entries[1].Type)
		assert.True(t, entries[1].Amount.Equal(decimal.NewFromInt(-15)))
	})

	t.Run("insufficient balance including fee", func(t *testing.T) {
		f := newFundingFixture(t)
		f.seedUser("user-1", "1000")

		_, err := f.funding.RequestWithdrawal(context.Background(), usecase.RequestWithdrawalInput{
			UserID:      "user-1",
			Destination: "0xabc",
			Amount:      decimal.NewFromInt(1000),
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		assert.True(t, f.userRepo.Balance("user-1").Equal(decimal.NewFromInt(1000)))
	})

	t.Run("failed payout refunds the debit", func(t *testing.T) {
		f := newFundingFixture(t)
		f.seedUser("user-1", "2000")

		payoutErr := errors.New("processor rejected payout")
		f.processor.CreatePayoutFunc = func(ctx context.Context, req usecase.PayoutRequest) (*usecase.Payout, error) {
			return nil, payoutErr
		}

		_, err := f.funding.RequestWithdrawal(context.Background(), usecase.RequestWithdrawalInput{
			UserID:      "user-1",
			Destination: "0xabc",
			Amount:      decimal.NewFromInt(1000),
		})
		assert.ErrorIs(t, err, payoutErr)
		assert.True(t, f.userRepo.Balance("user-1").Equal(decimal.NewFromInt(2000)))

		entries := f.ledgerRepo.EntriesFor("user-1")
		require.Len(t, entries, 3)
		assert.Equal(t, domain.TransactionTypeRefund, entries[2].Type)
		assert.True(t, entries[2].Amount.Equal(decimal.NewFromInt(1015)))
	})
}

func TestFundingUseCase_CreateDepositAddress(t *testing.T) {
	f := newFundingFixture(t)
	f.seedUser("user-1", "0")

	address, err := f.funding.CreateDepositAddress(context.Background(), "user-1", "USDT")
	require.NoError(t, err)
	assert.Equal(t, "addr-user-1", address.Address)

	_, err = f.funding.CreateDepositAddress(context.Background(), "ghost", "USDT")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
