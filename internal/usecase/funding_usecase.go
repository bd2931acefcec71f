package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
)

// FundingUseCase handles crypto deposits and withdrawals through the payment
// processor. Deposits are confirmed asynchronously by webhook events;
// withdrawals are debited up front and compensated if the payout fails.
type FundingUseCase struct {
	txManager   TransactionManager
	userRepo    UserRepository
	ledgerRepo  LedgerRepository
	pricing     *PricingUseCase
	processor   CryptoProcessor
	idempotency IdempotencyStore
	retrier     Retrier
	idGen       IDGenerator
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewFundingUseCase creates a new FundingUseCase. retrier, idempotency and
// metrics may be nil.
func NewFundingUseCase(
	txManager TransactionManager,
	userRepo UserRepository,
	ledgerRepo LedgerRepository,
	pricing *PricingUseCase,
	processor CryptoProcessor,
	idempotency IdempotencyStore,
	retrier Retrier,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *FundingUseCase {
	return &FundingUseCase{
		txManager:   txManager,
		userRepo:    userRepo,
		ledgerRepo:  ledgerRepo,
		pricing:     pricing,
		processor:   processor,
		idempotency: idempotency,
		retrier:     retrier,
		idGen:       idGen,
		logger:      logger,
		metrics:     metrics,
	}
}

// CreateDepositAddress provisions a deposit address for the user.
func (uc *FundingUseCase) CreateDepositAddress(ctx context.Context, userID, asset string) (*DepositAddress, error) {
	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	return uc.processor.CreateDepositAddress(ctx, userID, asset)
}

// ConfirmDepositInput represents a settled deposit reported by the processor.
type ConfirmDepositInput struct {
	UserID      string
	ProviderRef string
	Asset       string
	GrossAmount decimal.Decimal
}

// DepositResult reports a credited deposit.
type DepositResult struct {
	GrossAmount decimal.Decimal
	FeeAmount   decimal.Decimal
	NetAmount   decimal.Decimal
	NewBalance  decimal.Decimal
}

// ConfirmDeposit credits the net deposit amount and writes the deposit and
// deposit_fee ledger entries in one transaction. Settlement events are
// delivered at-least-once, so the provider reference deduplicates repeats;
// a duplicate returns a nil result and no error. The key is reserved with a
// placeholder before the credit and only marked settled after the commit, so
// a transient failure releases the reservation and the redelivery still
// credits the deposit.
func (uc *FundingUseCase) ConfirmDeposit(ctx context.Context, input ConfirmDepositInput) (*DepositResult, error) {
	if err := domain.ValidateAmount(input.GrossAmount); err != nil {
		return nil, err
	}

	idemKey := "deposit:" + input.ProviderRef

	if uc.idempotency != nil {
		seen, existing, err := uc.idempotency.CheckAndSet(ctx, idemKey, nil, IdempotencyKeyTTL)
		if err != nil {
			return nil, err
		}

		if seen {
			if string(existing) == "processing" {
				return nil, domain.ErrDepositInFlight
			}

			uc.logger.Info().Str("provider_ref", input.ProviderRef).Msg("duplicate deposit settlement ignored")
			return nil, nil
		}
	}

	result, err := uc.creditDeposit(ctx, input)

	if uc.idempotency != nil {
		if err != nil {
			if delErr := uc.idempotency.Delete(ctx, idemKey); delErr != nil {
				uc.logger.Error().Err(delErr).
					Str("provider_ref", input.ProviderRef).
					Msg("failed to release deposit idempotency key")
			}
		} else if updErr := uc.idempotency.Update(ctx, idemKey, []byte("settled"), IdempotencyKeyTTL); updErr != nil {
			uc.logger.Warn().Err(updErr).
				Str("provider_ref", input.ProviderRef).
				Msg("deposit credited but idempotency key not finalized")
		}
	}

	return result, err
}

func (uc *FundingUseCase) creditDeposit(ctx context.Context, input ConfirmDepositInput) (*DepositResult, error) {
	feeCalc, err := uc.pricing.ApplyDepositFee(ctx, input.UserID, input.GrossAmount)
	if err != nil {
		return nil, err
	}

	var newBalance decimal.Decimal

	credit := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		newBalance, err = uc.userRepo.AdjustBalanceTx(txCtx, tx, input.UserID, feeCalc.NetAmount, BalanceAdd)
		if err != nil {
			return err
		}

		balanceBefore := newBalance.Sub(feeCalc.NetAmount)
		now := time.Now().UTC()

		depositEntry := &domain.LedgerEntry{
			ID:            uc.idGen.Generate(),
			UserID:        input.UserID,
			Type:          domain.TransactionTypeDeposit,
			Amount:        feeCalc.GrossAmount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceBefore.Add(feeCalc.GrossAmount),
			ReferenceType: "crypto_deposit",
			ReferenceID:   input.ProviderRef,
			Description:   "Crypto deposit (" + input.Asset + ")",
			CreatedAt:     now,
		}

		if err := depositEntry.Validate(); err != nil {
			return err
		}

		if err := uc.ledgerRepo.AppendTx(txCtx, tx, depositEntry); err != nil {
			return err
		}

		if feeCalc.FeeAmount.IsPositive() {
			feeEntry := &domain.LedgerEntry{
				ID:            uc.idGen.Generate(),
				UserID:        input.UserID,
				Type:          domain.TransactionTypeDepositFee,
				Amount:        feeCalc.FeeAmount.Neg(),
				BalanceBefore: depositEntry.BalanceAfter,
				BalanceAfter:  newBalance,
				ReferenceType: "crypto_deposit",
				ReferenceID:   input.ProviderRef,
				Description:   "Deposit fee",
				CreatedAt:     now,
			}

			if err := feeEntry.Validate(); err != nil {
				return err
			}

			if err := uc.ledgerRepo.AppendTx(txCtx, tx, feeEntry); err != nil {
				return err
			}
		}

		return tx.Commit(txCtx)
	}

	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, credit)
	} else {
		err = credit()
	}

	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DepositsSettled.Inc()
		amount, _ := feeCalc.GrossAmount.Float64()
		uc.metrics.DepositAmount.Observe(amount)
	}

	return &DepositResult{
		GrossAmount: feeCalc.GrossAmount,
		FeeAmount:   feeCalc.FeeAmount,
		NetAmount:   feeCalc.NetAmount,
		NewBalance:  newBalance,
	}, nil
}

// RequestWithdrawalInput represents a withdrawal request.
type RequestWithdrawalInput struct {
	UserID      string
	Destination string
	Asset       string
	Amount      decimal.Decimal
}

// WithdrawalResult reports a submitted withdrawal.
type WithdrawalResult struct {
	ProviderRef string
	Amount      decimal.Decimal
	FeeAmount   decimal.Decimal
	TotalDebit  decimal.Decimal
	NewBalance  decimal.Decimal
}

// RequestWithdrawal debits the amount plus the additive withdrawal fee, then
// submits the payout. A failed payout is compensated with a refund credit.
func (uc *FundingUseCase) RequestWithdrawal(ctx context.Context, input RequestWithdrawalInput) (*WithdrawalResult, error) {
	feeCalc, err := uc.pricing.CalculateWithdrawalFee(ctx, input.UserID, input.Amount)
	if err != nil {
		return nil, err
	}

	newBalance, err := uc.debitWithdrawal(ctx, input, feeCalc)
	if err != nil {
		return nil, err
	}

	payout, err := uc.processor.CreatePayout(ctx, PayoutRequest{
		UserID:      input.UserID,
		Destination: input.Destination,
		Asset:       input.Asset,
		Amount:      input.Amount,
	})
	if err != nil {
		uc.refundWithdrawal(ctx, input.UserID, feeCalc.TotalAmount)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WithdrawalsRequested.Inc()
	}

	return &WithdrawalResult{
		ProviderRef: payout.ProviderRef,
		Amount:      input.Amount,
		FeeAmount:   feeCalc.FeeAmount,
		TotalDebit:  feeCalc.TotalAmount,
		NewBalance:  newBalance,
	}, nil
}

func (uc *FundingUseCase) debitWithdrawal(ctx context.Context, input RequestWithdrawalInput, feeCalc *domain.WithdrawalFee) (decimal.Decimal, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return decimal.Zero, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	newBalance, err := uc.userRepo.AdjustBalanceTx(txCtx, tx, input.UserID, feeCalc.TotalAmount, BalanceSubtract)
	if err != nil {
		return decimal.Zero, err
	}

	now := time.Now().UTC()
	balanceBefore := newBalance.Add(feeCalc.TotalAmount)

	withdrawalEntry := &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		UserID:        input.UserID,
		Type:          domain.TransactionTypeWithdrawal,
		Amount:        feeCalc.GrossAmount.Neg(),
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore.Sub(feeCalc.GrossAmount),
		ReferenceType: "crypto_withdrawal",
		ReferenceID:   input.Destination,
		Description:   "Crypto withdrawal (" + input.Asset + ")",
		CreatedAt:     now,
	}

	if err := withdrawalEntry.Validate(); err != nil {
		return decimal.Zero, err
	}

	if err := uc.ledgerRepo.AppendTx(txCtx, tx, withdrawalEntry); err != nil {
		return decimal.Zero, err
	}

	if feeCalc.FeeAmount.IsPositive() {
		feeEntry := &domain.LedgerEntry{
			ID:            uc.idGen.Generate(),
			UserID:        input.UserID,
			Type:          domain.TransactionTypeFee,
			Amount:        feeCalc.FeeAmount.Neg(),
			BalanceBefore: withdrawalEntry.BalanceAfter,
			BalanceAfter:  newBalance,
			ReferenceType: "crypto_withdrawal",
			ReferenceID:   input.Destination,
			Description:   "Withdrawal fee",
			CreatedAt:     now,
		}

		if err := feeEntry.Validate(); err != nil {
			return decimal.Zero, err
		}

		if err := uc.ledgerRepo.AppendTx(txCtx, tx, feeEntry); err != nil {
			return decimal.Zero, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return decimal.Zero, err
	}

	return newBalance, nil
}

// refundWithdrawal compensates a failed payout. A refund that itself fails is
// logged for manual reconciliation; there is nothing safe left to do inline.
func (uc *FundingUseCase) refundWithdrawal(ctx context.Context, userID string, total decimal.Decimal) {
	newBalance, err := uc.userRepo.AdjustBalance(ctx, userID, total, BalanceAdd)
	if err != nil {
		uc.logger.Error().Err(err).
			Str("user_id", userID).
			Str("amount", total.String()).
			Msg("failed to refund aborted withdrawal")

		return
	}

	entry := &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		UserID:        userID,
		Type:          domain.TransactionTypeRefund,
		Amount:        total,
		BalanceBefore: newBalance.Sub(total),
		BalanceAfter:  newBalance,
		ReferenceType: "crypto_withdrawal",
		Description:   "Refund of aborted withdrawal",
		CreatedAt:     time.Now().UTC(),
	}

	if err := uc.ledgerRepo.Append(ctx, entry); err != nil {
		uc.logger.Error().Err(err).
			Str("user_id", userID).
			Str("entry_id", entry.ID).
			Msg("withdrawal refunded but ledger append failed")
	}
}
