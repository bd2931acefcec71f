package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
)

// PricingUseCase is the fee billing engine. It computes tier-based fees,
// applies them against user balances with ledger entries, schedules recurring
// monthly card fees, and settles batches of due fees.
//
// Balance mutations go through the repository's atomic adjust primitive; the
// ledger entry for a mutation is written afterwards. A failed ledger append
// is logged and surfaced to reconciliation, never rolled back: the balance is
// the source of truth and a missing entry is a recoverable gap.
type PricingUseCase struct {
	userRepo    UserRepository
	ledgerRepo  LedgerRepository
	feeRepo     MonthlyFeeRepository
	tierService TierService
	idGen       IDGenerator
	locker      BillingLocker
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewPricingUseCase creates a new PricingUseCase. locker and metrics may be
// nil; serialization then relies solely on the conditional balance update.
func NewPricingUseCase(
	userRepo UserRepository,
	ledgerRepo LedgerRepository,
	feeRepo MonthlyFeeRepository,
	tierService TierService,
	idGen IDGenerator,
	locker BillingLocker,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *PricingUseCase {
	return &PricingUseCase{
		userRepo:    userRepo,
		ledgerRepo:  ledgerRepo,
		feeRepo:     feeRepo,
		tierService: tierService,
		idGen:       idGen,
		locker:      locker,
		logger:      logger,
		metrics:     metrics,
	}
}

// CalculateCardCreationFee quotes the card fees for the user's tier.
func (uc *PricingUseCase) CalculateCardCreationFee(ctx context.Context, userID string) (*domain.CardFees, error) {
	tier, err := uc.tierService.GetUserTierInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.CardFees{
		CreationFee: tier.CardCreationFee,
		MonthlyFee:  tier.CardMonthlyFee,
		TierName:    tier.DisplayName,
		TierLevel:   tier.Level,
	}, nil
}

// CalculateDepositFee computes the fee taken out of a deposit.
func (uc *PricingUseCase) CalculateDepositFee(ctx context.Context, userID string, amount decimal.Decimal) (*domain.DepositFee, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	tier, err := uc.tierService.GetUserTierInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	fee := domain.PercentageFee(amount, tier.DepositFeePercentage)

	return &domain.DepositFee{
		GrossAmount:   amount,
		FeeAmount:     fee,
		NetAmount:     amount.Sub(fee),
		FeePercentage: tier.DepositFeePercentage,
	}, nil
}

// CalculateWithdrawalFee computes the fee charged on top of a withdrawal.
func (uc *PricingUseCase) CalculateWithdrawalFee(ctx context.Context, userID string, amount decimal.Decimal) (*domain.WithdrawalFee, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	tier, err := uc.tierService.GetUserTierInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	fee := domain.PercentageFee(amount, tier.WithdrawalFeePercentage)

	return &domain.WithdrawalFee{
		GrossAmount:   amount,
		FeeAmount:     fee,
		TotalAmount:   amount.Add(fee),
		FeePercentage: tier.WithdrawalFeePercentage,
	}, nil
}

// ApplyDepositFee is the pure computation envelope for deposit crediting.
// The actual balance credit belongs to the deposit flow.
func (uc *PricingUseCase) ApplyDepositFee(ctx context.Context, userID string, amount decimal.Decimal) (*domain.DepositFee, error) {
	return uc.CalculateDepositFee(ctx, userID, amount)
}

// CardCreationFeeResult reports an applied card creation fee.
type CardCreationFeeResult struct {
	LedgerEntryID string
	FeeApplied    decimal.Decimal
	NewBalance    decimal.Decimal
}

// ApplyCardCreationFee debits the creation fee from the user's balance and
// appends a card_creation_fee ledger entry. cardID may be empty when the fee
// is charged before the card row exists.
func (uc *PricingUseCase) ApplyCardCreationFee(ctx context.Context, userID, cardID string) (*CardCreationFeeResult, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fees, err := uc.CalculateCardCreationFee(ctx, userID)
	if err != nil {
		return nil, err
	}

	if fees.CreationFee.LessThanOrEqual(decimal.Zero) {
		return &CardCreationFeeResult{
			FeeApplied: decimal.Zero,
			NewBalance: user.Balance,
		}, nil
	}

	if !user.HasBalanceFor(fees.CreationFee) {
		return nil, domain.ErrInsufficientBalance
	}

	newBalance, err := uc.userRepo.AdjustBalance(ctx, userID, fees.CreationFee, BalanceSubtract)
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		UserID:        userID,
		Type:          domain.TransactionTypeCardCreationFee,
		Amount:        fees.CreationFee.Neg(),
		BalanceBefore: newBalance.Add(fees.CreationFee),
		BalanceAfter:  newBalance,
		ReferenceType: "card_creation",
		ReferenceID:   cardID,
		Description:   "Card creation fee (" + fees.TierName + ")",
		Metadata: map[string]any{
			"tier_name":  fees.TierName,
			"tier_level": fees.TierLevel,
		},
		CreatedAt: time.Now().UTC(),
	}

	result := &CardCreationFeeResult{
		FeeApplied: fees.CreationFee,
		NewBalance: newBalance,
	}

	// The debit is already committed. A failed append leaves a
	// reconciliation gap, not a failed charge.
	if err := uc.appendEntry(ctx, entry); err != nil {
		uc.logger.Error().Err(err).
			Str("user_id", userID).
			Str("entry_id", entry.ID).
			Msg("card creation fee debited but ledger append failed")

		return result, nil
	}

	result.LedgerEntryID = entry.ID

	return result, nil
}

// ScheduleMonthlyCardFee creates the pending fee record for the card's next
// billing month. Repeated calls within the same target month are no-ops, as
// are tiers with a non-positive monthly fee. The fee amount is locked in at
// schedule time so a mid-cycle tier change cannot alter an already-scheduled
// charge.
func (uc *PricingUseCase) ScheduleMonthlyCardFee(ctx context.Context, cardID, userID string) error {
	tier, err := uc.tierService.GetUserTierInfo(ctx, userID)
	if err != nil {
		return err
	}

	if tier.CardMonthlyFee.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	now := time.Now().UTC()
	billingMonth := domain.NextBillingMonth(now)

	record := &domain.MonthlyFeeRecord{
		ID:           uc.idGen.Generate(),
		CardID:       cardID,
		UserID:       userID,
		TierID:       tier.ID,
		FeeAmount:    tier.CardMonthlyFee,
		BillingMonth: billingMonth,
		DueDate:      domain.FeeDueDate(billingMonth),
		Status:       domain.MonthlyFeeStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := uc.feeRepo.CreateIfAbsent(ctx, record)
	if err != nil {
		return err
	}

	if created {
		uc.logger.Debug().
			Str("card_id", cardID).
			Str("user_id", userID).
			Time("billing_month", billingMonth).
			Str("amount", record.FeeAmount.String()).
			Msg("scheduled monthly card fee")
	}

	return nil
}

// BillingRunResult summarizes one user's pending-fee batch.
type BillingRunResult struct {
	Processed   int
	Failed      int
	TotalAmount decimal.Decimal
}

// ProcessPendingMonthlyFees settles every due pending fee for the user.
// Records are processed independently: an insufficient balance or unexpected
// failure marks that record failed and the batch continues. Only a failure to
// fetch the pending set aborts the run.
func (uc *PricingUseCase) ProcessPendingMonthlyFees(ctx context.Context, userID string) (*BillingRunResult, error) {
	if uc.locker != nil {
		release, err := uc.locker.Acquire(ctx, userID, BillingLockTTL)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	now := time.Now().UTC()

	fees, err := uc.feeRepo.FindPendingDue(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	result := &BillingRunResult{TotalAmount: decimal.Zero}

	for _, fee := range fees {
		charged, err := uc.chargeMonthlyFee(ctx, fee)
		if err != nil {
			uc.logger.Warn().Err(err).
				Str("user_id", userID).
				Str("fee_id", fee.ID).
				Str("card_id", fee.CardID).
				Msg("monthly fee charge failed")

			result.Failed++

			if uc.metrics != nil {
				uc.metrics.MonthlyFeesFailed.Inc()
			}

			continue
		}

		if !charged {
			result.Failed++

			if uc.metrics != nil {
				uc.metrics.MonthlyFeesFailed.Inc()
			}

			continue
		}

		result.Processed++
		result.TotalAmount = result.TotalAmount.Add(fee.FeeAmount)

		if uc.metrics != nil {
			uc.metrics.MonthlyFeesCharged.Inc()
		}
	}

	if uc.metrics != nil {
		uc.metrics.BillingRunDuration.Observe(time.Since(now).Seconds())
	}

	return result, nil
}

// chargeMonthlyFee settles a single pending fee. It returns false when the
// record was marked failed for insufficient balance or a missing user.
func (uc *PricingUseCase) chargeMonthlyFee(ctx context.Context, fee *domain.MonthlyFeeRecord) (bool, error) {
	now := time.Now().UTC()

	user, err := uc.userRepo.GetByID(ctx, fee.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, uc.feeRepo.MarkFailed(ctx, fee.ID, now)
		}

		return false, err
	}

	if !user.HasBalanceFor(fee.FeeAmount) {
		return false, uc.feeRepo.MarkFailed(ctx, fee.ID, now)
	}

	newBalance, err := uc.userRepo.AdjustBalance(ctx, fee.UserID, fee.FeeAmount, BalanceSubtract)
	if err != nil {
		// The balance moved between the read and the debit.
		if errors.Is(err, domain.ErrInsufficientBalance) {
			return false, uc.feeRepo.MarkFailed(ctx, fee.ID, now)
		}

		return false, err
	}

	entry := &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		UserID:        fee.UserID,
		Type:          domain.TransactionTypeCardMonthlyFee,
		Amount:        fee.FeeAmount.Neg(),
		BalanceBefore: newBalance.Add(fee.FeeAmount),
		BalanceAfter:  newBalance,
		ReferenceType: "card",
		ReferenceID:   fee.CardID,
		Description:   "Monthly card fee for " + fee.BillingMonth.Format("2006-01"),
		Metadata: map[string]any{
			"tier_id":       fee.TierID,
			"billing_month": fee.BillingMonth.Format(time.RFC3339),
		},
		CreatedAt: now,
	}

	ledgerEntryID := entry.ID
	if err := uc.appendEntry(ctx, entry); err != nil {
		// Same policy as the creation fee: the debit stands, the gap is
		// left to reconciliation.
		uc.logger.Error().Err(err).
			Str("user_id", fee.UserID).
			Str("fee_id", fee.ID).
			Msg("monthly fee debited but ledger append failed")

		ledgerEntryID = ""
	}

	if err := uc.feeRepo.MarkCharged(ctx, fee.ID, ledgerEntryID, now); err != nil {
		// The money already moved; losing the status flip is logged, not
		// undone. The conditional transition keeps a concurrent retry from
		// charging twice.
		uc.logger.Error().Err(err).
			Str("fee_id", fee.ID).
			Msg("failed to mark monthly fee charged")
	}

	return true, nil
}

// GetUserFeeSummary aggregates the user's fee schedule, what they owe in
// pending monthly fees, and what they paid in fees since the start of the
// current calendar month.
func (uc *PricingUseCase) GetUserFeeSummary(ctx context.Context, userID string) (*domain.FeeSummary, error) {
	tier, err := uc.tierService.GetUserTierInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	pending, err := uc.feeRepo.SumPendingByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	monthStart := domain.BillingMonthOf(time.Now().UTC())

	paid, err := uc.ledgerRepo.SumByTypesSince(ctx, userID, domain.FeeTransactionTypes, monthStart)
	if err != nil {
		return nil, err
	}

	return &domain.FeeSummary{
		TierName:                tier.DisplayName,
		CardCreationFee:         tier.CardCreationFee,
		CardMonthlyFee:          tier.CardMonthlyFee,
		DepositFeePercentage:    tier.DepositFeePercentage,
		WithdrawalFeePercentage: tier.WithdrawalFeePercentage,
		PendingMonthlyFees:      pending,
		FeesPaidThisMonth:       paid,
	}, nil
}

func (uc *PricingUseCase) appendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	if err := uc.ledgerRepo.Append(ctx, entry); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.LedgerEntriesCreated.WithLabelValues(string(entry.Type)).Inc()
	}

	return nil
}
