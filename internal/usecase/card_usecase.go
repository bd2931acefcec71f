package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
)

// CardUseCase handles virtual card issuance and provider sync.
type CardUseCase struct {
	cardRepo CardRepository
	userRepo UserRepository
	pricing  *PricingUseCase
	issuer   CardIssuer
	idGen    IDGenerator
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewCardUseCase creates a new CardUseCase.
func NewCardUseCase(
	cardRepo CardRepository,
	userRepo UserRepository,
	pricing *PricingUseCase,
	issuer CardIssuer,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *CardUseCase {
	return &CardUseCase{
		cardRepo: cardRepo,
		userRepo: userRepo,
		pricing:  pricing,
		issuer:   issuer,
		idGen:    idGen,
		logger:   logger,
		metrics:  metrics,
	}
}

// IssueCardInput represents input for issuing a card.
type IssueCardInput struct {
	UserID         string
	CardholderName string
	Currency       string
}

// IssueCard issues a virtual card through the provider, charges the creation
// fee, and schedules the card's first monthly fee.
func (uc *CardUseCase) IssueCard(ctx context.Context, input IssueCardInput) (*domain.Card, error) {
	user, err := uc.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, domain.ErrUserInactive
	}

	fees, err := uc.pricing.CalculateCardCreationFee(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	// Checked up front so we never issue a provider card we cannot charge
	// for. The fee application below re-checks atomically.
	if !user.HasBalanceFor(fees.CreationFee) {
		return nil, domain.ErrInsufficientBalance
	}

	issued, err := uc.issuer.IssueCard(ctx, IssueCardRequest{
		UserID:         input.UserID,
		CardholderName: input.CardholderName,
		Currency:       input.Currency,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	card := &domain.Card{
		ID:             uc.idGen.Generate(),
		UserID:         input.UserID,
		ProviderCardID: issued.ProviderCardID,
		Last4:          issued.Last4,
		Brand:          issued.Brand,
		Currency:       issued.Currency,
		Status:         issued.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.cardRepo.Create(ctx, card); err != nil {
		uc.terminateOrphan(ctx, issued.ProviderCardID)
		return nil, err
	}

	if _, err := uc.pricing.ApplyCardCreationFee(ctx, input.UserID, card.ID); err != nil {
		// The balance moved between the pre-check and the debit.
		uc.terminateOrphan(ctx, issued.ProviderCardID)

		if updateErr := uc.cardRepo.UpdateStatus(ctx, card.ID, domain.CardStatusTerminated, time.Now().UTC()); updateErr != nil {
			uc.logger.Error().Err(updateErr).Str("card_id", card.ID).Msg("failed to terminate unpaid card")
		}

		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.CardsIssued.Inc()
		uc.metrics.CardCreationFees.Inc()
	}

	if err := uc.pricing.ScheduleMonthlyCardFee(ctx, card.ID, input.UserID); err != nil {
		// Scheduling is retried by the monthly sweep; issuance still
		// succeeded.
		uc.logger.Warn().Err(err).Str("card_id", card.ID).Msg("failed to schedule first monthly fee")
	} else if uc.metrics != nil {
		uc.metrics.MonthlyFeesScheduled.Inc()
	}

	return card, nil
}

// GetCard retrieves a card by ID.
func (uc *CardUseCase) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	return uc.cardRepo.GetByID(ctx, id)
}

// ListUserCardsInput represents input for listing a user's cards.
type ListUserCardsInput struct {
	UserID string
	Limit  int
	Offset int
}

// ListUserCards lists a user's cards.
func (uc *CardUseCase) ListUserCards(ctx context.Context, input ListUserCardsInput) ([]*domain.Card, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.cardRepo.ListByUser(ctx, input.UserID, input.Limit, input.Offset)
}

// SyncCard refreshes a card's status from the provider. Returns true when
// the stored status changed.
func (uc *CardUseCase) SyncCard(ctx context.Context, cardID string) (bool, error) {
	card, err := uc.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return false, err
	}

	remote, err := uc.issuer.GetCard(ctx, card.ProviderCardID)
	if err != nil {
		return false, err
	}

	if !remote.Status.IsValid() || remote.Status == card.Status {
		return false, nil
	}

	if err := uc.cardRepo.UpdateStatus(ctx, card.ID, remote.Status, time.Now().UTC()); err != nil {
		return false, err
	}

	if uc.metrics != nil {
		uc.metrics.CardSyncUpdates.Inc()
	}

	uc.logger.Info().
		Str("card_id", card.ID).
		Str("from", string(card.Status)).
		Str("to", string(remote.Status)).
		Msg("card status synced from provider")

	return true, nil
}

// SyncActiveCards refreshes every active card and returns how many changed.
// Per-card failures are logged and skipped.
func (uc *CardUseCase) SyncActiveCards(ctx context.Context) (int, error) {
	const pageSize = 200

	updated := 0

	for offset := 0; ; offset += pageSize {
		cards, err := uc.cardRepo.ListActive(ctx, pageSize, offset)
		if err != nil {
			return updated, err
		}

		if len(cards) == 0 {
			return updated, nil
		}

		for _, card := range cards {
			changed, err := uc.SyncCard(ctx, card.ID)
			if err != nil {
				uc.logger.Warn().Err(err).Str("card_id", card.ID).Msg("card sync failed")
				continue
			}

			if changed {
				updated++
			}
		}

		if len(cards) < pageSize {
			return updated, nil
		}
	}
}

// ScheduleMonthlyFees schedules next month's fee for every active card.
// Used by the monthly sweep; already-scheduled cards are no-ops.
func (uc *CardUseCase) ScheduleMonthlyFees(ctx context.Context) (int, error) {
	const pageSize = 200

	scheduled := 0

	for offset := 0; ; offset += pageSize {
		cards, err := uc.cardRepo.ListActive(ctx, pageSize, offset)
		if err != nil {
			return scheduled, err
		}

		if len(cards) == 0 {
			return scheduled, nil
		}

		for _, card := range cards {
			if err := uc.pricing.ScheduleMonthlyCardFee(ctx, card.ID, card.UserID); err != nil {
				uc.logger.Warn().Err(err).Str("card_id", card.ID).Msg("monthly fee scheduling failed")
				continue
			}

			scheduled++
		}

		if len(cards) < pageSize {
			return scheduled, nil
		}
	}
}

func (uc *CardUseCase) terminateOrphan(ctx context.Context, providerCardID string) {
	if err := uc.issuer.TerminateCard(ctx, providerCardID); err != nil {
		uc.logger.Error().Err(err).
			Str("provider_card_id", providerCardID).
			Msg("failed to terminate orphaned provider card")
	}
}
