package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
)

// MaxWebhookAttempts bounds redelivery of a failing event before it is parked.
const MaxWebhookAttempts = 5

// WebhookUseCase persists provider events at the HTTP boundary and settles
// them asynchronously. Events are processed at-least-once; the flows they
// dispatch into deduplicate on provider references.
type WebhookUseCase struct {
	webhookRepo WebhookRepository
	funding     *FundingUseCase
	cards       *CardUseCase
	cardRepo    CardRepository
	idGen       IDGenerator
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewWebhookUseCase creates a new WebhookUseCase. metrics may be nil.
func NewWebhookUseCase(
	webhookRepo WebhookRepository,
	funding *FundingUseCase,
	cards *CardUseCase,
	cardRepo CardRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *WebhookUseCase {
	return &WebhookUseCase{
		webhookRepo: webhookRepo,
		funding:     funding,
		cards:       cards,
		cardRepo:    cardRepo,
		idGen:       idGen,
		logger:      logger,
		metrics:     metrics,
	}
}

// Ingest persists a provider event for asynchronous processing. Nothing is
// settled inline so the provider gets a fast acknowledgement.
func (uc *WebhookUseCase) Ingest(ctx context.Context, provider, eventType string, payload map[string]any) (*domain.WebhookEvent, error) {
	event := &domain.WebhookEvent{
		ID:        uc.idGen.Generate(),
		Provider:  provider,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.webhookRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WebhookEventsReceived.WithLabelValues(provider).Inc()
	}

	return event, nil
}

// ProcessPending settles a batch of unprocessed events. Per-event failures
// increment the attempt counter and leave the event for the next run; events
// over the attempt limit are parked as processed so they stop blocking the
// queue.
func (uc *WebhookUseCase) ProcessPending(ctx context.Context, batchSize int) (int, error) {
	events, err := uc.webhookRepo.GetUnprocessed(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	processed := 0

	for _, event := range events {
		if event.Attempts >= MaxWebhookAttempts {
			uc.logger.Error().
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Int("attempts", event.Attempts).
				Msg("webhook event exceeded attempt limit, parking")

			uc.finishEvent(ctx, event.ID, "parked")
			continue
		}

		if err := uc.dispatch(ctx, event); err != nil {
			uc.logger.Warn().Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("webhook event processing failed")

			if err := uc.webhookRepo.IncrementAttempts(ctx, event.ID); err != nil {
				uc.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to record webhook attempt")
			}

			if uc.metrics != nil {
				uc.metrics.WebhookEventsProcessed.WithLabelValues("failed").Inc()
			}

			continue
		}

		uc.finishEvent(ctx, event.ID, "ok")
		processed++
	}

	return processed, nil
}

// PurgeProcessed removes processed events older than the cutoff.
func (uc *WebhookUseCase) PurgeProcessed(ctx context.Context, before time.Time) error {
	return uc.webhookRepo.DeleteProcessed(ctx, before)
}

func (uc *WebhookUseCase) dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	switch event.EventType {
	case domain.WebhookEventDepositSettled:
		return uc.handleDepositSettled(ctx, event)
	case domain.WebhookEventCardUpdated:
		return uc.handleCardUpdated(ctx, event)
	case domain.WebhookEventWithdrawalSettled:
		// The debit happened at request time; settlement is informational.
		uc.logger.Info().
			Str("event_id", event.ID).
			Str("provider_ref", payloadString(event.Payload, "reference")).
			Msg("withdrawal settled")

		return nil
	default:
		// Unknown types are acknowledged, not retried forever.
		uc.logger.Warn().
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Msg("unknown webhook event type")

		return nil
	}
}

func (uc *WebhookUseCase) handleDepositSettled(ctx context.Context, event *domain.WebhookEvent) error {
	userID := payloadString(event.Payload, "user_id")
	reference := payloadString(event.Payload, "reference")
	asset := payloadString(event.Payload, "asset")

	if userID == "" || reference == "" {
		return fmt.Errorf("deposit event %s missing user_id or reference", event.ID)
	}

	amount, err := payloadAmount(event.Payload, "amount")
	if err != nil {
		return err
	}

	_, err = uc.funding.ConfirmDeposit(ctx, ConfirmDepositInput{
		UserID:      userID,
		ProviderRef: reference,
		Asset:       asset,
		GrossAmount: amount,
	})

	return err
}

func (uc *WebhookUseCase) handleCardUpdated(ctx context.Context, event *domain.WebhookEvent) error {
	providerCardID := payloadString(event.Payload, "card_id")
	if providerCardID == "" {
		return fmt.Errorf("card event %s missing card_id", event.ID)
	}

	card, err := uc.cardRepo.GetByProviderCardID(ctx, providerCardID)
	if err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			// A card we never issued; acknowledge and move on.
			uc.logger.Warn().
				Str("provider_card_id", providerCardID).
				Msg("card update for unknown card")

			return nil
		}

		return err
	}

	_, err = uc.cards.SyncCard(ctx, card.ID)

	return err
}

func (uc *WebhookUseCase) finishEvent(ctx context.Context, eventID, outcome string) {
	if err := uc.webhookRepo.MarkProcessed(ctx, eventID, time.Now().UTC()); err != nil {
		uc.logger.Error().Err(err).Str("event_id", eventID).Msg("failed to mark webhook event processed")
		return
	}

	if uc.metrics != nil {
		uc.metrics.WebhookEventsProcessed.WithLabelValues(outcome).Inc()
	}
}

func payloadString(payload map[string]any, key string) string {
	value, _ := payload[key].(string)
	return value
}

// payloadAmount parses a monetary field. Providers send amounts as strings;
// a JSON number is tolerated but never relied on for precision.
func payloadAmount(payload map[string]any, key string) (decimal.Decimal, error) {
	switch value := payload[key].(type) {
	case string:
		return decimal.NewFromString(value)
	case float64:
		return decimal.NewFromFloat(value), nil
	default:
		return decimal.Zero, fmt.Errorf("missing or invalid %s", key)
	}
}
