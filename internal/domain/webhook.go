package domain

import "time"

// Webhook event types accepted from the providers.
const (
	WebhookEventDepositSettled    = "deposit.settled"
	WebhookEventWithdrawalSettled = "withdrawal.settled"
	WebhookEventCardUpdated       = "card.updated"
)

// Webhook providers.
const (
	WebhookProviderCardIssuer = "card_issuer"
	WebhookProviderCryptoPay  = "crypto_pay"
)

// WebhookEvent is a provider notification persisted at the HTTP boundary and
// processed asynchronously by the webhook job. Processing is at-least-once;
// handlers are expected to be idempotent.
type WebhookEvent struct {
	CreatedAt   time.Time
	ProcessedAt *time.Time
	Payload     map[string]any
	ID          string
	Provider    string
	EventType   string
	Attempts    int
	Processed   bool
}
