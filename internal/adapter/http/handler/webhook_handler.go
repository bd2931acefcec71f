package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cardledger/internal/domain"
)

// WebhookService ingests provider webhook events.
type WebhookService interface {
	Ingest(ctx context.Context, provider, eventType string, payload map[string]any) (*domain.WebhookEvent, error)
}

// WebhookHandler receives provider callbacks. Events are persisted and
// acknowledged immediately; the drain job applies them.
type WebhookHandler struct {
	webhooks WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhooks WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

var knownProviders = map[string]bool{
	domain.WebhookProviderCardIssuer: true,
	domain.WebhookProviderCryptoPay:  true,
}

// Receive ingests one webhook event.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !knownProviders[provider] {
		writeError(w, http.StatusNotFound, "unknown provider", provider)
		return
	}

	var body struct {
		EventType string         `json:"event_type"`
		Payload   map[string]any `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if body.EventType == "" {
		writeError(w, http.StatusBadRequest, "missing event_type", "")
		return
	}

	event, err := h.webhooks.Ingest(r.Context(), provider, body.EventType, body.Payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to ingest event", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"id": event.ID, "status": "accepted"})
}
