package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// CardService defines the behavior needed by CardHandler.
type CardService interface {
	IssueCard(ctx context.Context, input usecase.IssueCardInput) (*domain.Card, error)
	GetCard(ctx context.Context, id string) (*domain.Card, error)
	ListUserCards(ctx context.Context, input usecase.ListUserCardsInput) ([]*domain.Card, error)
	SyncCard(ctx context.Context, cardID string) (bool, error)
}

// CardHandler handles card endpoints.
type CardHandler struct {
	cards CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cards CardService) *CardHandler {
	return &CardHandler{cards: cards}
}

// Issue issues a new virtual card for the authenticated user.
func (h *CardHandler) Issue(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req dto.IssueCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	card, err := h.cards.IssueCard(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to issue card", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.CardFromDomain(card))
}

// Get retrieves a card. Owners see their own cards; privileged roles any.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing card ID", "")
		return
	}

	card, err := h.cards.GetCard(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get card", err.Error())
		return
	}

	if card.UserID != user.ID && !user.Role.CanViewAll() {
		writeError(w, http.StatusForbidden, "insufficient permissions", "")
		return
	}

	writeJSON(w, http.StatusOK, dto.CardFromDomain(card))
}

// List lists the authenticated user's cards.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	cards, err := h.cards.ListUserCards(r.Context(), usecase.ListUserCardsInput{
		UserID: user.ID,
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list cards", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cards": dto.CardsFromDomain(cards),
		"total": len(cards),
	})
}

// Sync refreshes a card's status from the issuer.
func (h *CardHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing card ID", "")
		return
	}

	updated, err := h.cards.SyncCard(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to sync card", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}
