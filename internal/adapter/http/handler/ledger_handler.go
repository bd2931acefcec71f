package handler

import (
	"context"
	"net/http"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	ListEntriesByUser(ctx context.Context, input usecase.ListEntriesByUserInput) ([]*domain.LedgerEntry, error)
	GetUserBalanceSummary(ctx context.Context, userID string) (*domain.BalanceSummary, error)
}

// ReconciliationService checks a user's balance against their ledger.
type ReconciliationService interface {
	CheckUser(ctx context.Context, userID string) (*usecase.UserReconciliation, error)
}

// LedgerHandler handles ledger endpoints.
type LedgerHandler struct {
	ledger LedgerService
	recon  ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger LedgerService, recon ReconciliationService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, recon: recon}
}

// ListEntries lists ledger entries for a user, newest first.
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}

	entries, err := h.ledger.ListEntriesByUser(r.Context(), usecase.ListEntriesByUserInput{
		UserID: userID,
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list ledger entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": dto.LedgerEntriesFromDomain(entries),
		"total":   len(entries),
	})
}

// BalanceSummary returns a user's ledger totals.
func (h *LedgerHandler) BalanceSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}

	summary, err := h.ledger.GetUserBalanceSummary(r.Context(), userID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance summary", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceSummaryFromDomain(summary))
}

// Reconcile compares a user's stored balance against their ledger.
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}

	result, err := h.recon.CheckUser(r.Context(), userID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        result.UserID,
		"stored_balance": result.StoredBalance,
		"ledger_balance": result.LedgerBalance,
		"drift":          result.Drift,
		"entry_count":    result.EntryCount,
		"chain_intact":   result.ChainIntact,
		"consistent":     result.Consistent(),
	})
}
