package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// FeeService defines the behavior needed by FeeHandler.
type FeeService interface {
	GetUserFeeSummary(ctx context.Context, userID string) (*domain.FeeSummary, error)
	ProcessPendingMonthlyFees(ctx context.Context, userID string) (*usecase.BillingRunResult, error)
}

// MonthlyFeeLister lists a user's scheduled monthly fee records.
type MonthlyFeeLister interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.MonthlyFeeRecord, error)
}

// TierLister lists available fee tiers.
type TierLister interface {
	ListTiers(ctx context.Context) ([]*domain.Tier, error)
}

// FeeHandler handles fee and billing endpoints.
type FeeHandler struct {
	pricing FeeService
	fees    MonthlyFeeLister
	tiers   TierLister
}

// NewFeeHandler creates a new FeeHandler.
func NewFeeHandler(pricing FeeService, fees MonthlyFeeLister, tiers TierLister) *FeeHandler {
	return &FeeHandler{pricing: pricing, fees: fees, tiers: tiers}
}

// Summary returns the fee schedule and totals for a user.
func (h *FeeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}

	summary, err := h.pricing.GetUserFeeSummary(r.Context(), userID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get fee summary", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.FeeSummaryFromDomain(summary))
}

// ListMonthly lists a user's monthly fee records.
func (h *FeeHandler) ListMonthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}

	limit, offset := domain.ValidatePagination(
		parseIntQuery(r, "limit", 50),
		parseIntQuery(r, "offset", 0),
	)

	records, err := h.fees.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list monthly fees", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fees":  dto.MonthlyFeesFromDomain(records),
		"total": len(records),
	})
}

// RunBilling charges every due pending fee for a user. Operator and admin
// only; the worker normally does this on schedule.
func (h *FeeHandler) RunBilling(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	result, err := h.pricing.ProcessPendingMonthlyFees(r.Context(), userID)
	if err != nil {
		writeError(w, mapDomainError(err), "billing run failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BillingRunFromUseCase(result))
}

// ListTiers lists available fee tiers.
func (h *FeeHandler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.tiers.ListTiers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tiers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tiers": dto.TiersFromDomain(tiers)})
}
