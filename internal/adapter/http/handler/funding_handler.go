package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/usecase"
)

// FundingService defines the behavior needed by FundingHandler.
type FundingService interface {
	CreateDepositAddress(ctx context.Context, userID, asset string) (*usecase.DepositAddress, error)
	RequestWithdrawal(ctx context.Context, input usecase.RequestWithdrawalInput) (*usecase.WithdrawalResult, error)
}

// FundingHandler handles deposit and withdrawal endpoints.
type FundingHandler struct {
	funding FundingService
}

// NewFundingHandler creates a new FundingHandler.
func NewFundingHandler(funding FundingService) *FundingHandler {
	return &FundingHandler{funding: funding}
}

// CreateDepositAddress provisions a crypto deposit address.
func (h *FundingHandler) CreateDepositAddress(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req dto.DepositAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Asset == "" {
		writeError(w, http.StatusBadRequest, "missing asset", "")
		return
	}

	addr, err := h.funding.CreateDepositAddress(r.Context(), user.ID, req.Asset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create deposit address", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.DepositAddressResponse{
		Address: addr.Address,
		Asset:   addr.Asset,
		Network: addr.Network,
	})
}

// RequestWithdrawal debits the balance and submits a payout.
func (h *FundingHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req dto.WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.funding.RequestWithdrawal(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		writeError(w, mapDomainError(err), "withdrawal failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.WithdrawalResponse{
		ProviderRef: result.ProviderRef,
		Amount:      result.Amount,
		FeeAmount:   result.FeeAmount,
		TotalDebit:  result.TotalDebit,
		NewBalance:  result.NewBalance,
	})
}
