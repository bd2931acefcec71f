package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

type fundingServiceStub struct {
	addressFn  func(ctx context.Context, userID, asset string) (*usecase.DepositAddress, error)
	withdrawFn func(ctx context.Context, input usecase.RequestWithdrawalInput) (*usecase.WithdrawalResult, error)
}

func (s *fundingServiceStub) CreateDepositAddress(ctx context.Context, userID, asset string) (*usecase.DepositAddress, error) {
	return s.addressFn(ctx, userID, asset)
}

func (s *fundingServiceStub) RequestWithdrawal(ctx context.Context, input usecase.RequestWithdrawalInput) (*usecase.WithdrawalResult, error) {
	return s.withdrawFn(ctx, input)
}

func TestFundingHandler_CreateDepositAddress(t *testing.T) {
	h := NewFundingHandler(&fundingServiceStub{
		addressFn: func(ctx context.Context, userID, asset string) (*usecase.DepositAddress, error) {
			if userID != "user-1" || asset != "USDT" {
				t.Fatalf("unexpected args: %s %s", userID, asset)
			}
			return &usecase.DepositAddress{Address: "0xabc", Asset: "USDT", Network: "tron"}, nil
		},
	})

	body, _ := json.Marshal(dto.DepositAddressRequest{Asset: "USDT"})
	req := authedRequest(http.MethodPost, "/funding/deposit-address", body, &domain.User{ID: "user-1"})
	rec := httptest.NewRecorder()

	h.CreateDepositAddress(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.DepositAddressResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Address != "0xabc" {
		t.Fatalf("expected address in response, got %+v", resp)
	}
}

func TestFundingHandler_CreateDepositAddress_MissingAsset(t *testing.T) {
	h := NewFundingHandler(&fundingServiceStub{
		addressFn: func(ctx context.Context, userID, asset string) (*usecase.DepositAddress, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	})

	req := authedRequest(http.MethodPost, "/funding/deposit-address", []byte("{}"), &domain.User{ID: "user-1"})
	rec := httptest.NewRecorder()

	h.CreateDepositAddress(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFundingHandler_RequestWithdrawal(t *testing.T) {
	var captured usecase.RequestWithdrawalInput
	h := NewFundingHandler(&fundingServiceStub{
		withdrawFn: func(ctx context.Context, input usecase.RequestWithdrawalInput) (*usecase.WithdrawalResult, error) {
			captured = input
			return &usecase.WithdrawalResult{
				ProviderRef: "payout-1",
				Amount:      input.Amount,
				FeeAmount:   decimal.RequireFromString("1.5"),
				TotalDebit:  input.Amount.Add(decimal.RequireFromString("1.5")),
				NewBalance:  decimal.NewFromInt(900),
			}, nil
		},
	})

	body, _ := json.Marshal(dto.WithdrawalRequest{
		Destination: "0xdest",
		Asset:       "USDT",
		Amount:      decimal.NewFromInt(100),
	})
	req := authedRequest(http.MethodPost, "/funding/withdrawals", body, &domain.User{ID: "user-1"})
	rec := httptest.NewRecorder()

	h.RequestWithdrawal(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.UserID != "user-1" || captured.Destination != "0xdest" {
		t.Fatalf("expected caller-bound withdrawal, got %+v", captured)
	}
}

func TestFundingHandler_RequestWithdrawal_InsufficientBalance(t *testing.T) {
	h := NewFundingHandler(&fundingServiceStub{
		withdrawFn: func(ctx context.Context, input usecase.RequestWithdrawalInput) (*usecase.WithdrawalResult, error) {
			return nil, domain.ErrInsufficientBalance
		},
	})

	body, _ := json.Marshal(dto.WithdrawalRequest{Amount: decimal.NewFromInt(100)})
	req := authedRequest(http.MethodPost, "/funding/withdrawals", body, &domain.User{ID: "user-1"})
	rec := httptest.NewRecorder()

	h.RequestWithdrawal(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
