package cryptopay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/usecase"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(baseURL, "test-key", zerolog.Nop())
	c.initialInterval = 1 * time.Millisecond
	c.maxElapsedTime = 20 * time.Millisecond
	return c
}

func TestCreateDepositAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/addresses", r.URL.Path)

		var req depositAddressRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user-1", req.ExternalUserID)
		assert.Equal(t, "USDT", req.Asset)

		json.NewEncoder(w).Encode(depositAddressResponse{
			Address: "0xabc123",
			Asset:   "USDT",
			Network: "tron",
		})
	}))
	defer srv.Close()

	addr, err := newTestClient(srv.URL).CreateDepositAddress(context.Background(), "user-1", "USDT")
	require.NoError(t, err)
	assert.Equal(t, "0xabc123", addr.Address)
	assert.Equal(t, "tron", addr.Network)
}

func TestCreateDepositAddressRejectsEmptyAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(depositAddressResponse{Asset: "USDT"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateDepositAddress(context.Background(), "user-1", "USDT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing address")
}

func TestCreatePayout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req payoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "100.5", req.Amount)
		assert.Equal(t, "0xdest", req.Destination)

		json.NewEncoder(w).Encode(payoutResponse{
			Reference: "payout-1",
			Status:    "pending",
			Amount:    req.Amount,
		})
	}))
	defer srv.Close()

	payout, err := newTestClient(srv.URL).CreatePayout(context.Background(), usecase.PayoutRequest{
		UserID:      "user-1",
		Destination: "0xdest",
		Asset:       "USDT",
		Amount:      decimal.RequireFromString("100.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "payout-1", payout.ProviderRef)
	assert.True(t, payout.Amount.Equal(decimal.RequireFromString("100.5")))
}

func TestCreatePayoutRejectsMalformedAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(payoutResponse{Reference: "payout-2", Amount: "not-a-number"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreatePayout(context.Background(), usecase.PayoutRequest{
		UserID: "user-1",
		Amount: decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed amount")
}

func TestCreatePayoutSurfacesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"insufficient hot wallet funds"}`, http.StatusConflict)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreatePayout(context.Background(), usecase.PayoutRequest{
		UserID: "user-1",
		Amount: decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
}
