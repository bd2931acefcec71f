package cardissuer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(baseURL, "test-key", zerolog.Nop())
	c.initialInterval = 1 * time.Millisecond
	c.maxElapsedTime = 20 * time.Millisecond
	return c
}

func TestIssueCard(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/cards", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var req issueCardRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Jane Doe", req.CardholderName)
		assert.Equal(t, "USD", req.Currency)

		json.NewEncoder(w).Encode(cardResponse{
			ID:       "prov-card-1",
			Last4:    "4242",
			Brand:    "visa",
			Currency: "USD",
			Status:   "active",
		})
	}))
	defer srv.Close()

	card, err := newTestClient(srv.URL).IssueCard(context.Background(), usecase.IssueCardRequest{
		UserID:         "user-1",
		CardholderName: "Jane Doe",
		Currency:       "USD",
	})
	require.NoError(t, err)

	assert.Equal(t, "prov-card-1", card.ProviderCardID)
	assert.Equal(t, "4242", card.Last4)
	assert.Equal(t, domain.CardStatusActive, card.Status)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestIssueCardRejectsMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(cardResponse{ID: "prov-card-1", Last4: "42"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).IssueCard(context.Background(), usecase.IssueCardRequest{UserID: "user-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "last4")
}

func TestGetCardMapsUnknownStatusToFrozen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/cards/prov-card-9", r.URL.Path)
		json.NewEncoder(w).Encode(cardResponse{
			ID:     "prov-card-9",
			Last4:  "1111",
			Brand:  "visa",
			Status: "under_review",
		})
	}))
	defer srv.Close()

	card, err := newTestClient(srv.URL).GetCard(context.Background(), "prov-card-9")
	require.NoError(t, err)
	assert.Equal(t, domain.CardStatusFrozen, card.Status)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(cardResponse{ID: "prov-card-2", Last4: "4242", Status: "active"})
	}))
	defer srv.Close()

	card, err := newTestClient(srv.URL).GetCard(context.Background(), "prov-card-2")
	require.NoError(t, err)
	assert.Equal(t, "prov-card-2", card.ProviderCardID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).IssueCard(context.Background(), usecase.IssueCardRequest{UserID: "user-1"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTerminateCard(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv.URL).TerminateCard(context.Background(), "prov-card-3"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/v1/cards/prov-card-3", gotPath)
}
