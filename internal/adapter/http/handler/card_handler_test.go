package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

type cardServiceStub struct {
	issueFn func(ctx context.Context, input usecase.IssueCardInput) (*domain.Card, error)
	getFn   func(ctx context.Context, id string) (*domain.Card, error)
	listFn  func(ctx context.Context, input usecase.ListUserCardsInput) ([]*domain.Card, error)
	syncFn  func(ctx context.Context, cardID string) (bool, error)
}

func (s *cardServiceStub) IssueCard(ctx context.Context, input usecase.IssueCardInput) (*domain.Card, error) {
	return s.issueFn(ctx, input)
}

func (s *cardServiceStub) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	return s.getFn(ctx, id)
}

func (s *cardServiceStub) ListUserCards(ctx context.Context, input usecase.ListUserCardsInput) ([]*domain.Card, error) {
	return s.listFn(ctx, input)
}

func (s *cardServiceStub) SyncCard(ctx context.Context, cardID string) (bool, error) {
	return s.syncFn(ctx, cardID)
}

func authedRequest(method, target string, body []byte, user *domain.User) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(domain.ContextWithUser(req.Context(), user))
}

func TestCardHandler_Issue_Success(t *testing.T) {
	card := &domain.Card{ID: "card-1", UserID: "user-1", Last4: "4242", Status: domain.CardStatusActive}

	var captured usecase.IssueCardInput
	h := NewCardHandler(&cardServiceStub{
		issueFn: func(ctx context.Context, input usecase.IssueCardInput) (*domain.Card, error) {
			captured = input
			return card, nil
		},
	})

	body, _ := json.Marshal(dto.IssueCardRequest{CardholderName: "Jane Doe", Currency: "USD"})
	req := authedRequest(http.MethodPost, "/cards", body, &domain.User{ID: "user-1", Role: domain.RoleUser})
	rec := httptest.NewRecorder()

	h.Issue(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// The card is always issued for the authenticated user.
	if captured.UserID != "user-1" || captured.CardholderName != "Jane Doe" {
		t.Fatalf("expected input bound to caller, got %+v", captured)
	}
}

func TestCardHandler_Issue_InsufficientBalance(t *testing.T) {
	h := NewCardHandler(&cardServiceStub{
		issueFn: func(ctx context.Context, input usecase.IssueCardInput) (*domain.Card, error) {
			return nil, domain.ErrInsufficientBalance
		},
	})

	body, _ := json.Marshal(dto.IssueCardRequest{Currency: "USD"})
	req := authedRequest(http.MethodPost, "/cards", body, &domain.User{ID: "user-1", Role: domain.RoleUser})
	rec := httptest.NewRecorder()

	h.Issue(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestCardHandler_Issue_Unauthenticated(t *testing.T) {
	h := NewCardHandler(&cardServiceStub{
		issueFn: func(ctx context.Context, input usecase.IssueCardInput) (*domain.Card, error) {
			t.Fatal("IssueCard should not be called without a user")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/cards", bytes.NewBufferString("{}"))
	rec := httptest.NewRecorder()

	h.Issue(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCardHandler_Get_ForbidsOtherUsersCards(t *testing.T) {
	h := NewCardHandler(&cardServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Card, error) {
			return &domain.Card{ID: id, UserID: "someone-else"}, nil
		},
	})

	req := authedRequest(http.MethodGet, "/cards/card-9", nil, &domain.User{ID: "user-1", Role: domain.RoleUser})
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "card-9")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestCardHandler_Get_OperatorSeesAnyCard(t *testing.T) {
	h := NewCardHandler(&cardServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Card, error) {
			return &domain.Card{ID: id, UserID: "someone-else", Last4: "1111"}, nil
		},
	})

	req := authedRequest(http.MethodGet, "/cards/card-9", nil, &domain.User{ID: "op-1", Role: domain.RoleOperator})
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "card-9")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCardHandler_List_UsesCallerID(t *testing.T) {
	var captured usecase.ListUserCardsInput
	h := NewCardHandler(&cardServiceStub{
		listFn: func(ctx context.Context, input usecase.ListUserCardsInput) ([]*domain.Card, error) {
			captured = input
			return []*domain.Card{{ID: "card-1"}}, nil
		},
	})

	req := authedRequest(http.MethodGet, "/cards?limit=5", nil, &domain.User{ID: "user-1", Role: domain.RoleUser})
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.UserID != "user-1" || captured.Limit != 5 {
		t.Fatalf("expected caller-bound listing, got %+v", captured)
	}
}
