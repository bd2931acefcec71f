package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/adapter/http/handler"
	"github.com/iho/cardledger/internal/adapter/http/middleware"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/auth"
	"github.com/iho/cardledger/internal/usecase"
)

type stubAuthService struct{}

func (stubAuthService) CreateUser(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error) {
	return &domain.User{ID: "user-1", Email: input.Email}, nil
}

func (stubAuthService) Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*usecase.Session, error) {
	return nil, domain.ErrUnauthorized
}

func (stubAuthService) Logout(ctx context.Context, sessionID string) error { return nil }

type stubUserService struct{}

func (stubUserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id}, nil
}

func (stubUserService) UpdateUser(ctx context.Context, input usecase.UpdateUserInput) (*domain.User, error) {
	return &domain.User{ID: input.ID}, nil
}

func (stubUserService) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	return nil, nil
}

type stubCardService struct{}

func (stubCardService) IssueCard(ctx context.Context, input usecase.IssueCardInput) (*domain.Card, error) {
	return &domain.Card{ID: "card-1", UserID: input.UserID}, nil
}

func (stubCardService) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	return &domain.Card{ID: id}, nil
}

func (stubCardService) ListUserCards(ctx context.Context, input usecase.ListUserCardsInput) ([]*domain.Card, error) {
	return nil, nil
}

func (stubCardService) SyncCard(ctx context.Context, cardID string) (bool, error) {
	return false, nil
}

type stubFeeService struct{}

func (stubFeeService) GetUserFeeSummary(ctx context.Context, userID string) (*domain.FeeSummary, error) {
	return &domain.FeeSummary{}, nil
}

func (stubFeeService) ProcessPendingMonthlyFees(ctx context.Context, userID string) (*usecase.BillingRunResult, error) {
	return &usecase.BillingRunResult{}, nil
}

type stubFeeLister struct{}

func (stubFeeLister) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.MonthlyFeeRecord, error) {
	return nil, nil
}

type stubTierLister struct{}

func (stubTierLister) ListTiers(ctx context.Context) ([]*domain.Tier, error) { return nil, nil }

type stubLedgerService struct{}

func (stubLedgerService) ListEntriesByUser(ctx context.Context, input usecase.ListEntriesByUserInput) ([]*domain.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) GetUserBalanceSummary(ctx context.Context, userID string) (*domain.BalanceSummary, error) {
	return &domain.BalanceSummary{}, nil
}

type stubReconService struct{}

func (stubReconService) CheckUser(ctx context.Context, userID string) (*usecase.UserReconciliation, error) {
	return &usecase.UserReconciliation{UserID: userID, ChainIntact: true}, nil
}

type stubFundingService struct{}

func (stubFundingService) CreateDepositAddress(ctx context.Context, userID, asset string) (*usecase.DepositAddress, error) {
	return &usecase.DepositAddress{Address: "0xabc", Asset: asset}, nil
}

func (stubFundingService) RequestWithdrawal(ctx context.Context, input usecase.RequestWithdrawalInput) (*usecase.WithdrawalResult, error) {
	return &usecase.WithdrawalResult{}, nil
}

type stubWebhookService struct{}

func (stubWebhookService) Ingest(ctx context.Context, provider, eventType string, payload map[string]any) (*domain.WebhookEvent, error) {
	return &domain.WebhookEvent{ID: "evt-1"}, nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}

func (s *stubIdempotencyStore) Delete(ctx context.Context, key string) error {
	return nil
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	cfg := RouterConfig{
		AuthHandler:    handler.NewAuthHandler(stubAuthService{}, jwtManager),
		UserHandler:    handler.NewUserHandler(stubUserService{}),
		CardHandler:    handler.NewCardHandler(stubCardService{}),
		FeeHandler:     handler.NewFeeHandler(stubFeeService{}, stubFeeLister{}, stubTierLister{}),
		LedgerHandler:  handler.NewLedgerHandler(stubLedgerService{}, stubReconService{}),
		FundingHandler: handler.NewFundingHandler(stubFundingService{}),
		WebhookHandler: handler.NewWebhookHandler(stubWebhookService{}),
		HealthHandler:  handler.NewHealthHandler(nil, nil),
		JWTManager:     jwtManager,
		Logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimit = 1
		cfg.RateBurst = 1
	}))

	blocked := false
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code == http.StatusTooManyRequests {
			blocked = true
			break
		}
	}

	if !blocked {
		t.Fatal("expected rate limiter to block at least one request")
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := strings.NewReader(`{"email":"a@b.com","password":"Str0ngPass!"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", body)
	req.Header.Set(middleware.IdempotencyKeyHeader, "key-1")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatal("expected idempotency store to be consulted")
	}
}

func TestNewRouter_WebhookEndpointIsPublic(t *testing.T) {
	router := NewRouter(newRouterConfig())

	body := strings.NewReader(`{"event_type":"deposit.settled","payload":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/crypto_pay", body)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 without auth, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_AuthenticatedRoutesRejectAnonymous(t *testing.T) {
	router := NewRouter(newRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cards", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRouter, ok := router.(chi.Router)
	if !ok {
		t.Fatal("expected a chi router")
	}

	registered := make(map[string]bool)
	err := chi.Walk(chiRouter, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		registered[fmt.Sprintf("%s %s", method, route)] = true
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk routes: %v", err)
	}

	want := []string{
		"GET /health",
		"GET /ready",
		"POST /webhooks/{provider}",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"GET /api/v1/auth/me",
		"POST /api/v1/cards/",
		"GET /api/v1/cards/{id}",
		"POST /api/v1/fees/billing/{userID}/run",
		"GET /api/v1/ledger/entries",
		"POST /api/v1/funding/withdrawals",
	}

	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %q not registered", route)
		}
	}
}
