package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/auth"
	"github.com/iho/cardledger/internal/usecase"
)

// AuthService defines the behavior needed by AuthHandler.
type AuthService interface {
	CreateUser(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error)
	Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*usecase.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler handles registration and login.
type AuthHandler struct {
	users      AuthService
	jwtManager *auth.JWTManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users AuthService, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{users: users, jwtManager: jwtManager}
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create user", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.UserFromDomain(user))
}

// Login verifies credentials and returns a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	session, err := h.users.Authenticate(r.Context(), usecase.AuthenticateInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "invalid credentials", "")
		return
	}

	token, err := h.jwtManager.Generate(session.User)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:     token,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
		User:      dto.UserFromDomain(session.User),
	})
}

// Logout closes the session named in the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session_id", "")
		return
	}

	if err := h.users.Logout(r.Context(), req.SessionID); err != nil {
		writeError(w, mapDomainError(err), "failed to log out", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}
