package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCardNotFound),
		errors.Is(err, domain.ErrTierNotFound),
		errors.Is(err, domain.ErrFeeRecordNotFound),
		errors.Is(err, domain.ErrNoLedgerEntries):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrBillingInProgress),
		errors.Is(err, domain.ErrFeeAlreadySettled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUserInactive),
		errors.Is(err, domain.ErrCardInactive):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooSmall),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrPasswordTooWeak),
		errors.Is(err, domain.ErrInvalidTransactionType),
		errors.Is(err, domain.ErrUserRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// requestUser pulls the authenticated user or writes a 401.
func requestUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return nil, false
	}
	return user, true
}

// resolveUserID returns the target user id for a request: the {id} route
// param when the caller may view other users, otherwise the caller's own id.
func resolveUserID(w http.ResponseWriter, r *http.Request, routeID string) (string, bool) {
	user, ok := requestUser(w, r)
	if !ok {
		return "", false
	}

	if routeID == "" || routeID == user.ID {
		return user.ID, true
	}

	if !user.Role.CanViewAll() {
		writeError(w, http.StatusForbidden, "insufficient permissions", "")
		return "", false
	}

	return routeID, true
}
