package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// User represents an account holder.
//
// Balance is the denormalized current balance, mutated only through the
// repository's atomic adjust operation. The ledger is the audit trail for
// every change to it.
type User struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ID             string
	Email          string
	Name           string
	HashedPassword string
	TierID         string
	Role           Role
	Balance        decimal.Decimal
	Active         bool
}

// HasBalanceFor reports whether the user's balance covers amount.
func (u *User) HasBalanceFor(amount decimal.Decimal) bool {
	return u.Balance.GreaterThanOrEqual(amount)
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access to all operations
	RoleAdmin Role = "admin"

	// RoleOperator can trigger billing runs and view any user's data
	RoleOperator Role = "operator"

	// RoleUser can only operate on their own cards and balance
	RoleUser Role = "user"
)

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleOperator: true,
	RoleUser:     true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanTriggerBilling checks if the role can run billing operations directly
func (r Role) CanTriggerBilling() bool {
	return r == RoleAdmin || r == RoleOperator
}

// CanViewAll checks if the role can view other users' resources
func (r Role) CanViewAll() bool {
	return r == RoleAdmin || r == RoleOperator
}

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type userContextKey struct{}

// ContextWithUser attaches an authenticated user to the context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok
}
