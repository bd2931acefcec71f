package domain_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/iho/cardledger/internal/domain"
)

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role    domain.Role
		valid   bool
		billing bool
		viewAll bool
	}{
		{domain.RoleAdmin, true, true, true},
		{domain.RoleOperator, true, true, true},
		{domain.RoleUser, true, false, false},
		{domain.Role("superuser"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.role.IsValid())
			assert.Equal(t, tt.billing, tt.role.CanTriggerBilling())
			assert.Equal(t, tt.viewAll, tt.role.CanViewAll())
		})
	}
}

func TestHasBalanceFor(t *testing.T) {
	user := &domain.User{Balance: decimal.RequireFromString("10.00")}

	assert.True(t, user.HasBalanceFor(decimal.RequireFromString("9.99")))
	assert.True(t, user.HasBalanceFor(decimal.RequireFromString("10.00")))
	assert.False(t, user.HasBalanceFor(decimal.RequireFromString("10.01")))
}

func TestUserContextRoundTrip(t *testing.T) {
	user := &domain.User{ID: "user-1", Role: domain.RoleOperator}

	ctx := domain.ContextWithUser(context.Background(), user)
	got, ok := domain.UserFromContext(ctx)

	assert.True(t, ok)
	assert.Same(t, user, got)

	_, ok = domain.UserFromContext(context.Background())
	assert.False(t, ok)
}
