package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// RegisterRequest represents a request to create a user.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	TierID   string `json:"tier_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() usecase.CreateUserInput {
	return usecase.CreateUserInput{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		TierID:   r.TierID,
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest represents a partial user update.
type UpdateUserRequest struct {
	Name     *string      `json:"name,omitempty"`
	Role     *domain.Role `json:"role,omitempty"`
	TierID   *string      `json:"tier_id,omitempty"`
	Active   *bool        `json:"active,omitempty"`
	Password *string      `json:"password,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateUserRequest) ToUseCaseInput(id string) usecase.UpdateUserInput {
	return usecase.UpdateUserInput{
		ID:       id,
		Name:     r.Name,
		Role:     r.Role,
		TierID:   r.TierID,
		Active:   r.Active,
		Password: r.Password,
	}
}

// IssueCardRequest represents a request to issue a virtual card.
type IssueCardRequest struct {
	CardholderName string `json:"cardholder_name"`
	Currency       string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *IssueCardRequest) ToUseCaseInput(userID string) usecase.IssueCardInput {
	return usecase.IssueCardInput{
		UserID:         userID,
		CardholderName: r.CardholderName,
		Currency:       r.Currency,
	}
}

// DepositAddressRequest asks for a crypto deposit address.
type DepositAddressRequest struct {
	Asset string `json:"asset"`
}

// WithdrawalRequest represents a withdrawal request.
type WithdrawalRequest struct {
	Destination string          `json:"destination"`
	Asset       string          `json:"asset"`
	Amount      decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *WithdrawalRequest) ToUseCaseInput(userID string) usecase.RequestWithdrawalInput {
	return usecase.RequestWithdrawalInput{
		UserID:      userID,
		Destination: r.Destination,
		Asset:       r.Asset,
		Amount:      r.Amount,
	}
}
