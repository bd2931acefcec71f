package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	TierID    string          `json:"tier_id"`
	Role      domain.Role     `json:"role"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// UserFromDomain converts a domain user to a response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		TierID:    u.TierID,
		Role:      u.Role,
		Balance:   u.Balance,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UsersFromDomain converts domain users to responses.
func UsersFromDomain(users []*domain.User) []*UserResponse {
	result := make([]*UserResponse, len(users))
	for i, u := range users {
		result[i] = UserFromDomain(u)
	}
	return result
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	Token     string        `json:"token"`
	SessionID string        `json:"session_id"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

// CardResponse represents a card in API responses.
type CardResponse struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	ProviderCardID string            `json:"provider_card_id"`
	Last4          string            `json:"last4"`
	Brand          string            `json:"brand"`
	Currency       string            `json:"currency"`
	Status         domain.CardStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// CardFromDomain converts a domain card to a response.
func CardFromDomain(c *domain.Card) *CardResponse {
	return &CardResponse{
		ID:             c.ID,
		UserID:         c.UserID,
		ProviderCardID: c.ProviderCardID,
		Last4:          c.Last4,
		Brand:          c.Brand,
		Currency:       c.Currency,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// CardsFromDomain converts domain cards to responses.
func CardsFromDomain(cards []*domain.Card) []*CardResponse {
	result := make([]*CardResponse, len(cards))
	for i, c := range cards {
		result[i] = CardFromDomain(c)
	}
	return result
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"user_id"`
	Type          domain.TransactionType `json:"type"`
	Amount        decimal.Decimal        `json:"amount"`
	BalanceBefore decimal.Decimal        `json:"balance_before"`
	BalanceAfter  decimal.Decimal        `json:"balance_after"`
	ReferenceType string                 `json:"reference_type,omitempty"`
	ReferenceID   string                 `json:"reference_id,omitempty"`
	Description   string                 `json:"description,omitempty"`
	Metadata      map[string]any         `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// LedgerEntryFromDomain converts a domain ledger entry to a response.
func LedgerEntryFromDomain(e *domain.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:            e.ID,
		UserID:        e.UserID,
		Type:          e.Type,
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		Description:   e.Description,
		Metadata:      e.Metadata,
		CreatedAt:     e.CreatedAt,
	}
}

// LedgerEntriesFromDomain converts domain ledger entries to responses.
func LedgerEntriesFromDomain(entries []*domain.LedgerEntry) []*LedgerEntryResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = LedgerEntryFromDomain(e)
	}
	return result
}

// BalanceSummaryResponse represents a user's ledger totals.
type BalanceSummaryResponse struct {
	TotalCredits      decimal.Decimal `json:"total_credits"`
	TotalDebits       decimal.Decimal `json:"total_debits"`
	NetAmount         decimal.Decimal `json:"net_amount"`
	TransactionCount  int             `json:"transaction_count"`
	LastTransactionAt *time.Time      `json:"last_transaction_at,omitempty"`
}

// BalanceSummaryFromDomain converts a domain balance summary.
func BalanceSummaryFromDomain(s *domain.BalanceSummary) *BalanceSummaryResponse {
	return &BalanceSummaryResponse{
		TotalCredits:      s.TotalCredits,
		TotalDebits:       s.TotalDebits,
		NetAmount:         s.NetAmount,
		TransactionCount:  s.TransactionCount,
		LastTransactionAt: s.LastTransactionAt,
	}
}

// FeeSummaryResponse represents a user's fee schedule and totals.
type FeeSummaryResponse struct {
	TierName                string          `json:"tier_name"`
	CardCreationFee         decimal.Decimal `json:"card_creation_fee"`
	CardMonthlyFee          decimal.Decimal `json:"card_monthly_fee"`
	DepositFeePercentage    decimal.Decimal `json:"deposit_fee_percentage"`
	WithdrawalFeePercentage decimal.Decimal `json:"withdrawal_fee_percentage"`
	PendingMonthlyFees      decimal.Decimal `json:"pending_monthly_fees"`
	FeesPaidThisMonth       decimal.Decimal `json:"fees_paid_this_month"`
}

// FeeSummaryFromDomain converts a domain fee summary.
func FeeSummaryFromDomain(s *domain.FeeSummary) *FeeSummaryResponse {
	return &FeeSummaryResponse{
		TierName:                s.TierName,
		CardCreationFee:         s.CardCreationFee,
		CardMonthlyFee:          s.CardMonthlyFee,
		DepositFeePercentage:    s.DepositFeePercentage,
		WithdrawalFeePercentage: s.WithdrawalFeePercentage,
		PendingMonthlyFees:      s.PendingMonthlyFees,
		FeesPaidThisMonth:       s.FeesPaidThisMonth,
	}
}

// MonthlyFeeResponse represents a scheduled monthly fee record.
type MonthlyFeeResponse struct {
	ID            string                  `json:"id"`
	CardID        string                  `json:"card_id"`
	BillingMonth  time.Time               `json:"billing_month"`
	DueDate       time.Time               `json:"due_date"`
	FeeAmount     decimal.Decimal         `json:"fee_amount"`
	Status        domain.MonthlyFeeStatus `json:"status"`
	ChargedAt     *time.Time              `json:"charged_at,omitempty"`
	LedgerEntryID *string                 `json:"ledger_entry_id,omitempty"`
}

// MonthlyFeeFromDomain converts a domain monthly fee record.
func MonthlyFeeFromDomain(r *domain.MonthlyFeeRecord) *MonthlyFeeResponse {
	return &MonthlyFeeResponse{
		ID:            r.ID,
		CardID:        r.CardID,
		BillingMonth:  r.BillingMonth,
		DueDate:       r.DueDate,
		FeeAmount:     r.FeeAmount,
		Status:        r.Status,
		ChargedAt:     r.ChargedAt,
		LedgerEntryID: r.LedgerEntryID,
	}
}

// MonthlyFeesFromDomain converts domain monthly fee records.
func MonthlyFeesFromDomain(records []*domain.MonthlyFeeRecord) []*MonthlyFeeResponse {
	result := make([]*MonthlyFeeResponse, len(records))
	for i, r := range records {
		result[i] = MonthlyFeeFromDomain(r)
	}
	return result
}

// BillingRunResponse reports a billing run's outcome.
type BillingRunResponse struct {
	Processed   int             `json:"processed"`
	Failed      int             `json:"failed"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// BillingRunFromUseCase converts a billing run result.
func BillingRunFromUseCase(r *usecase.BillingRunResult) *BillingRunResponse {
	return &BillingRunResponse{
		Processed:   r.Processed,
		Failed:      r.Failed,
		TotalAmount: r.TotalAmount,
	}
}

// DepositAddressResponse represents a provisioned deposit address.
type DepositAddressResponse struct {
	Address string `json:"address"`
	Asset   string `json:"asset"`
	Network string `json:"network"`
}

// WithdrawalResponse reports a submitted withdrawal.
type WithdrawalResponse struct {
	ProviderRef string          `json:"provider_ref"`
	Amount      decimal.Decimal `json:"amount"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	NewBalance  decimal.Decimal `json:"new_balance"`
}

// TierResponse represents a fee tier.
type TierResponse struct {
	ID                      string          `json:"id"`
	DisplayName             string          `json:"display_name"`
	Level                   int             `json:"level"`
	CardCreationFee         decimal.Decimal `json:"card_creation_fee"`
	CardMonthlyFee          decimal.Decimal `json:"card_monthly_fee"`
	DepositFeePercentage    decimal.Decimal `json:"deposit_fee_percentage"`
	WithdrawalFeePercentage decimal.Decimal `json:"withdrawal_fee_percentage"`
}

// TierFromDomain converts a domain tier.
func TierFromDomain(t *domain.Tier) *TierResponse {
	return &TierResponse{
		ID:                      t.ID,
		DisplayName:             t.DisplayName,
		Level:                   t.Level,
		CardCreationFee:         t.CardCreationFee,
		CardMonthlyFee:          t.CardMonthlyFee,
		DepositFeePercentage:    t.DepositFeePercentage,
		WithdrawalFeePercentage: t.WithdrawalFeePercentage,
	}
}

// TiersFromDomain converts domain tiers.
func TiersFromDomain(tiers []*domain.Tier) []*TierResponse {
	result := make([]*TierResponse, len(tiers))
	for i, t := range tiers {
		result[i] = TierFromDomain(t)
	}
	return result
}
