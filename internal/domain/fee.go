package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyFeeStatus is the settlement state of a scheduled monthly fee.
type MonthlyFeeStatus string

const (
	MonthlyFeeStatusPending MonthlyFeeStatus = "pending"
	MonthlyFeeStatusCharged MonthlyFeeStatus = "charged"
	MonthlyFeeStatusFailed  MonthlyFeeStatus = "failed"
)

// FeeDueDay is the day of the billing month a pending fee becomes due.
const FeeDueDay = 5

// MonthlyFeeRecord schedules one card's fee for one billing month.
//
// FeeAmount is locked in when the record is created; a tier change after
// scheduling does not alter an already-scheduled charge. At most one record
// exists per (CardID, BillingMonth) pair.
type MonthlyFeeRecord struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	BillingMonth  time.Time
	DueDate       time.Time
	ChargedAt     *time.Time
	LedgerEntryID *string
	ID            string
	CardID        string
	UserID        string
	TierID        string
	Status        MonthlyFeeStatus
	FeeAmount     decimal.Decimal
}

// IsDue reports whether the fee should be charged as of the given time.
func (r *MonthlyFeeRecord) IsDue(asOf time.Time) bool {
	return r.Status == MonthlyFeeStatusPending && !asOf.Before(r.DueDate)
}

// IsTerminal reports whether the record can no longer change state.
func (r *MonthlyFeeRecord) IsTerminal() bool {
	return r.Status == MonthlyFeeStatusCharged || r.Status == MonthlyFeeStatusFailed
}

// BillingMonthOf truncates a time to the first instant of its calendar month
// in UTC.
func BillingMonthOf(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextBillingMonth returns the first instant of the month after at.
func NextBillingMonth(at time.Time) time.Time {
	return BillingMonthOf(at).AddDate(0, 1, 0)
}

// FeeDueDate returns when fees for the given billing month become due.
func FeeDueDate(billingMonth time.Time) time.Time {
	return BillingMonthOf(billingMonth).AddDate(0, 0, FeeDueDay-1)
}

// PercentageFee computes pct percent of amount, rounded half up to cents.
func PercentageFee(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
}

// CardFees quotes the card-related fees for a tier.
type CardFees struct {
	TierName    string
	TierLevel   int
	CreationFee decimal.Decimal
	MonthlyFee  decimal.Decimal
}

// DepositFee breaks down a deposit: the fee is taken out of the gross amount
// and the net is credited.
type DepositFee struct {
	GrossAmount   decimal.Decimal
	FeeAmount     decimal.Decimal
	NetAmount     decimal.Decimal
	FeePercentage decimal.Decimal
}

// WithdrawalFee breaks down a withdrawal: the fee is charged on top, so the
// total debit exceeds the amount sent out.
type WithdrawalFee struct {
	GrossAmount   decimal.Decimal
	FeeAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	FeePercentage decimal.Decimal
}

// FeeSummary is a user's fee schedule and recent fee activity.
type FeeSummary struct {
	TierName                string
	CardCreationFee         decimal.Decimal
	CardMonthlyFee          decimal.Decimal
	DepositFeePercentage    decimal.Decimal
	WithdrawalFeePercentage decimal.Decimal
	PendingMonthlyFees      decimal.Decimal
	FeesPaidThisMonth       decimal.Decimal
}
