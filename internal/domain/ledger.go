package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionTypeDeposit         TransactionType = "deposit"
	TransactionTypeCardFunding     TransactionType = "card_funding"
	TransactionTypeRefund          TransactionType = "refund"
	TransactionTypeWithdrawal      TransactionType = "withdrawal"
	TransactionTypeFee             TransactionType = "fee"
	TransactionTypeAdjustment      TransactionType = "adjustment"
	TransactionTypeCardCreationFee TransactionType = "card_creation_fee"
	TransactionTypeCardMonthlyFee  TransactionType = "card_monthly_fee"
	TransactionTypeDepositFee      TransactionType = "deposit_fee"
)

var validTransactionTypes = map[TransactionType]bool{
	TransactionTypeDeposit:         true,
	TransactionTypeCardFunding:     true,
	TransactionTypeRefund:          true,
	TransactionTypeWithdrawal:      true,
	TransactionTypeFee:             true,
	TransactionTypeAdjustment:      true,
	TransactionTypeCardCreationFee: true,
	TransactionTypeCardMonthlyFee:  true,
	TransactionTypeDepositFee:      true,
}

// IsValid checks if the transaction type is known.
func (t TransactionType) IsValid() bool {
	return validTransactionTypes[t]
}

// FeeTransactionTypes are the entry types that count as fees paid.
var FeeTransactionTypes = []TransactionType{
	TransactionTypeFee,
	TransactionTypeCardCreationFee,
	TransactionTypeCardMonthlyFee,
	TransactionTypeDepositFee,
}

// LedgerEntry is one immutable row of the append-only balance ledger.
//
// Amount is signed: credits are positive, debits are negative. Every entry
// snapshots the balance around the mutation it records, so consecutive
// entries for a user chain: BalanceAfter of one equals BalanceBefore of the
// next. Corrections are new entries, never updates.
type LedgerEntry struct {
	CreatedAt     time.Time
	Metadata      map[string]any
	ID            string
	UserID        string
	ReferenceType string
	ReferenceID   string
	Description   string
	Type          TransactionType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// Validate checks the entry's internal consistency.
func (e *LedgerEntry) Validate() error {
	if e.UserID == "" {
		return ErrUserRequired
	}

	if !e.Type.IsValid() {
		return ErrInvalidTransactionType
	}

	if e.Amount.IsZero() {
		return ErrInvalidAmount
	}

	if !e.BalanceAfter.Equal(e.BalanceBefore.Add(e.Amount)) {
		return ErrLedgerSnapshotMismatch
	}

	return nil
}

// IsCredit reports whether the entry increased the balance.
func (e *LedgerEntry) IsCredit() bool {
	return e.Amount.IsPositive()
}

// BalanceSummary aggregates a user's ledger history.
type BalanceSummary struct {
	LastTransactionAt *time.Time
	TotalCredits      decimal.Decimal
	TotalDebits       decimal.Decimal
	NetAmount         decimal.Decimal
	TransactionCount  int
}

// SummarizeEntries partitions entries by sign: positive amounts accumulate
// into TotalCredits, negative ones into TotalDebits as absolute values.
// NetAmount is the raw signed sum.
func SummarizeEntries(entries []*LedgerEntry) *BalanceSummary {
	summary := &BalanceSummary{
		TotalCredits: decimal.Zero,
		TotalDebits:  decimal.Zero,
		NetAmount:    decimal.Zero,
	}

	for _, entry := range entries {
		if entry.Amount.IsPositive() {
			summary.TotalCredits = summary.TotalCredits.Add(entry.Amount)
		} else {
			summary.TotalDebits = summary.TotalDebits.Add(entry.Amount.Abs())
		}

		summary.NetAmount = summary.NetAmount.Add(entry.Amount)
		summary.TransactionCount++

		if summary.LastTransactionAt == nil || entry.CreatedAt.After(*summary.LastTransactionAt) {
			at := entry.CreatedAt
			summary.LastTransactionAt = &at
		}
	}

	return summary
}
