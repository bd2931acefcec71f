package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
)

// LedgerUseCase handles balance ledger reads and validated appends.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// Append validates and writes one immutable entry. Corrections are new
// entries; nothing is ever updated or deleted.
func (uc *LedgerUseCase) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	return uc.ledgerRepo.Append(ctx, entry)
}

// ListEntriesByUserInput represents input for listing entries.
type ListEntriesByUserInput struct {
	UserID string
	Limit  int
	Offset int
}

// ListEntriesByUser lists entries for a user.
func (uc *LedgerUseCase) ListEntriesByUser(ctx context.Context, input ListEntriesByUserInput) ([]*domain.LedgerEntry, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.ledgerRepo.ListByUser(ctx, input.UserID, input.Limit, input.Offset)
}

// GetUserBalanceSummary scans every entry for the user and partitions by
// sign. Reporting path, O(n) in the user's entry count.
func (uc *LedgerUseCase) GetUserBalanceSummary(ctx context.Context, userID string) (*domain.BalanceSummary, error) {
	entries, err := uc.ledgerRepo.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return domain.SummarizeEntries(entries), nil
}

// LatestBalance returns the most recent entry's after-snapshot, or nil when
// the user has no entries yet.
func (uc *LedgerUseCase) LatestBalance(ctx context.Context, userID string) (*decimal.Decimal, error) {
	entry, err := uc.ledgerRepo.LatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoLedgerEntries) {
			return nil, nil
		}

		return nil, err
	}

	balance := entry.BalanceAfter

	return &balance, nil
}
