package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
)

// MonthlyFeeRepository implements usecase.MonthlyFeeRepository.
//
// Scheduling idempotency lives in the unique (card_id, billing_month) index;
// settlement idempotency lives in the conditional status transitions.
type MonthlyFeeRepository struct {
	pool *pgxpool.Pool
}

// NewMonthlyFeeRepository creates a new MonthlyFeeRepository.
func NewMonthlyFeeRepository(pool *pgxpool.Pool) *MonthlyFeeRepository {
	return &MonthlyFeeRepository{pool: pool}
}

const feeColumns = `id, card_id, user_id, tier_id, fee_amount, billing_month, due_date, status, charged_at, ledger_entry_id, created_at, updated_at`

// CreateIfAbsent inserts the record unless one already exists for its
// (CardID, BillingMonth) pair.
func (r *MonthlyFeeRepository) CreateIfAbsent(ctx context.Context, record *domain.MonthlyFeeRecord) (bool, error) {
	query := `
		INSERT INTO monthly_fee_records (id, card_id, user_id, tier_id, fee_amount,
			billing_month, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (card_id, billing_month) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		record.ID,
		record.CardID,
		record.UserID,
		record.TierID,
		decimalToNumeric(record.FeeAmount),
		record.BillingMonth,
		record.DueDate,
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a record by ID.
func (r *MonthlyFeeRepository) GetByID(ctx context.Context, id string) (*domain.MonthlyFeeRecord, error) {
	query := `SELECT ` + feeColumns + ` FROM monthly_fee_records WHERE id = $1`

	record, err := scanFeeRecord(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFeeRecordNotFound
	}

	return record, err
}

// FindPendingDue retrieves the user's pending records due as of asOf.
func (r *MonthlyFeeRepository) FindPendingDue(ctx context.Context, userID string, asOf time.Time) ([]*domain.MonthlyFeeRecord, error) {
	query := `
		SELECT ` + feeColumns + `
		FROM monthly_fee_records
		WHERE user_id = $1 AND status = 'pending' AND due_date <= $2
		ORDER BY billing_month ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.MonthlyFeeRecord
	for rows.Next() {
		record, err := scanFeeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// MarkCharged transitions pending -> charged. The WHERE guard makes the
// transition race-safe: the loser of a concurrent settlement gets
// domain.ErrFeeAlreadySettled instead of double-charging.
func (r *MonthlyFeeRepository) MarkCharged(ctx context.Context, id, ledgerEntryID string, chargedAt time.Time) error {
	query := `
		UPDATE monthly_fee_records
		SET status = 'charged', charged_at = $3, ledger_entry_id = NULLIF($2, ''), updated_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	return r.transition(ctx, id, query, ledgerEntryID, chargedAt)
}

// MarkFailed transitions pending -> failed under the same guard.
func (r *MonthlyFeeRepository) MarkFailed(ctx context.Context, id string, failedAt time.Time) error {
	query := `
		UPDATE monthly_fee_records
		SET status = 'failed', updated_at = $2
		WHERE id = $1 AND status = 'pending'
	`

	return r.transition(ctx, id, query, failedAt)
}

func (r *MonthlyFeeRepository) transition(ctx context.Context, id, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return err
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM monthly_fee_records WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}

	if !exists {
		return domain.ErrFeeRecordNotFound
	}

	return domain.ErrFeeAlreadySettled
}

// SumPendingByUser sums the user's pending fee amounts.
func (r *MonthlyFeeRepository) SumPendingByUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(fee_amount), 0)
		FROM monthly_fee_records
		WHERE user_id = $1 AND status = 'pending'
	`

	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// ListByUser retrieves a page of the user's records, newest month first.
func (r *MonthlyFeeRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.MonthlyFeeRecord, error) {
	query := `
		SELECT ` + feeColumns + `
		FROM monthly_fee_records
		WHERE user_id = $1
		ORDER BY billing_month DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.MonthlyFeeRecord
	for rows.Next() {
		record, err := scanFeeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func scanFeeRecord(row pgx.Row) (*domain.MonthlyFeeRecord, error) {
	var (
		record    domain.MonthlyFeeRecord
		feeAmount pgtype.Numeric
	)

	err := row.Scan(
		&record.ID,
		&record.CardID,
		&record.UserID,
		&record.TierID,
		&feeAmount,
		&record.BillingMonth,
		&record.DueDate,
		&record.Status,
		&record.ChargedAt,
		&record.LedgerEntryID,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.FeeAmount = numericToDecimal(feeAmount)

	return &record, nil
}
