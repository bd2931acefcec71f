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
	"github.com/iho/cardledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository over the append-only
// ledger_entries table. There are deliberately no UPDATE or DELETE paths.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const ledgerColumns = `id, user_id, type, amount, balance_before, balance_after, reference_type, reference_id, description, metadata, created_at`

// Append writes one entry.
func (r *LedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	return appendEntry(ctx, r.pool, entry)
}

// AppendTx writes one entry inside an existing transaction.
func (r *LedgerRepository) AppendTx(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	return appendEntry(ctx, tx.(*Tx).PgxTx(), entry)
}

func appendEntry(ctx context.Context, q querier, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, user_id, type, amount, balance_before, balance_after,
			reference_type, reference_id, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := q.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Type,
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.BalanceBefore),
		decimalToNumeric(entry.BalanceAfter),
		entry.ReferenceType,
		entry.ReferenceID,
		entry.Description,
		entry.Metadata,
		entry.CreatedAt,
	)

	return err
}

// GetByID retrieves an entry by ID.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE id = $1`

	entry, err := scanLedgerEntry(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNoLedgerEntries
	}

	return entry, err
}

// ListByUser retrieves a page of entries, newest first.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryEntries(ctx, query, userID, limit, offset)
}

// GetAllByUser retrieves every entry for the user in chain order.
func (r *LedgerRepository) GetAllByUser(ctx context.Context, userID string) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	return r.queryEntries(ctx, query, userID)
}

// LatestByUser retrieves the most recent entry.
func (r *LedgerRepository) LatestByUser(ctx context.Context, userID string) (*domain.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	entry, err := scanLedgerEntry(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNoLedgerEntries
	}

	return entry, err
}

// SumByTypesSince sums the absolute amounts of entries of the given types
// created at or after since.
func (r *LedgerRepository) SumByTypesSince(ctx context.Context, userID string, types []domain.TransactionType, since time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(ABS(amount)), 0)
		FROM ledger_entries
		WHERE user_id = $1 AND type = ANY($2) AND created_at >= $3
	`

	typeNames := make([]string, len(types))
	for i, t := range types {
		typeNames[i] = string(t)
	}

	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, userID, typeNames, since).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

func (r *LedgerRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry         domain.LedgerEntry
		amount        pgtype.Numeric
		balanceBefore pgtype.Numeric
		balanceAfter  pgtype.Numeric
	)

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Type,
		&amount,
		&balanceBefore,
		&balanceAfter,
		&entry.ReferenceType,
		&entry.ReferenceID,
		&entry.Description,
		&entry.Metadata,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Amount = numericToDecimal(amount)
	entry.BalanceBefore = numericToDecimal(balanceBefore)
	entry.BalanceAfter = numericToDecimal(balanceAfter)

	return &entry, nil
}
