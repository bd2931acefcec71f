package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements usecase.UserRepository.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, name, hashed_password, tier_id, role, balance, active, created_at, updated_at`

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, hashed_password, tier_id, role, balance, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.HashedPassword,
		user.TierID,
		user.Role,
		decimalToNumeric(user.Balance),
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}

	return user, err
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}

	return user, err
}

// Update updates a user's mutable fields. Balance is excluded; it only moves
// through AdjustBalance.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, hashed_password = $3, tier_id = $4, role = $5, active = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.HashedPassword,
		user.TierID,
		user.Role,
		user.Active,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// List retrieves users with pagination.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// ListIDsWithPendingFees returns users owning at least one pending monthly
// fee record due as of asOf.
func (r *UserRepository) ListIDsWithPendingFees(ctx context.Context, asOf time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM monthly_fee_records
		WHERE status = 'pending' AND due_date <= $1
		ORDER BY user_id
	`

	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// AdjustBalance atomically applies amount in the given direction and returns
// the post-mutation balance. The subtract form is conditional on sufficient
// funds, so two concurrent debits cannot overdraw the account.
func (r *UserRepository) AdjustBalance(ctx context.Context, id string, amount decimal.Decimal, direction usecase.BalanceDirection) (decimal.Decimal, error) {
	return adjustBalance(ctx, r.pool, id, amount, direction)
}

// AdjustBalanceTx is AdjustBalance inside an existing transaction.
func (r *UserRepository) AdjustBalanceTx(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, direction usecase.BalanceDirection) (decimal.Decimal, error) {
	return adjustBalance(ctx, tx.(*Tx).PgxTx(), id, amount, direction)
}

func adjustBalance(ctx context.Context, q querier, id string, amount decimal.Decimal, direction usecase.BalanceDirection) (decimal.Decimal, error) {
	var query string

	switch direction {
	case usecase.BalanceSubtract:
		query = `
			UPDATE users
			SET balance = balance - $2, updated_at = now()
			WHERE id = $1 AND balance >= $2
			RETURNING balance
		`
	default:
		query = `
			UPDATE users
			SET balance = balance + $2, updated_at = now()
			WHERE id = $1
			RETURNING balance
		`
	}

	var balance pgtype.Numeric
	err := q.QueryRow(ctx, query, id, decimalToNumeric(amount)).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the user is gone or the balance guard rejected the debit.
		var exists bool
		if checkErr := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); checkErr != nil {
			return decimal.Zero, checkErr
		}

		if !exists {
			return decimal.Zero, domain.ErrUserNotFound
		}

		return decimal.Zero, domain.ErrInsufficientBalance
	}

	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(balance), nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user    domain.User
		balance pgtype.Numeric
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.HashedPassword,
		&user.TierID,
		&user.Role,
		&balance,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Balance = numericToDecimal(balance)

	return &user, nil
}
