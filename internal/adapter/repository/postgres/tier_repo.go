package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cardledger/internal/domain"
)

// TierRepository implements usecase.TierRepository.
type TierRepository struct {
	pool *pgxpool.Pool
}

// NewTierRepository creates a new TierRepository.
func NewTierRepository(pool *pgxpool.Pool) *TierRepository {
	return &TierRepository{pool: pool}
}

const tierColumns = `id, display_name, level, card_creation_fee, card_monthly_fee, deposit_fee_percentage, withdrawal_fee_percentage`

// GetByID retrieves a tier by ID.
func (r *TierRepository) GetByID(ctx context.Context, id string) (*domain.Tier, error) {
	query := `SELECT ` + tierColumns + ` FROM tiers WHERE id = $1`

	tier, err := scanTier(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTierNotFound
	}

	return tier, err
}

// List retrieves all tiers ordered by level.
func (r *TierRepository) List(ctx context.Context) ([]*domain.Tier, error) {
	query := `SELECT ` + tierColumns + ` FROM tiers ORDER BY level ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []*domain.Tier
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}

	return tiers, rows.Err()
}

func scanTier(row pgx.Row) (*domain.Tier, error) {
	var (
		tier          domain.Tier
		creationFee   pgtype.Numeric
		monthlyFee    pgtype.Numeric
		depositPct    pgtype.Numeric
		withdrawalPct pgtype.Numeric
	)

	err := row.Scan(
		&tier.ID,
		&tier.DisplayName,
		&tier.Level,
		&creationFee,
		&monthlyFee,
		&depositPct,
		&withdrawalPct,
	)
	if err != nil {
		return nil, err
	}

	tier.CardCreationFee = numericToDecimal(creationFee)
	tier.CardMonthlyFee = numericToDecimal(monthlyFee)
	tier.DepositFeePercentage = numericToDecimal(depositPct)
	tier.WithdrawalFeePercentage = numericToDecimal(withdrawalPct)

	return &tier, nil
}
