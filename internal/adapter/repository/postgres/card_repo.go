package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cardledger/internal/domain"
)

// CardRepository implements usecase.CardRepository.
type CardRepository struct {
	pool *pgxpool.Pool
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(pool *pgxpool.Pool) *CardRepository {
	return &CardRepository{pool: pool}
}

const cardColumns = `id, user_id, provider_card_id, last4, brand, currency, status, created_at, updated_at`

// Create inserts a new card.
func (r *CardRepository) Create(ctx context.Context, card *domain.Card) error {
	query := `
		INSERT INTO cards (id, user_id, provider_card_id, last4, brand, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		card.ID,
		card.UserID,
		card.ProviderCardID,
		card.Last4,
		card.Brand,
		card.Currency,
		card.Status,
		card.CreatedAt,
		card.UpdatedAt,
	)

	return err
}

// GetByID retrieves a card by ID.
func (r *CardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCardNotFound
	}

	return card, err
}

// GetByProviderCardID retrieves a card by the provider's identifier.
func (r *CardRepository) GetByProviderCardID(ctx context.Context, providerCardID string) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE provider_card_id = $1`

	card, err := scanCard(r.pool.QueryRow(ctx, query, providerCardID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCardNotFound
	}

	return card, err
}

// ListByUser retrieves a page of the user's cards.
func (r *CardRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	return r.queryCards(ctx, query, userID, limit, offset)
}

// ListActive retrieves a stable page of active cards for sweeps.
func (r *CardRepository) ListActive(ctx context.Context, limit, offset int) ([]*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE status = 'active'
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	return r.queryCards(ctx, query, limit, offset)
}

// UpdateStatus sets a card's lifecycle status.
func (r *CardRepository) UpdateStatus(ctx context.Context, id string, status domain.CardStatus, updatedAt time.Time) error {
	query := `UPDATE cards SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status, updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}

	return nil
}

func (r *CardRepository) queryCards(ctx context.Context, query string, args ...any) ([]*domain.Card, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	return cards, rows.Err()
}

func scanCard(row pgx.Row) (*domain.Card, error) {
	var card domain.Card

	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.ProviderCardID,
		&card.Last4,
		&card.Brand,
		&card.Currency,
		&card.Status,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &card, nil
}
