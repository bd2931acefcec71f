package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cardledger/internal/domain"
)

// WebhookRepository implements usecase.WebhookRepository. Events are an
// inbox: written at the HTTP boundary, drained by the webhook job.
type WebhookRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookRepository creates a new WebhookRepository.
func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

// Create inserts a new event.
func (r *WebhookRepository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (id, provider, event_type, payload, processed, attempts, created_at)
		VALUES ($1, $2, $3, $4, false, 0, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Provider,
		event.EventType,
		event.Payload,
		event.CreatedAt,
	)

	return err
}

// GetUnprocessed retrieves the oldest unprocessed events.
func (r *WebhookRepository) GetUnprocessed(ctx context.Context, limit int) ([]*domain.WebhookEvent, error) {
	query := `
		SELECT id, provider, event_type, payload, processed, processed_at, attempts, created_at
		FROM webhook_events
		WHERE processed = false
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.WebhookEvent
	for rows.Next() {
		event, err := scanWebhookEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// MarkProcessed flags an event as settled.
func (r *WebhookRepository) MarkProcessed(ctx context.Context, id string, processedAt time.Time) error {
	query := `UPDATE webhook_events SET processed = true, processed_at = $2 WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id, processedAt)

	return err
}

// IncrementAttempts records a failed processing attempt.
func (r *WebhookRepository) IncrementAttempts(ctx context.Context, id string) error {
	query := `UPDATE webhook_events SET attempts = attempts + 1 WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id)

	return err
}

// DeleteProcessed removes processed events older than the cutoff.
func (r *WebhookRepository) DeleteProcessed(ctx context.Context, before time.Time) error {
	query := `DELETE FROM webhook_events WHERE processed = true AND processed_at < $1`

	_, err := r.pool.Exec(ctx, query, before)

	return err
}

func scanWebhookEvent(row pgx.Row) (*domain.WebhookEvent, error) {
	var event domain.WebhookEvent

	err := row.Scan(
		&event.ID,
		&event.Provider,
		&event.EventType,
		&event.Payload,
		&event.Processed,
		&event.ProcessedAt,
		&event.Attempts,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &event, nil
}
