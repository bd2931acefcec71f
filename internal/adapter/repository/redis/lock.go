package redis

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
)

// releaseScript deletes the lock only when the caller still owns it, so a
// worker whose lock expired cannot release a lock re-acquired by another.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// BillingLocker implements usecase.BillingLocker with Redis SETNX locks.
type BillingLocker struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewBillingLocker creates a new BillingLocker.
func NewBillingLocker(client *redis.Client, logger zerolog.Logger) *BillingLocker {
	return &BillingLocker{
		client: client,
		prefix: "billing:lock:",
		logger: logger.With().Str("component", "billing_locker").Logger(),
	}
}

// Acquire takes the per-user billing lock. It returns
// domain.ErrBillingInProgress when another worker holds the lock.
func (l *BillingLocker) Acquire(ctx context.Context, userID string, ttl time.Duration) (func(), error) {
	key := l.prefix + userID
	token := ulid.Make().String()

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrBillingInProgress
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Error().Err(err).Str("user_id", userID).Msg("failed to release billing lock")
		}
	}

	return release, nil
}
