package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore implements usecase.SessionStore. Each session is a keyed
// value expiring with its TTL; a sorted set indexed by expiry backs
// PurgeExpired so sweeps don't scan the keyspace.
type SessionStore struct {
	client   *redis.Client
	prefix   string
	indexKey string
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{
		client:   client,
		prefix:   "session:",
		indexKey: "sessions:by_expiry",
	}
}

// Save stores a session with TTL and records its expiry in the index.
func (s *SessionStore) Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)

	if err := s.client.Set(ctx, s.prefix+sessionID, userID, ttl).Err(); err != nil {
		return err
	}

	return s.client.ZAdd(ctx, s.indexKey, redis.Z{
		Score:  float64(expiresAt.Unix()),
		Member: sessionID,
	}).Err()
}

// Delete removes a session and its index entry.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.prefix+sessionID).Err(); err != nil {
		return err
	}

	return s.client.ZRem(ctx, s.indexKey, sessionID).Err()
}

// PurgeExpired removes sessions whose expiry passed before the cutoff and
// returns how many were removed. The keys themselves expire on their own;
// this reclaims the index.
func (s *SessionStore) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	cutoff := strconv.FormatInt(before.Unix(), 10)

	expired, err := s.client.ZRangeByScore(ctx, s.indexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: cutoff,
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	keys := make([]string, len(expired))
	for i, id := range expired {
		keys[i] = s.prefix + id
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}

	if err := s.client.ZRemRangeByScore(ctx, s.indexKey, "-inf", cutoff).Err(); err != nil {
		return 0, err
	}

	return len(expired), nil
}
