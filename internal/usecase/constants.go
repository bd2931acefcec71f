package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// BillingLockTTL bounds how long a per-user billing lock can be held if
	// the holder dies without releasing it
	BillingLockTTL = 2 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// TierCacheTTL is how long a user's tier info is cached
	TierCacheTTL = 5 * time.Minute
)
