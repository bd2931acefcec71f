package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cardledger/internal/domain"
)

// BalanceDirection selects the sign of an atomic balance adjustment.
type BalanceDirection string

const (
	BalanceAdd      BalanceDirection = "add"
	BalanceSubtract BalanceDirection = "subtract"
)

// UserRepository defines data access for users and their denormalized balance.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	// ListIDsWithPendingFees returns the ids of users owning at least one
	// pending monthly fee record due as of asOf.
	ListIDsWithPendingFees(ctx context.Context, asOf time.Time) ([]string, error)
	// AdjustBalance atomically applies amount in the given direction and
	// returns the post-mutation balance. Subtracting more than the current
	// balance fails with domain.ErrInsufficientBalance and leaves the
	// balance untouched.
	AdjustBalance(ctx context.Context, id string, amount decimal.Decimal, direction BalanceDirection) (decimal.Decimal, error)
	AdjustBalanceTx(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, direction BalanceDirection) (decimal.Decimal, error)
}

// LedgerRepository defines data access for the append-only balance ledger.
type LedgerRepository interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) error
	AppendTx(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.LedgerEntry, error)
	// GetAllByUser returns every entry for the user ordered by creation time.
	// Reporting path only.
	GetAllByUser(ctx context.Context, userID string) ([]*domain.LedgerEntry, error)
	// LatestByUser returns the most recent entry, or
	// domain.ErrNoLedgerEntries when the user has none.
	LatestByUser(ctx context.Context, userID string) (*domain.LedgerEntry, error)
	// SumByTypesSince sums the absolute amounts of entries of the given
	// types created at or after since.
	SumByTypesSince(ctx context.Context, userID string, types []domain.TransactionType, since time.Time) (decimal.Decimal, error)
}

// MonthlyFeeRepository defines data access for scheduled monthly card fees.
type MonthlyFeeRepository interface {
	// CreateIfAbsent inserts the record unless one already exists for its
	// (CardID, BillingMonth) pair. Returns true when a row was created.
	CreateIfAbsent(ctx context.Context, record *domain.MonthlyFeeRecord) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.MonthlyFeeRecord, error)
	FindPendingDue(ctx context.Context, userID string, asOf time.Time) ([]*domain.MonthlyFeeRecord, error)
	// MarkCharged transitions pending -> charged. It fails with
	// domain.ErrFeeAlreadySettled when the record is no longer pending.
	MarkCharged(ctx context.Context, id, ledgerEntryID string, chargedAt time.Time) error
	// MarkFailed transitions pending -> failed under the same guard.
	MarkFailed(ctx context.Context, id string, failedAt time.Time) error
	SumPendingByUser(ctx context.Context, userID string) (decimal.Decimal, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.MonthlyFeeRecord, error)
}

// TierRepository defines data access for fee tiers.
type TierRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Tier, error)
	List(ctx context.Context) ([]*domain.Tier, error)
}

// TierService resolves a user's fee schedule.
type TierService interface {
	// GetUserTierInfo returns the tier for the user, or
	// domain.ErrUserNotFound / domain.ErrTierNotFound.
	GetUserTierInfo(ctx context.Context, userID string) (*domain.Tier, error)
}

// CardRepository defines data access for issued cards.
type CardRepository interface {
	Create(ctx context.Context, card *domain.Card) error
	GetByID(ctx context.Context, id string) (*domain.Card, error)
	GetByProviderCardID(ctx context.Context, providerCardID string) (*domain.Card, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Card, error)
	ListActive(ctx context.Context, limit, offset int) ([]*domain.Card, error)
	UpdateStatus(ctx context.Context, id string, status domain.CardStatus, updatedAt time.Time) error
}

// WebhookRepository defines data access for provider webhook events.
type WebhookRepository interface {
	Create(ctx context.Context, event *domain.WebhookEvent) error
	GetUnprocessed(ctx context.Context, limit int) ([]*domain.WebhookEvent, error)
	MarkProcessed(ctx context.Context, id string, processedAt time.Time) error
	IncrementAttempts(ctx context.Context, id string) error
	DeleteProcessed(ctx context.Context, before time.Time) error
}

// IssueCardRequest is the internal request for issuing a card.
type IssueCardRequest struct {
	UserID         string
	CardholderName string
	Currency       string
}

// IssuedCard is the provider's view of a card, converted at the boundary.
type IssuedCard struct {
	ProviderCardID string
	Last4          string
	Brand          string
	Status         domain.CardStatus
	Currency       string
}

// CardIssuer is the third-party card-issuing API.
type CardIssuer interface {
	IssueCard(ctx context.Context, req IssueCardRequest) (*IssuedCard, error)
	GetCard(ctx context.Context, providerCardID string) (*IssuedCard, error)
	TerminateCard(ctx context.Context, providerCardID string) error
}

// DepositAddress is a crypto deposit address provisioned for a user.
type DepositAddress struct {
	Address string
	Asset   string
	Network string
}

// PayoutRequest asks the processor to send funds out.
type PayoutRequest struct {
	UserID      string
	Destination string
	Asset       string
	Amount      decimal.Decimal
}

// Payout is the processor's view of a withdrawal.
type Payout struct {
	ProviderRef string
	Status      string
	Amount      decimal.Decimal
}

// CryptoProcessor is the third-party crypto payment API.
type CryptoProcessor interface {
	CreateDepositAddress(ctx context.Context, userID, asset string) (*DepositAddress, error)
	CreatePayout(ctx context.Context, req PayoutRequest) (*Payout, error)
}

// BillingLocker serializes fee processing per user across workers.
type BillingLocker interface {
	// Acquire takes the per-user billing lock and returns a release
	// function, or domain.ErrBillingInProgress when another worker holds it.
	Acquire(ctx context.Context, userID string, ttl time.Duration) (func(), error)
}

// SessionStore holds authenticated sessions.
type SessionStore interface {
	Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
	// PurgeExpired removes sessions whose expiry passed before the cutoff
	// and returns how many were removed.
	PurgeExpired(ctx context.Context, before time.Time) (int, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a reserved key so the operation can be retried.
	Delete(ctx context.Context, key string) error
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}
