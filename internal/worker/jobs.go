package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/usecase"
)

type feeProcessor interface {
	ProcessPendingMonthlyFees(ctx context.Context, userID string) (*usecase.BillingRunResult, error)
}

type pendingFeeLister interface {
	ListIDsWithPendingFees(ctx context.Context, asOf time.Time) ([]string, error)
}

type feeScheduler interface {
	ScheduleMonthlyFees(ctx context.Context) (int, error)
}

type cardSyncer interface {
	SyncActiveCards(ctx context.Context) (int, error)
}

type ledgerChecker interface {
	CheckAll(ctx context.Context) (*usecase.ReconciliationReport, error)
}

type webhookDrainer interface {
	ProcessPending(ctx context.Context, batchSize int) (int, error)
	PurgeProcessed(ctx context.Context, before time.Time) error
}

type sessionPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int, error)
}

// NewBillingJob charges every due monthly fee. Users are billed one at a
// time so one bad account cannot sink the whole run.
func NewBillingJob(users pendingFeeLister, pricing feeProcessor, logger zerolog.Logger) Job {
	return Job{
		Name: "billing",
		Run: func(ctx context.Context) error {
			userIDs, err := users.ListIDsWithPendingFees(ctx, time.Now().UTC())
			if err != nil {
				return err
			}

			for _, userID := range userIDs {
				result, err := pricing.ProcessPendingMonthlyFees(ctx, userID)
				if err != nil {
					logger.Error().Err(err).Str("user_id", userID).Msg("billing run failed for user")
					continue
				}
				logger.Info().
					Str("user_id", userID).
					Int("processed", result.Processed).
					Int("failed", result.Failed).
					Str("total", result.TotalAmount.String()).
					Msg("billed pending monthly fees")
			}

			return nil
		},
	}
}

// NewFeeScheduleJob creates next month's fee records for active cards.
func NewFeeScheduleJob(cards feeScheduler, logger zerolog.Logger) Job {
	return Job{
		Name: "fee_schedule",
		Run: func(ctx context.Context) error {
			scheduled, err := cards.ScheduleMonthlyFees(ctx)
			if err != nil {
				return err
			}
			logger.Info().Int("scheduled", scheduled).Msg("scheduled monthly card fees")
			return nil
		},
	}
}

// NewCardSyncJob refreshes card statuses from the issuer.
func NewCardSyncJob(cards cardSyncer, logger zerolog.Logger) Job {
	return Job{
		Name: "card_sync",
		Run: func(ctx context.Context) error {
			updated, err := cards.SyncActiveCards(ctx)
			if err != nil {
				return err
			}
			if updated > 0 {
				logger.Info().Int("updated", updated).Msg("synced card statuses")
			}
			return nil
		},
	}
}

// NewReconciliationJob compares stored balances against the ledger.
func NewReconciliationJob(recon ledgerChecker, logger zerolog.Logger) Job {
	return Job{
		Name: "reconciliation",
		Run: func(ctx context.Context) error {
			report, err := recon.CheckAll(ctx)
			if err != nil {
				return err
			}
			if len(report.Inconsistent) > 0 {
				logger.Warn().
					Int("checked", report.UsersChecked).
					Int("inconsistent", len(report.Inconsistent)).
					Msg("ledger reconciliation found drift")
			}
			return nil
		},
	}
}

// NewWebhookDrainJob processes the webhook inbox.
func NewWebhookDrainJob(webhooks webhookDrainer, batchSize int) Job {
	return Job{
		Name: "webhook_drain",
		Run: func(ctx context.Context) error {
			_, err := webhooks.ProcessPending(ctx, batchSize)
			return err
		},
	}
}

// NewCleanupJob reclaims expired sessions and old processed webhook events.
func NewCleanupJob(sessions sessionPurger, webhooks webhookDrainer, retention time.Duration, logger zerolog.Logger) Job {
	return Job{
		Name: "cleanup",
		Run: func(ctx context.Context) error {
			now := time.Now().UTC()

			purged, err := sessions.PurgeExpired(ctx, now)
			if err != nil {
				return err
			}
			if purged > 0 {
				logger.Info().Int("sessions", purged).Msg("purged expired sessions")
			}

			return webhooks.PurgeProcessed(ctx, now.Add(-retention))
		},
	}
}
