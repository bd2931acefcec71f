package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Billing metrics
	MonthlyFeesScheduled prometheus.Counter
	MonthlyFeesCharged   prometheus.Counter
	MonthlyFeesFailed    prometheus.Counter
	BillingRunDuration   prometheus.Histogram
	CardCreationFees     prometheus.Counter

	// Ledger metrics
	LedgerEntriesCreated *prometheus.CounterVec
	LedgerAppendErrors   prometheus.Counter

	// Card metrics
	CardsIssued     prometheus.Counter
	CardSyncUpdates prometheus.Counter

	// Funding metrics
	DepositsSettled      prometheus.Counter
	WithdrawalsRequested prometheus.Counter
	DepositAmount        prometheus.Histogram

	// Job metrics
	JobRuns     *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec

	// Webhook metrics
	WebhookEventsReceived  *prometheus.CounterVec
	WebhookEventsProcessed *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		MonthlyFeesScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_monthly_fees_scheduled_total",
			Help: "Total number of monthly fee records scheduled",
		}),
		MonthlyFeesCharged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_monthly_fees_charged_total",
			Help: "Total number of monthly fees charged",
		}),
		MonthlyFeesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_monthly_fees_failed_total",
			Help: "Total number of monthly fees marked failed",
		}),
		BillingRunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardledger_billing_run_duration_seconds",
			Help:    "Duration of per-user pending fee runs",
			Buckets: prometheus.DefBuckets,
		}),
		CardCreationFees: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_card_creation_fees_total",
			Help: "Total number of card creation fees applied",
		}),

		LedgerEntriesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_ledger_entries_total",
				Help: "Total ledger entries appended by transaction type",
			},
			[]string{"type"},
		),
		LedgerAppendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_ledger_append_errors_total",
			Help: "Total failed ledger appends",
		}),

		CardsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_cards_issued_total",
			Help: "Total number of cards issued",
		}),
		CardSyncUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_card_sync_updates_total",
			Help: "Total card status updates applied by the sync job",
		}),

		DepositsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_deposits_settled_total",
			Help: "Total number of settled deposits",
		}),
		WithdrawalsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_withdrawals_requested_total",
			Help: "Total number of withdrawal requests",
		}),
		DepositAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardledger_deposit_amount",
			Help:    "Gross deposit amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		}),

		JobRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_job_runs_total",
				Help: "Total background job runs by job and status",
			},
			[]string{"job", "status"},
		),
		JobDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardledger_job_duration_seconds",
				Help:    "Background job run duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		),

		WebhookEventsReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_webhook_events_received_total",
				Help: "Total webhook events received by provider",
			},
			[]string{"provider"},
		),
		WebhookEventsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_webhook_events_processed_total",
				Help: "Total webhook events processed by outcome",
			},
			[]string{"status"},
		),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_http_requests_total",
				Help: "Total HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardledger_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}
