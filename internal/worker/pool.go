// Package worker schedules the background jobs: monthly fee scheduling
// and charging, card status sync, ledger reconciliation, webhook
// draining and storage cleanup.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/infrastructure/metrics"
)

// Job is a named unit of background work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type intervalJob struct {
	job      Job
	interval time.Duration
}

// Pool runs cron-scheduled and fixed-interval jobs until stopped.
type Pool struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu           sync.Mutex
	started      bool
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	intervalJobs []intervalJob
	jobNames     []string
}

// NewPool creates an empty worker pool.
func NewPool(logger zerolog.Logger, m *metrics.Metrics) *Pool {
	return &Pool{
		cron:    cron.New(),
		logger:  logger.With().Str("component", "worker").Logger(),
		metrics: m,
	}
}

// Schedule registers a job on a cron expression. Must be called before Start.
func (p *Pool) Schedule(spec string, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("cannot schedule %q: pool already started", job.Name)
	}

	_, err := p.cron.AddFunc(spec, func() {
		p.runJob(context.Background(), job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", job.Name, err)
	}

	p.jobNames = append(p.jobNames, job.Name)
	return nil
}

// Every registers a job on a fixed interval. Must be called before Start.
func (p *Pool) Every(interval time.Duration, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("cannot schedule %q: pool already started", job.Name)
	}
	if interval <= 0 {
		return fmt.Errorf("job %q needs a positive interval", job.Name)
	}

	p.intervalJobs = append(p.intervalJobs, intervalJob{job: job, interval: interval})
	p.jobNames = append(p.jobNames, job.Name)
	return nil
}

// Start begins executing scheduled jobs.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.started = true

	for _, ij := range p.intervalJobs {
		p.wg.Add(1)
		go p.runInterval(ctx, ij)
	}

	p.cron.Start()
	p.logger.Info().Strs("jobs", p.jobNames).Msg("worker pool started")
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	cronCtx := p.cron.Stop()
	<-cronCtx.Done()
	p.wg.Wait()

	p.logger.Info().Msg("worker pool stopped")
}

func (p *Pool) runInterval(ctx context.Context, ij intervalJob) {
	defer p.wg.Done()

	ticker := time.NewTicker(ij.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runJob(ctx, ij.job)
		}
	}
}

func (p *Pool) runJob(ctx context.Context, job Job) {
	start := time.Now()
	logger := p.logger.With().Str("job", job.Name).Logger()

	err := job.Run(ctx)

	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.JobDuration.WithLabelValues(job.Name).Observe(elapsed.Seconds())
	}

	if err != nil {
		if p.metrics != nil {
			p.metrics.JobRuns.WithLabelValues(job.Name, "error").Inc()
		}
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("job failed")
		return
	}

	if p.metrics != nil {
		p.metrics.JobRuns.WithLabelValues(job.Name, "ok").Inc()
	}
	logger.Debug().Dur("elapsed", elapsed).Msg("job finished")
}
