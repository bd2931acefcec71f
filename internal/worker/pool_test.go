package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsIntervalJob(t *testing.T) {
	pool := NewPool(zerolog.Nop(), nil)

	var runs atomic.Int32
	err := pool.Every(5*time.Millisecond, Job{
		Name: "tick",
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	require.NoError(t, err)

	pool.Start()
	time.Sleep(40 * time.Millisecond)
	pool.Stop()

	assert.Positive(t, runs.Load())

	settled := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, runs.Load(), "job must not run after Stop")
}

func TestPoolRejectsInvalidSchedule(t *testing.T) {
	pool := NewPool(zerolog.Nop(), nil)

	err := pool.Schedule("not a cron spec", Job{Name: "bad", Run: func(ctx context.Context) error { return nil }})
	require.Error(t, err)
}

func TestPoolRejectsSchedulingAfterStart(t *testing.T) {
	pool := NewPool(zerolog.Nop(), nil)
	pool.Start()
	defer pool.Stop()

	err := pool.Every(time.Second, Job{Name: "late", Run: func(ctx context.Context) error { return nil }})
	require.Error(t, err)

	err = pool.Schedule("* * * * *", Job{Name: "late-cron", Run: func(ctx context.Context) error { return nil }})
	require.Error(t, err)
}

func TestPoolRejectsNonPositiveInterval(t *testing.T) {
	pool := NewPool(zerolog.Nop(), nil)

	err := pool.Every(0, Job{Name: "zero", Run: func(ctx context.Context) error { return nil }})
	require.Error(t, err)
}

func TestPoolStartStopIdempotent(t *testing.T) {
	pool := NewPool(zerolog.Nop(), nil)

	pool.Start()
	pool.Start()
	pool.Stop()
	pool.Stop()
}

func TestPoolCancelsJobContextOnStop(t *testing.T) {
	pool := NewPool(zerolog.Nop(), nil)

	canceled := make(chan struct{})
	err := pool.Every(5*time.Millisecond, Job{
		Name: "blocker",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			close(canceled)
			return ctx.Err()
		},
	})
	require.NoError(t, err)

	pool.Start()
	time.Sleep(15 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return; job context was not canceled")
	}

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("job context was never canceled")
	}
}
