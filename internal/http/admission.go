package http

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Stats is a snapshot of admission state.
type Stats struct {
	Concurrency int
	InFlight    int
	Queued      int
	PeakFlight  int
	Admitted    int64
}

// admission caps requests in flight and paces their starts. It is shared by a
// client and every clone derived from it.
type admission struct {
	concurrency int
	slots       *semaphore.Weighted
	limiter     *rate.Limiter
	metrics     *Metrics

	mu       sync.Mutex
	inFlight int
	queued   int
	peak     int
	admitted int64
}

// newAdmission allows concurrency requests in flight; each slot starts at
// most one request per delay. A zero delay disables pacing.
func newAdmission(concurrency int, delay time.Duration) *admission {
	if concurrency <= 0 {
		concurrency = 1
	}

	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay / time.Duration(concurrency))
	}

	return &admission{
		concurrency: concurrency,
		slots:       semaphore.NewWeighted(int64(concurrency)),
		limiter:     rate.NewLimiter(limit, concurrency),
	}
}

// acquire waits in FIFO order for a slot and then for the pacing limiter. On
// success the caller must call release exactly once.
func (a *admission) acquire(ctx context.Context) error {
	start := time.Now()

	a.mu.Lock()
	a.queued++
	a.mu.Unlock()

	err := a.slots.Acquire(ctx, 1)

	a.mu.Lock()
	a.queued--

	if err == nil {
		a.inFlight++
		a.admitted++

		if a.inFlight > a.peak {
			a.peak = a.inFlight
		}
	}
	a.mu.Unlock()

	if err != nil {
		return fmt.Errorf("waiting for request slot: %w", err)
	}

	a.metrics.observeAdmission(time.Since(start))

	err = a.pace(ctx)
	if err != nil {
		a.release()

		return err
	}

	return nil
}

// pace blocks until the limiter allows another request start.
func (a *admission) pace(ctx context.Context) error {
	err := a.limiter.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	return nil
}

func (a *admission) release() {
	a.mu.Lock()
	a.inFlight--
	a.mu.Unlock()

	a.metrics.observeRelease()
	a.slots.Release(1)
}

func (a *admission) stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Stats{
		Concurrency: a.concurrency,
		InFlight:    a.inFlight,
		Queued:      a.queued,
		PeakFlight:  a.peak,
		Admitted:    a.admitted,
	}
}
