package cma

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/fivetwenty-io/cma/internal/constants"
)

// BatchResult is the outcome of one lifecycle action in a batch.
type BatchResult[T any] struct {
	ID       string
	Success  bool
	Envelope *Envelope[T]
	Error    error
	Duration time.Duration
}

// BatchAction is a lifecycle action applied to one envelope. It may return a
// nil envelope, as Delete does.
type BatchAction[T any] func(ctx context.Context, envelope *Envelope[T]) (*Envelope[T], error)

// BatchExecutor applies lifecycle actions to many envelopes at once. The
// executor bounds its own goroutines; the transport's admission control still
// bounds requests in flight.
type BatchExecutor[T any] struct {
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor. A non-positive concurrency
// selects the default.
func NewBatchExecutor[T any](concurrency int) *BatchExecutor[T] {
	if concurrency <= 0 {
		concurrency = constants.DefaultBatchConcurrency
	}

	return &BatchExecutor[T]{
		concurrency: concurrency,
	}
}

// SetTimeout bounds each action. Zero means no bound beyond ctx.
func (b *BatchExecutor[T]) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs action over envelopes. Results are in input order. The error
// aggregates every failure, or is nil when all actions succeeded.
func (b *BatchExecutor[T]) Execute(ctx context.Context, envelopes []*Envelope[T], action BatchAction[T]) ([]BatchResult[T], error) {
	results := make([]BatchResult[T], len(envelopes))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, envelope := range envelopes {
		waitGroup.Add(1)

		go func(index int, envelope *Envelope[T]) {
			defer waitGroup.Done()

			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			results[index] = b.run(ctx, envelope, action)
		}(index, envelope)
	}

	waitGroup.Wait()

	var result *multierror.Error

	for _, res := range results {
		if res.Error != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", res.ID, res.Error))
		}
	}

	return results, result.ErrorOrNil()
}

func (b *BatchExecutor[T]) run(ctx context.Context, envelope *Envelope[T], action BatchAction[T]) BatchResult[T] {
	result := BatchResult[T]{ID: envelope.ID()}

	opCtx := ctx

	if b.timeout > 0 {
		var cancel context.CancelFunc

		opCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	updated, err := action(opCtx, envelope)
	result.Duration = time.Since(start)
	result.Envelope = updated
	result.Error = err
	result.Success = err == nil

	return result
}

// PublishAll publishes every envelope.
func (b *BatchExecutor[T]) PublishAll(ctx context.Context, envelopes []*Envelope[T]) ([]BatchResult[T], error) {
	return b.Execute(ctx, envelopes, func(ctx context.Context, envelope *Envelope[T]) (*Envelope[T], error) {
		return envelope.Publish(ctx)
	})
}

// UnpublishAll unpublishes every envelope.
func (b *BatchExecutor[T]) UnpublishAll(ctx context.Context, envelopes []*Envelope[T]) ([]BatchResult[T], error) {
	return b.Execute(ctx, envelopes, func(ctx context.Context, envelope *Envelope[T]) (*Envelope[T], error) {
		return envelope.Unpublish(ctx)
	})
}

// ArchiveAll archives every envelope.
func (b *BatchExecutor[T]) ArchiveAll(ctx context.Context, envelopes []*Envelope[T]) ([]BatchResult[T], error) {
	return b.Execute(ctx, envelopes, func(ctx context.Context, envelope *Envelope[T]) (*Envelope[T], error) {
		return envelope.Archive(ctx)
	})
}

// DeleteAll deletes every envelope.
func (b *BatchExecutor[T]) DeleteAll(ctx context.Context, envelopes []*Envelope[T]) ([]BatchResult[T], error) {
	return b.Execute(ctx, envelopes, func(ctx context.Context, envelope *Envelope[T]) (*Envelope[T], error) {
		return nil, envelope.Delete(ctx)
	})
}
