// Package fanout joins groups of independent dependent calls.
//
// Every combinator starts all tasks at once and reports results in task
// order, whatever order they complete in:
//   - All fails if any task fails (all-succeed).
//   - Bundle always completes and reports a per-task Outcome (best-effort).
//   - Any succeeds with the first successful task.
//
// An optional timeout bounds the wait; on expiry the join completes as a
// failure instead of hanging on a task that never settles.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/todosoa/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// Task is one dependent call of a fan-out.
type Task[T any] func(ctx context.Context) (T, error)

// Outcome is the settled result of one task in a Bundle.
type Outcome[T any] struct {
	Value T
	Err   error
}

type config struct {
	timeout time.Duration
	limit   int
}

// Option configures a join.
type Option func(*config)

// WithTimeout bounds the whole join. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithLimit caps the number of tasks running at once. Zero means no cap.
func WithLimit(n int) Option {
	return func(c *config) {
		c.limit = n
	}
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// All runs every task concurrently and waits for all of them to settle.
// It returns the values in task order, or an error wrapping
// domain.ErrAggregateFailure and the first task failure.
func All[T any](ctx context.Context, tasks []Task[T], opts ...Option) ([]T, error) {
	cfg := newConfig(opts)
	if len(tasks) == 0 {
		return []T{}, nil
	}

	ctx, cancel := cfg.context(ctx)
	defer cancel()

	results := make([]T, len(tasks))
	var g errgroup.Group
	if cfg.limit > 0 {
		g.SetLimit(cfg.limit)
	}

	done := make(chan error, 1)
	go func() {
		for i, task := range tasks {
			i, task := i, task
			g.Go(func() error {
				v, err := task(ctx)
				if err != nil {
					return fmt.Errorf("task %d: %w", i, err)
				}
				results[i] = v
				return nil
			})
		}
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				// tasks gave up because the join timed out
				return nil, fmt.Errorf("%w: %w", domain.ErrAggregateFailure, ctxErr)
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrAggregateFailure, err)
		}
		return results, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrAggregateFailure, ctx.Err())
	}
}

// Bundle runs every task concurrently and always completes, reporting one
// Outcome per task in task order. Tasks still running when the join times
// out are reported with the context error.
func Bundle[T any](ctx context.Context, tasks []Task[T], opts ...Option) []Outcome[T] {
	cfg := newConfig(opts)
	outcomes := make([]Outcome[T], len(tasks))
	if len(tasks) == 0 {
		return outcomes
	}

	ctx, cancel := cfg.context(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		settled = make([]bool, len(tasks))
		closed  bool
		wg      sync.WaitGroup
		sem     chan struct{}
	)
	if cfg.limit > 0 {
		sem = make(chan struct{}, cfg.limit)
	}

	for i, task := range tasks {
		i, task := i, task
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					return
				}
			}
			v, err := task(ctx)

			mu.Lock()
			defer mu.Unlock()
			if closed {
				return
			}
			outcomes[i] = Outcome[T]{Value: v, Err: err}
			settled[i] = true
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	closed = true
	for i := range outcomes {
		if !settled[i] {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			outcomes[i] = Outcome[T]{Err: err}
		}
	}
	return outcomes
}

// Any runs every task concurrently and returns the first successful value.
// It fails with domain.ErrAggregateFailure when every task fails.
func Any[T any](ctx context.Context, tasks []Task[T], opts ...Option) (T, error) {
	var zero T
	cfg := newConfig(opts)
	if len(tasks) == 0 {
		return zero, fmt.Errorf("%w: no tasks", domain.ErrAggregateFailure)
	}

	ctx, cancel := cfg.context(ctx)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	results := make(chan result, len(tasks))
	for _, task := range tasks {
		task := task
		go func() {
			v, err := task(ctx)
			results <- result{value: v, err: err}
		}()
	}

	var errs []error
	for range tasks {
		select {
		case r := <-results:
			if r.err == nil {
				return r.value, nil
			}
			errs = append(errs, r.err)
		case <-ctx.Done():
			return zero, fmt.Errorf("%w: %w", domain.ErrAggregateFailure, ctx.Err())
		}
	}
	return zero, fmt.Errorf("%w: %w", domain.ErrAggregateFailure, errors.Join(errs...))
}

// Failures collects the errors of a bundle, nil when every task succeeded.
func Failures[T any](outcomes []Outcome[T]) error {
	var errs []error
	for i, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("task %d: %w", i, o.Err))
		}
	}
	return errors.Join(errs...)
}
