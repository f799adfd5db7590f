// internal/retry/retry.go
// Package retry re-resolves a locator and repeats an element operation when,
// and only when, the element went stale underneath it.
package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/locator"
	"github.com/xkilldash9x/jobflow/internal/wait"
)

// DefaultMaxAttempts is used when a Retrier has no positive MaxAttempts.
const DefaultMaxAttempts = 3

// ListOp is an operation applied to every handle a condition yielded.
type ListOp[T any] func(ctx context.Context, els []browser.ElementHandle) (T, error)

// Op is an operation applied to a freshly resolved element. Ops may run more
// than once, so they must be safe to repeat.
type Op[T any] func(ctx context.Context, el browser.ElementHandle) (T, error)

// ExhaustedError is returned when every attempt hit a stale element. It
// unwraps to the last stale error.
type ExhaustedError struct {
	Locator  locator.Locator
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s stayed stale after %d attempts: %v", e.Locator, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Retrier holds the retry policy shared by a page's operations.
type Retrier struct {
	MaxAttempts int
	// Timeout overrides the engine's baseline for each resolution when positive.
	Timeout time.Duration
	Waits   *wait.Engine
	Logger  *zap.Logger
	// OnRetry observes every retry. attempt is the attempt that failed.
	OnRetry func(attempt int, err error)
}

// New builds a Retrier around waits.
func New(waits *wait.Engine, maxAttempts int, logger *zap.Logger) *Retrier {
	return &Retrier{
		MaxAttempts: maxAttempts,
		Waits:       waits,
		Logger:      logger.Named("retry"),
	}
}

// WithTimeout returns a copy of r whose resolutions wait at most d.
func (r *Retrier) WithTimeout(d time.Duration) *Retrier {
	c := *r
	c.Timeout = d
	return &c
}

func (r *Retrier) resolve(ctx context.Context, cond wait.Condition) ([]browser.ElementHandle, error) {
	if r.Timeout > 0 {
		return r.Waits.Await(ctx, cond, r.Timeout, r.Waits.Poll())
	}
	return r.Waits.Default(ctx, cond)
}

func (r *Retrier) attempts() int {
	if r.MaxAttempts > 0 {
		return r.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (r *Retrier) logger() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return zap.NewNop()
}

// Run waits for cond, ClickableOf(loc) when cond is the zero Condition, and
// applies op to the first handle it yields. A stale error from op starts a
// new attempt with a fresh resolution; every other error, including a wait
// timeout, is returned as is.
func Run[T any](ctx context.Context, r *Retrier, loc locator.Locator, cond wait.Condition, op Op[T]) (T, error) {
	if cond.Check == nil {
		cond = wait.ClickableOf(loc)
	}
	return RunAll(ctx, r, loc, cond, func(ctx context.Context, els []browser.ElementHandle) (T, error) {
		if len(els) == 0 {
			var zero T
			return zero, fmt.Errorf("%s held but yielded no element", cond.Description)
		}
		return op(ctx, els[0])
	})
}

// RunAll is Run for operations over the whole resolved list, such as a scan
// of dropdown options. A stale error anywhere in op re-resolves the list.
func RunAll[T any](ctx context.Context, r *Retrier, loc locator.Locator, cond wait.Condition, op ListOp[T]) (T, error) {
	var zero T
	if cond.Check == nil {
		cond = wait.PresenceOf(loc)
	}

	limit := r.attempts()
	var last error
	for attempt := 1; attempt <= limit; attempt++ {
		handles, err := r.resolve(ctx, cond)
		if err != nil {
			return zero, err
		}

		v, err := op(ctx, handles)
		if err == nil {
			return v, nil
		}
		if !browser.IsStale(err) {
			return zero, err
		}

		last = err
		if attempt < limit {
			r.logger().Debug("Element went stale, resolving again.",
				zap.Stringer("locator", loc),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if r.OnRetry != nil {
				r.OnRetry(attempt, err)
			}
		}
	}
	return zero, &ExhaustedError{Locator: loc, Attempts: limit, Last: last}
}

// Do is Run for operations without a result.
func Do(ctx context.Context, r *Retrier, loc locator.Locator, cond wait.Condition, op func(ctx context.Context, el browser.ElementHandle) error) error {
	_, err := Run(ctx, r, loc, cond, func(ctx context.Context, el browser.ElementHandle) (struct{}, error) {
		return struct{}{}, op(ctx, el)
	})
	return err
}

// Click clicks loc once it is clickable.
func Click(ctx context.Context, r *Retrier, loc locator.Locator) error {
	return Do(ctx, r, loc, wait.Condition{}, func(ctx context.Context, el browser.ElementHandle) error {
		return el.Click(ctx)
	})
}

// Text reads the visible text of loc once it is visible.
func Text(ctx context.Context, r *Retrier, loc locator.Locator) (string, error) {
	return Run(ctx, r, loc, wait.VisibilityOf(loc), func(ctx context.Context, el browser.ElementHandle) (string, error) {
		return el.Text(ctx)
	})
}
