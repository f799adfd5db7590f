// internal/wait/wait.go
// Package wait polls conditions against a browser.Driver until they hold or a
// timeout expires. It is the only place the automation core blocks.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/config"
)

// ErrTimeout matches every *TimeoutError through errors.Is.
var ErrTimeout = errors.New("timed out waiting for condition")

// TimeoutError reports a condition that never held. Last is the most recent
// check error. It is reported but not unwrapped: a timeout that saw a stale
// node along the way is still a timeout.
type TimeoutError struct {
	Condition string
	Timeout   time.Duration
	Elapsed   time.Duration
	Checks    int
	Last      error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s (%d checks)", e.Elapsed.Round(time.Millisecond), e.Condition, e.Checks)
	if e.Last != nil {
		msg += ": last error: " + e.Last.Error()
	}
	return msg
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Engine evaluates conditions for one driver.
type Engine struct {
	driver  browser.Driver
	timeout time.Duration
	poll    time.Duration
	short   time.Duration
	logger  *zap.Logger
}

// New creates an engine whose Default and Short calls use cfg's baselines.
func New(driver browser.Driver, cfg config.WaitConfig, logger *zap.Logger) *Engine {
	return &Engine{
		driver:  driver,
		timeout: cfg.Timeout,
		poll:    cfg.PollInterval,
		short:   cfg.ShortTimeout,
		logger:  logger.Named("wait"),
	}
}

// Driver returns the driver conditions are checked against.
func (e *Engine) Driver() browser.Driver { return e.driver }

// Timeout returns the baseline timeout.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// Poll returns the baseline poll interval.
func (e *Engine) Poll() time.Duration { return e.poll }

// Default waits with the configured baseline timeout and poll interval.
func (e *Engine) Default(ctx context.Context, cond Condition) ([]browser.ElementHandle, error) {
	return e.Await(ctx, cond, e.timeout, e.poll)
}

// Short waits with the configured short timeout, used for optional elements.
func (e *Engine) Short(ctx context.Context, cond Condition) ([]browser.ElementHandle, error) {
	return e.Await(ctx, cond, e.short, e.poll)
}

// Await checks cond immediately and then once per poll until it holds or
// timeout elapses, returning the handles from the satisfying check. Each
// check runs under ctx bounded by the deadline plus one poll interval, and a
// check that outlives that bound is abandoned, so Await never returns later
// than timeout plus one poll. Check errors count as "not yet". Cancelling ctx
// stops the wait, including a check in flight.
func (e *Engine) Await(ctx context.Context, cond Condition, timeout, poll time.Duration) ([]browser.ElementHandle, error) {
	if poll <= 0 {
		poll = e.poll
	}
	start := time.Now()
	deadline := start.Add(timeout)

	limiter := rate.NewLimiter(rate.Every(poll), 1)
	limiter.Allow()

	checkCtx, cancel := context.WithDeadline(ctx, deadline.Add(poll))
	defer cancel()

	var last error
	for checks := 1; ; checks++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		handles, ok, err := e.check(checkCtx, cond)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		switch {
		case err == nil && ok:
			e.logger.Debug("Condition satisfied.",
				zap.String("condition", cond.Description),
				zap.Int("checks", checks),
				zap.Duration("elapsed", time.Since(start)))
			return handles, nil
		case err != nil:
			last = err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			terr := &TimeoutError{
				Condition: cond.Description,
				Timeout:   timeout,
				Elapsed:   time.Since(start),
				Checks:    checks,
				Last:      last,
			}
			e.logger.Debug("Condition timed out.", zap.Error(terr))
			return nil, terr
		}

		delay := limiter.Reserve().Delay()
		if delay > remaining {
			delay = remaining
		}
		if err := Settle(ctx, delay); err != nil {
			return nil, err
		}
	}
}

type checkResult struct {
	handles []browser.ElementHandle
	ok      bool
	err     error
	panic   interface{}
}

// check runs cond on its own goroutine so a DOM query that ignores ctx cannot
// hold the caller past ctx's deadline. A panic in the check is re-raised on
// the caller's goroutine.
func (e *Engine) check(ctx context.Context, cond Condition) ([]browser.ElementHandle, bool, error) {
	done := make(chan checkResult, 1)
	go func() {
		var r checkResult
		defer func() {
			if p := recover(); p != nil {
				r.panic = p
			}
			done <- r
		}()
		r.handles, r.ok, r.err = cond.Check(ctx, e.driver)
	}()

	select {
	case r := <-done:
		if r.panic != nil {
			panic(r.panic)
		}
		return r.handles, r.ok, r.err
	case <-ctx.Done():
		e.logger.Warn("Abandoned a condition check that outlived its deadline.", zap.String("condition", cond.Description))
		return nil, false, fmt.Errorf("checking %s: %w", cond.Description, ctx.Err())
	}
}

// Settle pauses for d unless ctx ends first. It is the only sanctioned fixed
// pause; callers pass named settle durations.
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
