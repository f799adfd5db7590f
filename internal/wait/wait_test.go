// internal/wait/wait_test.go
package wait

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/browser/browsertest"
	"github.com/xkilldash9x/jobflow/internal/config"
	"github.com/xkilldash9x/jobflow/internal/locator"
)

func newEngine(t *testing.T, d browser.Driver) *Engine {
	t.Helper()
	return New(d, config.WaitConfig{
		Timeout:      500 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
		ShortTimeout: 100 * time.Millisecond,
	}, zaptest.NewLogger(t))
}

// countingCondition holds from the nth check on and fails with errFn before that.
func countingCondition(n int32, errFn func(int32) error) (Condition, *int32) {
	var calls int32
	return Custom("counting", func(ctx context.Context, d browser.Driver) ([]browser.ElementHandle, bool, error) {
		c := atomic.AddInt32(&calls, 1)
		if c >= n {
			return nil, true, nil
		}
		if errFn != nil {
			return nil, false, errFn(c)
		}
		return nil, false, nil
	}), &calls
}

func TestAwaitChecksImmediately(t *testing.T) {
	e := newEngine(t, browsertest.New("about:blank"))
	cond, calls := countingCondition(1, nil)

	start := time.Now()
	_, err := e.Await(context.Background(), cond, time.Second, time.Second)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAwaitPollsUntilSatisfied(t *testing.T) {
	e := newEngine(t, browsertest.New("about:blank"))
	cond, calls := countingCondition(4, nil)
	poll := 30 * time.Millisecond

	start := time.Now()
	_, err := e.Await(context.Background(), cond, 2*time.Second, poll)
	require.NoError(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(calls))
	assert.GreaterOrEqual(t, time.Since(start), 3*poll-5*time.Millisecond, "checks are paced by the poll interval")
}

func TestAwaitTimeoutBound(t *testing.T) {
	e := newEngine(t, browsertest.New("about:blank"))
	never := Custom("never", func(context.Context, browser.Driver) ([]browser.ElementHandle, bool, error) {
		return nil, false, nil
	})
	timeout, poll := 200*time.Millisecond, 50*time.Millisecond

	start := time.Now()
	_, err := e.Await(context.Background(), never, timeout, poll)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, timeout)
	// Generous slack for loaded CI machines; the loop itself stops at timeout.
	assert.Less(t, elapsed, timeout+poll+150*time.Millisecond)

	var terr *TimeoutError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "never", terr.Condition)
	assert.GreaterOrEqual(t, terr.Checks, 2)
	assert.Nil(t, terr.Last)
}

func TestAwaitTreatsStaleAsNotYet(t *testing.T) {
	e := newEngine(t, browsertest.New("about:blank"))
	cond, calls := countingCondition(3, func(int32) error {
		return fmt.Errorf("reading text: %w", browser.ErrStaleElement)
	})

	_, err := e.Default(context.Background(), cond)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestAwaitRemembersLastError(t *testing.T) {
	e := newEngine(t, browsertest.New("about:blank"))
	flaky := errors.New("invalid selector")
	cond, _ := countingCondition(1000, func(int32) error { return flaky })

	_, err := e.Short(context.Background(), cond)
	require.Error(t, err)

	var terr *TimeoutError
	require.True(t, errors.As(err, &terr))
	assert.Same(t, flaky, terr.Last)
	assert.Contains(t, err.Error(), "invalid selector")
	assert.False(t, errors.Is(err, flaky), "the last check error is not part of the chain")
	assert.False(t, browser.IsStale(err))
}

func TestAwaitStopsOnCancel(t *testing.T) {
	e := newEngine(t, browsertest.New("about:blank"))
	cond, _ := countingCondition(1000, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(60*time.Millisecond, cancel)

	start := time.Now()
	_, err := e.Await(ctx, cond, 5*time.Second, 20*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAwaitAbandonsHungCheck(t *testing.T) {
	e := newEngine(t, browsertest.New("about:blank"))
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	// The check ignores its context, like a CDP call stuck behind an alert.
	hung := Custom("hung", func(context.Context, browser.Driver) ([]browser.ElementHandle, bool, error) {
		<-release
		return nil, true, nil
	})

	t.Run("bounded by the wait timeout", func(t *testing.T) {
		timeout, poll := 100*time.Millisecond, 20*time.Millisecond
		start := time.Now()
		_, err := e.Await(context.Background(), hung, timeout, poll)
		elapsed := time.Since(start)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Less(t, elapsed, timeout+poll+150*time.Millisecond)
		var terr *TimeoutError
		require.ErrorAs(t, err, &terr)
		assert.ErrorIs(t, terr.Last, context.DeadlineExceeded)
	})

	t.Run("bounded by the caller's deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		start := time.Now()
		_, err := e.Await(ctx, hung, 5*time.Second, 20*time.Millisecond)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestAwaitPassesDeadlineToChecks(t *testing.T) {
	e := newEngine(t, browsertest.New("about:blank"))
	var (
		hasDeadline bool
		until       time.Time
	)
	cond := Custom("inspect", func(ctx context.Context, _ browser.Driver) ([]browser.ElementHandle, bool, error) {
		until, hasDeadline = ctx.Deadline()
		return nil, true, nil
	})

	start := time.Now()
	_, err := e.Await(context.Background(), cond, 200*time.Millisecond, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, hasDeadline)
	assert.WithinDuration(t, start.Add(250*time.Millisecond), until, 50*time.Millisecond)
}

func TestAwaitReraisesCheckPanic(t *testing.T) {
	e := newEngine(t, browsertest.New("about:blank"))
	boom := Custom("boom", func(context.Context, browser.Driver) ([]browser.ElementHandle, bool, error) {
		panic("resolver exploded")
	})
	assert.PanicsWithValue(t, "resolver exploded", func() {
		_, _ = e.Default(context.Background(), boom)
	})
}

func TestSettle(t *testing.T) {
	assert.NoError(t, Settle(context.Background(), 0))
	assert.NoError(t, Settle(context.Background(), 5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Settle(ctx, time.Hour), context.Canceled)
}

func TestElementConditions(t *testing.T) {
	ctx := context.Background()
	menu := browsertest.El("a", "Company", locator.LinkText("Company"))
	careers := browsertest.El("a", "Careers", locator.LinkText("Careers"))
	careers.Hidden = true
	apply := browsertest.El("button", "Apply", locator.ID("apply"))
	apply.Disabled = true
	options := []*browsertest.Element{
		browsertest.El("li", "All", locator.CSS("li.option")),
		browsertest.El("li", "Istanbul, Turkiye", locator.CSS("li.option")),
	}
	d := browsertest.New("https://useinsider.com/", menu, careers, apply)
	d.Append(nil, options...)
	e := newEngine(t, d)

	t.Run("presence yields every match", func(t *testing.T) {
		found, err := e.Default(ctx, PresenceOf(locator.CSS("li.option")))
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("visibility waits for the element to show", func(t *testing.T) {
		_, err := e.Short(ctx, VisibilityOf(locator.LinkText("Careers")))
		assert.ErrorIs(t, err, ErrTimeout)

		time.AfterFunc(40*time.Millisecond, func() { d.Update(func() { careers.Hidden = false }) })
		found, err := e.Default(ctx, VisibilityOf(locator.LinkText("Careers")))
		require.NoError(t, err)
		require.Len(t, found, 1)
	})

	t.Run("visibility of all", func(t *testing.T) {
		found, err := e.Default(ctx, VisibilityOfAll(locator.CSS("li.option")))
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("clickable requires enabled", func(t *testing.T) {
		_, err := e.Short(ctx, ClickableOf(locator.ID("apply")))
		assert.ErrorIs(t, err, ErrTimeout)

		d.Update(func() { apply.Disabled = false })
		_, err = e.Default(ctx, ClickableOf(locator.ID("apply")))
		assert.NoError(t, err)
	})

	t.Run("text and count", func(t *testing.T) {
		_, err := e.Default(ctx, TextContains(locator.LinkText("Company"), "Comp"))
		assert.NoError(t, err)
		_, err = e.Short(ctx, CountAtLeast(locator.CSS("li.option"), 3))
		assert.ErrorIs(t, err, ErrTimeout)
		found, err := e.Default(ctx, CountAtLeast(locator.CSS("li.option"), 2))
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("scoped clickability", func(t *testing.T) {
		link := browsertest.El("a", "View Role", locator.XPath(".//a[contains(text(), 'View Role')]"))
		card := browsertest.El("div", "", locator.ClassName("position-list-item")).With(link)
		d.Append(nil, card)

		cards, err := e.Default(ctx, PresenceOf(locator.ClassName("position-list-item")))
		require.NoError(t, err)
		found, err := e.Default(ctx, ClickableWithin(cards[0], locator.XPath(".//a[contains(text(), 'View Role')]")))
		require.NoError(t, err)
		require.Len(t, found, 1)

		_, err = e.Short(ctx, PresenceWithin(cards[0], locator.LinkText("Company")))
		assert.ErrorIs(t, err, ErrTimeout, "document nodes outside the scope do not match")
	})
}

func TestPageConditions(t *testing.T) {
	ctx := context.Background()
	d := browsertest.New("https://useinsider.com/careers/quality-assurance/")
	e := newEngine(t, d)

	_, err := e.Default(ctx, URLContains("quality-assurance"))
	assert.NoError(t, err)
	_, err = e.Default(ctx, DocumentReady())
	assert.NoError(t, err)

	_, err = e.Short(ctx, WindowCountAtLeast(2))
	assert.ErrorIs(t, err, ErrTimeout)
	time.AfterFunc(30*time.Millisecond, func() { d.OpenWindow("https://jobs.lever.co/useinsider") })
	_, err = e.Default(ctx, WindowCountAtLeast(2))
	assert.NoError(t, err)
}
