// internal/pages/base.go
// Package pages holds the page objects for the careers workflow and the
// generic operations they are built from.
package pages

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/config"
	"github.com/xkilldash9x/jobflow/internal/retry"
	"github.com/xkilldash9x/jobflow/internal/wait"
)

// Settle delays cover CSS transitions and lazy rendering that expose no DOM
// signal to wait on. They are scaled by wait.settle_scale.
const (
	// MenuRevealSettle lets a hover-triggered submenu finish its reveal animation.
	MenuRevealSettle = time.Second
	// ScrollSettle lets smooth scrolling and scroll-linked effects finish.
	ScrollSettle = 500 * time.Millisecond
	// HoverSettle lets hover color transitions reach their final value.
	HoverSettle = time.Second
	// ListSettle lets a lazily loaded listing render after a scroll or filter change.
	ListSettle = 2 * time.Second
)

// Base carries what every page needs to act on one session.
type Base struct {
	Driver      browser.Driver
	Waits       *wait.Engine
	Retrier     *retry.Retrier
	Logger      *zap.Logger
	SettleScale float64
	// ShortTimeout bounds waits for optional elements such as overlays.
	ShortTimeout time.Duration
	// CardTrace, when set, observes every card activation state change.
	CardTrace func(card int, state CardState)
}

// NewBase wires a wait engine and retrier around driver.
func NewBase(driver browser.Driver, cfg config.WaitConfig, logger *zap.Logger) *Base {
	waits := wait.New(driver, cfg, logger)
	return &Base{
		Driver:       driver,
		Waits:        waits,
		Retrier:      retry.New(waits, cfg.MaxAttempts, logger),
		Logger:       logger.Named("pages"),
		SettleScale:  cfg.SettleScale,
		ShortTimeout: cfg.ShortTimeout,
	}
}

// Settle pauses for a named settle delay scaled by SettleScale.
func (b *Base) Settle(ctx context.Context, d time.Duration) error {
	return wait.Settle(ctx, time.Duration(float64(d)*b.SettleScale))
}

// named returns a copy of b logging under a page name.
func (b *Base) named(page string) *Base {
	c := *b
	c.Logger = b.Logger.Named(page)
	return &c
}
