// internal/pages/overlay.go
package pages

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/locator"
	"github.com/xkilldash9x/jobflow/internal/retry"
)

// OverlayDismisser closes a blocking overlay, such as a cookie banner, when
// one is showing. It never fails: an absent overlay is the normal case.
type OverlayDismisser interface {
	DismissOverlayIfPresent(ctx context.Context, timeout time.Duration) bool
}

// ClickOverlay dismisses an overlay by clicking one of its buttons.
type ClickOverlay struct {
	base   *Base
	Button locator.Locator
}

// NewClickOverlay returns a dismisser that clicks button.
func NewClickOverlay(base *Base, button locator.Locator) *ClickOverlay {
	return &ClickOverlay{base: base.named("overlay"), Button: button}
}

// DismissOverlayIfPresent clicks the button if it becomes clickable within
// timeout and reports whether it did.
func (o *ClickOverlay) DismissOverlayIfPresent(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = o.base.ShortTimeout
	}
	if err := retry.Click(ctx, o.base.Retrier.WithTimeout(timeout), o.Button); err != nil {
		o.base.Logger.Info("Overlay not present, it might already be closed.",
			zap.Stringer("button", o.Button), zap.NamedError("reason", err))
		return false
	}
	o.base.Logger.Info("Overlay dismissed.", zap.Stringer("button", o.Button))
	return true
}
