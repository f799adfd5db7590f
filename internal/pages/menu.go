// internal/pages/menu.go
package pages

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/locator"
	"github.com/xkilldash9x/jobflow/internal/retry"
	"github.com/xkilldash9x/jobflow/internal/wait"
)

// HoverThenActivate hovers menu, lets its submenu reveal, then clicks target.
func (b *Base) HoverThenActivate(ctx context.Context, menu, target locator.Locator) error {
	err := retry.Do(ctx, b.Retrier, menu, wait.VisibilityOf(menu), func(ctx context.Context, el browser.ElementHandle) error {
		return b.Driver.MoveTo(ctx, el)
	})
	if err != nil {
		return &ActivationError{Menu: menu, Target: target, Stage: "hovering the menu", Err: err}
	}
	if err := b.Settle(ctx, MenuRevealSettle); err != nil {
		return err
	}
	if err := retry.Click(ctx, b.Retrier, target); err != nil {
		return &ActivationError{Menu: menu, Target: target, Stage: "clicking the target", Err: err}
	}
	b.Logger.Info("Menu item activated.", zap.Stringer("menu", menu), zap.Stringer("target", target))
	return nil
}
