// internal/browser/browsertest/handle.go
package browsertest

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/locator"
)

type handle struct {
	d    *Driver
	el   *Element
	gen  int
	desc string
}

var _ browser.ElementHandle = (*handle)(nil)

func (h *handle) String() string { return h.desc }

// enter locks the driver and checks the handle is still valid. On success the
// caller owns the lock and must call h.d.mu.Unlock.
func (h *handle) enter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.d.mu.Lock()
	if h.gen != h.el.gen || !h.d.attached(h.el) {
		h.d.mu.Unlock()
		return fmt.Errorf("%w: %s", browser.ErrStaleElement, h.desc)
	}
	if h.el.StaleReads > 0 {
		h.el.StaleReads--
		h.el.gen++
		h.d.mu.Unlock()
		return fmt.Errorf("%w: %s was re-rendered", browser.ErrStaleElement, h.desc)
	}
	return nil
}

// hoveredLocked reports whether the pointer is over the hover trigger or one
// of its descendants.
func (h *handle) hoveredLocked() bool {
	trigger := h.el
	if h.el.HoverOn != nil {
		trigger = h.el.HoverOn
	}
	for n := h.d.hovered; n != nil; n = n.parent {
		if n == trigger {
			return true
		}
	}
	return false
}

func (h *handle) Locate(ctx context.Context, loc locator.Locator) ([]browser.ElementHandle, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := h.enter(ctx); err != nil {
		return nil, err
	}
	defer h.d.mu.Unlock()
	return h.d.search(h.el, loc), nil
}

func (h *handle) Click(ctx context.Context) error {
	if err := h.enter(ctx); err != nil {
		return err
	}
	if h.el.Hidden {
		h.d.mu.Unlock()
		return fmt.Errorf("%w: %s is hidden", browser.ErrNotInteractable, h.desc)
	}
	h.el.clicks++
	h.d.hovered = h.el
	onClick := h.el.OnClick
	h.d.mu.Unlock()

	if onClick != nil {
		onClick(h.d)
	}
	return nil
}

func (h *handle) Text(ctx context.Context) (string, error) {
	if err := h.enter(ctx); err != nil {
		return "", err
	}
	defer h.d.mu.Unlock()
	if h.el.Hidden {
		return "", nil
	}
	return strings.TrimSpace(h.el.Text), nil
}

func (h *handle) IsDisplayed(ctx context.Context) (bool, error) {
	if err := h.enter(ctx); err != nil {
		return false, err
	}
	defer h.d.mu.Unlock()
	for n := h.el; n != nil; n = n.parent {
		if n.Hidden {
			return false, nil
		}
	}
	return true, nil
}

func (h *handle) IsEnabled(ctx context.Context) (bool, error) {
	if err := h.enter(ctx); err != nil {
		return false, err
	}
	defer h.d.mu.Unlock()
	return !h.el.Disabled, nil
}

func (h *handle) ComputedStyle(ctx context.Context, property string) (string, error) {
	if err := h.enter(ctx); err != nil {
		return "", err
	}
	defer h.d.mu.Unlock()
	if h.hoveredLocked() {
		if v, ok := h.el.HoverStyle[property]; ok {
			return v, nil
		}
	}
	return h.el.Style[property], nil
}

func (h *handle) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := h.enter(ctx); err != nil {
		return "", false, err
	}
	defer h.d.mu.Unlock()
	if h.hoveredLocked() {
		if v, ok := h.el.HoverAttrs[name]; ok {
			return v, true, nil
		}
	}
	v, ok := h.el.Attrs[name]
	return v, ok, nil
}

func (h *handle) ScrollIntoView(ctx context.Context, _ browser.ScrollBlock) error {
	if err := h.enter(ctx); err != nil {
		return err
	}
	defer h.d.mu.Unlock()
	h.el.scrolls++
	return nil
}

func (h *handle) Hover(ctx context.Context) error {
	if err := h.enter(ctx); err != nil {
		return err
	}
	defer h.d.mu.Unlock()
	if h.el.Hidden {
		return fmt.Errorf("%w: %s is hidden", browser.ErrNotInteractable, h.desc)
	}
	h.d.hovered = h.el
	return nil
}
