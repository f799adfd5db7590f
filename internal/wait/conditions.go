// internal/wait/conditions.go
package wait

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/locator"
)

// CheckFunc evaluates a condition once. It returns the handles that satisfy
// it, if any, and whether it holds.
type CheckFunc func(ctx context.Context, d browser.Driver) ([]browser.ElementHandle, bool, error)

// Condition is a described predicate over the live page.
type Condition struct {
	Description string
	Check       CheckFunc
}

func (c Condition) String() string { return c.Description }

// Custom wraps an arbitrary check.
func Custom(description string, check CheckFunc) Condition {
	return Condition{Description: description, Check: check}
}

// finderFor picks the scope a locator is resolved in: the element when one is
// given, the document otherwise.
func finderFor(d browser.Driver, scope browser.Finder) browser.Finder {
	if scope != nil {
		return scope
	}
	return d
}

func scopedDesc(what string, scope browser.Finder, loc locator.Locator) string {
	if scope == nil {
		return what + " of " + loc.String()
	}
	return fmt.Sprintf("%s of %s within %v", what, loc, scope)
}

func presence(scope browser.Finder, loc locator.Locator) Condition {
	return Condition{
		Description: scopedDesc("presence", scope, loc),
		Check: func(ctx context.Context, d browser.Driver) ([]browser.ElementHandle, bool, error) {
			found, err := finderFor(d, scope).Locate(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			return found, len(found) > 0, nil
		},
	}
}

// PresenceOf holds once at least one node matches loc. It yields every match.
func PresenceOf(loc locator.Locator) Condition { return presence(nil, loc) }

// PresenceWithin is PresenceOf scoped to an element's subtree.
func PresenceWithin(scope browser.Finder, loc locator.Locator) Condition { return presence(scope, loc) }

// VisibilityOf holds once the first match is displayed. It yields that match.
func VisibilityOf(loc locator.Locator) Condition {
	return Condition{
		Description: "visibility of " + loc.String(),
		Check: func(ctx context.Context, d browser.Driver) ([]browser.ElementHandle, bool, error) {
			found, err := d.Locate(ctx, loc)
			if err != nil || len(found) == 0 {
				return nil, false, err
			}
			shown, err := found[0].IsDisplayed(ctx)
			if err != nil || !shown {
				return nil, false, err
			}
			return found[:1], true, nil
		},
	}
}

// VisibilityOfAll holds once there is at least one match and every match is displayed.
func VisibilityOfAll(loc locator.Locator) Condition {
	return Condition{
		Description: "visibility of all " + loc.String(),
		Check: func(ctx context.Context, d browser.Driver) ([]browser.ElementHandle, bool, error) {
			found, err := d.Locate(ctx, loc)
			if err != nil || len(found) == 0 {
				return nil, false, err
			}
			for _, el := range found {
				shown, err := el.IsDisplayed(ctx)
				if err != nil || !shown {
					return nil, false, err
				}
			}
			return found, true, nil
		},
	}
}

func clickable(scope browser.Finder, loc locator.Locator) Condition {
	return Condition{
		Description: scopedDesc("clickability", scope, loc),
		Check: func(ctx context.Context, d browser.Driver) ([]browser.ElementHandle, bool, error) {
			found, err := finderFor(d, scope).Locate(ctx, loc)
			if err != nil || len(found) == 0 {
				return nil, false, err
			}
			el := found[0]
			shown, err := el.IsDisplayed(ctx)
			if err != nil || !shown {
				return nil, false, err
			}
			enabled, err := el.IsEnabled(ctx)
			if err != nil || !enabled {
				return nil, false, err
			}
			return found[:1], true, nil
		},
	}
}

// ClickableOf holds once the first match is displayed and enabled.
func ClickableOf(loc locator.Locator) Condition { return clickable(nil, loc) }

// ClickableWithin is ClickableOf scoped to an element's subtree.
func ClickableWithin(scope browser.Finder, loc locator.Locator) Condition {
	return clickable(scope, loc)
}

// TextContains holds once the first match's visible text contains text.
func TextContains(loc locator.Locator, text string) Condition {
	return Condition{
		Description: fmt.Sprintf("text %q in %s", text, loc),
		Check: func(ctx context.Context, d browser.Driver) ([]browser.ElementHandle, bool, error) {
			found, err := d.Locate(ctx, loc)
			if err != nil || len(found) == 0 {
				return nil, false, err
			}
			got, err := found[0].Text(ctx)
			if err != nil || !strings.Contains(got, text) {
				return nil, false, err
			}
			return found[:1], true, nil
		},
	}
}

// CountAtLeast holds once loc matches n or more nodes. It yields every match.
func CountAtLeast(loc locator.Locator, n int) Condition {
	return Condition{
		Description: fmt.Sprintf("at least %d of %s", n, loc),
		Check: func(ctx context.Context, d browser.Driver) ([]browser.ElementHandle, bool, error) {
			found, err := d.Locate(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			return found, len(found) >= n, nil
		},
	}
}

// URLContains holds once the current URL contains fragment.
func URLContains(fragment string) Condition {
	return Condition{
		Description: fmt.Sprintf("url containing %q", fragment),
		Check: func(ctx context.Context, d browser.Driver) ([]browser.ElementHandle, bool, error) {
			url, err := d.CurrentURL(ctx)
			if err != nil {
				return nil, false, err
			}
			return nil, strings.Contains(url, fragment), nil
		},
	}
}

// DocumentReady holds once document.readyState is "complete".
func DocumentReady() Condition {
	return Condition{
		Description: "document ready",
		Check: func(ctx context.Context, d browser.Driver) ([]browser.ElementHandle, bool, error) {
			var state string
			if err := d.ExecuteScript(ctx, "return document.readyState;", &state); err != nil {
				return nil, false, err
			}
			return nil, state == "complete", nil
		},
	}
}

// WindowCountAtLeast holds once n or more top-level windows are open.
func WindowCountAtLeast(n int) Condition {
	return Condition{
		Description: fmt.Sprintf("at least %d windows", n),
		Check: func(ctx context.Context, d browser.Driver) ([]browser.ElementHandle, bool, error) {
			handles, err := d.WindowHandles(ctx)
			if err != nil {
				return nil, false, err
			}
			return nil, len(handles) >= n, nil
		},
	}
}
