// internal/browser/driver.go
// Package browser defines the capabilities the automation core needs from a
// browser and implements them on top of the Chrome DevTools Protocol.
package browser

import (
	"context"

	"github.com/xkilldash9x/jobflow/internal/locator"
)

// ScrollBlock is the vertical alignment used by ElementHandle.ScrollIntoView.
type ScrollBlock string

const (
	BlockStart   ScrollBlock = "start"
	BlockCenter  ScrollBlock = "center"
	BlockEnd     ScrollBlock = "end"
	BlockNearest ScrollBlock = "nearest"
)

// Finder resolves locators. A Driver resolves against the current document,
// an ElementHandle against its own subtree.
type Finder interface {
	// Locate returns every matching node in document order. No match is an
	// empty slice, not an error.
	Locate(ctx context.Context, loc locator.Locator) ([]ElementHandle, error)
}

// ElementHandle is an opaque reference to a live DOM node. Once the node is
// detached, or its page navigates away, every method returns an error
// wrapping ErrStaleElement. Handles are cheap and meant to be discarded
// after use.
type ElementHandle interface {
	Finder

	Click(ctx context.Context) error
	Text(ctx context.Context) (string, error)
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	// ComputedStyle returns the resolved value of a CSS property, with
	// colors in the browser's rgb()/rgba() notation.
	ComputedStyle(ctx context.Context, property string) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	ScrollIntoView(ctx context.Context, block ScrollBlock) error
	// Hover moves the pointer over the element's center.
	Hover(ctx context.Context) error
}

// Driver is the handle a session exposes to page objects.
type Driver interface {
	Finder

	// ExecuteScript runs script as the body of a function, binding args to
	// the arguments object, and decodes the return value into out. out may be nil.
	ExecuteScript(ctx context.Context, script string, out interface{}, args ...interface{}) error
	CurrentURL(ctx context.Context) (string, error)
	// WindowHandles lists open top-level windows in the order they were first seen.
	WindowHandles(ctx context.Context) ([]string, error)
	CurrentWindow() string
	SwitchToWindow(ctx context.Context, handle string) error
	MoveTo(ctx context.Context, el ElementHandle) error
	Navigate(ctx context.Context, url string) error
	// Screenshot captures the current viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
}
