// internal/browser/errors.go
package browser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStaleElement means the node behind a handle is gone. Callers recover
	// by resolving the locator again.
	ErrStaleElement = errors.New("stale element reference")
	// ErrNoSuchWindow is returned when switching to a window that is closed or unknown.
	ErrNoSuchWindow = errors.New("no such window")
	// ErrNotInteractable is returned when a click target has no visible box.
	ErrNotInteractable = errors.New("element not interactable")
	// ErrClickIntercepted is returned when another node covers the click point.
	ErrClickIntercepted = errors.New("element click intercepted")
)

// IsStale reports whether err means the element must be resolved again.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleElement)
}

// Protocol messages that mean the remote object or its execution context is gone.
var staleMarkers = []string{
	"could not find object with given id",
	"cannot find object with id",
	"cannot find context with specified id",
	"execution context was destroyed",
	"no node with given id",
	"node with given id does not belong to the document",
	"inspected target navigated or closed",
}

// classify maps protocol errors that mean "node gone" onto ErrStaleElement.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrStaleElement) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, m := range staleMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", ErrStaleElement, err)
		}
	}
	return err
}
