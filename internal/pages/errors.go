// internal/pages/errors.go
package pages

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/jobflow/internal/locator"
)

// ActivationError means a hover menu target never became clickable.
type ActivationError struct {
	Menu   locator.Locator
	Target locator.Locator
	Stage  string
	Err    error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("activating %s via %s failed while %s: %v", e.Target, e.Menu, e.Stage, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }

// OptionNotFoundError means no dropdown option matched once the list was populated.
type OptionNotFoundError struct {
	Options locator.Locator
	Want    string
	Seen    []string
	Err     error
}

func (e *OptionNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no option %s in %s: %v", e.Want, e.Options, e.Err)
	}
	return fmt.Sprintf("no option %s in %s (saw %s)", e.Want, e.Options, strings.Join(quoteAll(e.Seen), ", "))
}

func (e *OptionNotFoundError) Unwrap() error { return e.Err }

// ElementNotFoundError means a required element never appeared.
type ElementNotFoundError struct {
	Locator locator.Locator
	Err     error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %s not found: %v", e.Locator, e.Err)
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// AssertionFailure records a check on page content that did not hold.
type AssertionFailure struct {
	Subject  string
	Field    string
	Expected string
	Actual   string
}

func (e *AssertionFailure) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: expected %s, got %q", e.Subject, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s: %s expected %s, got %q", e.Subject, e.Field, e.Expected, e.Actual)
}

// NavigationFailure means an action did not lead where it should have.
type NavigationFailure struct {
	Action string
	URL    string
	Err    error
}

func (e *NavigationFailure) Error() string {
	msg := "navigation after " + e.Action + " failed"
	if e.URL != "" {
		msg += " (at " + e.URL + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NavigationFailure) Unwrap() error { return e.Err }

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
