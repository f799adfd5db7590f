// internal/pages/dropdown.go
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/locator"
	"github.com/xkilldash9x/jobflow/internal/retry"
	"github.com/xkilldash9x/jobflow/internal/wait"
)

// Matcher selects a dropdown option by its visible text.
type Matcher struct {
	Description string
	Match       func(text string) bool
}

// Containing matches option text that contains s.
func Containing(s string) Matcher {
	return Matcher{
		Description: fmt.Sprintf("containing %q", s),
		Match:       func(text string) bool { return strings.Contains(text, s) },
	}
}

// Equal matches option text equal to s.
func Equal(s string) Matcher {
	return Matcher{
		Description: fmt.Sprintf("equal to %q", s),
		Match:       func(text string) bool { return text == s },
	}
}

// OpenDropdown clicks container unless any option is already rendered. A
// rendered placeholder means the list is open and still loading; clicking
// again would close it.
func (b *Base) OpenDropdown(ctx context.Context, container, options locator.Locator) error {
	rendered, err := b.Driver.Locate(ctx, options)
	if err == nil && len(rendered) > 0 {
		b.Logger.Debug("Dropdown already open.", zap.Stringer("dropdown", container), zap.Int("options", len(rendered)))
		return nil
	}
	if err := retry.Click(ctx, b.Retrier, container); err != nil {
		return fmt.Errorf("opening dropdown %s: %w", container, err)
	}
	b.Logger.Info("Dropdown opened.", zap.Stringer("dropdown", container))
	return nil
}

// SelectFromCompositeDropdown opens container, waits until options holds more
// than sentinel entries so a placeholder list is never read, and clicks the
// first option in document order whose text satisfies match.
func (b *Base) SelectFromCompositeDropdown(ctx context.Context, container, options locator.Locator, match Matcher, sentinel int) (string, error) {
	if err := b.OpenDropdown(ctx, container, options); err != nil {
		return "", err
	}

	populated := wait.CountAtLeast(options, sentinel+1)
	chosen, err := retry.RunAll(ctx, b.Retrier, options, populated, func(ctx context.Context, els []browser.ElementHandle) (string, error) {
		seen := make([]string, 0, len(els))
		for _, el := range els {
			text, err := el.Text(ctx)
			if err != nil {
				return "", err
			}
			if match.Match(text) {
				if err := el.Click(ctx); err != nil {
					return "", err
				}
				return text, nil
			}
			seen = append(seen, text)
		}
		return "", &OptionNotFoundError{Options: options, Want: match.Description, Seen: seen}
	})
	if err != nil {
		var notFound *OptionNotFoundError
		if errors.As(err, &notFound) {
			return "", err
		}
		if errors.Is(err, wait.ErrTimeout) {
			return "", &OptionNotFoundError{Options: options, Want: match.Description, Err: err}
		}
		return "", fmt.Errorf("selecting option %s: %w", match.Description, err)
	}

	b.Logger.Info("Dropdown option selected.", zap.String("option", chosen))
	return chosen, nil
}
