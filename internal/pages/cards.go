// internal/pages/cards.go
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/locator"
	"github.com/xkilldash9x/jobflow/internal/wait"
)

// Field is a named value read from inside each card.
type Field struct {
	Name    string
	Locator locator.Locator
}

// Validator checks one extracted field.
type Validator struct {
	Field       string
	Description string
	Check       func(value string) bool
}

// FieldContains validates that field contains s.
func FieldContains(field, s string) Validator {
	return Validator{
		Field:       field,
		Description: fmt.Sprintf("to contain %q", s),
		Check:       func(v string) bool { return strings.Contains(v, s) },
	}
}

// FieldEquals validates that field equals s.
func FieldEquals(field, s string) Validator {
	return Validator{
		Field:       field,
		Description: fmt.Sprintf("to equal %q", s),
		Check:       func(v string) bool { return v == s },
	}
}

// Card is the data extracted from one card.
type Card struct {
	Index  int
	Fields map[string]string
}

// CardReport is the outcome of validating a card list.
type CardReport struct {
	Total    int
	Cards    []Card
	Skipped  []int
	Failures []*AssertionFailure
}

// Passed reports whether every extracted card satisfied every validator.
func (r CardReport) Passed() bool { return len(r.Failures) == 0 }

// Err joins the assertion failures, or returns nil.
func (r CardReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// CollectAndValidateCards extracts fields from every card and runs the
// validators on them. The whole list is resolved again before each index, so
// a list replaced by a re-render is read fresh. A card that goes stale while
// being read is skipped; validator failures are recorded in the report.
func (b *Base) CollectAndValidateCards(ctx context.Context, cards locator.Locator, fields []Field, validators []Validator) (CardReport, error) {
	initial, err := b.Waits.Default(ctx, wait.VisibilityOfAll(cards))
	if err != nil {
		return CardReport{}, &ElementNotFoundError{Locator: cards, Err: err}
	}
	report := CardReport{Total: len(initial)}
	b.Logger.Info("Cards found.", zap.Int("count", report.Total))

	for i := 0; i < report.Total; i++ {
		list, err := b.Waits.Default(ctx, wait.VisibilityOfAll(cards))
		if err != nil {
			return report, &ElementNotFoundError{Locator: cards, Err: err}
		}
		if i >= len(list) {
			b.Logger.Warn("Card list shrank while reading, skipping.", zap.Int("card", i), zap.Int("now", len(list)))
			report.Skipped = append(report.Skipped, i)
			continue
		}

		card, err := b.extractCard(ctx, list[i], i, fields)
		if browser.IsStale(err) {
			b.Logger.Warn("Card became stale, skipping.", zap.Int("card", i), zap.Error(err))
			report.Skipped = append(report.Skipped, i)
			continue
		}
		if err != nil {
			return report, err
		}
		report.Cards = append(report.Cards, card)

		for _, v := range validators {
			value, ok := card.Fields[v.Field]
			if ok && v.Check(value) {
				continue
			}
			f := &AssertionFailure{
				Subject:  fmt.Sprintf("card %d", i+1),
				Field:    v.Field,
				Expected: v.Description,
				Actual:   value,
			}
			b.Logger.Warn("Card validation failed.", zap.Error(f))
			report.Failures = append(report.Failures, f)
		}
	}
	return report, nil
}

func (b *Base) extractCard(ctx context.Context, el browser.ElementHandle, index int, fields []Field) (Card, error) {
	card := Card{Index: index, Fields: make(map[string]string, len(fields))}
	if err := el.ScrollIntoView(ctx, browser.BlockStart); err != nil {
		return card, err
	}
	if err := b.Settle(ctx, ScrollSettle); err != nil {
		return card, err
	}
	for _, f := range fields {
		found, err := el.Locate(ctx, f.Locator)
		if err != nil {
			return card, err
		}
		if len(found) == 0 {
			// Missing fields fail validation rather than the whole run.
			continue
		}
		text, err := found[0].Text(ctx)
		if err != nil {
			return card, err
		}
		card.Fields[f.Name] = text
	}
	return card, nil
}
