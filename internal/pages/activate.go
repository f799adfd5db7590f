// internal/pages/activate.go
package pages

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/locator"
	"github.com/xkilldash9x/jobflow/internal/wait"
)

// CardState is a state of the card activation machine.
type CardState int

const (
	Scanning CardState = iota
	Hovering
	ProbePass
	ProbeFail
	Clicking
	AwaitingNewContext
	Activated
	Exhausted
)

var cardStateNames = [...]string{
	Scanning:           "scanning",
	Hovering:           "hovering",
	ProbePass:          "probe_pass",
	ProbeFail:          "probe_fail",
	Clicking:           "clicking",
	AwaitingNewContext: "awaiting_new_context",
	Activated:          "activated",
	Exhausted:          "exhausted",
}

func (s CardState) String() string {
	if int(s) >= 0 && int(s) < len(cardStateNames) {
		return cardStateNames[s]
	}
	return fmt.Sprintf("card_state(%d)", int(s))
}

// activation tracks one run of the machine for logging.
type activation struct {
	logger *zap.Logger
	index  int
	state  CardState
	trace  func(index int, s CardState)
}

func (a *activation) to(s CardState, fields ...zap.Field) {
	a.state = s
	a.logger.Debug("Card state.", append(fields, zap.Int("card", a.index), zap.Stringer("state", s))...)
	if a.trace != nil {
		a.trace(a.index, s)
	}
}

// ActivateFirstInteractiveCard walks cards in document order, hovers each and
// asks probe whether it is live. On the first card that passes it clicks the
// action scoped to that card and switches to the window the click opened.
// It returns false with a nil error when no card passes the probe. A click
// that opens no window is a *NavigationFailure.
func (b *Base) ActivateFirstInteractiveCard(ctx context.Context, cards locator.Locator, probe InteractivityProbe, action locator.Locator) (bool, error) {
	initial, err := b.Waits.Default(ctx, wait.VisibilityOfAll(cards))
	if err != nil {
		return false, &ElementNotFoundError{Locator: cards, Err: err}
	}
	if err := b.Driver.ExecuteScript(ctx, "window.scrollTo(0, 0);", nil); err != nil {
		return false, err
	}
	if err := b.Settle(ctx, ScrollSettle); err != nil {
		return false, err
	}

	a := &activation{logger: b.Logger, trace: b.CardTrace}
	for i := 0; i < len(initial); i++ {
		a.index = i
		a.to(Scanning)

		ok, err := b.tryCard(ctx, a, cards, probe, action)
		switch {
		case ok:
			return true, nil
		case err == nil:
			continue
		case ctx.Err() != nil:
			return false, ctx.Err()
		}
		var nav *NavigationFailure
		if errors.As(err, &nav) {
			return false, err
		}
		// Anything else is local to this card: it re-rendered, lost its
		// action link, or refused the click.
		b.Logger.Warn("Failed to process card.", zap.Int("card", i), zap.Error(err))
	}

	a.index = len(initial)
	a.to(Exhausted)
	b.Logger.Info("No interactive card found.", zap.Int("cards", len(initial)), zap.Stringer("probe", probe))
	return false, nil
}

func (b *Base) tryCard(ctx context.Context, a *activation, cards locator.Locator, probe InteractivityProbe, action locator.Locator) (bool, error) {
	list, err := b.Waits.Default(ctx, wait.VisibilityOfAll(cards))
	if err != nil {
		return false, err
	}
	if a.index >= len(list) {
		return false, fmt.Errorf("card list shrank to %d", len(list))
	}
	card := list[a.index]

	if err := card.ScrollIntoView(ctx, browser.BlockCenter); err != nil {
		return false, err
	}
	if err := b.Settle(ctx, ScrollSettle); err != nil {
		return false, err
	}

	a.to(Hovering)
	if err := b.Driver.MoveTo(ctx, card); err != nil {
		return false, err
	}
	if err := b.Settle(ctx, HoverSettle); err != nil {
		return false, err
	}

	live, err := probe.Interactive(ctx, card)
	if err != nil {
		return false, err
	}
	if !live {
		a.to(ProbeFail, zap.Stringer("probe", probe))
		return false, nil
	}
	a.to(ProbePass, zap.Stringer("probe", probe))

	before, err := b.Driver.WindowHandles(ctx)
	if err != nil {
		return false, err
	}

	a.to(Clicking)
	links, err := b.Waits.Default(ctx, wait.ClickableWithin(card, action))
	if err != nil {
		return false, err
	}
	link := links[0]
	if err := link.ScrollIntoView(ctx, browser.BlockCenter); err != nil {
		return false, err
	}
	if err := b.Settle(ctx, ScrollSettle); err != nil {
		return false, err
	}
	if err := link.Click(ctx); err != nil {
		return false, err
	}

	a.to(AwaitingNewContext)
	if _, err := b.Waits.Default(ctx, wait.WindowCountAtLeast(len(before)+1)); err != nil {
		url, _ := b.Driver.CurrentURL(ctx)
		return false, &NavigationFailure{Action: "clicking " + action.String(), URL: url, Err: err}
	}
	after, err := b.Driver.WindowHandles(ctx)
	if err != nil {
		return false, err
	}
	opened := newestWindow(before, after)
	if opened == "" {
		return false, &NavigationFailure{Action: "clicking " + action.String(), Err: fmt.Errorf("no new window among %d", len(after))}
	}
	if err := b.Driver.SwitchToWindow(ctx, opened); err != nil {
		return false, &NavigationFailure{Action: "switching to the new window", Err: err}
	}

	a.to(Activated, zap.String("window", opened))
	return true, nil
}

// newestWindow returns the last handle in after that is not in before.
func newestWindow(before, after []string) string {
	known := make(map[string]bool, len(before))
	for _, h := range before {
		known[h] = true
	}
	for i := len(after) - 1; i >= 0; i-- {
		if !known[after[i]] {
			return after[i]
		}
	}
	return ""
}
