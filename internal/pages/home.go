// internal/pages/home.go
package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/locator"
	"github.com/xkilldash9x/jobflow/internal/wait"
)

// HomePage is the site landing page.
type HomePage struct {
	*Base
	overlay OverlayDismisser
	company locator.Locator
	careers locator.Locator
}

// NewHomePage requires the company_menu and careers_menu locators.
func NewHomePage(base *Base, overlay OverlayDismisser, locs locator.Set) (*HomePage, error) {
	if err := locs.Require("company_menu", "careers_menu"); err != nil {
		return nil, fmt.Errorf("home page: %w", err)
	}
	return &HomePage{
		Base:    base.named("home"),
		overlay: overlay,
		company: locs["company_menu"],
		careers: locs["careers_menu"],
	}, nil
}

// Open loads url and checks the browser landed on it.
func (p *HomePage) Open(ctx context.Context, url string) error {
	if err := p.Driver.Navigate(ctx, url); err != nil {
		return err
	}
	current, err := p.Driver.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(current, url) {
		return &AssertionFailure{Subject: "home page", Field: "url", Expected: fmt.Sprintf("to contain %q", url), Actual: current}
	}
	p.Logger.Info("Home page opened.", zap.String("url", current))
	return nil
}

// AcceptCookies dismisses the cookie banner when it shows.
func (p *HomePage) AcceptCookies(ctx context.Context) bool {
	return p.overlay.DismissOverlayIfPresent(ctx, p.ShortTimeout)
}

// OpenCareers hovers the Company menu and follows its Careers entry.
func (p *HomePage) OpenCareers(ctx context.Context) error {
	if err := p.HoverThenActivate(ctx, p.company, p.careers); err != nil {
		return err
	}
	if _, err := p.Waits.Default(ctx, wait.URLContains("careers")); err != nil {
		url, _ := p.Driver.CurrentURL(ctx)
		return &NavigationFailure{Action: "clicking " + p.careers.String(), URL: url, Err: err}
	}
	return nil
}
