// internal/pages/jobs.go
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

// Card field names used in reports.
const (
	FieldPosition   = "position"
	FieldDepartment = "department"
	FieldLocation   = "location"
)

// JobsOptions carries the filter the jobs page applies and checks.
type JobsOptions struct {
	Department string
	// Location is the option expected to end up selected.
	Location string
	// LocationMatch picks the option to click; the first option containing it wins.
	LocationMatch   string
	OptionSentinel  int
	ApplicationHost string
	Probe           InteractivityProbe
}

// JobsPage is the department's open positions listing.
type JobsPage struct {
	*Base
	overlay OverlayDismisser
	opts    JobsOptions

	seeAll, department, location, options locator.Locator
	cards, title, dept, place, viewRole   locator.Locator
}

var jobsLocators = []string{
	"see_all_jobs", "department_dropdown", "location_dropdown", "location_options",
	"job_cards", "position_title", "position_department", "position_location", "view_role",
}

// NewJobsPage requires every listing locator. A nil probe defaults to a
// color change of the position title from black.
func NewJobsPage(base *Base, overlay OverlayDismisser, locs locator.Set, opts JobsOptions) (*JobsPage, error) {
	if err := locs.Require(jobsLocators...); err != nil {
		return nil, fmt.Errorf("jobs page: %w", err)
	}
	if opts.Probe == nil {
		opts.Probe = ColorChangeProbe{Target: locs["position_title"], Property: "color", Resting: "#000000"}
	}
	if opts.LocationMatch == "" {
		opts.LocationMatch = opts.Location
	}
	return &JobsPage{
		Base:       base.named("jobs"),
		overlay:    overlay,
		opts:       opts,
		seeAll:     locs["see_all_jobs"],
		department: locs["department_dropdown"],
		location:   locs["location_dropdown"],
		options:    locs["location_options"],
		cards:      locs["job_cards"],
		title:      locs["position_title"],
		dept:       locs["position_department"],
		place:      locs["position_location"],
		viewRole:   locs["view_role"],
	}, nil
}

// Open loads url and waits for the document to finish loading.
func (p *JobsPage) Open(ctx context.Context, url string) error {
	if err := p.Driver.Navigate(ctx, url); err != nil {
		return err
	}
	if _, err := p.Waits.Default(ctx, wait.DocumentReady()); err != nil {
		return &NavigationFailure{Action: "opening " + url, URL: url, Err: err}
	}
	return nil
}

// AcceptCookies dismisses the cookie banner when it shows.
func (p *JobsPage) AcceptCookies(ctx context.Context) bool {
	return p.overlay.DismissOverlayIfPresent(ctx, p.ShortTimeout)
}

// ClickSeeAllJobs scrolls to and clicks the link to the full listing.
func (p *JobsPage) ClickSeeAllJobs(ctx context.Context) error {
	err := retry.Do(ctx, p.Retrier, p.seeAll, wait.ClickableOf(p.seeAll), func(ctx context.Context, el browser.ElementHandle) error {
		if err := el.ScrollIntoView(ctx, browser.BlockStart); err != nil {
			return err
		}
		return el.Click(ctx)
	})
	if err != nil {
		return fmt.Errorf("clicking %s: %w", p.seeAll, err)
	}
	p.Logger.Info("Full job listing requested.")
	return nil
}

// AwaitDepartmentSelected waits until the department filter shows the department.
func (p *JobsPage) AwaitDepartmentSelected(ctx context.Context) error {
	if _, err := p.Waits.Default(ctx, wait.TextContains(p.department, p.opts.Department)); err != nil {
		return fmt.Errorf("department %q never selected: %w", p.opts.Department, err)
	}
	return nil
}

// OpenLocationDropdown opens the location filter.
func (p *JobsPage) OpenLocationDropdown(ctx context.Context) error {
	return p.OpenDropdown(ctx, p.location, p.options)
}

// SelectLocation picks the first location option matching LocationMatch and
// lets the filtered listing render.
func (p *JobsPage) SelectLocation(ctx context.Context) (string, error) {
	chosen, err := p.SelectFromCompositeDropdown(ctx, p.location, p.options, Containing(p.opts.LocationMatch), p.opts.OptionSentinel)
	if err != nil {
		return "", err
	}
	return chosen, p.Settle(ctx, ListSettle)
}

// ScrollListing scrolls to the bottom and back so lazily loaded cards render.
func (p *JobsPage) ScrollListing(ctx context.Context) error {
	if err := p.Driver.ExecuteScript(ctx, "window.scrollTo(0, document.body.scrollHeight);", nil); err != nil {
		return err
	}
	if err := p.Settle(ctx, ListSettle); err != nil {
		return err
	}
	if err := p.Driver.ExecuteScript(ctx, "window.scrollTo(0, 0);", nil); err != nil {
		return err
	}
	return p.Settle(ctx, ScrollSettle)
}

// AssertLocationSelected checks the location filter shows the chosen location.
func (p *JobsPage) AssertLocationSelected(ctx context.Context) error {
	text, err := retry.Text(ctx, p.Retrier, p.location)
	if err != nil {
		return err
	}
	if !strings.Contains(text, p.opts.Location) {
		return &AssertionFailure{Subject: "location filter", Expected: fmt.Sprintf("to contain %q", p.opts.Location), Actual: text}
	}
	p.Logger.Info("Location shown as selected.", zap.String("location", text))
	return nil
}

// AwaitJobsLoaded waits for the listing and returns how many cards it shows.
func (p *JobsPage) AwaitJobsLoaded(ctx context.Context) (int, error) {
	cards, err := p.Waits.Default(ctx, wait.VisibilityOfAll(p.cards))
	if err != nil {
		return 0, &ElementNotFoundError{Locator: p.cards, Err: err}
	}
	p.Logger.Info("Job listings found.", zap.Int("count", len(cards)))
	return len(cards), nil
}

// ValidateJobCards checks every card: position and department mention the
// department and the location matches exactly. Failures are in the report;
// the error is non-nil only when the listing could not be read.
func (p *JobsPage) ValidateJobCards(ctx context.Context) (CardReport, error) {
	fields := []Field{
		{Name: FieldPosition, Locator: p.title},
		{Name: FieldDepartment, Locator: p.dept},
		{Name: FieldLocation, Locator: p.place},
	}
	validators := []Validator{
		FieldContains(FieldPosition, p.opts.Department),
		FieldContains(FieldDepartment, p.opts.Department),
		FieldEquals(FieldLocation, p.opts.Location),
	}
	return p.CollectAndValidateCards(ctx, p.cards, fields, validators)
}

// ErrNoActiveRole is returned by OpenFirstActiveRole when no card passes the probe.
var ErrNoActiveRole = errors.New("no job card passed the interactivity probe")

// OpenFirstActiveRole opens the first live card's role in a new window and
// switches to it.
func (p *JobsPage) OpenFirstActiveRole(ctx context.Context) error {
	ok, err := p.ActivateFirstInteractiveCard(ctx, p.cards, p.opts.Probe, p.viewRole)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoActiveRole
	}
	return nil
}

// AwaitApplicationForm waits for the application host and returns the final URL.
func (p *JobsPage) AwaitApplicationForm(ctx context.Context) (string, error) {
	if _, err := p.Waits.Default(ctx, wait.URLContains(p.opts.ApplicationHost)); err != nil {
		url, _ := p.Driver.CurrentURL(ctx)
		return "", &NavigationFailure{Action: "opening the application form", URL: url, Err: err}
	}
	url, err := p.Driver.CurrentURL(ctx)
	if err != nil {
		return "", err
	}
	p.Logger.Info("Redirected to the application form.", zap.String("url", url))
	return url, nil
}
