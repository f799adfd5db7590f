// File: internal/scenario/scenario.go
// Description: Builds the careers scenario: from the home page through the
// filtered QA listing to the external application form, as workflow steps.

package scenario

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/config"
	"github.com/xkilldash9x/jobflow/internal/pages"
	"github.com/xkilldash9x/jobflow/internal/workflow"
)

// Deps are the per-session collaborators of a scenario run.
type Deps struct {
	Driver browser.Driver
	Logger *zap.Logger
	// Overlay replaces the cookie banner dismisser built from the cookie_accept locator.
	Overlay pages.OverlayDismisser
	// CardTrace observes card activation states.
	CardTrace func(card int, state pages.CardState)
}

// Pages bundles the page objects one run shares.
type Pages struct {
	Home    *pages.HomePage
	Careers *pages.CareersPage
	Jobs    *pages.JobsPage
}

// NewPages builds the page objects for one session.
func NewPages(cfg *config.Config, deps Deps) (*Pages, error) {
	if deps.Driver == nil {
		return nil, errors.New("scenario requires a driver")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locs, err := cfg.LocatorSet()
	if err != nil {
		return nil, err
	}

	base := pages.NewBase(deps.Driver, cfg.Wait, logger)
	base.CardTrace = deps.CardTrace

	overlay := deps.Overlay
	if overlay == nil {
		button, err := locs.Get("cookie_accept")
		if err != nil {
			return nil, err
		}
		overlay = pages.NewClickOverlay(base, button)
	}

	sc := cfg.Scenario
	probe, err := pages.ProbeFromConfig(sc.Probe, locs["position_title"])
	if err != nil {
		return nil, fmt.Errorf("scenario.probe: %w", err)
	}

	home, err := pages.NewHomePage(base, overlay, locs)
	if err != nil {
		return nil, err
	}
	careers, err := pages.NewCareersPage(base, locs)
	if err != nil {
		return nil, err
	}
	jobs, err := pages.NewJobsPage(base, overlay, locs, pages.JobsOptions{
		Department:      sc.Department,
		Location:        sc.Location,
		LocationMatch:   sc.LocationMatch,
		OptionSentinel:  sc.OptionSentinel,
		ApplicationHost: sc.ApplicationHost,
		Probe:           probe,
	})
	if err != nil {
		return nil, err
	}
	return &Pages{Home: home, Careers: careers, Jobs: jobs}, nil
}

// Build returns the scenario's steps bound to one session.
func Build(cfg *config.Config, deps Deps) ([]workflow.Step, error) {
	p, err := NewPages(cfg, deps)
	if err != nil {
		return nil, err
	}
	sc := cfg.Scenario

	return []workflow.Step{
		{Name: "open home page", Action: func(ctx context.Context) workflow.Outcome {
			return workflow.Fatal(p.Home.Open(ctx, sc.BaseURL))
		}},
		{Name: "accept cookies", Action: func(ctx context.Context) workflow.Outcome {
			p.Home.AcceptCookies(ctx)
			return workflow.OK()
		}},
		{Name: "open careers and check sections", Action: func(ctx context.Context) workflow.Outcome {
			if err := p.Home.OpenCareers(ctx); err != nil {
				return workflow.Fatal(err)
			}
			return workflow.Check(p.Careers.CheckBlocks(ctx))
		}},
		{Name: "open department careers page", Action: func(ctx context.Context) workflow.Outcome {
			return workflow.Fatal(p.Jobs.Open(ctx, sc.CareersURL))
		}},
		{Name: "accept cookies again", Action: func(ctx context.Context) workflow.Outcome {
			p.Jobs.AcceptCookies(ctx)
			return workflow.OK()
		}},
		{Name: "see all jobs", Action: func(ctx context.Context) workflow.Outcome {
			if err := p.Jobs.ClickSeeAllJobs(ctx); err != nil {
				return workflow.Fatal(err)
			}
			p.Jobs.AcceptCookies(ctx)
			return workflow.OK()
		}},
		{Name: "verify department selected", Action: func(ctx context.Context) workflow.Outcome {
			return workflow.Fatal(p.Jobs.AwaitDepartmentSelected(ctx))
		}},
		{Name: "select location", Action: func(ctx context.Context) workflow.Outcome {
			_, err := p.Jobs.SelectLocation(ctx)
			return workflow.Fatal(err)
		}},
		{Name: "load job listing", Action: func(ctx context.Context) workflow.Outcome {
			return workflow.Fatal(p.Jobs.ScrollListing(ctx))
		}},
		{Name: "verify location selected", Action: func(ctx context.Context) workflow.Outcome {
			return workflow.Fatal(p.Jobs.AssertLocationSelected(ctx))
		}},
		{Name: "validate job cards", Action: func(ctx context.Context) workflow.Outcome {
			report, err := p.Jobs.ValidateJobCards(ctx)
			if err != nil {
				return workflow.Fatal(err)
			}
			if sc.StrictCards {
				return workflow.Fatal(report.Err())
			}
			return workflow.Check(report)
		}},
		{Name: "open first active role", Action: func(ctx context.Context) workflow.Outcome {
			return workflow.Fatal(p.Jobs.OpenFirstActiveRole(ctx))
		}},
		{Name: "verify application form", Action: func(ctx context.Context) workflow.Outcome {
			_, err := p.Jobs.AwaitApplicationForm(ctx)
			return workflow.Fatal(err)
		}},
	}, nil
}
