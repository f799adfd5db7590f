// internal/pages/pagestest/site.go
// Package pagestest serves an in-memory replica of the careers site on top of
// browsertest, laid out so the default locator table resolves against it.
package pagestest

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/jobflow/internal/browser/browsertest"
	"github.com/xkilldash9x/jobflow/internal/locator"
)

// Card describes one job listing.
type Card struct {
	Title      string
	Department string
	Location   string
	// Live cards change their title color on hover.
	Live bool
}

// Options shape the replica.
type Options struct {
	BaseURL string
	Cards   []Card
	// Locations are the filter options, in display order.
	Locations []string
	// HiddenBlocks names careers page locators that render hidden.
	HiddenBlocks []string
	// NoApplyWindow makes View Role links do nothing.
	NoApplyWindow bool
	// NoCookieBanner omits the cookie banner everywhere.
	NoCookieBanner bool
}

// DefaultCards has one inactive card ahead of an active one.
func DefaultCards() []Card {
	return []Card{
		{Title: "Senior Software Quality Assurance Engineer", Department: "Quality Assurance", Location: "Istanbul, Turkiye"},
		{Title: "Quality Assurance Engineer", Department: "Quality Assurance", Location: "Istanbul, Turkiye", Live: true},
	}
}

// Site is a running replica. Element fields point into the current document.
type Site struct {
	Driver *browsertest.Driver
	opts   Options
	locs   locator.Set

	Cookie      *browsertest.Element
	Careers     *browsertest.Element
	SeeAll      *browsertest.Element
	LocationBox *browsertest.Element
	Options     []*browsertest.Element
	Cards       []*browsertest.Element
	ViewRoles   []*browsertest.Element
}

// New returns a site on a blank page; navigate to BaseURL to start.
func New(locs locator.Set, opts Options) *Site {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://useinsider.com/"
	}
	if opts.Cards == nil {
		opts.Cards = DefaultCards()
	}
	if opts.Locations == nil {
		opts.Locations = []string{"All", "Paris, France", "Istanbul, Turkiye", "Istanbul, Turkiye (Remote)"}
	}
	s := &Site{Driver: browsertest.New("about:blank"), opts: opts, locs: locs}
	s.Driver.OnNavigate(s.route)
	return s
}

// JobsURL is the filtered listing the See all QA jobs link leads to.
func (s *Site) JobsURL() string {
	return s.opts.BaseURL + "careers/open-positions/?department=qualityassurance"
}

// ApplyURL is the application form for the i-th card.
func (s *Site) ApplyURL(i int) string {
	return fmt.Sprintf("https://jobs.lever.co/useinsider/%d", i+1)
}

func (s *Site) el(tag, text, name string) *browsertest.Element {
	return browsertest.El(tag, text, s.locs[name])
}

func (s *Site) route(d *browsertest.Driver, url string) {
	switch {
	case strings.Contains(url, "open-positions"):
		d.ReplaceDocument(s.jobsDocument()...)
	case strings.Contains(url, "careers/quality-assurance"):
		d.ReplaceDocument(s.qaDocument()...)
	case strings.Contains(url, "careers"):
		d.ReplaceDocument(s.careersDocument()...)
	case strings.HasPrefix(url, s.opts.BaseURL):
		d.ReplaceDocument(s.homeDocument()...)
	}
}

func (s *Site) cookieBanner() []*browsertest.Element {
	if s.opts.NoCookieBanner {
		s.Cookie = nil
		return nil
	}
	btn := s.el("a", "Accept All", "cookie_accept")
	btn.OnClick = func(d *browsertest.Driver) { d.Remove(btn) }
	s.Cookie = btn
	return []*browsertest.Element{btn}
}

func (s *Site) navigateOnClick(el *browsertest.Element, url string) {
	el.OnClick = func(d *browsertest.Driver) { _ = d.Navigate(context.Background(), url) }
}

func (s *Site) homeDocument() []*browsertest.Element {
	careers := s.el("a", "Careers", "careers_menu")
	s.navigateOnClick(careers, s.opts.BaseURL+"careers/")
	s.Careers = careers
	nav := browsertest.El("nav", "").With(
		s.el("a", "Company", "company_menu"),
		browsertest.El("div", "").With(careers),
	)
	return append(s.cookieBanner(), nav)
}

func (s *Site) careersDocument() []*browsertest.Element {
	blocks := []*browsertest.Element{
		s.el("a", "See all teams", "teams_block"),
		s.el("section", "Our Locations", "locations_block"),
		s.el("h2", "Life at Insider", "life_block"),
	}
	for _, name := range s.opts.HiddenBlocks {
		for _, b := range blocks {
			if len(b.Matches) > 0 && b.Matches[0] == s.locs[name] {
				b.Hidden = true
			}
		}
	}
	return append(s.cookieBanner(), blocks...)
}

func (s *Site) qaDocument() []*browsertest.Element {
	seeAll := s.el("a", "See all QA jobs", "see_all_jobs")
	s.navigateOnClick(seeAll, s.JobsURL())
	s.SeeAll = seeAll
	return append(s.cookieBanner(), seeAll)
}

func (s *Site) jobsDocument() []*browsertest.Element {
	box := s.el("span", "All", "location_dropdown")
	s.LocationBox = box
	s.Options = nil
	// Clicking the box toggles the option list, as select2 does.
	var open *browsertest.Element
	box.OnClick = func(d *browsertest.Driver) {
		if open != nil {
			d.Remove(open)
			open = nil
			return
		}
		list := browsertest.El("ul", "")
		s.Options = nil
		for _, name := range s.opts.Locations {
			opt := s.el("li", name, "location_options")
			text := name
			opt.OnClick = func(d *browsertest.Driver) {
				d.Update(func() { box.Text = text })
				d.Remove(list)
				open = nil
			}
			list.With(opt)
			s.Options = append(s.Options, opt)
		}
		open = list
		d.Append(nil, list)
	}

	s.Cards, s.ViewRoles = nil, nil
	listing := browsertest.El("div", "")
	for i, c := range s.opts.Cards {
		card := s.el("div", "", "job_cards")
		title := s.el("p", c.Title, "position_title")
		title.Style = map[string]string{"color": "rgb(0, 0, 0)"}
		if c.Live {
			title.HoverOn = card
			title.HoverStyle = map[string]string{"color": "rgb(31, 117, 203)"}
		}
		view := browsertest.El("a", "View Role", s.locs["view_role"])
		if !s.opts.NoApplyWindow {
			url := s.ApplyURL(i)
			view.OnClick = func(d *browsertest.Driver) { d.OpenWindow(url) }
		}
		card.With(
			title,
			s.el("span", c.Department, "position_department"),
			s.el("div", c.Location, "position_location"),
			view,
		)
		listing.With(card)
		s.Cards = append(s.Cards, card)
		s.ViewRoles = append(s.ViewRoles, view)
	}

	return append(s.cookieBanner(),
		s.el("span", "Quality Assurance", "department_dropdown"),
		box,
		listing,
	)
}
