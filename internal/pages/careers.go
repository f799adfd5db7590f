// internal/pages/careers.go
package pages

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/jobflow/internal/locator"
)

// CareersPage is the careers landing page with its marketing sections.
type CareersPage struct {
	*Base
	blocks []Block
}

// NewCareersPage requires the teams_block, locations_block and life_block locators.
func NewCareersPage(base *Base, locs locator.Set) (*CareersPage, error) {
	if err := locs.Require("teams_block", "locations_block", "life_block"); err != nil {
		return nil, fmt.Errorf("careers page: %w", err)
	}
	return &CareersPage{
		Base: base.named("careers"),
		blocks: []Block{
			{Label: "See all teams", Locator: locs["teams_block"]},
			{Label: "Our Locations", Locator: locs["locations_block"]},
			{Label: "Life at Insider", Locator: locs["life_block"]},
		},
	}, nil
}

// Blocks returns the sections CheckBlocks verifies.
func (p *CareersPage) Blocks() []Block { return p.blocks }

// CheckBlocks scrolls to every section and records whether it is visible.
func (p *CareersPage) CheckBlocks(ctx context.Context) ChecklistResult {
	return p.ScrollIntoViewAndAssertVisible(ctx, p.blocks)
}
