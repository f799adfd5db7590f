// internal/pages/checklist.go
package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/locator"
	"github.com/xkilldash9x/jobflow/internal/retry"
	"github.com/xkilldash9x/jobflow/internal/wait"
)

// Block is one named section a checklist expects to see.
type Block struct {
	Label   string
	Locator locator.Locator
}

// BlockResult is the verdict for one block.
type BlockResult struct {
	Label   string
	Visible bool
	Err     error
}

// ChecklistResult holds one result per block, in the order checked.
type ChecklistResult struct {
	Results []BlockResult
}

// Passed reports whether every block was visible.
func (c ChecklistResult) Passed() bool {
	for _, r := range c.Results {
		if !r.Visible {
			return false
		}
	}
	return true
}

// Failures returns the blocks that were not visible.
func (c ChecklistResult) Failures() []BlockResult {
	var out []BlockResult
	for _, r := range c.Results {
		if !r.Visible {
			out = append(out, r)
		}
	}
	return out
}

// Err summarizes the failed blocks, or returns nil when all passed.
func (c ChecklistResult) Err() error {
	failed := c.Failures()
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, len(failed))
	for i, f := range failed {
		parts[i] = fmt.Sprintf("%s: %v", f.Label, f.Err)
	}
	return fmt.Errorf("%d of %d sections not visible: %s", len(failed), len(c.Results), strings.Join(parts, "; "))
}

// ScrollIntoViewAndAssertVisible checks each block independently: a failing
// block is logged and recorded, and the remaining blocks are still checked.
func (b *Base) ScrollIntoViewAndAssertVisible(ctx context.Context, blocks []Block) ChecklistResult {
	res := ChecklistResult{Results: make([]BlockResult, 0, len(blocks))}
	for _, blk := range blocks {
		err := b.checkBlock(ctx, blk)
		res.Results = append(res.Results, BlockResult{Label: blk.Label, Visible: err == nil, Err: err})
		if err != nil {
			b.Logger.Warn("Section is not visible.", zap.String("section", blk.Label), zap.Error(err))
			continue
		}
		b.Logger.Info("Section displayed.", zap.String("section", blk.Label))
	}
	return res
}

func (b *Base) checkBlock(ctx context.Context, blk Block) error {
	loc := blk.Locator
	err := retry.Do(ctx, b.Retrier, loc, wait.PresenceOf(loc), func(ctx context.Context, el browser.ElementHandle) error {
		return el.ScrollIntoView(ctx, browser.BlockCenter)
	})
	if err != nil {
		return err
	}
	if _, err := b.Waits.Default(ctx, wait.VisibilityOf(loc)); err != nil {
		return err
	}
	if err := b.Settle(ctx, ScrollSettle); err != nil {
		return err
	}
	shown, err := retry.Run(ctx, b.Retrier, loc, wait.PresenceOf(loc), func(ctx context.Context, el browser.ElementHandle) (bool, error) {
		return el.IsDisplayed(ctx)
	})
	if err != nil {
		return err
	}
	if !shown {
		return &AssertionFailure{Subject: blk.Label, Expected: "section to be displayed", Actual: "hidden"}
	}
	return nil
}
