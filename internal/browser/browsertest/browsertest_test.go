// internal/browser/browsertest/browsertest_test.go
package browsertest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/locator"
)

var (
	cardLoc  = locator.ClassName("card")
	titleLoc = locator.ClassName("title")
)

func TestLocateDocumentOrderAndScope(t *testing.T) {
	ctx := context.Background()
	first := El("div", "", cardLoc).With(El("span", "QA Engineer", titleLoc))
	second := El("div", "", cardLoc).With(El("span", "QA Analyst", titleLoc))
	d := New("https://example.test/", first, second)

	cards, err := d.Locate(ctx, cardLoc)
	require.NoError(t, err)
	require.Len(t, cards, 2)

	titles, err := cards[1].Locate(ctx, titleLoc)
	require.NoError(t, err)
	require.Len(t, titles, 1)
	text, err := titles[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "QA Analyst", text)

	_, err = d.Locate(ctx, locator.Locator{})
	assert.Error(t, err)
}

func TestReresolvingUnchangedDOMIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d := New("https://example.test/",
		El("div", "", cardLoc).With(El("span", "QA Engineer", titleLoc)),
		El("div", "", cardLoc).With(El("span", "QA Analyst", titleLoc)))

	texts := func() []string {
		t.Helper()
		titles, err := d.Locate(ctx, titleLoc)
		require.NoError(t, err)
		out := make([]string, len(titles))
		for i, h := range titles {
			out[i], err = h.Text(ctx)
			require.NoError(t, err)
		}
		return out
	}

	first := texts()
	assert.Equal(t, []string{"QA Engineer", "QA Analyst"}, first)
	assert.Equal(t, first, texts())
}

func TestStaleness(t *testing.T) {
	ctx := context.Background()
	el := El("a", "Careers", locator.LinkText("Careers"))
	d := New("https://example.test/", el)

	t.Run("rerender invalidates old handles only", func(t *testing.T) {
		old, err := d.Locate(ctx, locator.LinkText("Careers"))
		require.NoError(t, err)
		d.Rerender(el)

		_, err = old[0].Text(ctx)
		assert.ErrorIs(t, err, browser.ErrStaleElement)

		fresh, err := d.Locate(ctx, locator.LinkText("Careers"))
		require.NoError(t, err)
		text, err := fresh[0].Text(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Careers", text)
	})

	t.Run("stale reads are consumed one per operation", func(t *testing.T) {
		d.Update(func() { el.StaleReads = 1 })
		h, err := d.Locate(ctx, locator.LinkText("Careers"))
		require.NoError(t, err)
		assert.ErrorIs(t, h[0].Click(ctx), browser.ErrStaleElement)
		assert.ErrorIs(t, h[0].Click(ctx), browser.ErrStaleElement, "the handle stays stale after a re-render")

		h, err = d.Locate(ctx, locator.LinkText("Careers"))
		require.NoError(t, err)
		assert.NoError(t, h[0].Click(ctx))
		assert.Equal(t, 1, d.Clicks(el))
	})

	t.Run("removed nodes are stale", func(t *testing.T) {
		h, err := d.Locate(ctx, locator.LinkText("Careers"))
		require.NoError(t, err)
		d.Remove(el)
		_, err = h[0].IsDisplayed(ctx)
		assert.True(t, browser.IsStale(err))
	})
}

func TestHoverStyleAndWindows(t *testing.T) {
	ctx := context.Background()
	link := El("a", "View Role", locator.LinkText("View Role"))
	link.Style = map[string]string{"color": "rgb(0, 0, 0)"}
	link.HoverStyle = map[string]string{"color": "rgb(255, 255, 255)"}
	link.OnClick = func(d *Driver) { d.OpenWindow("https://jobs.lever.co/insider/1") }
	d := New("https://example.test/careers", link)

	h, err := d.Locate(ctx, locator.LinkText("View Role"))
	require.NoError(t, err)
	before, err := h[0].ComputedStyle(ctx, "color")
	require.NoError(t, err)
	require.NoError(t, d.MoveTo(ctx, h[0]))
	after, err := h[0].ComputedStyle(ctx, "color")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	require.NoError(t, h[0].Click(ctx))
	handles, err := d.WindowHandles(ctx)
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Equal(t, handles[0], d.CurrentWindow())

	require.NoError(t, d.SwitchToWindow(ctx, handles[1]))
	url, err := d.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Contains(t, url, "lever.co")
	assert.ErrorIs(t, d.SwitchToWindow(ctx, "nope"), browser.ErrNoSuchWindow)
}

func TestExecuteScript(t *testing.T) {
	ctx := context.Background()
	d := New("about:blank")

	var state string
	require.NoError(t, d.ExecuteScript(ctx, "return document.readyState;", &state))
	assert.Equal(t, "complete", state)

	d.Script = func(script string, args []interface{}) (interface{}, bool, error) {
		if script == "sum" {
			return args[0].(int) + args[1].(int), true, nil
		}
		return nil, false, nil
	}
	var sum int
	require.NoError(t, d.ExecuteScript(ctx, "sum", &sum, 2, 3))
	assert.Equal(t, 5, sum)
	assert.Equal(t, []string{"return document.readyState;", "sum"}, d.Scripts())
}
