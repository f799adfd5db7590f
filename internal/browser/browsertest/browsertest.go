// internal/browser/browsertest/browsertest.go
// Package browsertest provides an in-memory browser.Driver over a tree of fake
// elements. It models the parts of a live DOM the automation core cares
// about: re-renders that invalidate handles, hover state, visibility and
// windows opened by clicks.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/locator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Element is a fake DOM node. Configure its exported fields before attaching
// it; afterwards mutate it only inside Driver.Update.
type Element struct {
	Tag   string
	Text  string
	Attrs map[string]string
	Style map[string]string
	// HoverStyle and HoverAttrs override Style and Attrs while the pointer is
	// over the element or one of its descendants.
	HoverStyle map[string]string
	HoverAttrs map[string]string
	// HoverOn moves the hover trigger to another element, as a rule like
	// ".card:hover .title" does.
	HoverOn  *Element
	Hidden   bool
	Disabled bool
	// Matches lists the locators that select this element.
	Matches  []locator.Locator
	Children []*Element
	// OnClick runs after a successful click, outside the driver lock.
	OnClick func(d *Driver)
	// StaleReads makes the next N operations through a handle fail as stale,
	// each one re-rendering the element so older handles stay invalid.
	StaleReads int

	parent   *Element
	gen      int
	detached bool
	clicks   int
	scrolls  int
}

// El is a shorthand constructor.
func El(tag, text string, matches ...locator.Locator) *Element {
	return &Element{Tag: tag, Text: text, Matches: matches}
}

// With appends children and returns e for chaining.
func (e *Element) With(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

func (e *Element) matches(loc locator.Locator) bool {
	for _, m := range e.Matches {
		if m == loc {
			return true
		}
	}
	return false
}

func (e *Element) link(parent *Element) {
	e.parent = parent
	for _, c := range e.Children {
		c.link(e)
	}
}

// Window is a fake top-level browsing context.
type Window struct {
	Handle string
	URL    string
	Root   *Element
}

// ScriptFunc answers ExecuteScript calls. Returning handled=false falls back
// to the built-in answers.
type ScriptFunc func(script string, args []interface{}) (result interface{}, handled bool, err error)

// Driver is the fake browser.Driver.
type Driver struct {
	mu       sync.Mutex
	windows  []*Window
	current  int
	hovered  *Element
	nextWin  int
	scripts  []string
	shots    int
	navigate func(d *Driver, url string)

	// Script, when set, is consulted first for ExecuteScript.
	Script ScriptFunc
}

var _ browser.Driver = (*Driver)(nil)

// New returns a driver with one window at url whose document holds body.
func New(url string, body ...*Element) *Driver {
	d := &Driver{}
	d.windows = append(d.windows, d.newWindow(url, body))
	return d
}

func (d *Driver) newWindow(url string, body []*Element) *Window {
	d.nextWin++
	root := El("html", "").With(body...)
	root.link(nil)
	return &Window{Handle: fmt.Sprintf("window-%d", d.nextWin), URL: url, Root: root}
}

// OnNavigate installs a hook run by Navigate after the URL changes.
func (d *Driver) OnNavigate(fn func(d *Driver, url string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigate = fn
}

// OpenWindow adds a window, as a target=_blank link would, without switching to it.
func (d *Driver) OpenWindow(url string, body ...*Element) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	w := d.newWindow(url, body)
	d.windows = append(d.windows, w)
	return w.Handle
}

// SetURL changes the current window's URL.
func (d *Driver) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.windows[d.current].URL = url
}

// Update runs fn with the driver locked so it can mutate elements safely.
func (d *Driver) Update(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// Append attaches children to parent, or to the current document body when parent is nil.
func (d *Driver) Append(parent *Element, children ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if parent == nil {
		parent = d.windows[d.current].Root
	}
	for _, c := range children {
		c.link(parent)
		c.detached = false
		parent.Children = append(parent.Children, c)
	}
}

// Remove detaches e from the tree. Existing handles to it become stale.
func (d *Driver) Remove(e *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := e.parent; p != nil {
		kept := p.Children[:0]
		for _, c := range p.Children {
			if c != e {
				kept = append(kept, c)
			}
		}
		p.Children = kept
	}
	e.parent = nil
	e.detached = true
}

// Rerender replaces e with a fresh copy of itself, as a framework re-render
// would. Handles resolved before the call become stale.
func (d *Driver) Rerender(e *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e.gen++
}

// Clicks returns how many clicks e has received.
func (d *Driver) Clicks(e *Element) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return e.clicks
}

// Scrolls returns how many times e was scrolled into view.
func (d *Driver) Scrolls(e *Element) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return e.scrolls
}

// Hovered returns the element under the pointer.
func (d *Driver) Hovered() *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hovered
}

// Scripts returns every script passed to ExecuteScript.
func (d *Driver) Scripts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.scripts...)
}

// Screenshots returns how many screenshots were taken.
func (d *Driver) Screenshots() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shots
}

// attached reports whether e belongs to the current tree of any window.
func (d *Driver) attached(e *Element) bool {
	if e.detached {
		return false
	}
	for n := e; n != nil; n = n.parent {
		for _, w := range d.windows {
			if n == w.Root {
				return true
			}
		}
	}
	return false
}

func (d *Driver) search(root *Element, loc locator.Locator) []browser.ElementHandle {
	var out []browser.ElementHandle
	var walk func(*Element)
	walk = func(n *Element) {
		for _, c := range n.Children {
			if c.matches(loc) {
				out = append(out, &handle{d: d, el: c, gen: c.gen, desc: fmt.Sprintf("%s[%d]", loc, len(out))})
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func (d *Driver) Locate(ctx context.Context, loc locator.Locator) ([]browser.ElementHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.search(d.windows[d.current].Root, loc), nil
}

// ExecuteScript consults Script first, then answers readyState queries with
// "complete". Any other script succeeds with a null result.
func (d *Driver) ExecuteScript(ctx context.Context, script string, out interface{}, args ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	d.scripts = append(d.scripts, script)
	fn := d.Script
	d.mu.Unlock()

	var (
		result  interface{}
		handled bool
		err     error
	)
	if fn != nil {
		result, handled, err = fn(script, args)
		if err != nil {
			return err
		}
	}
	if !handled && strings.Contains(script, "readyState") {
		result = "complete"
	}
	if out == nil {
		return nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.windows[d.current].URL, nil
}

func (d *Driver) WindowHandles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	handles := make([]string, len(d.windows))
	for i, w := range d.windows {
		handles[i] = w.Handle
	}
	return handles, nil
}

func (d *Driver) CurrentWindow() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.windows[d.current].Handle
}

func (d *Driver) SwitchToWindow(ctx context.Context, h string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, w := range d.windows {
		if w.Handle == h {
			d.current = i
			return nil
		}
	}
	return fmt.Errorf("%w: %s", browser.ErrNoSuchWindow, h)
}

func (d *Driver) MoveTo(ctx context.Context, el browser.ElementHandle) error {
	h, ok := el.(*handle)
	if !ok || h.d != d {
		return fmt.Errorf("move to: foreign handle %T", el)
	}
	return h.Hover(ctx)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	d.windows[d.current].URL = url
	hook := d.navigate
	d.mu.Unlock()
	if hook != nil {
		hook(d, url)
	}
	return nil
}

// ReplaceDocument swaps the current window's content, detaching every old node.
func (d *Driver) ReplaceDocument(body ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w := d.windows[d.current]
	for _, c := range w.Root.Children {
		c.detached = true
	}
	w.Root = El("html", "").With(body...)
	w.Root.link(nil)
	d.hovered = nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shots++
	return []byte("\x89PNG fake " + d.windows[d.current].URL), nil
}
