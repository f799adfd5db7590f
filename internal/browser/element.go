// internal/browser/element.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/jobflow/internal/locator"
)

// element is an ElementHandle backed by a CDP remote object. It stays bound
// to the tab it was resolved in, even after the session switches windows.
type element struct {
	sess *Session
	tab  context.Context
	id   runtime.RemoteObjectID
	desc string
}

var _ ElementHandle = (*element)(nil)

type jsResult[T any] struct {
	Stale bool `json:"stale"`
	Value T    `json:"value"`
}

type hitPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Hit     bool    `json:"hit"`
	Blocker string  `json:"blocker"`
}

type attrValue struct {
	Present bool   `json:"present"`
	Value   string `json:"value"`
}

func onObject(id runtime.RemoteObjectID) func(*runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
	return func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
		return p.WithObjectID(id)
	}
}

// inGroup targets id and places the call's result in an object group.
func inGroup(id runtime.RemoteObjectID, group string) func(*runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
	return func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
		return p.WithObjectID(id).WithObjectGroup(group)
	}
}

// callOn runs one of the element functions from scripts.go against the node.
func callOn[T any](ctx context.Context, e *element, fn string, args ...interface{}) (T, error) {
	var (
		res  jsResult[T]
		zero T
	)
	if err := e.sess.runOn(ctx, e.tab, chromedp.CallFunctionOn(fn, &res, onObject(e.id), args...)); err != nil {
		return zero, classify(err)
	}
	if res.Stale {
		return zero, fmt.Errorf("%w: %s is detached", ErrStaleElement, e.desc)
	}
	return res.Value, nil
}

func (e *element) String() string { return e.desc }

func (e *element) Locate(ctx context.Context, loc locator.Locator) ([]ElementHandle, error) {
	return e.sess.resolve(ctx, e.tab, e.id, loc)
}

func (e *element) Text(ctx context.Context) (string, error) {
	return callOn[string](ctx, e, textJS)
}

func (e *element) IsDisplayed(ctx context.Context) (bool, error) {
	return callOn[bool](ctx, e, displayedJS)
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	return callOn[bool](ctx, e, enabledJS)
}

func (e *element) ComputedStyle(ctx context.Context, property string) (string, error) {
	return callOn[string](ctx, e, styleJS, property)
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := callOn[attrValue](ctx, e, attributeJS, name)
	return v.Value, v.Present, err
}

func (e *element) ScrollIntoView(ctx context.Context, block ScrollBlock) error {
	_, err := callOn[bool](ctx, e, scrollJS, string(block))
	return err
}

// point centers the element and checks that a pointer at its center would
// land on it.
func (e *element) point(ctx context.Context) (hitPoint, error) {
	p, err := callOn[hitPoint](ctx, e, pointJS)
	if err != nil {
		return p, err
	}
	if p.Width <= 0 || p.Height <= 0 {
		return p, fmt.Errorf("%w: %s has an empty box", ErrNotInteractable, e.desc)
	}
	return p, nil
}

func (e *element) Hover(ctx context.Context) error {
	p, err := e.point(ctx)
	if err != nil {
		return err
	}
	return classify(e.sess.runOn(ctx, e.tab, chromedp.MouseEvent(input.MouseMoved, p.X, p.Y)))
}

// Click dispatches a real left click at the element's center, the way a user
// would, so hover menus and overlays behave as they do for people.
func (e *element) Click(ctx context.Context) error {
	p, err := e.point(ctx)
	if err != nil {
		return err
	}
	if !p.Hit {
		return fmt.Errorf("%w: %s is covered by %s", ErrClickIntercepted, e.desc, p.Blocker)
	}
	return classify(e.sess.runOn(ctx, e.tab, chromedp.MouseClickXY(p.X, p.Y)))
}
