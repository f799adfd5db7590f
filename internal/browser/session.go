// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/locator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Session is a Driver bound to one browser process. It is driven by a single
// goroutine; the mutex only protects window bookkeeping from Close.
type Session struct {
	id         string
	logger     *zap.Logger
	navTimeout time.Duration

	rootTab context.Context
	closeFn func()

	mu        sync.Mutex
	current   context.Context
	currentID target.ID
	tabs      map[target.ID]context.Context
	detachFns []context.CancelFunc
	order     []target.ID
	closed    bool
	onClose   func()

	groupSeq int
	groups   []objectGroup
}

// objectGroup names the remote objects created by one resolution so they can
// be released together.
type objectGroup struct {
	tab  context.Context
	name string
}

// retainedGroups is how many resolutions keep their remote objects alive.
// Handles from older resolutions read as stale and are resolved again.
const retainedGroups = 64

var _ Driver = (*Session)(nil)

// ID returns the session identifier used in logs and artifact names.
func (s *Session) ID() string { return s.id }

// runOn executes actions against tab while honoring the caller's ctx. When the
// caller gave up, its error is reported instead of whatever CDP said.
func (s *Session) runOn(ctx, tab context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(tab, ctx)
	defer cancel()
	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Session) currentTab() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	return s.runOn(ctx, s.currentTab(), actions...)
}

// jsArgs encodes args as a JavaScript array literal.
func jsArgs(args []interface{}) (string, error) {
	if len(args) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encoding script arguments: %w", err)
	}
	return string(b), nil
}

// resolve evaluates the resolver under root, or under the document when root
// is empty, and turns each match into a handle.
func (s *Session) resolve(ctx, tab context.Context, root runtime.RemoteObjectID, loc locator.Locator) ([]ElementHandle, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	group := s.nextGroup()
	var (
		list *runtime.RemoteObject
		find chromedp.Action
	)
	if root == "" {
		argv, err := jsArgs([]interface{}{loc.Strategy.String(), loc.Value})
		if err != nil {
			return nil, err
		}
		find = chromedp.Evaluate("("+resolveJS+").apply(document, "+argv+")", &list,
			func(p *runtime.EvaluateParams) *runtime.EvaluateParams { return p.WithObjectGroup(group) })
	} else {
		find = chromedp.CallFunctionOn(resolveJS, &list, inGroup(root, group), loc.Strategy.String(), loc.Value)
	}

	var handles []ElementHandle
	err := s.runOn(ctx, tab, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := find.Do(ctx); err != nil {
			return err
		}
		if list == nil || list.ObjectID == "" {
			return fmt.Errorf("resolver returned no object")
		}
		defer func() { _ = runtime.ReleaseObject(list.ObjectID).Do(ctx) }()

		var meta struct {
			Stale bool `json:"stale"`
			Count int  `json:"count"`
		}
		if err := chromedp.CallFunctionOn(resolvedMetaJS, &meta, onObject(list.ObjectID)).Do(ctx); err != nil {
			return err
		}
		if meta.Stale {
			return fmt.Errorf("%w: search root is detached", ErrStaleElement)
		}
		for i := 0; i < meta.Count; i++ {
			var node *runtime.RemoteObject
			if err := chromedp.CallFunctionOn(resolvedNodeJS, &node, inGroup(list.ObjectID, group), i).Do(ctx); err != nil {
				return err
			}
			if node == nil || node.ObjectID == "" {
				continue
			}
			handles = append(handles, &element{
				sess: s,
				tab:  tab,
				id:   node.ObjectID,
				desc: fmt.Sprintf("%s[%d]", loc, i),
			})
		}
		return nil
	}))
	if err != nil {
		s.releaseGroups(ctx, objectGroup{tab: tab, name: group})
		return nil, fmt.Errorf("locating %s: %w", loc, classify(err))
	}
	s.retainGroup(ctx, objectGroup{tab: tab, name: group})
	return handles, nil
}

func (s *Session) nextGroup() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupSeq++
	return fmt.Sprintf("jobflow-%s-%d", s.id, s.groupSeq)
}

// retainGroup records g and releases the oldest groups beyond retainedGroups.
func (s *Session) retainGroup(ctx context.Context, g objectGroup) {
	s.mu.Lock()
	s.groups = append(s.groups, g)
	var expired []objectGroup
	if n := len(s.groups) - retainedGroups; n > 0 {
		expired = append(expired, s.groups[:n]...)
		s.groups = append(s.groups[:0], s.groups[n:]...)
	}
	s.mu.Unlock()
	s.releaseGroups(ctx, expired...)
}

// releaseGroups frees remote objects. Failures are only logged: a closed tab
// has already dropped them.
func (s *Session) releaseGroups(ctx context.Context, groups ...objectGroup) {
	for _, g := range groups {
		if err := s.runOn(ctx, g.tab, runtime.ReleaseObjectGroup(g.name)); err != nil {
			s.logger.Debug("Failed to release object group.", zap.String("group", g.name), zap.Error(err))
		}
	}
}

// Locate resolves loc against the current window's document.
func (s *Session) Locate(ctx context.Context, loc locator.Locator) ([]ElementHandle, error) {
	return s.resolve(ctx, s.currentTab(), "", loc)
}

func (s *Session) ExecuteScript(ctx context.Context, script string, out interface{}, args ...interface{}) error {
	argv, err := jsArgs(args)
	if err != nil {
		return err
	}
	expr := "(function() {\n" + script + "\n}).apply(null, " + argv + ")"
	if err := s.run(ctx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("executing script: %w", err)
	}
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("reading current url: %w", err)
	}
	return url, nil
}

func (s *Session) CurrentWindow() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.currentID)
}

func (s *Session) WindowHandles(ctx context.Context) ([]string, error) {
	runCtx, cancel := CombineContext(s.rootTab, ctx)
	defer cancel()
	infos, err := chromedp.Targets(runCtx)
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}

	open := make(map[target.ID]bool, len(infos))
	for _, info := range infos {
		if info.Type == "page" {
			open[info.TargetID] = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order := make([]target.ID, 0, len(open))
	known := make(map[target.ID]bool, len(s.order))
	for _, id := range s.order {
		known[id] = true
		if open[id] {
			order = append(order, id)
		}
	}
	for _, info := range infos {
		if open[info.TargetID] && !known[info.TargetID] {
			order = append(order, info.TargetID)
			known[info.TargetID] = true
		}
	}
	s.order = order

	handles := make([]string, len(order))
	for i, id := range order {
		handles[i] = string(id)
	}
	return handles, nil
}

// SwitchToWindow makes handle the target of every later driver call.
// Handles resolved in the previous window stay usable against it.
func (s *Session) SwitchToWindow(ctx context.Context, handle string) error {
	handles, err := s.WindowHandles(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, h := range handles {
		if h == handle {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNoSuchWindow, handle)
	}

	id := target.ID(handle)
	s.mu.Lock()
	tab, attached := s.tabs[id]
	s.mu.Unlock()

	if !attached {
		var detach context.CancelFunc
		tab, detach = chromedp.NewContext(s.rootTab, chromedp.WithTargetID(id))
		if err := s.runOn(ctx, tab, page.BringToFront()); err != nil {
			detach()
			return fmt.Errorf("attaching to window %s: %w", handle, err)
		}
		s.mu.Lock()
		s.tabs[id] = tab
		s.detachFns = append(s.detachFns, detach)
		s.mu.Unlock()
	} else if err := s.runOn(ctx, tab, page.BringToFront()); err != nil {
		return fmt.Errorf("activating window %s: %w", handle, err)
	}

	s.mu.Lock()
	s.current = tab
	s.currentID = id
	s.mu.Unlock()
	s.logger.Debug("Switched window.", zap.String("window", handle))
	return nil
}

func (s *Session) MoveTo(ctx context.Context, el ElementHandle) error {
	e, ok := el.(*element)
	if !ok {
		return fmt.Errorf("move to: handle %T does not belong to a CDP session", el)
	}
	return e.Hover(ctx)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.navTimeout)
		defer cancel()
	}
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}

// Close detaches from every window and shuts the browser down. It is safe to
// call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	detach := s.detachFns
	s.detachFns = nil
	onClose := s.onClose
	s.mu.Unlock()

	for i := len(detach) - 1; i >= 0; i-- {
		detach[i]()
	}
	s.closeFn()
	if onClose != nil {
		onClose()
	}
	s.logger.Debug("Session closed.")
	return nil
}
