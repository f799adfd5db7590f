// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/config"
)

// Manager launches one browser process per session and tracks them so a
// shutdown can close whatever is still open.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// NewManager creates a manager. No browser starts until NewSession is called.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*Session),
	}
}

// AllocatorOptions translates the browser configuration into chromedp flags.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if runtime.GOOS == "linux" {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	// Extra args are either "--name" or "--name=value".
	for _, arg := range cfg.Args {
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}
	return opts
}

// NewSession starts a browser and returns a session driving its first tab.
// The browser outlives ctx; only Close or Manager.Close stops it.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	logger := m.logger.With(zap.String("session_id", id))

	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), AllocatorOptions(m.cfg)...)
	cdpLog := logger.Named("cdp").Sugar()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(cdpLog.Debugf),
		chromedp.WithErrorf(cdpLog.Debugf),
	)

	s := &Session{
		id:         id,
		logger:     logger,
		navTimeout: m.cfg.NavigationTimeout,
		rootTab:    tabCtx,
		closeFn: func() {
			tabCancel()
			allocCancel()
		},
		current: tabCtx,
		tabs:    make(map[target.ID]context.Context),
	}

	launchCtx := ctx
	if m.cfg.LaunchTimeout > 0 {
		var cancel context.CancelFunc
		launchCtx, cancel = context.WithTimeout(ctx, m.cfg.LaunchTimeout)
		defer cancel()
	}
	// An empty run starts the process and attaches to the initial tab.
	if err := s.runOn(launchCtx, tabCtx); err != nil {
		s.closeFn()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Target == nil {
		s.closeFn()
		return nil, fmt.Errorf("launching browser: no target attached")
	}
	s.currentID = c.Target.TargetID
	s.tabs[s.currentID] = tabCtx
	s.order = append(s.order, s.currentID)

	m.wg.Add(1)
	s.onClose = func() {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		m.wg.Done()
	}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	logger.Info("Browser session started.", zap.Bool("headless", m.cfg.Headless))
	return s, nil
}

// ActiveSessions returns the number of sessions not yet closed.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close shuts down every open session and waits for them to finish.
func (m *Manager) Close() error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		if err := s.Close(); err != nil {
			m.logger.Warn("Failed to close session.", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}
	m.wg.Wait()
	m.logger.Info("Browser manager shut down.")
	return nil
}
