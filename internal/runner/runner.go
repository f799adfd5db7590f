// File: internal/runner/runner.go
// Description: Runs the scenario in one or more independent browser sessions,
// saves a screenshot when a run fails and writes an optional JSON report.

package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/config"
	"github.com/xkilldash9x/jobflow/internal/scenario"
	"github.com/xkilldash9x/jobflow/internal/workflow"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Session is a driver the runner owns for the length of one run.
type Session interface {
	browser.Driver
	ID() string
	Close() error
}

// SessionFactory opens sessions. Each call must return an independent session.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}

type managerFactory struct{ m *browser.Manager }

func (f managerFactory) NewSession(ctx context.Context) (Session, error) {
	s, err := f.m.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FromManager adapts a browser manager.
func FromManager(m *browser.Manager) SessionFactory { return managerFactory{m: m} }

// BuildFunc turns configuration and a session into steps.
type BuildFunc func(cfg *config.Config, deps scenario.Deps) ([]workflow.Step, error)

// Runner executes the configured scenario.
type Runner struct {
	cfg      *config.Config
	sessions SessionFactory
	fs       afero.Fs
	logger   *zap.Logger
	build    BuildFunc
}

// New creates a Runner. Artifacts are written to fs.
func New(cfg *config.Config, sessions SessionFactory, fs afero.Fs, logger *zap.Logger) (*Runner, error) {
	if cfg == nil || sessions == nil || fs == nil || logger == nil {
		return nil, errors.New("runner requires a config, a session factory, a filesystem and a logger")
	}
	return &Runner{
		cfg:      cfg,
		sessions: sessions,
		fs:       fs,
		logger:   logger.Named("runner"),
		build:    scenario.Build,
	}, nil
}

// RunResult is the outcome of one repetition.
type RunResult struct {
	Index     int             `json:"index"`
	SessionID string          `json:"session_id,omitempty"`
	Report    workflow.Report `json:"report"`
	// Error is set when the run could not start, e.g. the browser failed to launch.
	Error     string   `json:"error,omitempty"`
	Artifacts []string `json:"artifacts,omitempty"`

	err error
}

// Passed reports whether the run started and its workflow succeeded.
func (r RunResult) Passed() bool { return r.err == nil && r.Report.Succeeded }

// Err explains a failed run.
func (r RunResult) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.Report.Err()
}

// Summary is the result of Runner.Run.
type Summary struct {
	Scenario string        `json:"scenario"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
	Runs     []RunResult   `json:"runs"`
}

// Passed reports whether every run passed.
func (s *Summary) Passed() bool {
	for _, r := range s.Runs {
		if !r.Passed() {
			return false
		}
	}
	return len(s.Runs) > 0
}

// Err joins the failures of every run.
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Runs {
		if err := r.Err(); err != nil {
			errs = append(errs, fmt.Errorf("run %d: %w", r.Index, err))
		}
	}
	return errors.Join(errs...)
}

// Run executes runner.parallel independent repetitions concurrently, each in
// its own session, bounded by runner.timeout. A failing run never cancels the
// others. The returned error covers only report persistence.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	n := r.cfg.Runner.Parallel
	if n < 1 {
		n = 1
	}
	if r.cfg.Runner.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Runner.Timeout)
		defer cancel()
	}

	summary := &Summary{Scenario: r.cfg.Scenario.Name, Started: time.Now(), Runs: make([]RunResult, n)}
	r.logger.Info("Starting scenario.", zap.String("scenario", summary.Scenario), zap.Int("parallel", n))

	// Each run writes its own result slot and returns nil, so one failure
	// never cancels the others and Wait has no error to report.
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			summary.Runs[i] = r.runOnce(ctx, i+1, n)
			return nil
		})
	}
	_ = g.Wait()
	summary.Duration = time.Since(summary.Started)

	if err := r.writeReport(summary); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) runOnce(ctx context.Context, index, total int) RunResult {
	res := RunResult{Index: index}
	logger := r.logger.With(zap.Int("run", index))

	sess, err := r.sessions.NewSession(ctx)
	if err != nil {
		res.err = fmt.Errorf("starting session: %w", err)
		res.Error = res.err.Error()
		logger.Error("Could not start a session.", zap.Error(err))
		return res
	}
	res.SessionID = sess.ID()
	logger = logger.With(zap.String("session_id", res.SessionID))
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("Failed to close session.", zap.Error(err))
		}
	}()

	steps, err := r.build(r.cfg, scenario.Deps{Driver: sess, Logger: logger})
	if err != nil {
		res.err = fmt.Errorf("building scenario: %w", err)
		res.Error = res.err.Error()
		return res
	}

	hook := func(ctx context.Context, failed workflow.StepResult) error {
		if !r.cfg.Artifacts.OnFailure {
			return nil
		}
		path, err := r.saveScreenshot(ctx, sess, index, total)
		if err != nil {
			return err
		}
		res.Artifacts = append(res.Artifacts, path)
		logger.Info("Screenshot saved.", zap.String("path", path), zap.Int("step", failed.Index))
		return nil
	}

	wf, err := workflow.New(logger, hook)
	if err != nil {
		res.err = err
		res.Error = err.Error()
		return res
	}
	res.Report = wf.Run(ctx, steps)
	return res
}
