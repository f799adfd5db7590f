// File: internal/workflow/workflow.go
// Description: Runs an ordered list of named steps against one session. Soft
// failures are recorded and the run goes on; the first fatal failure stops it,
// gives the caller a chance to capture artifacts, and marks the rest skipped.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the result of one step.
type Status int

const (
	Success Status = iota
	Failure
	Skipped
)

var statusNames = [...]string{Success: "success", Failure: "failure", Skipped: "skipped"}

func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText renders the status by name in reports.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Outcome is what a step reports back.
type Outcome struct {
	Status Status
	Reason string
	// Recoverable failures are recorded without stopping the run.
	Recoverable bool
	Err         error
}

// Step is one named action of a scenario.
type Step struct {
	Name   string
	Action func(ctx context.Context) Outcome
}

// StepResult records how a step went.
type StepResult struct {
	Index       int           `json:"index"`
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	Recoverable bool          `json:"recoverable,omitempty"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration_ns"`
	Err         error         `json:"-"`
}

// Fatal reports whether the step stopped the run.
func (r StepResult) Fatal() bool { return r.Status == Failure && !r.Recoverable }

// ArtifactFunc is called synchronously for the step that failed a run, while
// the session is still open.
type ArtifactFunc func(ctx context.Context, failed StepResult) error

// artifactTimeout bounds the artifact hook when the run context is already done.
const artifactTimeout = 15 * time.Second

// Driver executes steps in order.
type Driver struct {
	logger   *zap.Logger
	artifact ArtifactFunc
}

// New creates a Driver. artifact may be nil.
func New(logger *zap.Logger, artifact ArtifactFunc) (*Driver, error) {
	if logger == nil {
		return nil, errors.New("workflow driver requires a logger")
	}
	return &Driver{logger: logger.Named("workflow"), artifact: artifact}, nil
}

// Run executes steps in order and reports the result. It never returns early
// without a report: cancellation is recorded as a fatal failure of the step
// that was about to run.
func (d *Driver) Run(ctx context.Context, steps []Step) Report {
	report := Report{RunID: uuid.NewString(), Succeeded: true, Steps: make([]StepResult, 0, len(steps))}
	logger := d.logger.With(zap.String("run_id", report.RunID))
	start := time.Now()
	logger.Info("Workflow started.", zap.Int("steps", len(steps)))

	for i, step := range steps {
		res := StepResult{Index: i + 1, Name: step.Name, Started: time.Now()}
		if !report.Succeeded {
			res.Status = Skipped
			report.Steps = append(report.Steps, res)
			continue
		}

		var out Outcome
		if err := ctx.Err(); err != nil {
			out = Fatal(fmt.Errorf("run cancelled before the step: %w", err))
		} else {
			out = runStep(ctx, step)
		}
		res.Duration = time.Since(res.Started)
		res.Status, res.Reason, res.Recoverable, res.Err = out.Status, out.Reason, out.Recoverable, out.Err
		if res.Status == Failure && res.Reason == "" {
			res.Reason = "step failed"
		}
		report.Steps = append(report.Steps, res)

		fields := []zap.Field{zap.Int("step", res.Index), zap.String("name", res.Name), zap.Duration("took", res.Duration)}
		switch {
		case res.Status == Success:
			logger.Info("Step passed.", fields...)
		case res.Recoverable:
			logger.Warn("Step failed, continuing.", append(fields, zap.String("reason", res.Reason))...)
		default:
			logger.Error("Step failed, aborting workflow.", append(fields, zap.String("reason", res.Reason))...)
			report.Succeeded = false
			report.FailedStep = res.Index
			report.Reason = res.Reason
			d.captureArtifacts(ctx, logger, res)
		}
	}

	report.Duration = time.Since(start)
	logger.Info(report.Summary(), zap.Duration("took", report.Duration), zap.Int("soft_failures", len(report.SoftFailures())))
	return report
}

// runStep turns a panic inside the action into a fatal outcome.
func runStep(ctx context.Context, step Step) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Status: Failure,
				Reason: fmt.Sprintf("panic: %v", r),
				Err:    fmt.Errorf("step %q panicked: %v\n%s", step.Name, r, debug.Stack()),
			}
		}
	}()
	if step.Action == nil {
		return Fatal(fmt.Errorf("step %q has no action", step.Name))
	}
	return step.Action(ctx)
}

func (d *Driver) captureArtifacts(ctx context.Context, logger *zap.Logger, failed StepResult) {
	if d.artifact == nil {
		return
	}
	hookCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		hookCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), artifactTimeout)
		defer cancel()
	}
	if err := d.artifact(hookCtx, failed); err != nil {
		logger.Warn("Failed to capture failure artifacts.", zap.Error(err))
	}
}
