// internal/workflow/report.go
package workflow

import (
	"fmt"
	"time"
)

// Report is the result of a run.
type Report struct {
	RunID     string `json:"run_id"`
	Succeeded bool   `json:"succeeded"`
	// FailedStep is the 1-based index of the fatal step, or 0.
	FailedStep int           `json:"failed_step,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Steps      []StepResult  `json:"steps"`
	Duration   time.Duration `json:"duration_ns"`
}

// Summary is the one-line verdict.
func (r Report) Summary() string {
	if r.Succeeded {
		return "workflow succeeded"
	}
	name := ""
	if r.FailedStep > 0 && r.FailedStep <= len(r.Steps) {
		name = r.Steps[r.FailedStep-1].Name
	}
	return fmt.Sprintf("workflow failed at step %d (%s): %s", r.FailedStep, name, r.Reason)
}

// SoftFailures returns the recoverable failures recorded along the way.
func (r Report) SoftFailures() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Status == Failure && s.Recoverable {
			out = append(out, s)
		}
	}
	return out
}

// Counts tallies steps by status.
func (r Report) Counts() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, s := range r.Steps {
		counts[s.Status]++
	}
	return counts
}

// StepError is the error form of a failed run.
type StepError struct {
	Step   int
	Name   string
	Reason string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %s", e.Step, e.Name, e.Reason)
}

func (e *StepError) Unwrap() error { return e.Err }

// Err returns nil for a successful run and a *StepError otherwise.
func (r Report) Err() error {
	if r.Succeeded {
		return nil
	}
	e := &StepError{Step: r.FailedStep, Reason: r.Reason}
	if r.FailedStep > 0 && r.FailedStep <= len(r.Steps) {
		e.Name = r.Steps[r.FailedStep-1].Name
		e.Err = r.Steps[r.FailedStep-1].Err
	}
	return e
}
