// internal/workflow/workflow_test.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	ran       []string
	artifacts []StepResult
}

func (r *recorder) step(name string, out Outcome) Step {
	return Step{Name: name, Action: func(context.Context) Outcome {
		r.ran = append(r.ran, name)
		return out
	}}
}

func (r *recorder) hook(_ context.Context, failed StepResult) error {
	r.artifacts = append(r.artifacts, failed)
	return nil
}

func newDriver(t *testing.T, rec *recorder) *Driver {
	t.Helper()
	d, err := New(zaptest.NewLogger(t), rec.hook)
	require.NoError(t, err)
	return d
}

type row struct {
	Name   string
	Status Status
	Reason string
}

func rows(r Report) []row {
	out := make([]row, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = row{s.Name, s.Status, s.Reason}
	}
	return out
}

func TestNewRequiresLogger(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestRunAllSucceed(t *testing.T) {
	rec := &recorder{}
	report := newDriver(t, rec).Run(context.Background(), []Step{
		rec.step("one", OK()),
		rec.step("two", OK()),
	})

	assert.True(t, report.Succeeded)
	assert.Equal(t, "workflow succeeded", report.Summary())
	assert.NoError(t, report.Err())
	assert.Equal(t, []string{"one", "two"}, rec.ran)
	assert.Empty(t, rec.artifacts)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.Steps[0].Index)
}

func TestRunAbortsAtFatalStep(t *testing.T) {
	rec := &recorder{}
	reason := `no option containing "Istanbul" in css=li.option (saw "Paris", "Berlin")`
	var steps []Step
	for i := 1; i <= 9; i++ {
		out := OK()
		if i == 5 {
			out = Fatal(errors.New(reason))
		}
		steps = append(steps, rec.step(fmt.Sprintf("step-%d", i), out))
	}

	report := newDriver(t, rec).Run(context.Background(), steps)

	assert.False(t, report.Succeeded)
	assert.Equal(t, 5, report.FailedStep)
	assert.Equal(t, reason, report.Reason, "the reason is reported verbatim")
	assert.Equal(t, []string{"step-1", "step-2", "step-3", "step-4", "step-5"}, rec.ran)
	assert.Equal(t, "workflow failed at step 5 (step-5): "+reason, report.Summary())

	require.Len(t, rec.artifacts, 1)
	assert.Equal(t, "step-5", rec.artifacts[0].Name)

	counts := report.Counts()
	assert.Equal(t, 4, counts[Success])
	assert.Equal(t, 1, counts[Failure])
	assert.Equal(t, 4, counts[Skipped])

	var se *StepError
	require.ErrorAs(t, report.Err(), &se)
	assert.Equal(t, 5, se.Step)
	assert.Equal(t, "step-5", se.Name)
}

func TestRunContinuesPastSoftFailures(t *testing.T) {
	rec := &recorder{}
	report := newDriver(t, rec).Run(context.Background(), []Step{
		rec.step("open", OK()),
		rec.step("check blocks", Soft(errors.New("1 of 3 sections not visible"))),
		rec.step("select", OK()),
	})

	assert.True(t, report.Succeeded, "soft failures do not flip the result")
	assert.Empty(t, rec.artifacts)
	want := []row{
		{"open", Success, ""},
		{"check blocks", Failure, "1 of 3 sections not visible"},
		{"select", Success, ""},
	}
	if diff := cmp.Diff(want, rows(report)); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, report.SoftFailures(), 1)
	assert.Equal(t, "check blocks", report.SoftFailures()[0].Name)
}

func TestRunConvertsPanics(t *testing.T) {
	rec := &recorder{}
	report := newDriver(t, rec).Run(context.Background(), []Step{
		{Name: "explodes", Action: func(context.Context) Outcome { panic("boom") }},
		rec.step("after", OK()),
		{Name: "no action"},
	})

	assert.False(t, report.Succeeded)
	assert.Equal(t, 1, report.FailedStep)
	assert.Equal(t, "panic: boom", report.Reason)
	assert.Empty(t, rec.ran)
	assert.Equal(t, Skipped, report.Steps[1].Status)
	assert.Equal(t, Skipped, report.Steps[2].Status)
	require.Len(t, rec.artifacts, 1)
}

func TestRunCancelled(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	steps := []Step{
		{Name: "cancels", Action: func(context.Context) Outcome {
			cancel()
			return OK()
		}},
		rec.step("never", OK()),
	}

	var hookErr error
	d, err := New(zaptest.NewLogger(t), func(ctx context.Context, _ StepResult) error {
		hookErr = ctx.Err()
		return nil
	})
	require.NoError(t, err)
	report := d.Run(ctx, steps)

	assert.False(t, report.Succeeded)
	assert.Equal(t, 2, report.FailedStep)
	assert.Empty(t, rec.ran)
	assert.ErrorIs(t, report.Err(), context.Canceled)
	assert.NoError(t, hookErr, "the artifact hook gets a live context")
}

func TestArtifactErrorsDoNotChangeTheVerdict(t *testing.T) {
	d, err := New(zaptest.NewLogger(t), func(context.Context, StepResult) error {
		return errors.New("disk full")
	})
	require.NoError(t, err)
	report := d.Run(context.Background(), []Step{
		{Name: "fails", Action: func(context.Context) Outcome { return Fatal(errors.New("no card")) }},
	})
	assert.Equal(t, "workflow failed at step 1 (fails): no card", report.Summary())
}

type checklist struct {
	ok  bool
	err error
}

func (c checklist) Passed() bool { return c.ok }
func (c checklist) Err() error   { return c.err }

func TestOutcomeHelpers(t *testing.T) {
	assert.Equal(t, OK(), Fatal(nil))
	assert.Equal(t, OK(), Soft(nil))

	out := Soft(errors.New("late"))
	assert.Equal(t, Failure, out.Status)
	assert.True(t, out.Recoverable)
	assert.Equal(t, "late", out.Reason)

	assert.Equal(t, OK(), Assert(true, "unused"))
	out = Assert(false, "expected a click")
	assert.False(t, out.Recoverable)
	assert.Equal(t, "expected a click", out.Reason)

	assert.Equal(t, OK(), Check(checklist{ok: true}))
	out = Check(checklist{err: errors.New("B2 hidden")})
	assert.True(t, out.Recoverable)
	assert.Equal(t, "B2 hidden", out.Reason)
	assert.Equal(t, "checklist failed", Check(checklist{}).Reason)

	assert.Equal(t, "skipped", Skipped.String())
	text, err := Failure.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "failure", string(text))
}
