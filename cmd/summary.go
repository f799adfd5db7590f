// File: cmd/summary.go
package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/xkilldash9x/jobflow/internal/runner"
	"github.com/xkilldash9x/jobflow/internal/workflow"
)

const (
	succMark = "✓"
	failMark = "✗"
	softMark = "!"
	skipMark = "-"
)

var (
	succColor  = color.New(color.FgGreen)
	failColor  = color.New(color.FgRed)
	softColor  = color.New(color.FgYellow)
	grayColor  = color.New(color.Faint)
	valueColor = color.New(color.FgCyan)
)

// printSummary writes one block per run: every step with its mark, then the verdict.
func printSummary(w io.Writer, s *runner.Summary) {
	if s == nil {
		return
	}
	for _, run := range s.Runs {
		_, _ = fmt.Fprintf(w, "\n%s run %d", s.Scenario, run.Index)
		if run.SessionID != "" {
			_, _ = grayColor.Fprintf(w, " (session %s)", run.SessionID)
		}
		_, _ = fmt.Fprintln(w)

		if run.Error != "" {
			_, _ = failColor.Fprintf(w, "  %s %s\n", failMark, run.Error)
			continue
		}
		for _, step := range run.Report.Steps {
			printStep(w, step)
		}
		for _, path := range run.Artifacts {
			_, _ = grayColor.Fprint(w, "  screenshot: ")
			_, _ = valueColor.Fprintln(w, path)
		}
		verdict := succColor
		if !run.Report.Succeeded {
			verdict = failColor
		}
		_, _ = verdict.Fprintf(w, "  %s", run.Report.Summary())
		_, _ = grayColor.Fprintf(w, " in %s\n", run.Report.Duration.Round(1e6))
	}
}

func printStep(w io.Writer, step workflow.StepResult) {
	switch {
	case step.Status == workflow.Success:
		_, _ = succColor.Fprintf(w, "  %s %2d %s\n", succMark, step.Index, step.Name)
	case step.Status == workflow.Skipped:
		_, _ = grayColor.Fprintf(w, "  %s %2d %s\n", skipMark, step.Index, step.Name)
	case step.Recoverable:
		_, _ = softColor.Fprintf(w, "  %s %2d %s: %s\n", softMark, step.Index, step.Name, step.Reason)
	default:
		_, _ = failColor.Fprintf(w, "  %s %2d %s: %s\n", failMark, step.Index, step.Name, step.Reason)
	}
}
