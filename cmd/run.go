// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/browser"
	"github.com/xkilldash9x/jobflow/internal/config"
	"github.com/xkilldash9x/jobflow/internal/observability"
	"github.com/xkilldash9x/jobflow/internal/runner"
)

// ErrScenarioFailed is returned by the run command when any run failed.
var ErrScenarioFailed = errors.New("scenario failed")

// Seams for tests.
var (
	newSessionFactory = func(cfg *config.Config, logger *zap.Logger) (runner.SessionFactory, func() error) {
		m := browser.NewManager(cfg.Browser, logger)
		return runner.FromManager(m), m.Close
	}
	artifactFs = afero.NewOsFs
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the careers scenario in a real browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			sessions, closeSessions := newSessionFactory(cfg, logger)
			defer func() {
				if err := closeSessions(); err != nil {
					logger.Warn("Failed to shut down the browser.", zap.Error(err))
				}
			}()

			r, err := runner.New(cfg, sessions, artifactFs(), logger)
			if err != nil {
				return err
			}
			summary, err := r.Run(ctx)
			printSummary(cmd.OutOrStdout(), summary)
			if err != nil {
				return err
			}
			if !summary.Passed() {
				if ctx.Err() != nil {
					return fmt.Errorf("%w: %w", ErrScenarioFailed, context.Cause(ctx))
				}
				return fmt.Errorf("%w: %v", ErrScenarioFailed, summary.Err())
			}
			return nil
		},
	}

	cmd.Flags().Bool("headless", true, "run the browser without a window")
	cmd.Flags().Int("parallel", 1, "number of independent sessions running the scenario at once")
	cmd.Flags().Duration("timeout", 5*time.Minute, "overall time limit for the run")
	cmd.Flags().String("artifacts", "screenshots", "directory for failure screenshots")
	cmd.Flags().String("report", "", "write a JSON report to this file")
	return cmd
}
