// internal/runner/artifacts.go
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobflow/internal/browser"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ScreenshotName is the artifact file name for a failed run. A single run
// uses the scenario name alone.
func ScreenshotName(scenarioName string, index, total int) string {
	name := unsafeName.ReplaceAllString(scenarioName, "_")
	if name == "" {
		name = "scenario"
	}
	if total > 1 {
		name = fmt.Sprintf("%s_%d", name, index)
	}
	return name + ".png"
}

func (r *Runner) saveScreenshot(ctx context.Context, d browser.Driver, index, total int) (string, error) {
	buf, err := d.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}
	dir := r.cfg.Artifacts.Dir
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifacts directory: %w", err)
	}
	path := filepath.Join(dir, ScreenshotName(r.cfg.Scenario.Name, index, total))
	if err := afero.WriteFile(r.fs, path, buf, 0o644); err != nil {
		return "", fmt.Errorf("writing screenshot: %w", err)
	}
	return path, nil
}

func (r *Runner) writeReport(s *Summary) error {
	path := r.cfg.Artifacts.ReportFile
	if path == "" {
		return nil
	}
	buf, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := afero.WriteFile(r.fs, path, buf, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	r.logger.Info("Report written.", zap.String("path", path))
	return nil
}
