package app

import (
	"context"
	"errors"

	"github.com/doeshing/scriptgate/internal/domain"
)

// SafeRunScript runs the review-then-execute pipeline with the configured
// safety settings. true means the script ran and exited zero, or was dry-run.
// false means it was not run or failed; errors are reserved for pipeline
// failures such as an unreachable URL.
func (c *Container) SafeRunScript(ctx context.Context, name, url string) (bool, error) {
	cfg := c.Config.Safety
	cfg.PreviewLines = c.Config.GetPreviewLines()
	return c.SafeRunScriptWithConfig(ctx, name, url, cfg)
}

// SafeRunScriptWithConfig is SafeRunScript with explicit safety settings.
func (c *Container) SafeRunScriptWithConfig(ctx context.Context, name, url string, cfg domain.ScriptSafetyConfig) (bool, error) {
	report, err := c.RunScript(ctx, name, url, cfg)
	if err != nil {
		return false, err
	}
	return report.Succeeded(), nil
}

// RunScript is SafeRunScriptWithConfig returning the full report.
func (c *Container) RunScript(ctx context.Context, name, url string, cfg domain.ScriptSafetyConfig) (domain.RunReport, error) {
	if c.ScriptService == nil {
		return domain.RunReport{}, errors.New("script service unavailable")
	}
	return c.ScriptService.ConfirmAndExecute(ctx, name, url, cfg)
}
