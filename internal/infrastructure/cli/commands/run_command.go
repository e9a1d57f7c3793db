package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/scriptgate/internal/app"
	"github.com/doeshing/scriptgate/internal/domain"
)

// ExitError carries a process exit code out of a command. Err may be nil when
// the code alone is the result.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// safetyFlags are per-invocation overrides of the configured safety section.
type safetyFlags struct {
	dryRun          bool
	noCache         bool
	noPreview       bool
	requireChecksum bool
	previewLines    int
}

func (f *safetyFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Walk the full decision flow without running the script")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Bypass the script cache")
	cmd.Flags().BoolVar(&f.noPreview, "no-preview", false, "Do not print the first lines of the script")
	cmd.Flags().BoolVar(&f.requireChecksum, "require-checksum", false, "Refuse to run scripts without a matching known checksum")
	cmd.Flags().IntVar(&f.previewLines, "preview-lines", domain.DefaultPreviewLines, "Number of lines shown in the preview")
}

// apply overlays the flags the operator actually set onto base.
func (f *safetyFlags) apply(cmd *cobra.Command, base domain.ScriptSafetyConfig) (domain.ScriptSafetyConfig, error) {
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		base.DryRun = f.dryRun
	}
	if f.noCache {
		base.CacheScripts = false
	}
	if f.noPreview {
		base.ShowPreview = false
	}
	if flags.Changed("require-checksum") {
		base.RequireChecksum = f.requireChecksum
	}
	if flags.Changed("preview-lines") {
		if f.previewLines < 0 {
			return base, fmt.Errorf("--preview-lines must be >= 0")
		}
		base.PreviewLines = f.previewLines
	}
	return base, nil
}

// NewRunCommand creates the run command
func NewRunCommand(container *app.Container) *cobra.Command {
	var flags safetyFlags

	cmd := &cobra.Command{
		Use:   "run <name> <url>",
		Short: "Fetch, review and run a remote script after confirmation",
		Long: "Fetches the script (with retries and mirror fallback), shows its SHA-256, size,\n" +
			"risk warnings and a preview, then asks what to do. Exits 0 when the script ran\n" +
			"successfully or was dry-run, 1 on a pipeline error and 2 when it was not run or failed.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.apply(cmd, container.Config.Safety)
			if err != nil {
				return err
			}
			return runScript(cmd, container, args[0], args[1], cfg)
		},
	}

	flags.register(cmd)
	return cmd
}

// runScript maps the pipeline report onto exit codes
func runScript(cmd *cobra.Command, container *app.Container, name, url string, cfg domain.ScriptSafetyConfig) error {
	report, err := container.RunScript(cmd.Context(), name, url, cfg)
	if err != nil {
		return &ExitError{Code: ExitPipelineError, Err: err}
	}

	container.Logger.Debug("run finished", map[string]interface{}{
		"outcome": string(report.Outcome),
		"reason":  report.Reason,
		"exit":    report.ExitCode,
	})

	if !report.Succeeded() {
		return &ExitError{Code: ExitNotRun}
	}
	return nil
}
