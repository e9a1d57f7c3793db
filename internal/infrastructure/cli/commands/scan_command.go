package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/scriptgate/internal/app"
	"github.com/doeshing/scriptgate/internal/domain"
)

// VerificationPresenter renders the result of a scan.
type VerificationPresenter interface {
	Verification(url string, report domain.ScanReport)
}

// NewScanCommand creates the scan command
func NewScanCommand(container *app.Container, presenter VerificationPresenter) *cobra.Command {
	var (
		noCache bool
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Fetch and verify a script without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.ScriptService == nil {
				return fmt.Errorf(ErrScriptServiceUnavailable)
			}

			cfg := container.Config.Safety
			if noCache {
				cfg.CacheScripts = false
			}

			report, err := container.ScriptService.Scan(cmd.Context(), args[0], cfg)
			if err != nil {
				return &ExitError{Code: ExitPipelineError, Err: err}
			}
			presenter.Verification(args[0], report)

			if report.Trust.Status == domain.TrustMismatch {
				return &ExitError{Code: ExitNotRun, Err: domain.ErrChecksumMismatch}
			}
			if strict && report.Verification.HasWarnings() {
				return &ExitError{Code: ExitNotRun}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the script cache")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with status 2 when any risk flag is raised")
	return cmd
}
