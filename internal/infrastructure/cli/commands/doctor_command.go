package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/doeshing/scriptgate/internal/app"
	"github.com/doeshing/scriptgate/internal/domain"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check config, cache, audit store, shell and trust store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.DoctorService == nil {
				return fmt.Errorf(ErrDoctorServiceUnavailable)
			}

			report, err := container.DoctorService.Run(cmd.Context())
			writeHealthReport(cmd.OutOrStdout(), report)
			if err != nil {
				return fmt.Errorf("diagnostics aborted: %w", err)
			}
			if !report.Healthy() {
				return fmt.Errorf("%d check(s) failed", report.Count(domain.CheckFail))
			}
			return nil
		},
	}
}

// writeHealthReport prints one aligned row per check and a summary line.
// The report is printed even when the run was aborted early.
func writeHealthReport(out io.Writer, report domain.HealthReport) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, check := range report.Checks {
		fmt.Fprintf(tw, "[%s]\t%s\t%s\n", strings.ToUpper(string(check.Status)), check.Name, check.Detail)
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "\n%d ok, %d warning(s), %d failed\n",
		report.Count(domain.CheckOK), report.Count(domain.CheckWarn), report.Count(domain.CheckFail))
}
