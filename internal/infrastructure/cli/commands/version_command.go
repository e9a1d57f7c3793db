package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/scriptgate/internal/version"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show scriptgate version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writeBuildInfo(cmd.OutOrStdout(), version.Current(), short)
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}

func writeBuildInfo(out io.Writer, b version.Build, short bool) {
	if short {
		fmt.Fprintln(out, b.Version)
		return
	}

	fmt.Fprintf(out, "scriptgate %s (%s)\n", b.Version, b.GoVersion)
	if b.Commit != "" {
		fmt.Fprintf(out, "  commit: %s\n", b.Commit)
	}
	if b.BuildDate != "" {
		fmt.Fprintf(out, "  built:  %s\n", b.BuildDate)
	}
}
