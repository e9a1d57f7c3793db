package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/scriptgate/internal/app"
	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/infrastructure/cli/helpers"
	"github.com/doeshing/scriptgate/internal/ports"
)

// NewAuditCommand creates the audit command with all subcommands
func NewAuditCommand(container *app.Container) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the script audit trail",
	}

	auditCmd.AddCommand(
		newAuditListCommand(container),
		newAuditSearchCommand(container),
		newAuditExportCommand(container),
		newAuditStatsCommand(container),
	)

	return auditCmd
}

// newAuditListCommand creates the 'audit list' subcommand
func newAuditListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listAuditEvents(cmd.OutOrStdout(), container.AuditStore, limit, "")
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultAuditLimit, "Max events to show")
	return cmd
}

// newAuditSearchCommand creates the 'audit search' subcommand
func newAuditSearchCommand(container *app.Container) *cobra.Command {
	var query string
	var searchLimit int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search audit events by action or detail (URL, sha256, reason)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				return fmt.Errorf(ErrQueryRequired)
			}
			return listAuditEvents(cmd.OutOrStdout(), container.AuditStore, searchLimit, query)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search keyword")
	cmd.Flags().IntVar(&searchLimit, "limit", domain.DefaultAuditSearchLimit, "Limit search results")
	return cmd
}

// newAuditExportCommand creates the 'audit export' subcommand
func newAuditExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export the audit trail to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := container.AuditStore
			if store == nil {
				return fmt.Errorf(ErrAuditStoreUnavailable)
			}
			if err := store.ExportJSON(args[0]); err != nil {
				return fmt.Errorf("failed to export audit trail to %s: %w", args[0], err)
			}
			return nil
		},
	}
}

// newAuditStatsCommand creates the 'audit stats' subcommand
func newAuditStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show outcome counts and the most frequent actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showAuditStats(cmd.OutOrStdout(), container.AuditStore)
		},
	}
}

// listAuditEvents prints events newest first
func listAuditEvents(out io.Writer, store ports.AuditRepository, limit int, query string) error {
	if store == nil {
		return fmt.Errorf(ErrAuditStoreUnavailable)
	}

	events, err := store.Events(limit, query)
	if err != nil {
		return fmt.Errorf("failed to retrieve audit events: %w", err)
	}

	if len(events) == 0 && query == "" {
		fmt.Fprintln(out, MsgNoAuditRecorded)
		return nil
	}

	for _, event := range events {
		fmt.Fprintf(out, "%s | %-7s | %s | %s\n",
			event.Timestamp.Local().Format(TimestampFormat),
			event.Status(),
			event.Action,
			event.Detail)
	}

	return nil
}

// showAuditStats displays outcome counts and top actions
func showAuditStats(out io.Writer, store ports.AuditRepository) error {
	if store == nil {
		return fmt.Errorf(ErrAuditStoreUnavailable)
	}

	events, err := store.Events(MaxAuditAnalysisEvents, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve audit events for analysis: %w", err)
	}

	if len(events) == 0 {
		fmt.Fprintln(out, MsgNoAuditRecorded)
		return nil
	}

	stats := analyzeAuditEvents(events)
	displayAuditStatistics(out, stats, events)

	return nil
}

// auditStatistics holds analyzed audit statistics
type auditStatistics struct {
	reviews    int
	executed   int
	successful int
	dryRuns    int
	saved      int
	cancelled  int
	actionFreq map[string]int
}

// analyzeAuditEvents computes statistics over a slice of events
func analyzeAuditEvents(events []domain.AuditEvent) auditStatistics {
	stats := auditStatistics{actionFreq: make(map[string]int)}

	for _, event := range events {
		stats.actionFreq[event.Action]++
		switch event.Action {
		case domain.ActionReviewStart:
			stats.reviews++
		case domain.ActionScriptExecute:
			stats.executed++
			if event.Success {
				stats.successful++
			}
		case domain.ActionScriptDryRun:
			stats.dryRuns++
		case domain.ActionSavedLocally:
			if event.Success {
				stats.saved++
			}
		case domain.ActionScriptCancelled:
			stats.cancelled++
		}
	}

	return stats
}

// displayAuditStatistics displays formatted audit statistics
func displayAuditStatistics(out io.Writer, stats auditStatistics, events []domain.AuditEvent) {
	fmt.Fprintf(out, "Events analyzed: %d\nReviews: %d\nExecuted: %d\nSuccess rate: %.1f%%\nDry runs: %d\nSaved: %d\nCancelled: %d\n",
		len(events),
		stats.reviews,
		stats.executed,
		helpers.CalculateSuccessRate(stats.successful, stats.executed),
		stats.dryRuns,
		stats.saved,
		stats.cancelled)

	fmt.Fprintln(out, "Top actions:")
	for _, stat := range helpers.CalculateTopActions(stats.actionFreq, TopActionsShown) {
		fmt.Fprintf(out, "  %s (%d)\n", stat.Action, stat.Count)
	}

	hints := helpers.DeriveAuditHints(events)
	if len(hints) > 0 {
		fmt.Fprintln(out, "Hints:")
		for _, hint := range hints {
			fmt.Fprintf(out, "  - %s\n", hint)
		}
	}
}
