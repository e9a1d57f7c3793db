package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/scriptgate/internal/app"
	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/infrastructure/cli/helpers"
	"github.com/doeshing/scriptgate/internal/infrastructure/mirror"
)

// mirrorProbeTimeout bounds each request of `mirror test`.
const mirrorProbeTimeout = 10 * time.Second

// NewMirrorCommand creates the mirror command with all subcommands. Called
// with a URL and no subcommand it prints the rewrites.
func NewMirrorCommand(container *app.Container) *cobra.Command {
	var bases []string

	mirrorCmd := &cobra.Command{
		Use:   "mirror <url>",
		Short: "Show how a URL is rewritten onto each fallback mirror",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return displayMirrorRewrites(cmd.OutOrStdout(), container.Resolver, args[0], mirrorBases(container, bases))
		},
	}
	mirrorCmd.Flags().StringSliceVar(&bases, "base", nil, "Mirror base to resolve against (repeatable, default from config)")

	mirrorCmd.AddCommand(
		newMirrorListCommand(container),
		newMirrorAddCommand(container),
		newMirrorRemoveCommand(container),
		newMirrorTestCommand(container),
	)

	return mirrorCmd
}

// newMirrorListCommand creates the 'mirror list' subcommand
func newMirrorListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List fallback mirrors in the order they are tried",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listMirrors(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// newMirrorAddCommand creates the 'mirror add' subcommand
func newMirrorAddCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "add <base>",
		Short: "Append a fallback mirror base URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateMirrors(cmd.OutOrStdout(), container, "Added", args[0], func(cfg *domain.Config) error {
				return cfg.AddMirror(args[0])
			})
		},
	}
}

// newMirrorRemoveCommand creates the 'mirror remove' subcommand
func newMirrorRemoveCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <base>",
		Short: "Remove a fallback mirror",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateMirrors(cmd.OutOrStdout(), container, "Removed", args[0], func(cfg *domain.Config) error {
				return cfg.RemoveMirror(args[0])
			})
		},
	}
}

// newMirrorTestCommand creates the 'mirror test' subcommand
func newMirrorTestCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "test <url>",
		Short: "Request a script through every mirror and report the status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: mirrorProbeTimeout}
			return probeMirrors(cmd.Context(), cmd.OutOrStdout(), client, container, args[0])
		},
	}
}

// displayMirrorRewrites prints one line per mirror base
func displayMirrorRewrites(out io.Writer, resolver mirror.Resolver, url string, bases []string) error {
	if !mirror.IsGitHubURL(url) {
		fmt.Fprintf(out, "%s is not a GitHub URL; mirrors are never tried for it.\n", url)
		return nil
	}

	for _, base := range bases {
		resolved, ok := resolver.Resolve(url, base)
		if !ok {
			fmt.Fprintf(out, "%s -> (no equivalent)\n", base)
			continue
		}
		fmt.Fprintf(out, "%s -> %s\n", base, resolved)
	}
	return nil
}

// listMirrors lists configured mirrors with their layout
func listMirrors(ctx context.Context, out io.Writer, container *app.Container) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(cfg.Fetch.FallbackMirrors) == 0 {
		fmt.Fprintln(out, "No fallback mirrors configured.")
		return nil
	}

	fmt.Fprintf(out, "#\tLAYOUT\tBASE\n")
	for i, base := range cfg.Fetch.FallbackMirrors {
		fmt.Fprintf(out, "%d\t%s\t%s\n", i+1, mirrorLayout(mirror.Classify(base)), base)
	}
	return nil
}

// updateMirrors applies change to the config file and saves it
func updateMirrors(out io.Writer, container *app.Container, verb, base string, change func(*domain.Config) error) error {
	editor, err := helpers.NewConfigEditor(container)
	if err != nil {
		return err
	}
	if _, err := editor.Update(change); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s mirror %s\n", verb, base)
	return nil
}

// probeMirrors issues one GET per resolvable mirror, without retries
func probeMirrors(ctx context.Context, out io.Writer, client *http.Client, container *app.Container, url string) error {
	bases := container.Config.Fetch.FallbackMirrors
	if !mirror.IsGitHubURL(url) || len(bases) == 0 {
		fmt.Fprintf(out, "No mirror applies to %s.\n", url)
		return nil
	}

	reachable := 0
	for _, base := range bases {
		resolved, ok := container.Resolver.Resolve(url, base)
		if !ok {
			fmt.Fprintf(out, "[SKIP] %s - no equivalent URL\n", base)
			continue
		}
		status, err := probe(ctx, client, resolved, container.Config.Fetch.UserAgent)
		switch {
		case err != nil:
			fmt.Fprintf(out, "[FAIL] %s - %v\n", resolved, err)
		case status >= 200 && status < 300:
			reachable++
			fmt.Fprintf(out, "[OK] %s - %d\n", resolved, status)
		default:
			fmt.Fprintf(out, "[FAIL] %s - %d %s\n", resolved, status, http.StatusText(status))
		}
	}

	if reachable == 0 {
		return fmt.Errorf("no mirror served %s", url)
	}
	return nil
}

func probe(ctx context.Context, client *http.Client, url, userAgent string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func mirrorBases(container *app.Container, override []string) []string {
	if len(override) > 0 {
		return override
	}
	return container.Config.Fetch.FallbackMirrors
}

func mirrorLayout(kind mirror.Kind) string {
	switch kind {
	case mirror.KindRaw:
		return "raw"
	case mirror.KindCDN:
		return "cdn"
	default:
		return "unknown"
	}
}
