package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/scriptgate/internal/app"
	"github.com/doeshing/scriptgate/internal/infrastructure/cache"
	"github.com/doeshing/scriptgate/internal/infrastructure/cli/helpers"
)

// NewCacheCommand creates the cache command with all subcommands
func NewCacheCommand(container *app.Container) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear downloaded and saved scripts",
	}

	cacheCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List cached and saved scripts, newest first",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := scriptCache(container)
				if err != nil {
					return err
				}
				return listCacheEntries(cmd.OutOrStdout(), store)
			},
		},
		newCacheClearCommand(container),
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache directory",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := scriptCache(container)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), store.Dir())
				return nil
			},
		},
		&cobra.Command{
			Use:   "size",
			Short: "Show how much space cached and saved scripts use",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := scriptCache(container)
				if err != nil {
					return err
				}
				return showCacheSize(cmd.OutOrStdout(), store)
			},
		},
	)

	return cacheCmd
}

// newCacheClearCommand creates the 'cache clear' subcommand
func newCacheClearCommand(container *app.Container) *cobra.Command {
	var yes, stale bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached scripts (saved scripts too unless --stale)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := scriptCache(container)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if stale {
				removed, err := store.Prune()
				if err != nil {
					return fmt.Errorf("failed to prune cache: %w", err)
				}
				fmt.Fprintf(out, "Removed %d expired script(s)\n", removed)
				return nil
			}

			if !yes && !helpers.ConfirmRemoval(cmd.InOrStdin(), out, "every cached and saved script", store.Dir()) {
				fmt.Fprintln(out, MsgClearCancelled)
				return nil
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&stale, "stale", false, "Only remove cached downloads older than cache.ttl")
	return cmd
}

func scriptCache(container *app.Container) (*cache.ScriptCache, error) {
	if container.CacheStore == nil {
		return nil, fmt.Errorf(ErrCacheStoreUnavailable)
	}
	return container.CacheStore, nil
}

// listCacheEntries prints one row per file. Cached downloads past the TTL
// are marked stale; they are evicted on the next lookup.
func listCacheEntries(out io.Writer, store *cache.ScriptCache) error {
	entries, err := store.Entries()
	if err != nil {
		return fmt.Errorf("failed to retrieve cache entries: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoCachedScripts)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODIFIED\tKIND\tSIZE\tNAME")
	for _, entry := range entries {
		kind := "cached"
		switch {
		case entry.Saved:
			kind = "saved"
		case store.IsStale(entry):
			kind = "stale"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			entry.ModTime.Format(TimestampFormat), kind, humanize.IBytes(uint64(entry.Size)), entry.Name)
	}
	return tw.Flush()
}

func showCacheSize(out io.Writer, store *cache.ScriptCache) error {
	entries, err := store.Entries()
	if err != nil {
		return fmt.Errorf("failed to calculate cache size: %w", err)
	}

	var cached, saved int64
	for _, entry := range entries {
		if entry.Saved {
			saved += entry.Size
		} else {
			cached += entry.Size
		}
	}

	fmt.Fprintf(out, "Cache directory: %s\n", store.Dir())
	fmt.Fprintf(out, "Cached: %s\nSaved:  %s\nTotal:  %s (%d bytes)\n",
		humanize.IBytes(uint64(cached)), humanize.IBytes(uint64(saved)),
		humanize.IBytes(uint64(cached+saved)), cached+saved)
	return nil
}
