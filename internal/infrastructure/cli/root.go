package cli

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/doeshing/scriptgate/internal/app"
	"github.com/doeshing/scriptgate/internal/infrastructure/cli/commands"
	"github.com/doeshing/scriptgate/internal/infrastructure/config"
)

// EnvDebug enables debug logging when set to a true value.
const EnvDebug = "SCRIPTGATE_DEBUG"

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// OptionsFromArgs picks the global flags out of args before cobra parses
// them, since the container is built first. Unknown flags are ignored.
func OptionsFromArgs(args []string) Options {
	opts := Options{Verbose: envBool(EnvDebug)}

	fs := pflag.NewFlagSet("scriptgate", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	debug := fs.Bool("debug", false, "")
	path := fs.String("config", "", "")
	_ = fs.Parse(args)

	if *debug {
		opts.Verbose = true
	}
	opts.ConfigPath = *path
	return opts
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	status := NewStatusLine(os.Stderr)
	container, err := app.BuildContainer(ctx, app.Options{
		Verbose:    opts.Verbose,
		ConfigPath: opts.ConfigPath,
		Status:     status,
	})
	if err != nil {
		return nil, err
	}
	renderer := attachTerminal(container, status)
	cobra.OnFinalize(func() { _ = container.Close() })

	root := &cobra.Command{
		Use:   "scriptgate",
		Short: "scriptgate - review remote shell scripts before running them",
		Long: "scriptgate fetches a remote shell script, shows its SHA-256, size, risk warnings\n" +
			"and a preview, and runs it only after explicit confirmation. Every decision is\n" +
			"written to an audit trail.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().Bool("debug", opts.Verbose, "Enable verbose logging (also "+EnvDebug+"=1)")
	root.PersistentFlags().String("config", opts.ConfigPath, "Config file (default: $"+config.EnvConfigPath+" or the user config dir)")

	root.AddCommand(
		commands.NewRunCommand(container),
		commands.NewScanCommand(container, renderer),
		commands.NewMirrorCommand(container),
		commands.NewCacheCommand(container),
		commands.NewAuditCommand(container),
		commands.NewConfigCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewVersionCommand(),
	)
	return root, nil
}

// attachTerminal binds the terminal adapters to the container's services.
func attachTerminal(container *app.Container, status *StatusLine) *Renderer {
	renderer := NewRenderer(os.Stdout)
	if svc := container.ScriptService; svc != nil {
		svc.Prompter = NewPrompter(IsInteractive())
		svc.Presenter = renderer
		svc.Fetcher = WithSpinner(container.Fetcher, status, stderrIsTerminal())
	}
	if container.DoctorService != nil {
		container.DoctorService.Interactive = IsInteractive
	}
	return renderer
}

func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}
