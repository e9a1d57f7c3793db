package commands

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/scriptgate/internal/app"
	configapp "github.com/doeshing/scriptgate/internal/application/config"
	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/infrastructure/cli/helpers"
	configinfra "github.com/doeshing/scriptgate/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with all subcommands. Without a
// subcommand it prints the effective configuration.
func NewConfigCommand(container *app.Container) *cobra.Command {
	show := func(cmd *cobra.Command, args []string) error {
		cfg, err := container.ConfigProvider.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return writeYAML(cmd.OutOrStdout(), cfg)
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the scriptgate configuration",
		RunE:  show,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show effective configuration (file plus SCRIPTGATE_* overrides)",
			RunE:  show,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file location",
			RunE: func(cmd *cobra.Command, args []string) error {
				editor, err := helpers.NewConfigEditor(container)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), editor.Path())
				return nil
			},
		},
		newConfigInitCommand(container),
		newConfigGetCommand(container),
		newConfigSetCommand(container),
		newConfigEditCommand(container),
		newConfigValidateCommand(container),
		newConfigResetCommand(container),
		newConfigDiffCommand(container),
	)

	return configCmd
}

// newConfigInitCommand creates the 'config init' subcommand
func newConfigInitCommand(container *app.Container) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := helpers.NewConfigEditor(container)
			if err != nil {
				return err
			}
			exists, err := editor.Exists()
			if err != nil {
				return err
			}
			if exists && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s (use --force to overwrite)\n", editor.Path())
				return nil
			}
			return writeDefaults(cmd.OutOrStdout(), editor)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a backup is kept)")
	return cmd
}

// newConfigGetCommand creates the 'config get' subcommand
func newConfigGetCommand(container *app.Container) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Print one configuration value, or every key when none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				key = args[0]
			}
			cfg, err := container.ConfigProvider.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if key == "" {
				return listConfigKeys(cmd.OutOrStdout(), cfg)
			}
			value, err := helpers.LookupKey(cfg, key)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), value)
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Dotted key (e.g. safety.preview_lines)")
	return cmd
}

// newConfigSetCommand creates the 'config set' subcommand
func newConfigSetCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value (value accepts YAML syntax)",
		Example: `  scriptgate config set fetch.max_retries 2
  scriptgate config set fetch.retry_delays "[0s, 2s, 5s]"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := strings.Join(args[1:], " ")
			backup, err := setConfigurationValue(container, args[0], value)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
			if backup != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Previous configuration saved to %s\n", backup)
			}
			return nil
		},
	}
}

// newConfigEditCommand creates the 'config edit' subcommand
func newConfigEditCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the configuration file in $EDITOR and validate it afterwards",
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := helpers.NewConfigEditor(container)
			if err != nil {
				return err
			}

			program := editorCommand()
			run := exec.CommandContext(cmd.Context(), program, editor.Path())
			run.Stdin, run.Stdout, run.Stderr = os.Stdin, os.Stdout, os.Stderr
			if err := run.Run(); err != nil {
				return fmt.Errorf("failed to run editor %s: %w", program, err)
			}

			cfg, err := editor.Read()
			if err != nil {
				return err
			}
			return reportValidation(cmd.OutOrStdout(), cfg)
		},
	}
}

// newConfigValidateCommand creates the 'config validate' subcommand
func newConfigValidateCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := container.ConfigProvider.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			return reportValidation(cmd.OutOrStdout(), cfg)
		},
	}
}

// newConfigResetCommand creates the 'config reset' subcommand
func newConfigResetCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults (a backup is kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := helpers.NewConfigEditor(container)
			if err != nil {
				return err
			}
			if err := writeDefaults(cmd.OutOrStdout(), editor); err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), configinfra.Defaults())
		},
	}
}

// newConfigDiffCommand creates the 'config diff' subcommand
func newConfigDiffCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show how the effective configuration differs from the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := container.ConfigProvider.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load current configuration: %w", err)
			}
			diff := diffAgainstDefaults(cfg)
			if diff == "" {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoDifferencesFromDefault)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), diff)
			return nil
		},
	}
}

// setConfigurationValue writes key=value into the config file and returns the
// backup path.
func setConfigurationValue(container *app.Container, key, value string) (string, error) {
	editor, err := helpers.NewConfigEditor(container)
	if err != nil {
		return "", err
	}
	return editor.Update(func(cfg *domain.Config) error {
		updated, err := helpers.SetKey(*cfg, key, value)
		if err != nil {
			return err
		}
		*cfg = updated
		return nil
	})
}

func writeDefaults(out io.Writer, editor *helpers.ConfigEditor) error {
	backup, err := editor.WriteDefaults()
	if err != nil {
		return err
	}
	if backup != "" {
		fmt.Fprintf(out, "Previous configuration saved to %s\n", backup)
	}
	fmt.Fprintf(out, "Configuration written to %s\n", editor.Path())
	return nil
}

// reportValidation fails on invalid settings and prints contradictions as
// warnings.
func reportValidation(out io.Writer, cfg domain.Config) error {
	if err := configapp.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	for _, issue := range cfg.ValidateConsistency() {
		fmt.Fprintf(out, "warning: %s\n", issue)
	}
	fmt.Fprintln(out, MsgConfigurationValid)
	return nil
}

func listConfigKeys(out io.Writer, cfg domain.Config) error {
	keys, err := helpers.Keys(cfg)
	if err != nil {
		return err
	}
	for _, key := range keys {
		value, err := helpers.LookupKey(cfg, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s = %v\n", key, value)
	}
	return nil
}

func writeYAML(out io.Writer, value interface{}) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// diffAgainstDefaults renders a cmp diff from the built-in defaults to cfg
func diffAgainstDefaults(cfg domain.Config) string {
	return cmp.Diff(configinfra.Defaults(), cfg)
}

func editorCommand() string {
	if editor := os.Getenv(EnvKeyEditor); editor != "" {
		return editor
	}
	return DefaultEditorCommand
}
