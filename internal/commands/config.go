package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/chatwidget/internal/config"
	"github.com/diogo/chatwidget/internal/render"
)

// NewConfigCmd creates a new config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change chatwidget settings stored in ~/.chatwidget/config.json.

CHATWIDGET_* environment variables override the file; command-line flags
override both.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigShow(deps.orDefault())
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting",
			Long:  "Change one setting. Valid keys: " + strings.Join(config.Keys(), ", "),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigSet(deps.orDefault(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.GetConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(deps.orDefault().Stdout, path)
				return nil
			},
		},
	)

	return cmd
}

func runConfigShow(d *Dependencies) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(d.Stdout, string(data))
	return nil
}

// runConfigSet updates config.json only; environment and flags are not
// persisted
func runConfigSet(d *Dependencies, key, value string) error {
	if key == "tui_theme" {
		if _, ok := render.GetTUIThemeByName(value); !ok {
			return fmt.Errorf("unknown theme %q (available: %s)", value, strings.Join(render.TUIThemeNames(), ", "))
		}
	}

	cfg, err := config.LoadConfigFile()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(d.Stdout, "%s = %s\n", key, value)
	return nil
}
