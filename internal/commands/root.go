// Package commands provides CLI commands for chatwidget.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/chatwidget/internal/tui"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// NewRootCmd creates the chatwidget command tree. Without a subcommand it
// starts the interactive widget.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatwidget",
		Short: "Terminal chat widget for a chatbot endpoint",
		Long: `chatwidget is a terminal chat widget for a server-side chatbot. Messages
are posted as JSON to the chat endpoint with the site's anti-forgery token,
and replies are shown as chat bubbles.

Examples:
  chatwidget                                  Start the chat widget
  chatwidget --base-url https://chat.example.com
  chatwidget send "What are your hours?"      Send one message
  echo "hello" | chatwidget send              Read the message from stdin
  chatwidget import-cookies ~/cookies.json
  chatwidget import-cookies --browser firefox
  chatwidget config set tui_theme nord`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := deps.orDefault()
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(d.Stdout, "chatwidget %s (built %s)\n", Version, BuildTime)
				return nil
			}

			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), d, cfg)
		},
	}

	addGlobalFlags(cmd)
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(
		NewChatCmd(deps),
		NewSendCmd(deps),
		NewImportCookiesCmd(deps),
		NewConfigCmd(deps),
	)

	return cmd
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(nil)

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		tui.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
