package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/chatwidget/internal/config"
	"github.com/diogo/chatwidget/internal/render"
	"github.com/diogo/chatwidget/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat widget",
		Long: `Start the interactive chat widget.

Enter sends the message; Alt+Enter (or Ctrl+J) inserts a newline. Only one
message is in flight at a time. Press Esc or Ctrl+C to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), deps.orDefault(), cfg)
		},
	}
}

func runChat(ctx context.Context, d *Dependencies, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, closeLog := loggerOrDiscard(cfg, d.Stderr)
	defer closeLog()

	theme := render.ThemeOrDefault(cfg.TUITheme)

	var spin *spinner
	if d.IsTerminal(d.Stderr) {
		spin = newSpinner(d.Stderr, "Connecting to "+cfg.BaseURL, theme)
		spin.start()
	}

	sender, closeSender, err := d.NewSender(ctx, cfg, logger)
	if err != nil {
		if spin != nil {
			spin.stopSilently()
		}
		return err
	}
	defer closeSender()

	if spin != nil {
		spin.stopWithSuccess("Ready")
	}

	logger.Info("chat started", "endpoint", cfg.EndpointURL())

	err = d.RunTUI(ctx, sender, tui.Options{
		Title:        cfg.EndpointURL(),
		Theme:        theme,
		RawOutput:    cfg.RawOutput,
		MaxInputRows: cfg.MaxInputHeight,
		CopyReplies:  cfg.CopyToClipboard,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("chat widget failed: %w", err)
	}
	return nil
}
