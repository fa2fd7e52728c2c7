package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/chatwidget/internal/chat"
	"github.com/diogo/chatwidget/internal/config"
	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
	"github.com/diogo/chatwidget/internal/render"
)

// defaultLineWidth is used when stdout is not a terminal of known size
const defaultLineWidth = 80

// NewSendCmd creates the one-shot send command
func NewSendCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "send [message]",
		Short: "Send one message and print the reply",
		Long: `Send a single message to the chat server and print the exchange.

The message is taken from the argument or, when none is given, from stdin.
On a terminal both bubbles are drawn and a typing indicator is shown while
waiting; when stdout is piped only the reply text is printed.

The command exits with a non-zero status when the request fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := deps.orDefault()

			text, err := readMessage(d, args)
			if err != nil {
				return err
			}
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			return runSend(cmd.Context(), d, cfg, text)
		},
	}
}

// readMessage returns the message argument, or stdin when it is piped
func readMessage(d *Dependencies, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if d.IsTerminal(d.Stdin) {
		return "", fmt.Errorf("no message given: pass it as an argument or pipe it on stdin")
	}
	data, err := io.ReadAll(d.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func runSend(ctx context.Context, d *Dependencies, cfg config.Config, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, closeLog := loggerOrDiscard(cfg, d.Stderr)
	defer closeLog()

	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message cannot be empty")
	}

	sender, closeSender, err := d.NewSender(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSender()

	surface := newLineSurface(text, d, cfg)
	ctrl := chat.NewController(surface, surface, sender, chat.WithLogger(logger))

	err = ctrl.Submit(ctx)
	if apierrors.IsValidationSkip(err) {
		return fmt.Errorf("message cannot be empty")
	}
	return err
}

// lineSurface is the transcript and input of the send command: the input
// is the message given on the command line and the transcript is printed
// line by line
type lineSurface struct {
	text string

	out     io.Writer
	status  io.Writer
	bubbles *render.Bubbles // nil prints plain reply text
	width   int
	raw     bool

	showSpinner bool
	spin        *spinner
	typing      bool
}

var (
	_ chat.InputSurface      = (*lineSurface)(nil)
	_ chat.TranscriptSurface = (*lineSurface)(nil)
)

func newLineSurface(text string, d *Dependencies, cfg config.Config) *lineSurface {
	s := &lineSurface{
		text:        text,
		out:         d.Stdout,
		status:      d.Stderr,
		width:       defaultLineWidth,
		raw:         cfg.RawOutput,
		showSpinner: d.IsTerminal(d.Stderr),
	}
	if d.IsTerminal(d.Stdout) {
		s.bubbles = render.NewBubbles(render.ThemeOrDefault(cfg.TUITheme), cfg.RawOutput)
		s.width = terminalWidth(d.Stdout)
	}
	return s
}

// terminalWidth returns the column count of w, or defaultLineWidth
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultLineWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultLineWidth
	}
	return width
}

// Value implements chat.InputSurface
func (s *lineSurface) Value() string { return s.text }

// Reset implements chat.InputSurface
func (s *lineSurface) Reset() { s.text = "" }

// Append implements chat.TranscriptSurface. Without bubbles the user's own
// message is not echoed.
func (s *lineSurface) Append(msg models.Message) {
	if s.bubbles != nil {
		fmt.Fprintln(s.out, s.bubbles.Message(msg, s.width))
		return
	}
	if msg.IsUser() {
		return
	}
	text := msg.Text
	if !s.raw {
		text = render.Sanitize(text)
	}
	fmt.Fprintln(s.out, text)
}

// ShowTyping implements chat.TranscriptSurface
func (s *lineSurface) ShowTyping() {
	if s.typing {
		return
	}
	s.typing = true
	if s.showSpinner {
		theme := render.TokyoNightTheme
		if s.bubbles != nil {
			theme = s.bubbles.Theme()
		}
		s.spin = newSpinner(s.status, "Assistant is typing", theme)
		s.spin.start()
	}
}

// HideTyping implements chat.TranscriptSurface
func (s *lineSurface) HideTyping() bool {
	if !s.typing {
		return false
	}
	s.typing = false
	if s.spin != nil {
		s.spin.stopSilently()
		s.spin = nil
	}
	return true
}

// ScrollToBottom implements chat.TranscriptSurface; a terminal scrolls by
// itself
func (s *lineSurface) ScrollToBottom() {}
