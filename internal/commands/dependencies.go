package commands

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/diogo/chatwidget/internal/browser"
	"github.com/diogo/chatwidget/internal/chat"
	"github.com/diogo/chatwidget/internal/config"
	"github.com/diogo/chatwidget/internal/tui"
)

// SenderFactory builds the chat sender for a resolved configuration
type SenderFactory func(ctx context.Context, cfg config.Config, logger *log.Logger) (chat.Sender, func(), error)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewSender connects to the chat server
	NewSender SenderFactory

	// RunTUI runs the interactive widget
	RunTUI func(ctx context.Context, sender chat.Sender, opts tui.Options) error

	// Extractor reads site cookies from local browsers
	Extractor browser.Extractor

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// IsTerminal reports whether w is attached to a terminal
	IsTerminal func(w any) bool
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	deps := &Dependencies{
		RunTUI:     tui.RunChat,
		Extractor:  browser.KookyExtractor{},
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		IsTerminal: isTerminal,
	}
	deps.NewSender = deps.connect
	return deps
}

// orDefault fills the zero fields of d from NewDependencies
func (d *Dependencies) orDefault() *Dependencies {
	def := NewDependencies()
	if d == nil {
		return def
	}
	out := *d
	if out.Extractor == nil {
		out.Extractor = def.Extractor
	}
	if out.NewSender == nil {
		out.NewSender = out.connect
	}
	if out.RunTUI == nil {
		out.RunTUI = def.RunTUI
	}
	if out.Stdin == nil {
		out.Stdin = def.Stdin
	}
	if out.Stdout == nil {
		out.Stdout = def.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = def.Stderr
	}
	if out.IsTerminal == nil {
		out.IsTerminal = def.IsTerminal
	}
	return &out
}

// isTerminal reports whether v is an *os.File attached to a terminal
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
