package commands

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	bubblespinner "github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatwidget/internal/render"
)

// spinner draws an animated status line on a terminal until stopped
type spinner struct {
	out     io.Writer
	message string
	theme   render.TUITheme
	frames  []string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner writing to out
func newSpinner(out io.Writer, message string, theme render.TUITheme) *spinner {
	return &spinner{
		out:     out,
		message: message,
		theme:   theme,
		frames:  bubblespinner.MiniDot.Frames,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(bubblespinner.MiniDot.FPS)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	spin := lipgloss.NewStyle().Foreground(s.theme.Typing).Bold(true).Render(s.frames[s.frame%len(s.frames)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dots.WriteString(lipgloss.NewStyle().Foreground(s.theme.Typing).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(s.theme.TextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(s.theme.TextDim).Render(s.message)
	fmt.Fprintf(s.out, "\r\033[K%s %s %s", spin, msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(s.theme.User).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(s.theme.User).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopSilently stops the spinner and leaves the line empty
func (s *spinner) stopSilently() {
	s.stopOnce()
	<-s.done
}
