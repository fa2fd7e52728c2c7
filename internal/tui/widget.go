package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatwidget/internal/chat"
	"github.com/diogo/chatwidget/internal/models"
	"github.com/diogo/chatwidget/internal/render"
)

// Fixed layout heights, in rows
const (
	headerHeight     = 4 // header panel with border and margin
	inputChrome      = 4 // label, border and top margin around the textarea
	statusHeight     = 2 // status bar with margin
	messagesChrome   = 4 // border and padding of the messages panel
	minViewportRows  = 3
	defaultCharLimit = 4000
)

// widget holds the mutable surfaces of the chat screen. It implements
// chat.InputSurface and chat.TranscriptSurface and is shared by pointer
// between copies of Model.
type widget struct {
	input      textarea.Model
	viewport   viewport.Model
	transcript *chat.Transcript
	bubbles    *render.Bubbles

	maxRows int
	frame   int

	width  int
	height int
}

var (
	_ chat.InputSurface      = (*widget)(nil)
	_ chat.TranscriptSurface = (*widget)(nil)
)

func newWidget(bubbles *render.Bubbles, maxRows int) *widget {
	if maxRows < models.DefaultInputHeight {
		maxRows = models.DefaultInputMaxRows
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = defaultCharLimit
	ta.ShowLineNumbers = false
	ta.SetHeight(models.DefaultInputHeight)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	return &widget{
		input:      ta,
		viewport:   viewport.New(0, 0),
		transcript: chat.NewTranscript(),
		bubbles:    bubbles,
		maxRows:    maxRows,
	}
}

// Value implements chat.InputSurface
func (w *widget) Value() string {
	return w.input.Value()
}

// Reset implements chat.InputSurface. The input shrinks back to one row.
func (w *widget) Reset() {
	w.input.Reset()
	w.fitInput()
}

// Append implements chat.TranscriptSurface
func (w *widget) Append(msg models.Message) {
	w.transcript.Append(msg)
	w.refresh()
}

// ShowTyping implements chat.TranscriptSurface
func (w *widget) ShowTyping() {
	w.transcript.ShowTyping()
	w.frame = 0
	w.refresh()
}

// HideTyping implements chat.TranscriptSurface
func (w *widget) HideTyping() bool {
	removed := w.transcript.HideTyping()
	if removed {
		w.refresh()
	}
	return removed
}

// ScrollToBottom implements chat.TranscriptSurface
func (w *widget) ScrollToBottom() {
	w.viewport.GotoBottom()
}

// setSize lays the screen out for a terminal of width x height
func (w *widget) setSize(width, height int) {
	w.width = width
	w.height = height

	contentWidth := width - 4
	w.viewport.Width = contentWidth - 4
	w.input.SetWidth(contentWidth - 4)

	w.fitInput()
	w.refresh()
}

// fitInput sets the textarea height to its content and gives the rest of
// the screen to the transcript
func (w *widget) fitInput() {
	rows := fitHeight(w.input.Value(), w.input.Width(), models.DefaultInputHeight, w.maxRows)
	if rows != w.input.Height() {
		w.input.SetHeight(rows)
	}

	if w.height == 0 {
		return
	}

	vpHeight := w.height - headerHeight - (rows + inputChrome) - statusHeight - messagesChrome
	if vpHeight < minViewportRows {
		vpHeight = minViewportRows
	}
	if vpHeight != w.viewport.Height {
		atBottom := w.viewport.AtBottom()
		w.viewport.Height = vpHeight
		if atBottom {
			w.viewport.GotoBottom()
		}
	}
}

// bubbleWidth is the width passed to the bubble renderer
func (w *widget) bubbleWidth() int {
	return w.viewport.Width - 6
}

// refresh re-renders the transcript into the viewport
func (w *widget) refresh() {
	var content strings.Builder
	width := w.bubbleWidth()

	for i, msg := range w.transcript.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(w.bubbles.Message(msg, width))
		content.WriteString("\n")
	}

	if w.transcript.Typing() {
		if w.transcript.Len() > 0 {
			content.WriteString("\n")
		}
		content.WriteString(w.bubbles.Typing(w.frame))
		content.WriteString("\n")
	}

	w.viewport.SetContent(content.String())
}

// fitHeight returns how many rows value occupies when wrapped at width,
// clamped to [minRows, maxRows]
func fitHeight(value string, width, minRows, maxRows int) int {
	rows := 0
	for _, line := range strings.Split(value, "\n") {
		lineWidth := lipgloss.Width(line)
		if width <= 0 || lineWidth <= width {
			rows++
			continue
		}
		rows += (lineWidth + width - 1) / width
	}

	if rows < minRows {
		rows = minRows
	}
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}
	return rows
}
