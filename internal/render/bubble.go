package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatwidget/internal/models"
)

// minBubbleWidth is the narrowest width a bubble is wrapped to; below it the
// text is left unwrapped rather than squeezed into a column.
const minBubbleWidth = 12

// Bubbles renders message fragments for one theme
type Bubbles struct {
	theme TUITheme
	raw   bool

	userLabel      lipgloss.Style
	userBubble     lipgloss.Style
	assistantLabel lipgloss.Style
	assistantBody  lipgloss.Style
	typingLabel    lipgloss.Style
	typingBubble   lipgloss.Style
	errorBubble    lipgloss.Style
}

// NewBubbles creates a renderer. When raw is true message text is embedded
// as-is, escape sequences included.
func NewBubbles(theme TUITheme, raw bool) *Bubbles {
	return &Bubbles{
		theme: theme,
		raw:   raw,

		userLabel: lipgloss.NewStyle().
			Foreground(theme.User).
			Bold(true).
			MarginLeft(4),
		userBubble: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.User).
			Foreground(theme.Text).
			Padding(0, 1).
			MarginLeft(4),
		assistantLabel: lipgloss.NewStyle().
			Foreground(theme.Assistant).
			Bold(true),
		assistantBody: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Assistant).
			Foreground(theme.Text).
			Padding(0, 1).
			MarginRight(4),
		typingLabel: lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Italic(true),
		typingBubble: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.TextMute).
			Padding(0, 1),
		errorBubble: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Error).
			Foreground(theme.Error).
			Padding(0, 1).
			MarginRight(4),
	}
}

// Theme returns the theme the renderer was built with
func (b *Bubbles) Theme() TUITheme {
	return b.theme
}

func (b *Bubbles) text(s string) string {
	if b.raw {
		return s
	}
	return Sanitize(s)
}

// sized applies width to style unless it is too narrow to be useful
func sized(style lipgloss.Style, width int) lipgloss.Style {
	if width < minBubbleWidth {
		return style
	}
	return style.Width(width)
}

// User renders a user message bubble
func (b *Bubbles) User(text string, width int) string {
	label := b.userLabel.Render("● You")
	bubble := sized(b.userBubble, width-4).Render(b.text(text))
	return label + "\n" + bubble
}

// Assistant renders an assistant message bubble. The fixed error reply is
// drawn with the error accent.
func (b *Bubbles) Assistant(text string, width int) string {
	label := b.assistantLabel.Render("✦ Assistant")
	style := b.assistantBody
	if text == models.ErrorReply {
		style = b.errorBubble
	}
	bubble := sized(style, width-4).Render(b.text(text))
	return label + "\n" + bubble
}

// Typing renders the transient placeholder; frame animates the dots
func (b *Bubbles) Typing(frame int) string {
	if frame < 0 {
		frame = 0
	}
	filled := frame % 4

	var dots strings.Builder
	for i := 0; i < 3; i++ {
		if i < filled {
			dots.WriteString(lipgloss.NewStyle().Foreground(b.theme.Typing).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(b.theme.TextMute).Render("○"))
		}
	}

	label := b.typingLabel.Render("✦ Assistant is typing")
	return label + "\n" + b.typingBubble.Render(dots.String())
}

// Message renders msg with the bubble matching its role
func (b *Bubbles) Message(msg models.Message, width int) string {
	if msg.IsUser() {
		return b.User(msg.Text, width)
	}
	return b.Assistant(msg.Text, width)
}
