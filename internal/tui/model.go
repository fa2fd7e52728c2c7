package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/diogo/chatwidget/internal/chat"
	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/render"
)

// Animation tick message
type typingTickMsg time.Time

// replyMsg carries the outcome of a send back to the event loop
type replyMsg struct {
	reply string
	err   error
}

// Options configures the chat widget
type Options struct {
	// Title is shown in the header, usually the server URL
	Title        string
	Theme        render.TUITheme
	RawOutput    bool
	MaxInputRows int
	// CopyReplies copies every reply to the clipboard as it arrives
	CopyReplies bool
	Logger      *log.Logger
}

// Model represents the TUI state
type Model struct {
	ctx  context.Context
	ctrl *chat.Controller
	w    *widget

	title       string
	copyReplies bool
	copy        func(string) error
	logger      *log.Logger

	ready  bool
	notice string
	err    error
}

// NewChatModel creates a chat widget that sends through sender
func NewChatModel(ctx context.Context, sender chat.Sender, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	theme := opts.Theme
	if theme.Name == "" {
		theme = render.TokyoNightTheme
	}
	UpdateTheme(theme)

	w := newWidget(render.NewBubbles(theme, opts.RawOutput), opts.MaxInputRows)

	return Model{
		ctx:         ctx,
		ctrl:        chat.NewController(w, w, sender, chat.WithLogger(logger)),
		w:           w,
		title:       opts.Title,
		copyReplies: opts.CopyReplies,
		copy:        clipboard.WriteAll,
		logger:      logger,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// typingTick returns a command that advances the typing animation
func typingTick() tea.Cmd {
	return tea.Tick(time.Millisecond*300, func(t time.Time) tea.Msg {
		return typingTickMsg(t)
	})
}

// keyEvent reduces a key press to what the controller cares about.
// Terminals report Shift+Enter as Alt+Enter or Ctrl+J, if at all.
func keyEvent(msg tea.KeyMsg) chat.KeyEvent {
	switch {
	case msg.Type == tea.KeyCtrlJ:
		return chat.KeyEvent{Enter: true, Shift: true}
	case msg.Type == tea.KeyEnter:
		return chat.KeyEvent{Enter: true, Shift: msg.Alt}
	case msg.String() == "shift+enter":
		return chat.KeyEvent{Enter: true, Shift: true}
	}
	return chat.KeyEvent{}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.w.setSize(msg.Width, msg.Height)
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Copy):
			m.copyLastReply()
			return m, nil
		case key.Matches(msg, keys.PageUp, keys.PageDown):
			m.w.viewport, cmd = m.w.viewport.Update(msg)
			return m, cmd
		}

		ev := keyEvent(msg)
		switch {
		case chat.ShouldSubmit(ev):
			return m.submit()
		case chat.ShouldInsertNewline(ev):
			// The textarea inserts a newline on a bare Enter
			m.w.input, cmd = m.w.input.Update(tea.KeyMsg{Type: tea.KeyEnter})
			m.w.fitInput()
			return m, cmd
		}

		m.notice = ""
		m.w.input, cmd = m.w.input.Update(msg)
		m.w.fitInput()
		return m, cmd

	case replyMsg:
		m.ctrl.Complete(msg.reply, msg.err)
		if msg.err == nil && m.copyReplies {
			m.copyLastReply()
		}
		return m, nil

	case typingTickMsg:
		if !m.w.transcript.Typing() {
			return m, nil
		}
		m.w.frame++
		m.w.refresh()
		return m, typingTick()

	case tea.MouseMsg:
		m.w.viewport, cmd = m.w.viewport.Update(msg)
		return m, cmd
	}

	// Cursor blink and other textarea internals
	m.w.input, cmd = m.w.input.Update(msg)
	return m, cmd
}

// submit starts a submission; the request runs as a command and its
// outcome comes back as a replyMsg
func (m Model) submit() (tea.Model, tea.Cmd) {
	text, err := m.ctrl.Begin()
	if err != nil {
		if !apierrors.IsValidationSkip(err) {
			m.err = err
		}
		return m, nil
	}

	m.err = nil
	m.notice = ""
	return m, tea.Batch(m.sendMessage(text), typingTick())
}

// sendMessage creates a command to send a message to the server
func (m Model) sendMessage(text string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		reply, err := ctrl.Send(ctx, text)
		return replyMsg{reply: reply, err: err}
	}
}

// copyLastReply puts the newest assistant reply on the clipboard
func (m *Model) copyLastReply() {
	reply, ok := m.w.transcript.LastAssistant()
	if !ok {
		m.notice = "Nothing to copy yet"
		return
	}
	if err := m.copy(reply); err != nil {
		m.logger.Warn("clipboard copy failed", "err", err)
		m.err = fmt.Errorf("copy to clipboard: %w", err)
		return
	}
	m.err = nil
	m.notice = "Reply copied to clipboard"
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return hintStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.w.width - 4

	// Header
	headerParts := []string{titleStyle.Render("✦ Chat")}
	if m.title != "" {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(m.title),
		)
	}
	header := headerStyle.Width(contentWidth).Render(lipgloss.JoinHorizontal(lipgloss.Center, headerParts...))
	sections = append(sections, header)

	// Messages
	var messagesContent string
	if m.w.transcript.Len() == 0 && !m.w.transcript.Typing() {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.w.viewport.View()
	}
	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.w.viewport.Height).
		Render(messagesContent)
	sections = append(sections, messagesPanel)

	// Input
	label := "You"
	if m.ctrl.Sending() {
		label = "You " + hintStyle.Render("(waiting for reply)")
	}
	inputContent := lipgloss.JoinVertical(
		lipgloss.Left,
		inputLabelStyle.Render(label),
		m.w.input.View(),
	)
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	switch {
	case m.err != nil:
		sections = append(sections, errorStyle.Render("⚠ "+m.err.Error()))
	case m.notice != "":
		sections = append(sections, noticeStyle.Render(m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.w.viewport.Width - 4
	height := m.w.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render("How can I help?")
	subtitle := welcomeStyle.Width(width).Render("Type a message below and press Enter")

	content := lipgloss.JoinVertical(lipgloss.Center, "", icon, "", title, "", subtitle, "")

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	var items []string
	for _, b := range keys.statusBindings() {
		help := b.Help()
		items = append(items, statusKeyStyle.Render(help.Key)+statusDescStyle.Render(" "+help.Desc))
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// RunChat starts the chat TUI and blocks until the user quits
func RunChat(ctx context.Context, sender chat.Sender, opts Options) error {
	m := NewChatModel(ctx, sender, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
