package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/chatwidget/internal/chat"
	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
	"github.com/diogo/chatwidget/internal/render"
)

type stubSender struct {
	reply string
	err   error
	sent  []string
}

func (s *stubSender) SendMessage(ctx context.Context, text string) (string, error) {
	s.sent = append(s.sent, text)
	return s.reply, s.err
}

func newTestModel(t *testing.T, sender *stubSender) Model {
	t.Helper()
	m := NewChatModel(context.Background(), sender, Options{Title: "http://127.0.0.1:8000", Theme: render.NordTheme})
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", updated)
	}
	return model
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestModel_SubmitFlow(t *testing.T) {
	sender := &stubSender{reply: "Hi there"}
	m := newTestModel(t, sender)

	m = typeText(t, m, "  hello  ")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if cmd == nil {
		t.Fatal("submitting should return a command")
	}
	if !m.ctrl.Sending() {
		t.Error("controller should be sending")
	}
	if m.w.Value() != "" {
		t.Errorf("input = %q, want empty", m.w.Value())
	}
	if !m.w.transcript.Typing() {
		t.Error("typing placeholder should be shown")
	}
	msgs := m.w.transcript.Messages()
	if len(msgs) != 1 || msgs[0] != models.UserMessage("hello") {
		t.Fatalf("messages = %v", msgs)
	}

	reply := m.sendMessage("hello")()
	m = update(t, m, reply)

	if m.ctrl.Sending() {
		t.Error("gate should be released after the reply")
	}
	if m.w.transcript.Typing() {
		t.Error("typing placeholder should be removed")
	}
	if got, _ := m.w.transcript.LastAssistant(); got != "Hi there" {
		t.Errorf("last reply = %q", got)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "hello" {
		t.Errorf("sent = %v", sender.sent)
	}
}

func TestModel_Outcomes(t *testing.T) {
	tests := []struct {
		name string
		msg  replyMsg
		want string
	}{
		{"reply", replyMsg{reply: "ok"}, "ok"},
		{"missing reply", replyMsg{}, models.FallbackReply},
		{"http error", replyMsg{err: apierrors.NewAPIError(500, "/get_chatbot_response/", "failed")}, models.ErrorReply},
		{"network error", replyMsg{err: apierrors.NewNetworkError("send message", errors.New("refused"))}, models.ErrorReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, &stubSender{})
			m = typeText(t, m, "question")
			m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			m = update(t, m, tt.msg)

			got, _ := m.w.transcript.LastAssistant()
			if got != tt.want {
				t.Errorf("last reply = %q, want %q", got, tt.want)
			}
			if !strings.Contains(m.w.viewport.View(), "Assistant") {
				t.Error("viewport should show the assistant bubble")
			}
		})
	}
}

func TestModel_EnterWhileSendingIsIgnored(t *testing.T) {
	m := newTestModel(t, &stubSender{reply: "x"})
	m = typeText(t, m, "first")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = typeText(t, m, "second")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if cmd != nil {
		t.Error("a gated submission should not issue a request")
	}
	if m.w.transcript.Len() != 1 {
		t.Errorf("transcript has %d messages, want 1", m.w.transcript.Len())
	}
	if m.w.Value() != "second" {
		t.Errorf("input = %q, want it kept for later", m.w.Value())
	}
}

func TestModel_EmptyInputIsIgnored(t *testing.T) {
	m := newTestModel(t, &stubSender{})
	m = typeText(t, m, "   ")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if cmd != nil || m.ctrl.Sending() || m.w.transcript.Len() != 0 {
		t.Error("whitespace-only input must not submit")
	}
	if m.err != nil {
		t.Errorf("validation skip should not surface an error: %v", m.err)
	}
}

func TestModel_NewlineKeys(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeyEnter, Alt: true},
		{Type: tea.KeyCtrlJ},
	}

	for _, key := range keys {
		t.Run(key.String(), func(t *testing.T) {
			m := newTestModel(t, &stubSender{})
			m = typeText(t, m, "a")
			m = update(t, m, key)
			m = typeText(t, m, "b")

			if m.w.Value() != "a\nb" {
				t.Errorf("input = %q, want a newline", m.w.Value())
			}
			if m.ctrl.Sending() {
				t.Error("newline must not submit")
			}
			if m.w.input.Height() != 2 {
				t.Errorf("input height = %d, want 2", m.w.input.Height())
			}
		})
	}
}

func TestModel_InputShrinksAfterSubmit(t *testing.T) {
	m := newTestModel(t, &stubSender{})
	m = typeText(t, m, "a")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	m = typeText(t, m, "b")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.w.input.Height() != models.DefaultInputHeight {
		t.Errorf("input height = %d, want %d", m.w.input.Height(), models.DefaultInputHeight)
	}
}

func TestModel_CopyLastReply(t *testing.T) {
	m := newTestModel(t, &stubSender{})
	var copied string
	m.copy = func(s string) error { copied = s; return nil }

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if copied != "" || m.notice == "" {
		t.Errorf("copy with no reply: copied=%q notice=%q", copied, m.notice)
	}

	m.w.Append(models.AssistantMessage("the answer"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if copied != "the answer" {
		t.Errorf("copied = %q", copied)
	}

	m.copy = func(string) error { return errors.New("no clipboard") }
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if m.err == nil {
		t.Error("clipboard failure should be shown")
	}
}

func TestModel_CopyRepliesOption(t *testing.T) {
	m := NewChatModel(context.Background(), &stubSender{}, Options{CopyReplies: true})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	var copied string
	m.copy = func(s string) error { copied = s; return nil }

	m = typeText(t, m, "q")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, replyMsg{reply: "auto"})
	if copied != "auto" {
		t.Errorf("copied = %q, want auto", copied)
	}
}

func TestModel_TypingTick(t *testing.T) {
	m := newTestModel(t, &stubSender{})

	updated, cmd := m.Update(typingTickMsg{})
	if cmd != nil {
		t.Error("tick without a placeholder should stop")
	}
	m = updated.(Model)

	m = typeText(t, m, "q")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, typingTickMsg{})
	if m.w.frame != 1 {
		t.Errorf("frame = %d, want 1", m.w.frame)
	}
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		m := newTestModel(t, &stubSender{})
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("%s should quit", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should return tea.Quit", key)
		}
	}
}

func TestModel_View(t *testing.T) {
	m := NewChatModel(context.Background(), &stubSender{}, Options{})
	if !strings.Contains(m.View(), "Initializing") {
		t.Error("View() before sizing should show a placeholder")
	}

	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m.title = "http://127.0.0.1:8000"
	view := m.View()
	for _, want := range []string{"Chat", "http://127.0.0.1:8000", "How can I help?", "Enter", "You"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m = typeText(t, m, "hi")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	view = m.View()
	if !strings.Contains(view, "waiting for reply") {
		t.Error("View() should show the pending state")
	}
	if !strings.Contains(view, "is typing") {
		t.Error("View() should show the typing placeholder")
	}
}

func TestKeyEvent(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want chat.KeyEvent
	}{
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, chat.KeyEvent{Enter: true}},
		{"alt+enter", tea.KeyMsg{Type: tea.KeyEnter, Alt: true}, chat.KeyEvent{Enter: true, Shift: true}},
		{"ctrl+j", tea.KeyMsg{Type: tea.KeyCtrlJ}, chat.KeyEvent{Enter: true, Shift: true}},
		{"rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}, chat.KeyEvent{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyEvent(tt.key); got != tt.want {
				t.Errorf("keyEvent(%s) = %+v, want %+v", tt.key, got, tt.want)
			}
		})
	}
}

func TestFitHeight(t *testing.T) {
	tests := []struct {
		name            string
		value           string
		width, min, max int
		want            int
	}{
		{"empty", "", 20, 1, 6, 1},
		{"one line", "hello", 20, 1, 6, 1},
		{"three lines", "a\nb\nc", 20, 1, 6, 3},
		{"wrapped line", strings.Repeat("x", 45), 20, 1, 6, 3},
		{"clamped", strings.Repeat("line\n", 10), 20, 1, 6, 6},
		{"no width", "a\nb", 0, 1, 6, 2},
		{"no max", strings.Repeat("l\n", 9), 20, 1, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fitHeight(tt.value, tt.width, tt.min, tt.max); got != tt.want {
				t.Errorf("fitHeight() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	if FormatError(nil) != "" {
		t.Error("FormatError(nil) should be empty")
	}

	err := apierrors.NewAPIError(403, "http://127.0.0.1:8000/get_chatbot_response/", "chat request failed")
	out := FormatError(err)
	for _, want := range []string{"HTTP Status: 403", "Endpoint:", "anti-forgery"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatError() missing %q in %q", want, out)
		}
	}
}
