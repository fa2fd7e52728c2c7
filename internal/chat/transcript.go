// Package chat implements the chat widget controller: the submission gate,
// the transcript model and the surfaces it drives.
package chat

import "github.com/diogo/chatwidget/internal/models"

// Transcript is an append-only list of messages with at most one pending
// typing placeholder, which is always rendered after the last message.
type Transcript struct {
	messages []models.Message
	typing   bool
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a message after every existing one
func (t *Transcript) Append(msg models.Message) {
	t.messages = append(t.messages, msg)
}

// ShowTyping adds the typing placeholder. It is a no-op when one is already shown.
func (t *Transcript) ShowTyping() {
	t.typing = true
}

// HideTyping removes the typing placeholder and reports whether one was present
func (t *Transcript) HideTyping() bool {
	if !t.typing {
		return false
	}
	t.typing = false
	return true
}

// Typing reports whether the typing placeholder is shown
func (t *Transcript) Typing() bool {
	return t.typing
}

// Messages returns a copy of the rendered messages, oldest first
func (t *Transcript) Messages() []models.Message {
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages, not counting the placeholder
func (t *Transcript) Len() int {
	return len(t.messages)
}

// LastAssistant returns the text of the most recent assistant message
func (t *Transcript) LastAssistant() (string, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == models.RoleAssistant {
			return t.messages[i].Text, true
		}
	}
	return "", false
}
