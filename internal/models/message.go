package models

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a rendered chat message
type Message struct {
	Role Role
	Text string
}

// UserMessage creates a message authored by the user
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// AssistantMessage creates a message authored by the assistant
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Text: text}
}

// IsUser reports whether the message was written by the user
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// ChatRequest is the JSON body posted to the chat endpoint
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the JSON body returned by the chat endpoint.
// Reply may be empty when the server omits it.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ReplyOrFallback returns the reply, or FallbackReply when it is empty
func (r ChatResponse) ReplyOrFallback() string {
	if r.Reply == "" {
		return FallbackReply
	}
	return r.Reply
}
