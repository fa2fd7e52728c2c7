// Package models contains data types and constants for the chat widget.
package models

// Endpoint and anti-forgery defaults
const (
	DefaultBaseURL      = "http://127.0.0.1:8000"
	EndpointChat        = "/get_chatbot_response/"
	DefaultCSRFCookie   = "csrftoken"
	DefaultCSRFHeader   = "X-CSRFToken"
	ContentTypeJSON     = "application/json"
	DefaultInputHeight  = 1
	DefaultInputMaxRows = 6
)

// Fixed texts shown in assistant bubbles
const (
	// FallbackReply is shown when the server answers without a reply field.
	FallbackReply = "Sorry, I could not respond. Try again!"

	// ErrorReply is shown for every failed request, whatever the cause.
	ErrorReply = "Error: Unable to get response. Please try again."
)
