package chat

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
)

// InputSurface is where outbound messages are typed
type InputSurface interface {
	// Value returns the raw (untrimmed) input text
	Value() string
	Reset()
}

// TranscriptSurface displays the conversation
type TranscriptSurface interface {
	Append(msg models.Message)
	ShowTyping()
	HideTyping() bool
	ScrollToBottom()
}

// Sender performs the single remote call behind a submission
type Sender interface {
	SendMessage(ctx context.Context, text string) (string, error)
}

// Controller runs the submission lifecycle. It is not safe for concurrent
// use: every method must be called from the UI event loop.
type Controller struct {
	input      InputSurface
	transcript TranscriptSurface
	sender     Sender
	logger     *log.Logger

	// sending is the submission gate
	sending bool
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithLogger sets the logger used for submissions and failures
func WithLogger(logger *log.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a controller bound to its three collaborators
func NewController(input InputSurface, transcript TranscriptSurface, sender Sender, opts ...ControllerOption) *Controller {
	c := &Controller{
		input:      input,
		transcript: transcript,
		sender:     sender,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sending reports whether a request is in flight
func (c *Controller) Sending() bool {
	return c.sending
}

// Begin moves the controller from Idle to Sending. It renders the user
// bubble and the typing placeholder, clears the input and takes the gate.
// The returned text must then be passed to Send and the outcome to Complete.
//
// When the gate is already held or the trimmed input is empty nothing is
// changed and ErrSendInProgress or ErrEmptyMessage is returned.
func (c *Controller) Begin() (string, error) {
	if c.sending {
		return "", apierrors.ErrSendInProgress
	}

	text := strings.TrimSpace(c.input.Value())
	if text == "" {
		return "", apierrors.ErrEmptyMessage
	}

	c.transcript.Append(models.UserMessage(text))
	c.input.Reset()
	c.transcript.ScrollToBottom()

	c.transcript.ShowTyping()
	c.transcript.ScrollToBottom()

	c.sending = true
	c.logger.Debug("submitting message", "length", len(text))

	return text, nil
}

// Send issues the remote call for text. It does not touch any UI state and
// may run outside the event loop.
func (c *Controller) Send(ctx context.Context, text string) (string, error) {
	return c.sender.SendMessage(ctx, text)
}

// Complete moves the controller back to Idle with the outcome of Send. It
// removes the typing placeholder, appends the reply (or the fixed fallback
// or error text) and releases the gate. It is a no-op when nothing is in
// flight.
func (c *Controller) Complete(reply string, err error) {
	if !c.sending {
		return
	}

	c.transcript.HideTyping()

	if err != nil {
		c.logger.Error("chat request failed",
			"err", err,
			"status", apierrors.GetHTTPStatus(err),
			"endpoint", apierrors.GetEndpoint(err),
		)
		c.transcript.Append(models.AssistantMessage(models.ErrorReply))
	} else {
		c.transcript.Append(models.AssistantMessage(models.ChatResponse{Reply: reply}.ReplyOrFallback()))
	}

	c.transcript.ScrollToBottom()
	c.sending = false
}

// Submit runs a whole submission synchronously. Validation skips are
// returned as-is; a failed request is rendered as the error bubble and its
// cause returned for callers that need an exit status.
func (c *Controller) Submit(ctx context.Context) error {
	text, err := c.Begin()
	if err != nil {
		return err
	}

	reply, err := c.Send(ctx, text)
	c.Complete(reply, err)
	return err
}
