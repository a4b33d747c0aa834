package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrCompletionFailed = errors.New("completion failed")

// CompletionError reports a failed or timed out completion call. Nothing was
// written to the ledger for MessageID.
type CompletionError struct {
	MessageID string
	Err       error
}

func (e *CompletionError) Error() string {
	if e == nil {
		return ErrCompletionFailed.Error()
	}
	return fmt.Sprintf("%s for message %s: %v", ErrCompletionFailed, e.MessageID, e.Err)
}

func (e *CompletionError) Is(target error) bool { return target == ErrCompletionFailed }

func (e *CompletionError) Unwrap() error { return e.Err }

// UserMessage is the text shown to chat users in place of a response.
func (e *CompletionError) UserMessage() string {
	if e == nil || e.Err == nil {
		return "Error: " + ErrCompletionFailed.Error()
	}
	return "Error: " + e.Err.Error()
}

// UserMessage returns the chat-facing text for any error returned by the
// engine.
func UserMessage(err error) string {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.UserMessage()
	}
	return "Error: " + err.Error()
}
