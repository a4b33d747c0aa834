package llm

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// EchoCompleter answers with the last user line of the prompt. It lets the
// relay run without a model server.
type EchoCompleter struct {
	Delay time.Duration
}

var _ Completer = (*EchoCompleter)(nil)

func NewEchoCompleter() *EchoCompleter {
	return &EchoCompleter{}
}

func (e *EchoCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if e.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(e.Delay):
		}
	}

	lines := strings.Split(prompt, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if text, ok := strings.CutPrefix(strings.TrimSpace(lines[i]), "User: "); ok {
			return text, nil
		}
	}
	return "", errors.New("no user input in prompt")
}
