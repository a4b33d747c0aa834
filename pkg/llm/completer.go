// Package llm wraps the text-completion backends the relay can talk to.
//
// A Completer turns a fully rendered prompt into response text with a single
// call. Backends do not retry; a failed call is returned to the caller as is.
package llm

import (
	"context"
)

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
