// Package engine turns a user input into a model response using the live
// conversation as context, and records the result in the ledger.
package engine

import (
	"context"
	"time"

	"github.com/go-go-golems/chatrelay/pkg/events"
	"github.com/go-go-golems/chatrelay/pkg/ledger"
	"github.com/go-go-golems/chatrelay/pkg/llm"
	"github.com/go-go-golems/chatrelay/pkg/persona"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Engine struct {
	ledger    *ledger.Ledger
	personas  *persona.Service
	completer llm.Completer
	prompt    *Prompt
	publisher events.Publisher
	timeout   time.Duration
}

type Option func(*Engine)

func WithPrompt(p *Prompt) Option {
	return func(e *Engine) {
		e.prompt = p
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithCompletionTimeout bounds each completion call. Zero means no bound.
func WithCompletionTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

func NewEngine(l *ledger.Ledger, p *persona.Service, c llm.Completer, options ...Option) (*Engine, error) {
	if l == nil || p == nil || c == nil {
		return nil, errors.New("engine needs a ledger, a persona service and a completer")
	}
	e := &Engine{
		ledger:    l,
		personas:  p,
		completer: c,
	}
	for _, o := range options {
		o(e)
	}
	if e.prompt == nil {
		prompt, err := NewPrompt(DefaultPromptTemplate)
		if err != nil {
			return nil, err
		}
		e.prompt = prompt
	}
	return e, nil
}

// Generate answers userInput and stores the exchange under messageID,
// replacing whatever was stored there. The context handed to the model is
// every answered exchange of the live conversation except messageID itself.
//
// A failed completion returns a *CompletionError and leaves the ledger
// untouched.
func (e *Engine) Generate(ctx context.Context, messageID string, userInput string) (string, error) {
	p, err := e.personas.Get(ctx)
	if err != nil {
		return "", err
	}
	entries, err := e.ledger.Completed(ctx, messageID)
	if err != nil {
		return "", err
	}

	prompt, err := e.prompt.Render(PromptData{
		Name:        p.Name,
		Description: p.Description,
		History:     ledger.RenderContext(p.Name, entries),
		Input:       userInput,
	})
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("message_id", messageID).
		Int("context_entries", len(entries)).
		Int("prompt_tokens", llm.CountTokens(prompt)).
		Msg("requesting completion")

	response, err := e.complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("message_id", messageID).Msg("completion failed")
		events.PublishBlind(e.publisher, events.NewEvent(events.EventTypeCompletionFailed,
			events.WithMessageID(messageID),
			events.WithData("error", err.Error()),
		))
		return "", &CompletionError{MessageID: messageID, Err: err}
	}

	if err := e.ledger.AppendOrReplace(ctx, messageID, ledger.NewExchange(userInput, response)); err != nil {
		return "", err
	}

	events.PublishBlind(e.publisher, events.NewEvent(events.EventTypeExchangeRecorded,
		events.WithMessageID(messageID),
		events.WithData("input_length", len(userInput)),
		events.WithData("response_length", len(response)),
	))
	return response, nil
}

// Regenerate produces a new response for a known input and replaces the
// exchange stored under messageID. It is Generate under another name.
func (e *Engine) Regenerate(ctx context.Context, messageID string, userInput string) (string, error) {
	return e.Generate(ctx, messageID, userInput)
}

func (e *Engine) complete(ctx context.Context, prompt string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.completer.Complete(ctx, prompt)
}
