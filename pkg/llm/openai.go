package llm

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// OpenAICompleter sends the prompt as a single user message to an
// OpenAI-compatible chat completion endpoint.
type OpenAICompleter struct {
	Client   *openai.Client
	Settings *Settings
}

var _ Completer = (*OpenAICompleter)(nil)

func makeClient(s *Settings) *openai.Client {
	config := openai.DefaultConfig(s.APIKey)
	if s.BaseURL != nil && *s.BaseURL != "" {
		config.BaseURL = *s.BaseURL
	}
	return openai.NewClientWithConfig(config)
}

func NewOpenAICompleter(settings *Settings) *OpenAICompleter {
	return &OpenAICompleter{
		Client:   makeClient(settings),
		Settings: settings,
	}
}

func (oc *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: oc.Settings.Engine,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	if oc.Settings.Temperature != nil {
		req.Temperature = float32(*oc.Settings.Temperature)
	}
	if oc.Settings.MaxResponseTokens != nil {
		req.MaxTokens = *oc.Settings.MaxResponseTokens
	}

	resp, err := oc.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.Wrapf(err, "openai chat completion with %s", oc.Settings.Engine)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	log.Debug().
		Str("model", resp.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("openai completion done")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
