package llm

import (
	"context"
	"strings"
	"time"

	"github.com/jmorganca/ollama/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// OllamaCompleter sends the prompt to an ollama server. The server address
// comes from OLLAMA_HOST, which ai-base-url overrides.
type OllamaCompleter struct {
	Client   *api.Client
	Settings *Settings
}

var _ Completer = (*OllamaCompleter)(nil)

func NewOllamaCompleter(client *api.Client, settings *Settings) *OllamaCompleter {
	return &OllamaCompleter{
		Client:   client,
		Settings: settings,
	}
}

func (oc *OllamaCompleter) options() map[string]interface{} {
	opts := map[string]interface{}{}
	if oc.Settings.Temperature != nil {
		opts["temperature"] = *oc.Settings.Temperature
	}
	if oc.Settings.MaxResponseTokens != nil {
		opts["num_predict"] = *oc.Settings.MaxResponseTokens
	}
	return opts
}

func (oc *OllamaCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	req := &api.GenerateRequest{
		Model:   oc.Settings.Engine,
		Prompt:  prompt,
		Options: oc.options(),
	}

	start := time.Now()
	var sb strings.Builder
	err := oc.Client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		if resp.Done {
			log.Debug().
				Str("model", resp.Model).
				Dur("duration", time.Since(start)).
				Int("response_length", sb.Len()).
				Msg("ollama generation done")
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "ollama generate with %s", oc.Settings.Engine)
	}

	return strings.TrimSpace(sb.String()), nil
}
