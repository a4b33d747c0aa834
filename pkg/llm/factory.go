package llm

import (
	"os"
	"strings"

	"github.com/jmorganca/ollama/api"
	"github.com/pkg/errors"
)

// SupportedProviders lists the api types NewCompleter accepts.
func SupportedProviders() []string {
	return []string{string(ApiTypeOllama), string(ApiTypeOpenAI), string(ApiTypeEcho)}
}

// NewCompleter creates the backend selected by settings.ApiType. An empty
// api type selects ollama.
func NewCompleter(settings *Settings) (Completer, error) {
	if settings == nil {
		return nil, errors.New("settings cannot be nil")
	}

	provider := strings.ToLower(string(settings.ApiType))
	if provider == "" {
		provider = string(ApiTypeOllama)
	}
	if err := validateSettings(settings, provider); err != nil {
		return nil, errors.Wrapf(err, "invalid settings for provider %s", provider)
	}

	switch ApiType(provider) {
	case ApiTypeOllama:
		if settings.BaseURL != nil && *settings.BaseURL != "" {
			// the client only reads its address from the environment
			if err := os.Setenv("OLLAMA_HOST", *settings.BaseURL); err != nil {
				return nil, errors.Wrap(err, "could not set ollama host")
			}
		}
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, errors.Wrap(err, "could not create ollama client")
		}
		return NewOllamaCompleter(client, settings.Clone()), nil
	case ApiTypeOpenAI:
		return NewOpenAICompleter(settings.Clone()), nil
	case ApiTypeEcho:
		return NewEchoCompleter(), nil
	default:
		return nil, errors.Errorf("unsupported provider %s (supported: %s)", provider, strings.Join(SupportedProviders(), ", "))
	}
}

func validateSettings(settings *Settings, provider string) error {
	if settings.BaseURL != nil && *settings.BaseURL != "" {
		if err := ValidateBaseURL(*settings.BaseURL, DefaultBaseURLPolicy); err != nil {
			return err
		}
	}
	switch ApiType(provider) {
	case ApiTypeOllama:
		if settings.Engine == "" {
			return errors.New("an engine (model name) is required")
		}
	case ApiTypeOpenAI:
		if settings.Engine == "" {
			return errors.New("an engine (model name) is required")
		}
		if settings.APIKey == "" && (settings.BaseURL == nil || *settings.BaseURL == "") {
			return errors.New("an api key is required")
		}
	}
	return nil
}
