package llm

import (
	"time"

	"github.com/huandu/go-clone"
)

type ApiType string

const (
	ApiTypeOllama ApiType = "ollama"
	ApiTypeOpenAI ApiType = "openai"
	ApiTypeEcho   ApiType = "echo"
)

const DefaultEngine = "llama3.1:8b"

type Settings struct {
	ApiType           ApiType        `yaml:"api_type,omitempty"`
	Engine            string         `yaml:"engine,omitempty"`
	BaseURL           *string        `yaml:"base_url,omitempty"`
	APIKey            string         `yaml:"api_key,omitempty"`
	Temperature       *float64       `yaml:"temperature,omitempty"`
	MaxResponseTokens *int           `yaml:"max_response_tokens,omitempty"`
	Timeout           *time.Duration `yaml:"timeout,omitempty"`
}

func NewSettings() *Settings {
	return &Settings{
		ApiType: ApiTypeOllama,
		Engine:  DefaultEngine,
	}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}
