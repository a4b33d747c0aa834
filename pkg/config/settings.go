// Package config reads the relay settings from viper and sets up logging.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-go-golems/chatrelay/pkg/control"
	"github.com/go-go-golems/chatrelay/pkg/events"
	"github.com/go-go-golems/chatrelay/pkg/llm"
	"github.com/go-go-golems/chatrelay/pkg/persona"
	"github.com/go-go-golems/chatrelay/pkg/relay"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	AppName   = "chatrelay"
	EnvPrefix = "CHATRELAY"

	DefaultDataDir   = "data"
	DefaultStream    = events.Topic
	DefaultAITimeout = 2 * time.Minute
)

type Settings struct {
	DiscordToken string
	ChannelID    string
	GuildID      string
	Prefix       string

	DataDir        string
	ControlTimeout time.Duration
	PromptTemplate string

	PersonaName        string
	PersonaDescription string

	AI *llm.Settings

	Events events.RedisSettings
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("prefix", relay.DefaultPrefix)
	v.SetDefault("data-dir", DefaultDataDir)
	v.SetDefault("control-timeout", control.DefaultTimeout)
	v.SetDefault("persona-name", persona.DefaultName)
	v.SetDefault("persona-description", persona.DefaultDescription)
	v.SetDefault("ai-api-type", string(llm.ApiTypeOllama))
	v.SetDefault("ai-engine", llm.DefaultEngine)
	v.SetDefault("ai-timeout", DefaultAITimeout)
	v.SetDefault("events-redis-enabled", false)
	v.SetDefault("events-redis-addr", "localhost:6379")
	v.SetDefault("events-stream", DefaultStream)
}

// AddConfigPaths registers the config file locations, or configFile alone
// when it is set.
func AddConfigPaths(v *viper.Viper, configFile string) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		return
	}
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/." + AppName)
	v.AddConfigPath("/etc/" + AppName)

	xdgConfigPath, err := os.UserConfigDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(xdgConfigPath, AppName))
	}
}

// ReadConfig reads the config file if there is one and enables environment
// overrides (CHATRELAY_DISCORD_TOKEN for discord-token).
func ReadConfig(v *viper.Viper) error {
	err := v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// running without a config file is fine
	} else if err != nil {
		return errors.Wrap(err, "could not read config file")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return nil
}

func Load(v *viper.Viper) (*Settings, error) {
	ai := llm.NewSettings()
	ai.ApiType = llm.ApiType(strings.ToLower(v.GetString("ai-api-type")))
	ai.Engine = v.GetString("ai-engine")
	ai.APIKey = v.GetString("ai-api-key")
	if u := v.GetString("ai-base-url"); u != "" {
		ai.BaseURL = &u
	}
	if v.IsSet("ai-temperature") {
		t := v.GetFloat64("ai-temperature")
		ai.Temperature = &t
	}
	if v.IsSet("ai-max-response-tokens") {
		n := v.GetInt("ai-max-response-tokens")
		ai.MaxResponseTokens = &n
	}
	if d := v.GetDuration("ai-timeout"); d > 0 {
		ai.Timeout = &d
	}

	s := &Settings{
		DiscordToken:       v.GetString("discord-token"),
		ChannelID:          v.GetString("channel-id"),
		GuildID:            v.GetString("guild-id"),
		Prefix:             v.GetString("prefix"),
		DataDir:            v.GetString("data-dir"),
		ControlTimeout:     v.GetDuration("control-timeout"),
		PromptTemplate:     v.GetString("prompt-template"),
		PersonaName:        v.GetString("persona-name"),
		PersonaDescription: v.GetString("persona-description"),
		AI:                 ai,
		Events: events.RedisSettings{
			Enabled:  v.GetBool("events-redis-enabled"),
			Addr:     v.GetString("events-redis-addr"),
			Stream:   v.GetString("events-stream"),
			Group:    AppName,
			Consumer: consumerName(),
		},
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if s.DataDir == "" {
		return errors.New("data-dir cannot be empty")
	}
	if s.ControlTimeout <= 0 {
		return errors.Errorf("control-timeout must be positive, got %s", s.ControlTimeout)
	}
	if strings.TrimSpace(s.PersonaName) == "" {
		return errors.New("persona-name cannot be empty")
	}
	return nil
}

// DefaultPersona is the persona written when the data directory has none.
func (s *Settings) DefaultPersona() *persona.Persona {
	return &persona.Persona{Name: s.PersonaName, Description: s.PersonaDescription}
}

func (s *Settings) RelaySettings() relay.Settings {
	return relay.Settings{Prefix: s.Prefix, ChannelID: s.ChannelID}
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return AppName
	}
	return AppName + "-" + host
}
