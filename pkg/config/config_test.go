package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-go-golems/chatrelay/pkg/llm"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "!", s.Prefix)
	assert.Equal(t, DefaultDataDir, s.DataDir)
	assert.Equal(t, 30*time.Second, s.ControlTimeout)
	assert.Equal(t, "Lilly", s.PersonaName)
	assert.Equal(t, llm.ApiTypeOllama, s.AI.ApiType)
	assert.Equal(t, llm.DefaultEngine, s.AI.Engine)
	assert.Nil(t, s.AI.BaseURL)
	assert.Nil(t, s.AI.Temperature)
	require.NotNil(t, s.AI.Timeout)
	assert.Equal(t, 2*time.Minute, *s.AI.Timeout)
	assert.False(t, s.Events.Enabled)
	assert.Equal(t, DefaultStream, s.Events.Stream)
	assert.Equal(t, AppName, s.Events.Group)
}

func TestLoad_ConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
channel-id: "1234"
control-timeout: 45s
ai-api-type: OpenAI
ai-engine: gpt-4o-mini
ai-base-url: http://localhost:8080/v1
ai-temperature: 0.2
ai-max-response-tokens: 256
`), 0o644))
	t.Setenv("CHATRELAY_DISCORD_TOKEN", "secret")

	v := viper.New()
	SetDefaults(v)
	AddConfigPaths(v, path)
	require.NoError(t, ReadConfig(v))

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "secret", s.DiscordToken)
	assert.Equal(t, "1234", s.ChannelID)
	assert.Equal(t, 45*time.Second, s.ControlTimeout)
	assert.Equal(t, llm.ApiTypeOpenAI, s.AI.ApiType)
	assert.Equal(t, "gpt-4o-mini", s.AI.Engine)
	require.NotNil(t, s.AI.BaseURL)
	assert.Equal(t, "http://localhost:8080/v1", *s.AI.BaseURL)
	require.NotNil(t, s.AI.Temperature)
	assert.InDelta(t, 0.2, *s.AI.Temperature, 1e-9)
	require.NotNil(t, s.AI.MaxResponseTokens)
	assert.Equal(t, 256, *s.AI.MaxResponseTokens)

	assert.Equal(t, "1234", s.RelaySettings().ChannelID)
}

func TestReadConfig_MissingFileIsFine(t *testing.T) {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(t.TempDir())
	assert.NoError(t, ReadConfig(v))
}

func TestSettings_Validate(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("control-timeout", "0s")
	_, err := Load(v)
	assert.Error(t, err)

	v = viper.New()
	SetDefaults(v)
	v.Set("persona-name", " ")
	_, err = Load(v)
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logFile := filepath.Join(t.TempDir(), "relay.log")
	require.NoError(t, InitLogger(&LogConfig{Level: "debug", LogFormat: "json", LogFile: logFile}))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	assert.Error(t, InitLogger(&LogConfig{Level: "loud"}))
	assert.Error(t, InitLogger(&LogConfig{LogFormat: "xml"}))
}
