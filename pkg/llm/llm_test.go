package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompleter_SelectsProvider(t *testing.T) {
	url := "http://localhost:1234/v1"
	badURL := "ftp://models.internal/v1"
	tests := []struct {
		name     string
		settings *Settings
		want     interface{}
		wantErr  bool
	}{
		{name: "echo", settings: &Settings{ApiType: ApiTypeEcho}, want: &EchoCompleter{}},
		{name: "openai", settings: &Settings{ApiType: ApiTypeOpenAI, Engine: "gpt-4o-mini", APIKey: "sk-test"}, want: &OpenAICompleter{}},
		{name: "openai compatible without key", settings: &Settings{ApiType: "OpenAI", Engine: "local", BaseURL: &url}, want: &OpenAICompleter{}},
		{name: "openai with bad base url", settings: &Settings{ApiType: ApiTypeOpenAI, Engine: "local", BaseURL: &badURL}, wantErr: true},
		{name: "openai without key", settings: &Settings{ApiType: ApiTypeOpenAI, Engine: "gpt-4o-mini"}, wantErr: true},
		{name: "ollama without engine", settings: &Settings{ApiType: ApiTypeOllama}, wantErr: true},
		{name: "unknown", settings: &Settings{ApiType: "claude", Engine: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCompleter(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, c)
		})
	}

	_, err := NewCompleter(nil)
	assert.Error(t, err)
}

func TestEchoCompleter(t *testing.T) {
	e := NewEchoCompleter()
	prompt := "You are Lilly.\n\nHere is the conversation history: \nUser: old\nLilly: reply\n\nUser: hello there\n\nLilly: \n"
	got, err := e.Complete(context.Background(), prompt)
	require.NoError(t, err)
	assert.Equal(t, "hello there", got)

	_, err = e.Complete(context.Background(), "nothing to echo")
	assert.Error(t, err)
}

func TestEchoCompleter_HonoursCancellation(t *testing.T) {
	e := &EchoCompleter{Delay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Complete(ctx, "User: hi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenAICompleter_Complete(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-test",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  hi  "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	base := srv.URL + "/v1"
	temp := 0.5
	c := NewOpenAICompleter(&Settings{ApiType: ApiTypeOpenAI, Engine: "gpt-test", APIKey: "sk-test", BaseURL: &base, Temperature: &temp})

	got, err := c.Complete(context.Background(), "User: hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
	assert.Equal(t, "gpt-test", received["model"])
	messages, ok := received["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "User: hello", messages[0].(map[string]interface{})["content"])
}

func TestOpenAICompleter_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "model overloaded", "type": "server_error"}}`))
	}))
	defer srv.Close()

	base := srv.URL + "/v1"
	c := NewOpenAICompleter(&Settings{ApiType: ApiTypeOpenAI, Engine: "gpt-test", APIKey: "sk-test", BaseURL: &base})
	_, err := c.Complete(context.Background(), "User: hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gpt-test")
}

func TestOllamaCompleter_Options(t *testing.T) {
	temp := 0.2
	max := 128
	oc := NewOllamaCompleter(nil, &Settings{Engine: DefaultEngine, Temperature: &temp, MaxResponseTokens: &max})
	assert.Equal(t, map[string]interface{}{"temperature": 0.2, "num_predict": 128}, oc.options())

	oc = NewOllamaCompleter(nil, NewSettings())
	assert.Empty(t, oc.options())
}

func TestSettings_Clone(t *testing.T) {
	temp := 0.7
	s := &Settings{ApiType: ApiTypeOllama, Engine: "a", Temperature: &temp}
	c := s.Clone()
	*c.Temperature = 0.1
	c.Engine = "b"
	assert.Equal(t, 0.7, *s.Temperature)
	assert.Equal(t, "a", s.Engine)
}

func TestCountTokens(t *testing.T) {
	assert.Greater(t, CountTokens("hello world, how are you today?"), 0)
	assert.Equal(t, 0, CountTokens(""))
}

func TestValidateBaseURL(t *testing.T) {
	strict := BaseURLPolicy{}
	tests := []struct {
		url     string
		policy  BaseURLPolicy
		wantErr bool
	}{
		{"https://api.openai.com/v1", strict, false},
		{"http://api.example.com/v1", strict, true},
		{"http://localhost:11434", DefaultBaseURLPolicy, false},
		{"https://localhost:11434", strict, true},
		{"https://10.0.0.5/v1", strict, true},
		{"https://10.0.0.5/v1", DefaultBaseURLPolicy, false},
		{"https://[::ffff:127.0.0.1]/v1", strict, true},
		{"http://0.0.0.0:8080", DefaultBaseURLPolicy, true},
		{"ftp://example.com", DefaultBaseURLPolicy, true},
		{"https:///v1", DefaultBaseURLPolicy, true},
		{"://nope", DefaultBaseURLPolicy, true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateBaseURL(tt.url, tt.policy)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
