package settings

import (
	"strings"
	"testing"
	"time"

	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettingsDefaults(t *testing.T) {
	s := NewSettings()
	assert.Equal(t, "chatgpt", s.Chat.Namespace)
	assert.Equal(t, types.ModeOpenAI, s.Chat.DefaultMode)
	assert.Equal(t, 1000, s.Chat.MaxHistoryDepth)
	assert.Equal(t, StoreTypeMemory, s.Store.Type)
	assert.Equal(t, 60*time.Second, s.Client.GetTimeout())
	assert.Equal(t, "gpt-3.5-turbo", s.OpenAI.GetModel())
	assert.Equal(t, "https://api.openai.com", s.OpenAI.GetBaseURL())
	require.NotNil(t, s.OpenAI.Temperature)
	assert.Equal(t, 0.5, *s.OpenAI.Temperature)
	assert.Nil(t, s.OpenAI.MaxTokens)
	assert.False(t, s.Ollama.IsConfigured())
}

func TestNewSettingsFromYAML(t *testing.T) {
	doc := `
chat:
  namespace: bots
  default_mode: Copilot
client:
  timeout: 5
store:
  type: sqlite
  path: /tmp/grillo.db
openai:
  model: gpt-4
  api_key: sk-test
  max_tokens: 256
ollama:
  model: qwen2
  modes: [qwen, glm4]
  num_ctx: 4096
`
	s, err := NewSettingsFromYAML(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "bots", s.Chat.Namespace)
	assert.Equal(t, types.ModeCopilot, s.Chat.DefaultMode)
	assert.Equal(t, 1000, s.Chat.MaxHistoryDepth)
	assert.Equal(t, 5*time.Second, s.Client.GetTimeout())
	assert.Equal(t, StoreTypeSQLite, s.Store.Type)
	assert.Equal(t, "/tmp/grillo.db", s.Store.Path)
	assert.Equal(t, "gpt-4", s.OpenAI.GetModel())
	assert.Equal(t, "sk-test", s.OpenAI.APIKey)
	require.NotNil(t, s.OpenAI.MaxTokens)
	assert.Equal(t, 256, *s.OpenAI.MaxTokens)
	// untouched keys keep their defaults
	assert.Equal(t, "https://api.openai.com", s.OpenAI.GetBaseURL())
	require.NotNil(t, s.OpenAI.Temperature)
	assert.Equal(t, 0.5, *s.OpenAI.Temperature)

	assert.True(t, s.Ollama.IsConfigured())
	assert.Equal(t, []string{"qwen", "glm4"}, s.Ollama.Modes)
	assert.Equal(t, map[string]interface{}{"num_ctx": 4096}, s.Ollama.Options())
}

func TestNewSettingsFromEmptyYAML(t *testing.T) {
	s, err := NewSettingsFromYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "chatgpt", s.Chat.Namespace)
}

func TestNewSettingsFromInvalidYAML(t *testing.T) {
	_, err := NewSettingsFromYAML(strings.NewReader("chat: [unclosed"))
	require.Error(t, err)
}

func TestUpdateFromViper(t *testing.T) {
	s := NewSettings()
	v := viper.New()
	v.Set("namespace", "team")
	v.Set("default-mode", " QWEN ")
	v.Set("openai-api-key", "sk-env")
	v.Set("openai-base-url", "http://localhost:8080")
	v.Set("store-type", "redis")
	v.Set("redis-url", "redis://localhost:6379/0")
	v.Set("timeout", 3)

	s.UpdateFromViper(v)

	assert.Equal(t, "team", s.Chat.Namespace)
	assert.Equal(t, types.ModeQwen, s.Chat.DefaultMode)
	assert.Equal(t, "sk-env", s.OpenAI.APIKey)
	assert.Equal(t, "http://localhost:8080", s.OpenAI.GetBaseURL())
	assert.Equal(t, StoreTypeRedis, s.Store.Type)
	assert.Equal(t, "redis://localhost:6379/0", s.Store.RedisURL)
	assert.Equal(t, 3*time.Second, s.Client.GetTimeout())
	// unset keys leave the defaults alone
	assert.Equal(t, "gpt-3.5-turbo", s.OpenAI.GetModel())
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSettings()
	c := s.Clone()
	model := "gpt-4"
	c.OpenAI.Model = &model
	c.Chat.Namespace = "other"

	assert.Equal(t, "gpt-3.5-turbo", s.OpenAI.GetModel())
	assert.Equal(t, "chatgpt", s.Chat.Namespace)
}

func TestGetMetadataHidesAPIKey(t *testing.T) {
	s := NewSettings()
	s.OpenAI.APIKey = "sk-secret"
	md := s.GetMetadata()
	for _, v := range md {
		assert.NotEqual(t, "sk-secret", v)
	}
	assert.Equal(t, true, md["openai-api-key-set"])
}
