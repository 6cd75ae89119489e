package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/helpers"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/go-go-golems/grillo/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository() *conversation.Repository {
	return conversation.NewRepository(store.NewNamespaced(store.NewInMemoryStore(), "chatgpt"), 0)
}

func TestNewStandardRegistryOpenAIOnly(t *testing.T) {
	registry, err := NewStandardRegistry(settings.NewSettings(), newTestRepository())
	require.NoError(t, err)
	assert.Equal(t, []types.Mode{types.ModeOpenAI}, registry.Modes())

	_, err = registry.Lookup(types.ModeQwen)
	assert.ErrorIs(t, err, conversation.ErrUnsupportedMode)
}

func TestNewStandardRegistryWithOllama(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://127.0.0.1:11434")
	s := settings.NewSettings()
	s.Ollama.Model = "qwen2"
	s.Ollama.Modes = []string{"Qwen", "glm4"}

	registry, err := NewStandardRegistry(s, newTestRepository())
	require.NoError(t, err)
	assert.Equal(t, []types.Mode{types.ModeOpenAI, types.ModeQwen, types.ModeGLM4}, registry.Modes())
}

func TestNewStandardRegistryOllamaDefaultMode(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://127.0.0.1:11434")
	s := settings.NewSettings()
	s.Ollama.Model = "llama2"

	registry, err := NewStandardRegistry(s, newTestRepository())
	require.NoError(t, err)
	assert.Equal(t, []types.Mode{types.ModeOpenAI, types.ModeOllama}, registry.Modes())
}

func TestNewStandardRegistryRejectsOllamaAsOpenAI(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://127.0.0.1:11434")
	s := settings.NewSettings()
	s.Ollama.Model = "llama2"
	s.Ollama.Modes = []string{"openai"}

	_, err := NewStandardRegistry(s, newTestRepository())
	require.Error(t, err)
}

func TestNewStandardDispatcherUsesConfiguredDefault(t *testing.T) {
	s := settings.NewSettings()
	s.Chat.DefaultMode = types.ModeGemini
	d, err := NewStandardDispatcher(s, newTestRepository())
	require.NoError(t, err)

	mode, err := d.ResolveMode(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, types.ModeGemini, mode)
}

func TestNewStandardRegistryOllamaUsesClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	s := settings.NewSettings()
	s.Client.TimeoutSeconds = helpers.ToPtr(1)
	s.Ollama.Host = helpers.ToPtr(server.URL)
	s.Ollama.Model = "qwen2"
	s.Ollama.Modes = []string{"qwen"}

	registry, err := NewStandardRegistry(s, newTestRepository())
	require.NoError(t, err)
	client, err := registry.Lookup(types.ModeQwen)
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Chat(context.Background(), "hello", "", "")
	assert.ErrorIs(t, err, conversation.ErrTransport)
	assert.Less(t, time.Since(start), 2500*time.Millisecond)
}
