package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/helpers"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	ollama_settings "github.com/go-go-golems/grillo/pkg/steps/ai/settings/ollama"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/go-go-golems/grillo/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []map[string]string    `json:"messages"`
	Stream   *bool                  `json:"stream"`
	Options  map[string]interface{} `json:"options"`
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]chatRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body + "\n"))
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func newTestProvider(t *testing.T, host string) (*Provider, *conversation.Repository) {
	t.Helper()
	return newTestProviderWithClient(t, host, settings.NewClientSettings())
}

func newTestProviderWithClient(t *testing.T, host string, clientSettings *settings.ClientSettings) (*Provider, *conversation.Repository) {
	t.Helper()
	s := ollama_settings.NewSettings()
	s.Host = helpers.ToPtr(host)
	s.Model = "qwen2"
	s.System = helpers.ToPtr("be brief")
	s.Temperature = helpers.ToPtr(0.2)

	repo := conversation.NewRepository(store.NewNamespaced(store.NewInMemoryStore(), "chatgpt"), 0)
	p, err := NewProvider(s, clientSettings, types.ModeQwen, repo)
	require.NoError(t, err)
	return p, repo
}

func TestOllamaChat(t *testing.T) {
	server, requests := newTestServer(t, http.StatusOK,
		`{"model":"qwen2","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"ni hao"},"done":true}`)
	p, repo := newTestProvider(t, server.URL)
	ctx := context.Background()

	resp, err := p.Chat(ctx, "hello", "", "")
	require.NoError(t, err)
	assert.Equal(t, "ni hao", resp.Message)
	assert.Equal(t, types.ModeQwen, resp.Mode)
	assert.Equal(t, "", resp.ParentID)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "qwen2", req.Model)
	require.NotNil(t, req.Stream)
	assert.False(t, *req.Stream)
	assert.Equal(t, 0.2, req.Options["temperature"])
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0]["role"])
	assert.Equal(t, "hello", req.Messages[1]["content"])

	_, err = p.Chat(ctx, "again", resp.ConversationID, "")
	require.NoError(t, err)
	require.Len(t, *requests, 2)
	assert.Len(t, (*requests)[1].Messages, 4)

	ids, err := repo.MessageIDs(ctx, resp.ConversationID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestOllamaChatError(t *testing.T) {
	server, _ := newTestServer(t, http.StatusNotFound, `{"error":"model 'qwen2' not found"}`)
	p, repo := newTestProvider(t, server.URL)

	_, err := p.Chat(context.Background(), "hello", "conv", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, conversation.ErrTransport)

	ids, err := repo.MessageIDs(context.Background(), "conv")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNewProviderRequiresModel(t *testing.T) {
	repo := conversation.NewRepository(store.NewNamespaced(store.NewInMemoryStore(), "chatgpt"), 0)
	_, err := NewProvider(ollama_settings.NewSettings(), nil, types.ModeOllama, repo)
	require.Error(t, err)
}

func TestOllamaChatTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
			w.Header().Set("Content-Type", "application/x-ndjson")
			_, _ = w.Write([]byte(`{"model":"qwen2","message":{"role":"assistant","content":"late"},"done":true}` + "\n"))
		}
	}))
	t.Cleanup(server.Close)

	clientSettings := settings.NewClientSettings()
	clientSettings.TimeoutSeconds = helpers.ToPtr(1)
	p, repo := newTestProviderWithClient(t, server.URL, clientSettings)

	start := time.Now()
	_, err := p.Chat(context.Background(), "hello", "conv", "")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, conversation.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 2500*time.Millisecond)

	ids, err := repo.MessageIDs(context.Background(), "conv")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNewProviderLeavesOllamaHostUntouched(t *testing.T) {
	server, requests := newTestServer(t, http.StatusOK,
		`{"model":"qwen2","message":{"role":"assistant","content":"ok"},"done":true}`)
	t.Setenv("OLLAMA_HOST", "http://127.0.0.1:1")

	p, _ := newTestProvider(t, server.URL)
	assert.Equal(t, "http://127.0.0.1:1", os.Getenv("OLLAMA_HOST"))

	_, err := p.Chat(context.Background(), "hello", "", "")
	require.NoError(t, err)
	assert.Len(t, *requests, 1)
}

func TestNewProviderUsesEnvironmentWithoutHost(t *testing.T) {
	server, requests := newTestServer(t, http.StatusOK,
		`{"model":"qwen2","message":{"role":"assistant","content":"ok"},"done":true}`)
	t.Setenv("OLLAMA_HOST", server.URL)

	s := ollama_settings.NewSettings()
	s.Model = "qwen2"
	repo := conversation.NewRepository(store.NewNamespaced(store.NewInMemoryStore(), "chatgpt"), 0)
	p, err := NewProvider(s, nil, types.ModeOllama, repo)
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), "hello", "", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message)
	assert.Len(t, *requests, 1)
}
