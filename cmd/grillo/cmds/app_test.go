package cmds

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaultsToSQLiteInHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPENAI_API_KEY", "sk-env")

	s, err := LoadSettings(viper.New())
	require.NoError(t, err)

	assert.Equal(t, settings.StoreTypeSQLite, s.Store.Type)
	assert.Equal(t, filepath.Join(home, ".grillo", "grillo.db"), s.Store.Path)
	assert.DirExists(t, filepath.Join(home, ".grillo"))
	assert.Equal(t, "sk-env", s.OpenAI.APIKey)
}

func TestLoadSettingsFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chat:
  namespace: wechat
store:
  type: memory
openai:
  api_key: sk-file
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	v.Set("namespace", "slack")

	s, err := LoadSettings(v)
	require.NoError(t, err)

	assert.Equal(t, "slack", s.Chat.Namespace)
	assert.Equal(t, settings.StoreTypeMemory, s.Store.Type)
	assert.Equal(t, "sk-file", s.OpenAI.APIKey)
}

func TestPrintHistory(t *testing.T) {
	msg := &conversation.ChatMessage{
		MessageID: "m1",
		Role:      conversation.RoleUser,
		Content:   "hello",
		Response:  "hi there",
		Time:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	history := conversation.NewConversation("conv-1", msg)
	tree := conversation.NewConversationTree()
	tree.InsertMessage(msg)

	var buf bytes.Buffer
	require.NoError(t, printHistory(&buf, history, tree, "gpt-3.5-turbo"))

	out := buf.String()
	assert.Contains(t, out, "--- m1 (2024-01-02 03:04:05")
	assert.Contains(t, out, "> hello\nhi there")
	assert.NotContains(t, out, "alternatives")
	assert.NotContains(t, out, "continues with")
	assert.True(t, strings.HasPrefix(strings.Split(out, "\n\n")[1], "conv-1: 1 exchanges"))
}

func TestPrintHistoryMarksBranches(t *testing.T) {
	a := &conversation.ChatMessage{MessageID: "A", Role: conversation.RoleUser, Content: "a", Response: "ra"}
	b := &conversation.ChatMessage{MessageID: "B", ParentID: "A", Role: conversation.RoleUser, Content: "b", Response: "rb"}
	b2 := &conversation.ChatMessage{MessageID: "B2", ParentID: "A", Role: conversation.RoleUser, Content: "b2", Response: "rb2"}
	c := &conversation.ChatMessage{MessageID: "C", ParentID: "B", Role: conversation.RoleUser, Content: "c", Response: "rc"}

	tree := conversation.NewConversationTree()
	for _, m := range []*conversation.ChatMessage{a, b, b2, c} {
		require.True(t, tree.InsertMessage(m))
	}
	history := conversation.NewConversation("conv-1", a, b)

	var buf bytes.Buffer
	require.NoError(t, printHistory(&buf, history, tree, "gpt-3.5-turbo"))

	out := buf.String()
	assert.Contains(t, out, "--- B (")
	assert.Contains(t, out, "tokens, 1 alternatives)")
	assert.Contains(t, out, "continues with 1 more exchanges, up to C")
	assert.Contains(t, out, "conv-1: 2 exchanges")
}
