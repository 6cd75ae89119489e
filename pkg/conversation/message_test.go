package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleDecodingIgnoresCase(t *testing.T) {
	for raw, expected := range map[string]Role{
		`"User"`:      RoleUser,
		`"ASSISTANT"`: RoleAssistant,
		`"system"`:    RoleSystem,
		`"Function"`:  RoleFunction,
		`"narrator"`:  RoleSystem,
	} {
		var r Role
		require.NoError(t, json.Unmarshal([]byte(raw), &r))
		assert.Equal(t, expected, r, raw)
	}
}

func TestChatMessageJSONFieldNames(t *testing.T) {
	b, err := json.Marshal(&ChatMessage{Content: "hi", Role: RoleUser})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"hi","role":"user"}`, string(b))

	b, err = json.Marshal(&ChatMessage{Content: "hi", MessageID: "m", ParentID: "p", Role: RoleUser, Response: "yo"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"hi","message_id":"m","parent_id":"p","role":"user","response":"yo"}`, string(b))
}

func TestConversationLeafID(t *testing.T) {
	var nilConv *Conversation
	assert.Equal(t, "", nilConv.LeafID())
	assert.Equal(t, 0, nilConv.Len())

	c := NewConversation("c", &ChatMessage{MessageID: "a"}, &ChatMessage{MessageID: "b", ParentID: "a"})
	assert.Equal(t, "b", c.LeafID())
	assert.Equal(t, 2, c.Len())
}
