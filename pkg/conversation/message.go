package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
	RoleFunction  Role = "function"
)

// ParseRole accepts any letter case. Unknown roles are treated as system messages.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSystem, RoleAssistant, RoleUser, RoleFunction:
		return r
	default:
		return RoleSystem
	}
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

func (r Role) String() string {
	return string(r)
}

// ChatMessage is the persisted record of one exchange. Content is the prompt of the
// user, Response the reply the provider produced for it.
type ChatMessage struct {
	Content   string    `json:"message" yaml:"message"`
	MessageID string    `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	ParentID  string    `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Role      Role      `json:"role" yaml:"role"`
	Response  string    `json:"response,omitempty" yaml:"response,omitempty"`
	Time      time.Time `json:"time,omitzero" yaml:"time,omitempty"`
}

func NewChatMessage(role Role, content string) *ChatMessage {
	return &ChatMessage{
		Role:    role,
		Content: content,
	}
}

// IsRoot reports whether the message starts a thread.
func (m *ChatMessage) IsRoot() bool {
	return m.ParentID == ""
}

func (m *ChatMessage) String() string {
	if m.Response == "" {
		return fmt.Sprintf("[%s]: %s", m.Role, m.Content)
	}
	return fmt.Sprintf("[%s]: %s\n[%s]: %s", m.Role, m.Content, RoleAssistant, m.Response)
}

// Conversation is a reconstructed thread, oldest message first.
type Conversation struct {
	ConversationID string         `json:"conversation_id" yaml:"conversation_id"`
	Messages       []*ChatMessage `json:"messages" yaml:"messages"`
}

func NewConversation(conversationID string, msgs ...*ChatMessage) *Conversation {
	return &Conversation{
		ConversationID: conversationID,
		Messages:       msgs,
	}
}

// LeafID returns the id of the newest message, or "" for an empty thread.
func (c *Conversation) LeafID() string {
	if c == nil || len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1].MessageID
}

func (c *Conversation) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Messages)
}

// ChatResponse is the provider independent result of a turn.
type ChatResponse struct {
	Message        string     `json:"message" yaml:"message"`
	Mode           types.Mode `json:"mode" yaml:"mode"`
	MessageID      string     `json:"message_id" yaml:"message_id"`
	ConversationID string     `json:"conversation_id" yaml:"conversation_id"`
	ParentID       string     `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	// Raw is the provider payload, kept for debugging.
	Raw interface{} `json:"-" yaml:"-"`
}

// UserProgress remembers where a sender is in their conversation.
type UserProgress struct {
	ConversationID string     `json:"conversation_id,omitempty"`
	ParentID       string     `json:"parent_id,omitempty"`
	Mode           types.Mode `json:"mode,omitempty"`
}
