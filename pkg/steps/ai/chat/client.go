package chat

import (
	"context"
	"time"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Client is implemented by every chat backend.
//
// Chat sends prompt as the next message of the thread. An empty conversationID starts a
// new thread, an empty parentID continues from the newest message of the thread.
type Client interface {
	Chat(ctx context.Context, prompt string, conversationID string, parentID string) (*conversation.ChatResponse, error)
	GetHistory(ctx context.Context, conversationID string, parentID string) (*conversation.Conversation, error)
	GetConversation(ctx context.Context, conversationID string, parentID string) (*conversation.Conversation, error)
	GetMessage(ctx context.Context, messageID string) (*conversation.ChatMessage, error)
	SetMessage(ctx context.Context, conversationID string, msg *conversation.ChatMessage) error
}

// Base implements the history side of Client on top of a repository. Providers embed
// it and only implement Chat.
type Base struct {
	Repo *conversation.Repository
}

func NewBase(repo *conversation.Repository) *Base {
	return &Base{Repo: repo}
}

func (b *Base) GetHistory(ctx context.Context, conversationID string, parentID string) (*conversation.Conversation, error) {
	return b.Repo.GetHistory(ctx, conversationID, parentID)
}

func (b *Base) GetConversation(ctx context.Context, conversationID string, parentID string) (*conversation.Conversation, error) {
	return b.GetHistory(ctx, conversationID, parentID)
}

func (b *Base) GetMessage(ctx context.Context, messageID string) (*conversation.ChatMessage, error) {
	return b.Repo.GetMessage(ctx, messageID)
}

func (b *Base) SetMessage(ctx context.Context, conversationID string, msg *conversation.ChatMessage) error {
	return b.Repo.SetMessage(ctx, conversationID, msg)
}

// Turn is one request/response cycle on a thread. It holds the conversation lock from
// BeginTurn until Close, and persists nothing unless Complete is reached.
type Turn struct {
	base *Base

	ConversationID string
	// ParentID is the newest message of the thread the prompt answers, "" on a new thread.
	ParentID string
	System   string
	Prompt   string
	History  *conversation.Conversation

	unlock func()
}

// BeginTurn locks the thread and reconstructs its history. History errors are returned
// as is, a turn never proceeds on a partially loaded thread.
func (b *Base) BeginTurn(
	ctx context.Context,
	system string,
	prompt string,
	conversationID string,
	parentID string,
) (*Turn, error) {
	t := &Turn{
		base:   b,
		System: system,
		Prompt: prompt,
	}

	if conversationID == "" {
		if parentID != "" {
			log.Warn().Str("parent_id", parentID).Msg("ignoring parent id without conversation id")
		}
		t.ConversationID = uuid.NewString()
		t.unlock = b.Repo.LockConversation(t.ConversationID)
		t.History = conversation.NewConversation(t.ConversationID)
		return t, nil
	}

	t.ConversationID = conversationID
	t.unlock = b.Repo.LockConversation(conversationID)

	history, err := b.Repo.GetHistory(ctx, conversationID, parentID)
	if err != nil {
		t.Close()
		return nil, err
	}
	t.History = history
	t.ParentID = history.LeafID()

	log.Debug().
		Str("conversation_id", conversationID).
		Str("parent_id", t.ParentID).
		Int("history", history.Len()).
		Msg("loaded conversation history")

	return t, nil
}

// Messages returns the request messages: the system preamble, every stored exchange as
// a user/assistant pair, then the new prompt.
func (t *Turn) Messages() []*conversation.ChatMessage {
	return t.MessagesFrom(0)
}

// MessagesFrom is Messages with the history exchanges before start left out.
func (t *Turn) MessagesFrom(start int) []*conversation.ChatMessage {
	var ret []*conversation.ChatMessage
	if t.System != "" {
		ret = append(ret, conversation.NewChatMessage(conversation.RoleSystem, t.System))
	}
	if t.History != nil && start < len(t.History.Messages) {
		if start < 0 {
			start = 0
		}
		for _, m := range t.History.Messages[start:] {
			role := m.Role
			if role == "" {
				role = conversation.RoleUser
			}
			ret = append(ret, conversation.NewChatMessage(role, m.Content))
			if m.Response != "" {
				ret = append(ret, conversation.NewChatMessage(conversation.RoleAssistant, m.Response))
			}
		}
	}
	ret = append(ret, conversation.NewChatMessage(conversation.RoleUser, t.Prompt))
	return ret
}

// Complete persists the exchange and returns the normalized response.
func (t *Turn) Complete(ctx context.Context, mode types.Mode, reply string, raw interface{}) (*conversation.ChatResponse, error) {
	msg := &conversation.ChatMessage{
		Content:   t.Prompt,
		MessageID: uuid.NewString(),
		ParentID:  t.ParentID,
		Role:      conversation.RoleUser,
		Response:  reply,
		Time:      time.Now().UTC(),
	}
	if err := t.base.SetMessage(ctx, t.ConversationID, msg); err != nil {
		return nil, err
	}

	return &conversation.ChatResponse{
		Message:        reply,
		Mode:           mode,
		MessageID:      msg.MessageID,
		ConversationID: t.ConversationID,
		ParentID:       t.ParentID,
		Raw:            raw,
	}, nil
}

// Close releases the conversation lock. It is safe to call more than once.
func (t *Turn) Close() {
	if t.unlock != nil {
		t.unlock()
		t.unlock = nil
	}
}
