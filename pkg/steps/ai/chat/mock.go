package chat

import (
	"context"
	"sync"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
)

// MockReply is one scripted answer of a MockClient.
type MockReply struct {
	Message string
	Err     error
}

// MockClient replays scripted replies in round-robin order and records the requests it
// received. Failing replies persist nothing, like a failing provider.
type MockClient struct {
	*Base
	Mode types.Mode

	mu      sync.Mutex
	replies []MockReply
	index   int
	// Requests holds the messages of every Chat call, system preamble included.
	Requests [][]*conversation.ChatMessage
}

var _ Client = (*MockClient)(nil)

func NewMockClient(repo *conversation.Repository, mode types.Mode, replies ...MockReply) *MockClient {
	return &MockClient{
		Base:    NewBase(repo),
		Mode:    mode,
		replies: replies,
	}
}

func (m *MockClient) Chat(ctx context.Context, prompt string, conversationID string, parentID string) (*conversation.ChatResponse, error) {
	turn, err := m.BeginTurn(ctx, "", prompt, conversationID, parentID)
	if err != nil {
		return nil, err
	}
	defer turn.Close()

	m.mu.Lock()
	m.Requests = append(m.Requests, turn.Messages())
	reply := MockReply{}
	if len(m.replies) > 0 {
		reply = m.replies[m.index]
		m.index = (m.index + 1) % len(m.replies)
	}
	m.mu.Unlock()

	if reply.Err != nil {
		return nil, reply.Err
	}
	return turn.Complete(ctx, m.Mode, reply.Message, nil)
}

func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
