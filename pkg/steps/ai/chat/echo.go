package chat

import (
	"context"
	"fmt"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
)

// EchoClient answers every prompt with the prompt itself, prefixed by the number of
// messages it was sent. It goes through the same history and persistence path as the
// network providers, which makes it useful offline and in tests.
type EchoClient struct {
	*Base
	Mode   types.Mode
	System string
}

var _ Client = (*EchoClient)(nil)

func NewEchoClient(repo *conversation.Repository, mode types.Mode) *EchoClient {
	return &EchoClient{
		Base: NewBase(repo),
		Mode: mode,
	}
}

func (e *EchoClient) Chat(ctx context.Context, prompt string, conversationID string, parentID string) (*conversation.ChatResponse, error) {
	turn, err := e.BeginTurn(ctx, e.System, prompt, conversationID, parentID)
	if err != nil {
		return nil, err
	}
	defer turn.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msgs := turn.Messages()
	return turn.Complete(ctx, e.Mode, fmt.Sprintf("[%d] %s", len(msgs), prompt), msgs)
}
