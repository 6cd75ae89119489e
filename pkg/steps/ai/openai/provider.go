package openai

import (
	"context"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	openai_settings "github.com/go-go-golems/grillo/pkg/steps/ai/settings/openai"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

// Provider serves chat turns through an OpenAI compatible chat completions endpoint.
type Provider struct {
	*chat.Base
	Settings *openai_settings.Settings
	Mode     types.Mode
	client   *go_openai.Client
}

var _ chat.Client = (*Provider)(nil)

func NewProvider(
	s *openai_settings.Settings,
	clientSettings *settings.ClientSettings,
	repo *conversation.Repository,
) *Provider {
	if s == nil {
		s = openai_settings.NewSettings()
	}
	return &Provider{
		Base:     chat.NewBase(repo),
		Settings: s,
		Mode:     types.ModeOpenAI,
		client:   MakeClient(s, clientSettings),
	}
}

func (p *Provider) Chat(
	ctx context.Context,
	prompt string,
	conversationID string,
	parentID string,
) (*conversation.ChatResponse, error) {
	turn, err := p.BeginTurn(ctx, p.Settings.GetSystem(), prompt, conversationID, parentID)
	if err != nil {
		return nil, err
	}
	defer turn.Close()

	msgs, err := p.fitMessages(turn)
	if err != nil {
		return nil, err
	}
	req := MakeCompletionRequest(p.Settings, msgs)

	resp, err := p.client.CreateChatCompletion(ctx, *req)
	if err != nil {
		err = classifyError(err)
		log.Debug().Err(err).Str("conversation_id", turn.ConversationID).Msg("openai chat completion failed")
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, &conversation.SchemaError{Reason: "openai response " + resp.ID, Err: conversation.ErrNoChoices}
	}
	reply := resp.Choices[0].Message.Content

	log.Debug().
		Str("id", resp.ID).
		Str("model", resp.Model).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("preview", preview(reply, 80)).
		Msg("openai chat completion received")

	return turn.Complete(ctx, p.Mode, reply, resp)
}

// fitMessages drops the oldest exchanges when a history token budget is configured.
func (p *Provider) fitMessages(turn *chat.Turn) ([]*conversation.ChatMessage, error) {
	if p.Settings.MaxHistoryTokens <= 0 || turn.History.Len() == 0 {
		return turn.Messages(), nil
	}

	codec, err := GetCodec(p.Settings.GetModel())
	if err != nil {
		return nil, err
	}
	start, err := historyStart(codec, turn.History.Len(), turn.MessagesFrom, p.Settings.MaxHistoryTokens)
	if err != nil {
		return nil, err
	}
	if start > 0 {
		log.Debug().
			Int("dropped_exchanges", start).
			Int("max_history_tokens", p.Settings.MaxHistoryTokens).
			Msg("trimmed history to fit token budget")
	}
	return turn.MessagesFrom(start), nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
