package ollama

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	ollama_settings "github.com/go-go-golems/grillo/pkg/steps/ai/settings/ollama"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/jmorganca/ollama/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const providerName = "ollama"

// Provider serves chat turns through the chat endpoint of an ollama daemon. One
// provider can be registered under several modes.
type Provider struct {
	*chat.Base
	Settings *ollama_settings.Settings
	Mode     types.Mode
	timeout  time.Duration
	client   *api.Client
}

var _ chat.Client = (*Provider)(nil)

// NewProvider creates a client for the configured host, or for OLLAMA_HOST when none
// is set. Every request is bounded by the client settings timeout.
func NewProvider(
	s *ollama_settings.Settings,
	clientSettings *settings.ClientSettings,
	mode types.Mode,
	repo *conversation.Repository,
) (*Provider, error) {
	if !s.IsConfigured() {
		return nil, errors.New("ollama provider requires a model")
	}
	host := ""
	if s.Host != nil {
		host = *s.Host
	}
	client, err := clientForHost(host)
	if err != nil {
		return nil, errors.Wrap(err, "could not create ollama client")
	}

	return &Provider{
		Base:     chat.NewBase(repo),
		Settings: s,
		Mode:     mode,
		timeout:  clientSettings.GetTimeout(),
		client:   client,
	}, nil
}

var hostEnvMu sync.Mutex

// clientForHost builds an api client for host. The ollama client only reads its
// address from OLLAMA_HOST at construction, so the variable is set for the duration of
// the call and restored afterwards.
func clientForHost(host string) (*api.Client, error) {
	if host == "" {
		return api.ClientFromEnvironment()
	}

	hostEnvMu.Lock()
	defer hostEnvMu.Unlock()

	prev, hadPrev := os.LookupEnv("OLLAMA_HOST")
	if err := os.Setenv("OLLAMA_HOST", host); err != nil {
		return nil, err
	}
	defer func() {
		if hadPrev {
			_ = os.Setenv("OLLAMA_HOST", prev)
		} else {
			_ = os.Unsetenv("OLLAMA_HOST")
		}
	}()

	return api.ClientFromEnvironment()
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

	msgs := turn.Messages()
	ollamaMessages := make([]api.Message, 0, len(msgs))
	for _, m := range msgs {
		ollamaMessages = append(ollamaMessages, api.Message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    p.Settings.Model,
		Messages: ollamaMessages,
		Stream:   &stream,
		Options:  p.Settings.Options(),
	}

	log.Debug().
		Str("model", req.Model).
		Str("mode", p.Mode.String()).
		Int("messages", len(ollamaMessages)).
		Msg("making ollama chat request")

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reply := ""
	var final api.ChatResponse
	err = p.client.Chat(reqCtx, req, func(resp api.ChatResponse) error {
		reply += resp.Message.Content
		if resp.Done {
			final = resp
		}
		return nil
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			err = errors.Wrapf(reqCtx.Err(), "ollama request exceeded %s", p.timeout)
		}
		log.Debug().Err(err).Str("mode", p.Mode.String()).Msg("ollama chat failed")
		return nil, &conversation.TransportError{Provider: providerName, Err: err}
	}

	return turn.Complete(ctx, p.Mode, reply, final)
}
