package ai

import (
	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/ollama"
	"github.com/go-go-golems/grillo/pkg/steps/ai/openai"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// NewStandardRegistry registers the providers the settings configure: openai always,
// ollama under each of its modes when a model is set.
func NewStandardRegistry(s *settings.Settings, repo *conversation.Repository) (*chat.Registry, error) {
	settings_ := s.Clone()
	registry := chat.NewRegistry()

	registry.Register(types.ModeOpenAI, openai.NewProvider(settings_.OpenAI, settings_.Client, repo))

	if settings_.Ollama.IsConfigured() {
		modes := settings_.Ollama.Modes
		if len(modes) == 0 {
			modes = []string{string(types.ModeOllama)}
		}
		for _, m := range modes {
			mode := types.ParseMode(m)
			if mode == types.ModeOpenAI {
				return nil, errors.New("ollama cannot serve the openai mode")
			}
			provider, err := ollama.NewProvider(settings_.Ollama, settings_.Client, mode, repo)
			if err != nil {
				return nil, err
			}
			registry.Register(mode, provider)
		}
	}

	log.Debug().Interface("modes", registry.Modes()).Msg("registered chat providers")
	return registry, nil
}

// NewStandardDispatcher wires a repository over the namespace of the settings, the
// standard registry and a dispatcher.
func NewStandardDispatcher(s *settings.Settings, repo *conversation.Repository) (*chat.Dispatcher, error) {
	registry, err := NewStandardRegistry(s, repo)
	if err != nil {
		return nil, err
	}
	return chat.NewDispatcher(registry, repo, s.Chat.DefaultMode), nil
}
