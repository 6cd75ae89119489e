package settings

import (
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/huandu/go-clone"
)

const (
	DefaultNamespace       = "chatgpt"
	DefaultMaxHistoryDepth = 1000
)

// ChatSettings holds the provider independent conversation settings.
type ChatSettings struct {
	// Namespace scopes every key grillo writes into the store.
	Namespace   string     `yaml:"namespace,omitempty"`
	DefaultMode types.Mode `yaml:"default_mode,omitempty"`
	// MaxHistoryDepth bounds the parent pointer walk.
	MaxHistoryDepth int `yaml:"max_history_depth,omitempty"`
}

func NewChatSettings() *ChatSettings {
	return &ChatSettings{
		Namespace:       DefaultNamespace,
		DefaultMode:     types.DefaultMode,
		MaxHistoryDepth: DefaultMaxHistoryDepth,
	}
}

func (s *ChatSettings) Clone() *ChatSettings {
	return clone.Clone(s).(*ChatSettings)
}
