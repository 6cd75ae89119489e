package openai

import (
	"github.com/huandu/go-clone"
)

const (
	DefaultBaseURL     = "https://api.openai.com"
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = 0.5
)

// Settings configures the openai chat provider. Optional knobs are pointers and are
// left out of the request when nil.
type Settings struct {
	BaseURL *string `yaml:"base_url,omitempty"`
	Model   *string `yaml:"model,omitempty"`
	APIKey  string  `yaml:"api_key,omitempty"`

	Temperature      *float64 `yaml:"temperature,omitempty"`
	MaxTokens        *int     `yaml:"max_tokens,omitempty"`
	TopP             *float64 `yaml:"top_p,omitempty"`
	FrequencyPenalty *float64 `yaml:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `yaml:"presence_penalty,omitempty"`

	// System is prepended to every request as a synthetic root message.
	System *string `yaml:"system,omitempty"`

	// MaxHistoryTokens drops the oldest exchanges until the request fits. 0 disables it.
	MaxHistoryTokens int `yaml:"max_history_tokens,omitempty"`
}

func NewSettings() *Settings {
	baseURL := DefaultBaseURL
	model := DefaultModel
	temperature := DefaultTemperature
	return &Settings{
		BaseURL:     &baseURL,
		Model:       &model,
		Temperature: &temperature,
	}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}

func (s *Settings) GetBaseURL() string {
	if s.BaseURL == nil || *s.BaseURL == "" {
		return DefaultBaseURL
	}
	return *s.BaseURL
}

func (s *Settings) GetModel() string {
	if s.Model == nil || *s.Model == "" {
		return DefaultModel
	}
	return *s.Model
}

func (s *Settings) GetSystem() string {
	if s.System == nil {
		return ""
	}
	return *s.System
}
