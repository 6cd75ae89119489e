package settings

import (
	"io"
	"os"

	"github.com/go-go-golems/grillo/pkg/steps/ai/settings/ollama"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings/openai"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings is the root of the grillo configuration file.
type Settings struct {
	Chat   *ChatSettings    `yaml:"chat,omitempty"`
	Client *ClientSettings  `yaml:"client,omitempty"`
	Store  *StoreSettings   `yaml:"store,omitempty"`
	OpenAI *openai.Settings `yaml:"openai,omitempty"`
	Ollama *ollama.Settings `yaml:"ollama,omitempty"`
}

func NewSettings() *Settings {
	return &Settings{
		Chat:   NewChatSettings(),
		Client: NewClientSettings(),
		Store:  NewStoreSettings(),
		OpenAI: openai.NewSettings(),
		Ollama: ollama.NewSettings(),
	}
}

// NewSettingsFromYAML decodes a configuration on top of the defaults. Sections missing
// from the document keep their default values.
func NewSettingsFromYAML(r io.Reader) (*Settings, error) {
	ret := NewSettings()
	if err := yaml.NewDecoder(r).Decode(ret); err != nil {
		if errors.Is(err, io.EOF) {
			return ret, nil
		}
		return nil, errors.Wrap(err, "could not decode settings")
	}
	ret.fillDefaults()
	return ret, nil
}

func LoadSettingsFromFile(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	return NewSettingsFromYAML(f)
}

// fillDefaults restores sections that an explicit `null` in the YAML cleared and
// normalizes the default mode.
func (s *Settings) fillDefaults() {
	if s.Chat == nil {
		s.Chat = NewChatSettings()
	}
	if s.Chat.Namespace == "" {
		s.Chat.Namespace = DefaultNamespace
	}
	s.Chat.DefaultMode = types.ParseMode(string(s.Chat.DefaultMode))
	if s.Chat.MaxHistoryDepth <= 0 {
		s.Chat.MaxHistoryDepth = DefaultMaxHistoryDepth
	}
	if s.Client == nil {
		s.Client = NewClientSettings()
	}
	if s.Store == nil {
		s.Store = NewStoreSettings()
	}
	if s.Store.Type == "" {
		s.Store.Type = StoreTypeMemory
	}
	if s.OpenAI == nil {
		s.OpenAI = openai.NewSettings()
	}
	if s.Ollama == nil {
		s.Ollama = ollama.NewSettings()
	}
}

// UpdateFromViper applies the flag and environment overrides the CLI binds into viper.
// Only keys that are explicitly set override the file values.
func (s *Settings) UpdateFromViper(v *viper.Viper) {
	s.fillDefaults()

	if v.IsSet("namespace") && v.GetString("namespace") != "" {
		s.Chat.Namespace = v.GetString("namespace")
	}
	if v.IsSet("default-mode") && v.GetString("default-mode") != "" {
		s.Chat.DefaultMode = types.ParseMode(v.GetString("default-mode"))
	}
	if v.IsSet("timeout") && v.GetInt("timeout") > 0 {
		timeout := v.GetInt("timeout")
		s.Client.TimeoutSeconds = &timeout
	}
	if v.IsSet("user-agent") && v.GetString("user-agent") != "" {
		userAgent := v.GetString("user-agent")
		s.Client.UserAgent = &userAgent
	}
	if v.IsSet("store-type") && v.GetString("store-type") != "" {
		s.Store.Type = StoreType(v.GetString("store-type"))
	}
	if v.IsSet("store-path") && v.GetString("store-path") != "" {
		s.Store.Path = v.GetString("store-path")
	}
	if v.IsSet("redis-url") && v.GetString("redis-url") != "" {
		s.Store.RedisURL = v.GetString("redis-url")
	}
	if v.IsSet("openai-api-key") && v.GetString("openai-api-key") != "" {
		s.OpenAI.APIKey = v.GetString("openai-api-key")
	}
	if v.IsSet("openai-base-url") && v.GetString("openai-base-url") != "" {
		baseURL := v.GetString("openai-base-url")
		s.OpenAI.BaseURL = &baseURL
	}
	if v.IsSet("openai-model") && v.GetString("openai-model") != "" {
		model := v.GetString("openai-model")
		s.OpenAI.Model = &model
	}
}

func (s *Settings) Clone() *Settings {
	return &Settings{
		Chat:   s.Chat.Clone(),
		Client: s.Client.Clone(),
		Store:  s.Store.Clone(),
		OpenAI: s.OpenAI.Clone(),
		Ollama: s.Ollama.Clone(),
	}
}

// GetMetadata summarizes the non-secret settings for debug logging.
func (s *Settings) GetMetadata() map[string]interface{} {
	metadata := make(map[string]interface{})

	if s.Chat != nil {
		metadata["namespace"] = s.Chat.Namespace
		metadata["default-mode"] = string(s.Chat.DefaultMode)
		metadata["max-history-depth"] = s.Chat.MaxHistoryDepth
	}
	if s.Client != nil {
		metadata["timeout"] = s.Client.GetTimeout().String()
	}
	if s.Store != nil {
		metadata["store-type"] = string(s.Store.Type)
	}
	if s.OpenAI != nil {
		metadata["openai-base-url"] = s.OpenAI.GetBaseURL()
		metadata["openai-model"] = s.OpenAI.GetModel()
		if s.OpenAI.Temperature != nil {
			metadata["openai-temperature"] = *s.OpenAI.Temperature
		}
		if s.OpenAI.MaxTokens != nil {
			metadata["openai-max-tokens"] = *s.OpenAI.MaxTokens
		}
		metadata["openai-api-key-set"] = s.OpenAI.APIKey != ""
	}
	if s.Ollama.IsConfigured() {
		metadata["ollama-model"] = s.Ollama.Model
		metadata["ollama-modes"] = s.Ollama.Modes
	}

	return metadata
}
