package ollama

import (
	"github.com/huandu/go-clone"
)

type Settings struct {
	// Host is exported as OLLAMA_HOST for the client, e.g. http://127.0.0.1:11434.
	Host  *string `yaml:"host,omitempty"`
	Model string  `yaml:"model,omitempty"`
	// Modes lists the mode tags this backend serves, e.g. qwen and glm4.
	Modes []string `yaml:"modes,omitempty"`

	System      *string  `yaml:"system,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	Seed        *int     `yaml:"seed,omitempty"`
	NumCtx      *int     `yaml:"num_ctx,omitempty"`
	TopK        *int     `yaml:"top_k,omitempty"`
	TopP        *float64 `yaml:"top_p,omitempty"`
}

func NewSettings() *Settings {
	return &Settings{}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}

// IsConfigured reports whether a model was set; without one the provider is not
// registered.
func (s *Settings) IsConfigured() bool {
	return s != nil && s.Model != ""
}

// Options returns the model options in the shape of the ollama api "options" map.
func (s *Settings) Options() map[string]interface{} {
	ret := map[string]interface{}{}
	if s.Temperature != nil {
		ret["temperature"] = *s.Temperature
	}
	if s.Seed != nil {
		ret["seed"] = *s.Seed
	}
	if s.NumCtx != nil {
		ret["num_ctx"] = *s.NumCtx
	}
	if s.TopK != nil {
		ret["top_k"] = *s.TopK
	}
	if s.TopP != nil {
		ret["top_p"] = *s.TopP
	}
	return ret
}

func (s *Settings) GetSystem() string {
	if s.System == nil {
		return ""
	}
	return *s.System
}
