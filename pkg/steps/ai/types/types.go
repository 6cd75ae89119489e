package types

import "strings"

// Mode names the backend that services a chat request.
type Mode string

const (
	ModeOpenAI  Mode = "openai"
	ModeCopilot Mode = "copilot"
	ModeGemini  Mode = "gemini"
	ModeClaude  Mode = "claude"
	ModeXH      Mode = "xh"
	ModeQwen    Mode = "qwen"
	ModeGLM4    Mode = "glm4"
	// served by a local ollama daemon
	ModeOllama Mode = "ollama"
)

const DefaultMode = ModeOpenAI

// KnownModes lists the mode tags grillo knows about. Knowing a mode does not mean a
// provider is registered for it.
func KnownModes() []Mode {
	return []Mode{
		ModeOpenAI,
		ModeCopilot,
		ModeGemini,
		ModeClaude,
		ModeXH,
		ModeQwen,
		ModeGLM4,
		ModeOllama,
	}
}

// ParseMode normalizes a mode string. Unknown values are kept as-is so that the
// dispatcher can reject them instead of silently falling back to openai.
func ParseMode(s string) Mode {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultMode
	}
	return Mode(s)
}

func (m Mode) String() string {
	return string(m)
}

func (m Mode) IsKnown() bool {
	for _, k := range KnownModes() {
		if k == m {
			return true
		}
	}
	return false
}
