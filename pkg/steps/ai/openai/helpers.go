package openai

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	openai_settings "github.com/go-go-golems/grillo/pkg/steps/ai/settings/openai"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
	"github.com/tiktoken-go/tokenizer"
)

const providerName = "openai"

// MakeClient builds a go-openai client talking to {base_url}/v1.
func MakeClient(s *openai_settings.Settings, clientSettings *settings.ClientSettings) *go_openai.Client {
	config := go_openai.DefaultConfig(s.APIKey)
	config.BaseURL = strings.TrimRight(s.GetBaseURL(), "/") + "/v1"
	config.HTTPClient = clientSettings.MakeHTTPClient()
	return go_openai.NewClientWithConfig(config)
}

func toOpenAIMessages(msgs []*conversation.ChatMessage) []go_openai.ChatCompletionMessage {
	ret := make([]go_openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		ret = append(ret, go_openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return ret
}

// MakeCompletionRequest fills a chat completion request from the settings. Unset
// optional values stay at their zero value and are left out of the JSON body.
func MakeCompletionRequest(s *openai_settings.Settings, msgs []*conversation.ChatMessage) *go_openai.ChatCompletionRequest {
	req := &go_openai.ChatCompletionRequest{
		Model:    s.GetModel(),
		Messages: toOpenAIMessages(msgs),
	}
	if s.Temperature != nil {
		req.Temperature = float32(*s.Temperature)
	}
	if s.MaxTokens != nil {
		req.MaxTokens = *s.MaxTokens
	}
	if s.TopP != nil {
		req.TopP = float32(*s.TopP)
	}
	if s.FrequencyPenalty != nil {
		req.FrequencyPenalty = float32(*s.FrequencyPenalty)
	}
	if s.PresencePenalty != nil {
		req.PresencePenalty = float32(*s.PresencePenalty)
	}

	log.Debug().
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Float32("temperature", req.Temperature).
		Int("max_tokens", req.MaxTokens).
		Msg("making openai chat completion request")

	return req
}

// GetCodec returns the tokenizer of model, or cl100k_base for models it does not know.
func GetCodec(model string) (tokenizer.Codec, error) {
	if c, err := tokenizer.ForModel(tokenizer.Model(model)); err == nil {
		return c, nil
	}
	return tokenizer.Get(tokenizer.Cl100kBase)
}

// CountTokens approximates the prompt size of msgs. Every message costs its content
// plus a fixed overhead of 4 tokens for the role framing.
func CountTokens(codec tokenizer.Codec, msgs []*conversation.ChatMessage) (int, error) {
	total := 0
	for _, m := range msgs {
		ids, _, err := codec.Encode(m.Content)
		if err != nil {
			return 0, err
		}
		total += len(ids) + 4
	}
	return total, nil
}

// historyStart returns the index of the oldest exchange to keep so that the request
// stays under maxTokens. The system preamble and the prompt are always kept, so the
// result may still exceed the budget when they alone do.
func historyStart(
	codec tokenizer.Codec,
	historyLen int,
	messagesFrom func(int) []*conversation.ChatMessage,
	maxTokens int,
) (int, error) {
	for start := 0; start < historyLen; start++ {
		n, err := CountTokens(codec, messagesFrom(start))
		if err != nil {
			return 0, err
		}
		if n <= maxTokens {
			return start, nil
		}
	}
	return historyLen, nil
}

// classifyError maps go-openai and transport failures onto the conversation error
// taxonomy.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *go_openai.APIError
	if errors.As(err, &apiErr) {
		return &conversation.TransportError{Provider: providerName, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *go_openai.RequestError
	if errors.As(err, &reqErr) {
		return &conversation.TransportError{Provider: providerName, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	// failures of the http round trip come wrapped in *url.Error
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &conversation.TransportError{Provider: providerName, Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &conversation.SchemaError{Reason: "decode openai response", Err: err}
	}

	return &conversation.TransportError{Provider: providerName, Err: err}
}
