package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// openaiModels maps friendly names to OpenAI model IDs.
var openaiModels = map[string]string{
	"gpt-4o":      "gpt-4o",
	"gpt-4o-mini": "gpt-4o-mini",
}

// OpenAIProvider implements Provider using the OpenAI SDK. The same type
// serves every OpenAI-compatible endpoint (Together, OpenRouter).
type OpenAIProvider struct {
	client *openai.Client
	model  string

	// strictSchema asks for response_format json_schema; compatible
	// endpoints that only understand json_object leave it off.
	strictSchema bool
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	p := newOpenAICompatible(cfg.APIKey, cfg.BaseURL, resolveModel(cfg.Model, openaiModels))
	p.strictSchema = true
	return p, nil
}

// newOpenAICompatible builds a provider for any endpoint that speaks the
// chat completions protocol. The model is used as given.
func newOpenAICompatible(apiKey, baseURL, model string) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	format, err := p.responseFormat(req.Schema)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          p.model,
		Messages:       openAIMessages(req.System, req.Messages),
		MaxTokens:      req.MaxTokens,
		Temperature:    float32(req.Temperature),
		ResponseFormat: format,
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: errors.New("chat completion returned no choices")}
	}

	choice := resp.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)
	stop := mapOpenAIStopReason(choice.FinishReason)
	if req.Schema != nil {
		if stop == "max_tokens" {
			return nil, &ErrMaxTokensExceeded{Raw: text}
		}
		if err := ValidateJSON(req.Schema, []byte(text)); err != nil {
			return nil, err
		}
	}

	return &Response{
		Text:       text,
		Model:      resp.Model,
		StopReason: stop,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *OpenAIProvider) ModelID() string {
	return p.model
}

// responseFormat picks json_schema for OpenAI itself and plain json_object
// for compatible endpoints. A nil schema leaves the reply free-form.
func (p *OpenAIProvider) responseFormat(schema *Schema) (*openai.ChatCompletionResponseFormat, error) {
	switch {
	case schema == nil:
		return nil, nil
	case !p.strictSchema:
		return &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}, nil
	}
	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", schema.Name, err)
	}
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   schema.Name,
			Schema: json.RawMessage(def),
			Strict: true,
		},
	}, nil
}

// openAIMessages puts the system prompt first, then the merged dialogue.
func openAIMessages(system string, msgs []Message) []openai.ChatCompletionMessage {
	msgs = normalizeTurns(msgs)
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

func mapOpenAIStopReason(reason openai.FinishReason) string {
	switch reason {
	case openai.FinishReasonStop:
		return "end"
	case openai.FinishReasonLength:
		return "max_tokens"
	default:
		return "end"
	}
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &ErrRateLimit{Err: err}
		case apiErr.HTTPStatusCode >= 500:
			return &ErrProviderUnavailable{Err: err}
		case apiErr.HTTPStatusCode == http.StatusBadRequest:
			return &ErrRejected{Err: err}
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}
