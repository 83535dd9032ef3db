package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.0-pro",
}

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: resolveModel(cfg.Model, geminiModels)}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = geminiSchema(req.Schema.Definition)
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, geminiContents(req.Messages), config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("empty Gemini response")}
	}
	stop := geminiStopReason(result)

	if req.Schema != nil {
		if stop == "max_tokens" {
			return nil, &ErrMaxTokensExceeded{Raw: text}
		}
		if err := ValidateJSON(req.Schema, []byte(text)); err != nil {
			return nil, err
		}
	}

	resp := &Response{Text: text, Model: p.model, StopReason: stop}
	if u := result.UsageMetadata; u != nil {
		resp.Usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return resp, nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func geminiContents(msgs []Message) []*genai.Content {
	msgs = normalizeTurns(msgs)
	out := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		out[i] = genai.NewContentFromText(m.Content, role)
	}
	return out
}

// geminiSchema converts a JSON Schema definition to the OpenAPI subset
// Gemini accepts. Type unions become AnyOf, with "null" folded into
// Nullable, and const becomes a one-value enum.
func geminiSchema(def map[string]any) *genai.Schema {
	s := &genai.Schema{}
	if desc, ok := def["description"].(string); ok {
		s.Description = desc
	}

	switch t := def["type"].(type) {
	case string:
		s.Type = geminiType(t)
	case []any:
		var types []genai.Type
		for _, v := range t {
			name, _ := v.(string)
			if name == "null" {
				s.Nullable = genai.Ptr(true)
				continue
			}
			types = append(types, geminiType(name))
		}
		if len(types) == 1 {
			s.Type = types[0]
		} else {
			for _, typ := range types {
				alt := geminiSchema(withoutType(def))
				alt.Type = typ
				if typ != genai.TypeArray {
					alt.Items = nil
				}
				s.AnyOf = append(s.AnyOf, alt)
			}
			return s
		}
	}

	if c, ok := def["const"].(string); ok {
		s.Type = genai.TypeString
		s.Enum = []string{c}
	}
	for _, e := range anySlice(def["enum"]) {
		if str, ok := e.(string); ok {
			s.Enum = append(s.Enum, str)
		}
	}
	if n, ok := schemaInt(def["minItems"]); ok {
		s.MinItems = genai.Ptr(n)
	}
	if n, ok := schemaInt(def["minLength"]); ok {
		s.MinLength = genai.Ptr(n)
	}

	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, v := range props {
			if pd, ok := v.(map[string]any); ok {
				s.Properties[name] = geminiSchema(pd)
			}
		}
	}
	for _, r := range anySlice(def["required"]) {
		if name, ok := r.(string); ok {
			s.Required = append(s.Required, name)
		}
	}
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}
	return s
}

func withoutType(def map[string]any) map[string]any {
	out := make(map[string]any, len(def))
	for k, v := range def {
		if k != "type" {
			out[k] = v
		}
	}
	return out
}

func anySlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func schemaInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func geminiType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

func geminiStopReason(result *genai.GenerateContentResponse) string {
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		return "max_tokens"
	}
	return "end"
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	var ptr *genai.APIError
	switch {
	case errors.As(err, &ptr):
		apiErr = *ptr
	case !errors.As(err, &apiErr):
		return &ErrProviderUnavailable{Err: err}
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err, RetryAfter: geminiRetryDelay(apiErr.Details)}
	case apiErr.Code == http.StatusBadRequest:
		return &ErrRejected{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// geminiRetryDelay reads the google.rpc.RetryInfo detail of a quota error.
func geminiRetryDelay(details []map[string]any) time.Duration {
	for _, d := range details {
		typ, _ := d["@type"].(string)
		if !strings.HasSuffix(typ, "google.rpc.RetryInfo") {
			continue
		}
		if s, ok := d["retryDelay"].(string); ok {
			if wait, err := time.ParseDuration(s); err == nil {
				return wait
			}
		}
	}
	return 0
}
