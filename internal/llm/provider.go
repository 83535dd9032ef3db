package llm

import (
	"context"
	"strings"
)

// Provider is a chat-completion backend.
type Provider interface {
	// Generate sends the conversation to the model and returns its reply.
	// When req.Schema is set the provider asks for structured output and
	// validates the reply against it; otherwise Text is the model's free
	// text, which may or may not contain JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the instruction that frames the whole conversation.
	// It is always sent first, ahead of Messages.
	System string

	// Messages is the conversation history, oldest first. Only user and
	// assistant roles are allowed here.
	Messages []Message

	// Schema, when set, requests native structured output.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema and keys the compiled-schema cache.
	// Kebab-case, e.g. "interview-question".
	Name string

	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Text is the raw reply content.
	Text string

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// normalizeTurns prepares history for APIs that require strictly
// alternating roles: empty messages are dropped and consecutive messages
// from the same role are joined.
func normalizeTurns(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == m.Role {
			out[n-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, m)
	}
	return out
}
