package llm

import "fmt"

const defaultTogetherBaseURL = "https://api.together.xyz/v1"

// togetherModels maps friendly names to Together model IDs.
var togetherModels = map[string]string{
	"mistral-7b":   "mistralai/Mistral-7B-Instruct-v0.2",
	"mixtral-8x7b": "mistralai/Mixtral-8x7B-Instruct-v0.1",
	"llama-3-70b":  "meta-llama/Llama-3.3-70B-Instruct-Turbo",
}

// TogetherProvider talks to Together.ai's OpenAI-compatible endpoint.
type TogetherProvider struct {
	*OpenAIProvider
}

// NewTogetherProvider creates a provider targeting the Together API.
func NewTogetherProvider(cfg TogetherConfig) (*TogetherProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("together API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTogetherBaseURL
	}

	return &TogetherProvider{
		OpenAIProvider: newOpenAICompatible(cfg.APIKey, baseURL, resolveModel(cfg.Model, togetherModels)),
	}, nil
}
