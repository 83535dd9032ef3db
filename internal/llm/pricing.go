package llm

// ModelCost holds per-million-token pricing for a model in USD.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	return nil
}

// modelCosts covers the default and friendly-named models of each provider.
// Anything else shows as unknown in `llm stats`.
var modelCosts = map[string]ModelCost{
	// Together
	"mistralai/Mistral-7B-Instruct-v0.2":      {0.2, 0.2},
	"mistralai/Mixtral-8x7B-Instruct-v0.1":    {0.6, 0.6},
	"meta-llama/Llama-3.3-70B-Instruct-Turbo": {0.88, 0.88},

	// OpenRouter
	"mistralai/mistral-7b-instruct": {0.028, 0.054},

	// OpenAI
	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},

	// Anthropic
	"claude-haiku-4-5-20251001": {1, 5},
	"claude-sonnet-4-20250514":  {3, 15},

	// Gemini
	"gemini-2.0-flash": {0.1, 0.4},
	"gemini-2.0-pro":   {1.25, 10},
	"gemini-2.5-flash": {0.3, 2.5},
}
