package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/hooptriage/internal/store"
	"github.com/charmbracelet/log"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
// repo may be nil, in which case calls are only logged, not recorded.
func NewProvider(ctx context.Context, cfg Config, repo store.EventRepo, logger *log.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "together":
		base, err = NewTogetherProvider(cfg.Together)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base
	logged := WithLogging(base, cfg.Provider, repo, logger)
	return WithRetry(logged, cfg.Retry, logger), nil
}
