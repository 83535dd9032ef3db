package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all model provider configuration.
type Config struct {
	// Provider selects which backend to use.
	// Values: "together", "openai", "openrouter", "anthropic", "gemini", "mock"
	Provider string `mapstructure:"provider"`

	Together   TogetherConfig   `mapstructure:"together"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Retry      RetryConfig      `mapstructure:"retry"`
}

// TogetherConfig holds Together.ai configuration. The API is
// OpenAI-compatible.
type TogetherConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`    // Default: "mistral-7b"
	BaseURL string `mapstructure:"base_url"` // Default: "https://api.together.xyz/v1"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"` // Default: "gpt-4o-mini"
	BaseURL string `mapstructure:"base_url"`
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`    // Default: "mistralai/mistral-7b-instruct"
	BaseURL string `mapstructure:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"` // Default: "claude-haiku"
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"` // Default: "gemini-flash"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "together",
		Together: TogetherConfig{
			Model: "mistral-7b",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		OpenRouter: OpenRouterConfig{
			Model: "mistralai/mistral-7b-instruct",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// envOverrides lists the HOOPTRIAGE_* variables and the field each one sets.
func (c *Config) envOverrides() map[string]*string {
	return map[string]*string{
		"HOOPTRIAGE_LLM_PROVIDER":       &c.Provider,
		"HOOPTRIAGE_TOGETHER_API_KEY":   &c.Together.APIKey,
		"HOOPTRIAGE_TOGETHER_MODEL":     &c.Together.Model,
		"HOOPTRIAGE_TOGETHER_BASE_URL":  &c.Together.BaseURL,
		"HOOPTRIAGE_OPENAI_API_KEY":     &c.OpenAI.APIKey,
		"HOOPTRIAGE_OPENAI_MODEL":       &c.OpenAI.Model,
		"HOOPTRIAGE_OPENAI_BASE_URL":    &c.OpenAI.BaseURL,
		"HOOPTRIAGE_OPENROUTER_API_KEY": &c.OpenRouter.APIKey,
		"HOOPTRIAGE_OPENROUTER_MODEL":   &c.OpenRouter.Model,
		"HOOPTRIAGE_ANTHROPIC_API_KEY":  &c.Anthropic.APIKey,
		"HOOPTRIAGE_ANTHROPIC_MODEL":    &c.Anthropic.Model,
		"HOOPTRIAGE_GEMINI_API_KEY":     &c.Gemini.APIKey,
		"HOOPTRIAGE_GEMINI_MODEL":       &c.Gemini.Model,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides fields of c from any HOOPTRIAGE_* variables that are set.
func (c *Config) ApplyEnv() {
	for name, field := range c.envOverrides() {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
}

// DiscoverConfig probes the providers' standard API key env vars in
// priority order (Together → Gemini → OpenAI → Anthropic → OpenRouter)
// and returns a Config for the first one found. Returns (Config{}, false)
// if none is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("TOGETHER_API_KEY"); k != "" {
		cfg.Provider = "together"
		cfg.Together.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "together":
		if c.Together.APIKey == "" {
			return fmt.Errorf("HOOPTRIAGE_TOGETHER_API_KEY is required for the together provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("HOOPTRIAGE_OPENAI_API_KEY is required for the openai provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("HOOPTRIAGE_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("HOOPTRIAGE_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("HOOPTRIAGE_GEMINI_API_KEY is required for the gemini provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
