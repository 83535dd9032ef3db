// Package config assembles the application configuration from defaults, an
// optional YAML file, .env files, HOOPTRIAGE_* environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/abhisek/hooptriage/internal/llm"
	"github.com/abhisek/hooptriage/internal/logging"
	"github.com/abhisek/hooptriage/internal/prompt"
	"github.com/abhisek/hooptriage/internal/session"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "HOOPTRIAGE"

// Session backends.
const (
	BackendSQL    = "sql"
	BackendMemory = "memory"
)

// Config is the full application configuration.
type Config struct {
	LLM     llm.Config     `mapstructure:"llm"`
	Prompt  prompt.Config  `mapstructure:"prompt"`
	Session session.Config `mapstructure:"session"`
	Store   StoreConfig    `mapstructure:"store"`
	Data    DataConfig     `mapstructure:"data"`
	Log     LogConfig      `mapstructure:"log"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
}

// StoreConfig selects where sessions and events live.
type StoreConfig struct {
	// DSN is a SQLite path or a postgres:// URL. Empty means the default
	// data directory.
	DSN string `mapstructure:"dsn"`

	// Sessions is "sql" or "memory".
	Sessions string `mapstructure:"sessions"`
}

// DataConfig points at the reference data files. Empty paths use the
// built-in taxonomy and an empty roster.
type DataConfig struct {
	Roster   string `mapstructure:"roster"`
	Taxonomy string `mapstructure:"taxonomy"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// MetricsConfig enables the prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		LLM:     llm.DefaultConfig(),
		Prompt:  prompt.DefaultConfig(),
		Session: session.DefaultConfig(),
		Store:   StoreConfig{Sessions: BackendSQL},
		Log:     LogConfig{Level: "info"},
	}
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"db":        "store.dsn",
	"log-level": "log.level",
	"log-file":  "log.file",
	"roster":    "data.roster",
	"taxonomy":  "data.taxonomy",
}

// Load reads the configuration. path may be empty, in which case
// ./hooptriage.yaml is used when present. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("hooptriage")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	// The provider layer's own variables still apply. Without an explicit
	// provider, the first standard API key variable found picks one.
	cfg.LLM.ApplyEnv()
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = Default().LLM.Provider
		if found, ok := llm.DiscoverConfig(); ok {
			adoptKey(&cfg.LLM, found)
		}
	}
	return cfg, nil
}

// loadDotEnv reads a .env file without overriding variables that are
// already set. A missing file is fine.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.For("config").Warn("ignoring unreadable .env", "path", path, "error", err)
	}
}

// adoptKey switches to a provider discovered from its standard API key
// variable, keeping any models configured for it.
func adoptKey(dst *llm.Config, found llm.Config) {
	dst.Provider = found.Provider
	switch found.Provider {
	case "together":
		dst.Together.APIKey = found.Together.APIKey
	case "gemini":
		dst.Gemini.APIKey = found.Gemini.APIKey
	case "openai":
		dst.OpenAI.APIKey = found.OpenAI.APIKey
	case "anthropic":
		dst.Anthropic.APIKey = found.Anthropic.APIKey
	case "openrouter":
		dst.OpenRouter.APIKey = found.OpenRouter.APIKey
	}
}

func setDefaults(v *viper.Viper, d Config) {
	defaults := map[string]any{
		"llm.provider":                "",
		"llm.together.api_key":        d.LLM.Together.APIKey,
		"llm.together.model":          d.LLM.Together.Model,
		"llm.together.base_url":       d.LLM.Together.BaseURL,
		"llm.openai.api_key":          d.LLM.OpenAI.APIKey,
		"llm.openai.model":            d.LLM.OpenAI.Model,
		"llm.openai.base_url":         d.LLM.OpenAI.BaseURL,
		"llm.openrouter.api_key":      d.LLM.OpenRouter.APIKey,
		"llm.openrouter.model":        d.LLM.OpenRouter.Model,
		"llm.openrouter.base_url":     d.LLM.OpenRouter.BaseURL,
		"llm.anthropic.api_key":       d.LLM.Anthropic.APIKey,
		"llm.anthropic.model":         d.LLM.Anthropic.Model,
		"llm.gemini.api_key":          d.LLM.Gemini.APIKey,
		"llm.gemini.model":            d.LLM.Gemini.Model,
		"llm.retry.max_attempts":      d.LLM.Retry.MaxAttempts,
		"llm.retry.initial_wait":      d.LLM.Retry.InitialWait,
		"llm.retry.max_wait":          d.LLM.Retry.MaxWait,
		"llm.retry.multiplier":        d.LLM.Retry.Multiplier,
		"prompt.max_tokens":           d.Prompt.MaxTokens,
		"prompt.diagnosis_max_tokens": d.Prompt.DiagnosisMaxTokens,
		"prompt.batch_max_tokens":     d.Prompt.BatchMaxTokens,
		"prompt.temperature":          d.Prompt.Temperature,
		"prompt.context_questions":    d.Prompt.ContextQuestions,
		"session.max_questions":       d.Session.MaxQuestions,
		"session.call_timeout":        d.Session.CallTimeout,
		"session.ttl":                 d.Session.TTL,
		"session.duplicate_window":    d.Session.DuplicateWindow,
		"store.dsn":                   d.Store.DSN,
		"store.sessions":              d.Store.Sessions,
		"data.roster":                 d.Data.Roster,
		"data.taxonomy":               d.Data.Taxonomy,
		"log.level":                   d.Log.Level,
		"log.file":                    d.Log.File,
		"metrics.addr":                d.Metrics.Addr,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if c.Prompt.MaxTokens < 1 || c.Prompt.DiagnosisMaxTokens < 1 || c.Prompt.BatchMaxTokens < 1 {
		return fmt.Errorf("prompt: token budgets must be positive")
	}
	if c.Prompt.Temperature < 0 || c.Prompt.Temperature > 2 {
		return fmt.Errorf("prompt: temperature %v outside 0-2", c.Prompt.Temperature)
	}
	if c.Prompt.ContextQuestions < 0 {
		return fmt.Errorf("prompt: context_questions must not be negative")
	}
	switch c.Store.Sessions {
	case BackendSQL, BackendMemory:
	default:
		return fmt.Errorf("store: unknown session backend %q", c.Store.Sessions)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}
