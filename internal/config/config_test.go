package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearKeys blanks the provider key variables that DiscoverConfig probes.
func clearKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TOGETHER_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"HOOPTRIAGE_LLM_PROVIDER", "HOOPTRIAGE_TOGETHER_API_KEY", "HOOPTRIAGE_SESSION_MAX_QUESTIONS",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hooptriage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearKeys(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "together", cfg.LLM.Provider)
	assert.Equal(t, 10, cfg.Session.MaxQuestions)
	assert.Equal(t, 30*time.Second, cfg.Session.CallTimeout)
	assert.Equal(t, 150, cfg.Prompt.MaxTokens)
	assert.Equal(t, BackendSQL, cfg.Store.Sessions)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	clearKeys(t)
	path := writeConfig(t, `
llm:
  provider: openai
  openai:
    api_key: sk-test
    model: gpt-4o
session:
  max_questions: 5
  call_timeout: 15s
prompt:
  temperature: 0.2
store:
  dsn: /var/lib/triage.db
data:
  roster: data/doctors.yaml
`)
	t.Setenv("HOOPTRIAGE_SESSION_MAX_QUESTIONS", "7")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--db", "/tmp/override.db"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.OpenAI.Model)
	assert.Equal(t, 7, cfg.Session.MaxQuestions, "env beats file")
	assert.Equal(t, 15*time.Second, cfg.Session.CallTimeout)
	assert.InDelta(t, 0.2, cfg.Prompt.Temperature, 1e-9)
	assert.Equal(t, "/tmp/override.db", cfg.Store.DSN, "flag beats file")
	assert.Equal(t, "data/doctors.yaml", cfg.Data.Roster)
	assert.Equal(t, "info", cfg.Log.Level, "unset flag keeps default")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DiscoversProviderKey(t *testing.T) {
	clearKeys(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, "gemini-flash", cfg.LLM.Gemini.Model)
}

func TestLoad_ExplicitProviderIsKept(t *testing.T) {
	clearKeys(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("HOOPTRIAGE_LLM_PROVIDER", "mock")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
}

func TestLoad_MissingFile(t *testing.T) {
	clearKeys(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.LLM.Provider = "mock"
		return c
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"missing api key":   func(c *Config) { c.LLM.Provider = "together" },
		"zero questions":    func(c *Config) { c.Session.MaxQuestions = 0 },
		"negative timeout":  func(c *Config) { c.Session.CallTimeout = -time.Second },
		"zero token budget": func(c *Config) { c.Prompt.MaxTokens = 0 },
		"hot temperature":   func(c *Config) { c.Prompt.Temperature = 3 },
		"unknown backend":   func(c *Config) { c.Store.Sessions = "redis" },
		"bad log level":     func(c *Config) { c.Log.Level = "chatty" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
