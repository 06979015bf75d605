package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PLACEMENT_LLM_PROVIDER", "PLACEMENT_LLM_FALLBACK",
		"PLACEMENT_GEMINI_API_KEY", "GEMINI_API_KEY", "PLACEMENT_GEMINI_MODEL", "GEMINI_MODEL",
		"PLACEMENT_OPENROUTER_API_KEY", "OPENROUTER_API_KEY", "PLACEMENT_OPENROUTER_MODEL", "OPENROUTER_MODEL",
		"PLACEMENT_OPENROUTER_BASE_URL", "OPENROUTER_BASE_URL",
		"PLACEMENT_OPENAI_API_KEY", "OPENAI_API_KEY", "PLACEMENT_OPENAI_MODEL", "PLACEMENT_OPENAI_BASE_URL",
		"PLACEMENT_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY", "PLACEMENT_ANTHROPIC_MODEL",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	clearLLMEnv(t)
	cfg := ConfigFromEnv()
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Empty(t, cfg.Fallback)
	assert.Equal(t, "gemini-flash", cfg.Gemini.Model)
	assert.Error(t, cfg.Validate())
}

func TestConfigFromEnv_GeminiWithOpenRouterFallback(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash-lite")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg := ConfigFromEnv()
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Gemini.Model)
	assert.Equal(t, "openrouter", cfg.Fallback)
	require.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_PrefixedWins(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("GEMINI_API_KEY", "plain")
	t.Setenv("PLACEMENT_GEMINI_API_KEY", "prefixed")
	assert.Equal(t, "prefixed", ConfigFromEnv().Gemini.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"mock needs nothing", func(c *Config) { c.Provider = "mock" }, false},
		{"unknown provider", func(c *Config) { c.Provider = "bard" }, true},
		{"fallback same as primary", func(c *Config) {
			c.Provider, c.Fallback = "mock", "mock"
		}, true},
		{"fallback missing key", func(c *Config) {
			c.Provider, c.Fallback = "mock", "openrouter"
		}, true},
		{"anthropic with key", func(c *Config) {
			c.Provider, c.Anthropic.APIKey = "anthropic", "k"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
