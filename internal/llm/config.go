package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all content provider configuration.
type Config struct {
	// Provider selects the primary provider.
	// Values: "gemini", "openrouter", "openai", "anthropic", "mock"
	Provider string `yaml:"provider"`

	// Fallback optionally names a second provider that serves requests
	// the primary failed. Empty disables failover.
	Fallback string `yaml:"fallback"`

	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Retry      RetryConfig      `yaml:"retry"`

	// Timeout bounds a single logical request including retries and
	// failover. Default: 60s.
	Timeout time.Duration `yaml:"timeout"`
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: "google/gemini-2.5-flash"
	BaseURL string `yaml:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: "gpt-4o-mini"
	BaseURL string `yaml:"base_url"` // Optional, for compatible APIs.
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "claude-haiku"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.5-flash",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from defaults and environment variables.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	return cfg
}

// ApplyEnv overlays environment variables onto cfg. Unset variables leave
// the existing values alone, so it can run after a config file is loaded.
func ApplyEnv(cfg *Config) {
	setIf := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	setIf(&cfg.Provider, "PLACEMENT_LLM_PROVIDER")
	setIf(&cfg.Fallback, "PLACEMENT_LLM_FALLBACK")

	setIf(&cfg.Gemini.APIKey, "PLACEMENT_GEMINI_API_KEY", "GEMINI_API_KEY")
	setIf(&cfg.Gemini.Model, "PLACEMENT_GEMINI_MODEL", "GEMINI_MODEL")

	setIf(&cfg.OpenRouter.APIKey, "PLACEMENT_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	setIf(&cfg.OpenRouter.Model, "PLACEMENT_OPENROUTER_MODEL", "OPENROUTER_MODEL")
	setIf(&cfg.OpenRouter.BaseURL, "PLACEMENT_OPENROUTER_BASE_URL", "OPENROUTER_BASE_URL")

	setIf(&cfg.OpenAI.APIKey, "PLACEMENT_OPENAI_API_KEY", "OPENAI_API_KEY")
	setIf(&cfg.OpenAI.Model, "PLACEMENT_OPENAI_MODEL")
	setIf(&cfg.OpenAI.BaseURL, "PLACEMENT_OPENAI_BASE_URL")

	setIf(&cfg.Anthropic.APIKey, "PLACEMENT_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	setIf(&cfg.Anthropic.Model, "PLACEMENT_ANTHROPIC_MODEL")

	// An OpenRouter key next to a Gemini primary turns on the failover
	// pairing unless a fallback was chosen explicitly.
	if cfg.Fallback == "" && cfg.Provider == "gemini" && cfg.OpenRouter.APIKey != "" {
		cfg.Fallback = "openrouter"
	}
}

// Validate checks that the selected providers have their API keys set.
func (c Config) Validate() error {
	if err := c.validateProvider(c.Provider); err != nil {
		return err
	}
	if c.Fallback != "" {
		if c.Fallback == c.Provider {
			return fmt.Errorf("fallback provider must differ from primary %q", c.Provider)
		}
		if err := c.validateProvider(c.Fallback); err != nil {
			return fmt.Errorf("fallback: %w", err)
		}
	}
	return nil
}

func (c Config) validateProvider(name string) error {
	switch name {
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown content provider: %q", name)
	}
	return nil
}
