package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cefrkit/placement/internal/logging"
	"github.com/cefrkit/placement/internal/store"
)

// NewProvider creates the provider chain described by cfg:
// caller → timeout → retry → failover(primary, fallback) → logging → SDK.
// eventRepo and log may be nil.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *logging.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	primary, err := newBase(ctx, cfg.Provider, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	chain := WithLogging(primary, cfg.Provider, eventRepo, log)

	if cfg.Fallback != "" {
		fb, err := newBase(ctx, cfg.Fallback, cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing %s fallback: %w", cfg.Fallback, err)
		}
		chain = WithFailover(chain, WithLogging(fb, cfg.Fallback, eventRepo, log), log)
	}

	chain = WithRetry(chain, cfg.Retry, log)
	if cfg.Timeout > 0 {
		chain = &timeoutProvider{inner: chain, timeout: cfg.Timeout}
	}
	return chain, nil
}

func newBase(ctx context.Context, name string, cfg Config) (Provider, error) {
	switch name {
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		return NewOpenRouterProvider(cfg.OpenRouter)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown content provider: %q", name)
	}
}

// timeoutProvider bounds one logical request, retries included.
type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
