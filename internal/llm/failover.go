package llm

import (
	"context"
	"fmt"

	"github.com/cefrkit/placement/internal/logging"
)

// FailoverProvider sends each request to the primary provider and, when
// the primary fails for a provider-side reason, re-sends it to the
// fallback. Caller cancellation is never failed over.
type FailoverProvider struct {
	primary  Provider
	fallback Provider
	log      *logging.Logger
}

// WithFailover pairs a primary provider with a fallback. log may be nil.
func WithFailover(primary, fallback Provider, log *logging.Logger) Provider {
	if log == nil {
		log = logging.Nop()
	}
	return &FailoverProvider{primary: primary, fallback: fallback, log: log}
}

func (f *FailoverProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := f.primary.Generate(ctx, req)
	if err == nil || !IsProviderError(err) || ctx.Err() != nil {
		return resp, err
	}

	f.log.Warn("primary content provider failed, using fallback",
		"primary", f.primary.ModelID(),
		"fallback", f.fallback.ModelID(),
		"purpose", PurposeFrom(ctx),
		"error", err,
	)
	resp, fbErr := f.fallback.Generate(ctx, req)
	if fbErr != nil {
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("primary: %v; fallback: %w", err, fbErr)}
	}
	return resp, nil
}

// ModelID reports the primary model.
func (f *FailoverProvider) ModelID() string {
	return f.primary.ModelID()
}
