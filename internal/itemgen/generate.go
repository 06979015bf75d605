package itemgen

import (
	"context"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/cefrkit/placement/internal/llm"
)

// generator holds what every skill factory shares.
type generator struct {
	skill    Skill
	provider llm.Provider
	cfg      Config
}

// generate sends prompt once per attempt and hands the response text to
// build until build succeeds or the retry policy runs out. Provider errors
// and build errors both consume an attempt.
func generate[T any](ctx context.Context, g generator, purpose llm.Purpose, system, prompt string,
	build func(ctx context.Context, text string) (T, error)) (T, error) {
	ctx = llm.WithPurpose(ctx, purpose)
	log := g.cfg.logger()

	res := Attempt(ctx, g.cfg.Policy, func(ctx context.Context, attempt int) (T, error) {
		var zero T

		req := llm.UserPrompt(system, prompt)
		req.MaxTokens = g.cfg.MaxTokens
		req.Temperature = g.cfg.Temperature

		resp, err := g.provider.Generate(ctx, req)
		if err != nil {
			log.Warn("item generation failed", "skill", g.skill, "attempt", attempt, "error", err)
			return zero, err
		}
		v, err := build(ctx, resp.Text)
		if err != nil {
			log.Warn("generated item rejected", "skill", g.skill, "attempt", attempt, "error", err)
			return zero, err
		}
		return v, nil
	})

	if res.OK() {
		return res.Value, nil
	}
	if res.Exhausted {
		var zero T
		return zero, &GenerationExhaustedError{Skill: g.skill, Attempts: res.Attempts, Last: res.Err}
	}
	var zero T
	return zero, res.Err
}

// shortID returns 8 random hex characters.
func shortID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:4])
}
