package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cefrkit/placement/internal/config"
	"github.com/cefrkit/placement/internal/engine"
	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/llm"
	"github.com/cefrkit/placement/internal/logging"
	"github.com/cefrkit/placement/internal/prefetch"
	"github.com/cefrkit/placement/internal/speaking"
	"github.com/cefrkit/placement/internal/store"
)

// runtime is the wired engine with everything that must be closed.
type runtime struct {
	Provider llm.Provider
	Engine   *engine.Engine

	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildRuntime creates the provider chain, the item factories and the
// engine. useRedis selects the Redis repository when one is configured.
func buildRuntime(ctx context.Context, cfg *config.Config, st *store.Store, log *logging.Logger, useRedis bool) (*runtime, error) {
	provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log)
	if err != nil {
		return nil, fmt.Errorf("content provider: %w", err)
	}
	rt := &runtime{Provider: provider}

	factoryCfg := func(sk itemgen.Skill) itemgen.Config {
		c := itemgen.DefaultConfig(sk)
		c.Logger = log
		return c
	}

	var vocab itemgen.Factory = itemgen.NewVocabularyFactory(provider, factoryCfg(itemgen.SkillVocabulary))
	if cfg.Sessions.PrefetchDepth > 0 {
		pf := prefetch.Wrap(vocab, prefetch.Options{Depth: cfg.Sessions.PrefetchDepth, Logger: log})
		rt.closers = append(rt.closers, pf.Close)
		vocab = pf
	}

	scorer := &speaking.Scorer{Evaluator: speaking.NewLLMEvaluator(provider, log)}
	if cfg.Speech.Enabled {
		gs, err := speaking.NewGoogleSpeechScorer(ctx, cfg.Speech.SpeechConfig, log)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("speech client: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = gs.Close() })
		scorer.Pronunciation = gs
	}

	opts := engine.Options{
		Skills: map[itemgen.Skill]engine.SkillConfig{
			itemgen.SkillReading:    engine.ReadingConfig(itemgen.NewReadingFactory(provider, factoryCfg(itemgen.SkillReading))),
			itemgen.SkillListening:  engine.ListeningConfig(itemgen.NewListeningFactory(provider, factoryCfg(itemgen.SkillListening))),
			itemgen.SkillVocabulary: engine.VocabularyConfig(vocab),
			itemgen.SkillSpeaking:   engine.SpeakingConfig(itemgen.NewSpeakingFactory(provider, factoryCfg(itemgen.SkillSpeaking)), scorer),
		},
		Sink:   engine.StoreSink{Summaries: st.SummaryRepo()},
		Logger: log,
	}

	if useRedis && cfg.Redis.URL != "" {
		client, err := engine.DialRedis(ctx, cfg.Redis.URL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		opts.Repo = engine.NewRedisRepository(client, cfg.Redis.KeyPrefix, cfg.Sessions.IdleTTL)
		log.Info("session repository", "backend", "redis", "addr", redisAddr(client))
	}

	eng, err := engine.New(opts)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Engine = eng
	return rt, nil
}

func redisAddr(c *redis.Client) string {
	return c.Options().Addr
}
