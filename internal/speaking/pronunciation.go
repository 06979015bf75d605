package speaking

import (
	"context"
	"fmt"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/cefrkit/placement/internal/logging"
)

// PronunciationScorer rates recorded audio on a 0-100 scale. A nil score
// means no rating was possible; the message then says why.
type PronunciationScorer interface {
	Score(ctx context.Context, audio []byte) (*float64, string)
}

// SpeechConfig configures the Google Speech-to-Text recognizer.
type SpeechConfig struct {
	LanguageCode    string        `yaml:"language_code"`
	Model           string        `yaml:"model"`
	SampleRateHertz int           `yaml:"sample_rate_hertz"`
	Timeout         time.Duration `yaml:"timeout"`
}

func (c SpeechConfig) withDefaults() SpeechConfig {
	if c.LanguageCode == "" {
		c.LanguageCode = "en-US"
	}
	if c.SampleRateHertz == 0 {
		c.SampleRateHertz = 48000
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
}

type clientRecognizer struct {
	client *speech.Client
}

func (r clientRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return r.client.Recognize(ctx, req)
}

// GoogleSpeechScorer uses the recognizer's confidence in its first
// alternative as a proxy for pronunciation quality.
type GoogleSpeechScorer struct {
	rec    recognizer
	closer func() error
	cfg    SpeechConfig
	log    *logging.Logger
}

// NewGoogleSpeechScorer dials Speech-to-Text with application default
// credentials.
func NewGoogleSpeechScorer(ctx context.Context, cfg SpeechConfig, log *logging.Logger) (*GoogleSpeechScorer, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	s := newGoogleSpeechScorer(clientRecognizer{client: c}, cfg, log)
	s.closer = c.Close
	return s, nil
}

func newGoogleSpeechScorer(rec recognizer, cfg SpeechConfig, log *logging.Logger) *GoogleSpeechScorer {
	if log == nil {
		log = logging.Nop()
	}
	return &GoogleSpeechScorer{rec: rec, cfg: cfg.withDefaults(), log: log.With("service", "speech")}
}

// Close releases the underlying client.
func (s *GoogleSpeechScorer) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *GoogleSpeechScorer) Score(ctx context.Context, audio []byte) (*float64, string) {
	if len(audio) == 0 {
		return nil, "No audio provided for pronunciation analysis."
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_WEBM_OPUS,
			SampleRateHertz:            int32(s.cfg.SampleRateHertz),
			LanguageCode:               s.cfg.LanguageCode,
			Model:                      s.cfg.Model,
			ProfanityFilter:            true,
			EnableAutomaticPunctuation: true,
			EnableWordConfidence:       true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := s.rec.Recognize(ctx, req)
	if err != nil {
		s.log.Warn("pronunciation assessment failed", "error", err)
		return nil, fmt.Sprintf("Pronunciation assessment failed: %v", err)
	}
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		score := float64(alts[0].GetConfidence()) * 100
		return &score, "Overall pronunciation confidence based on speech recognition."
	}
	return nil, "No speech recognized for pronunciation assessment."
}
