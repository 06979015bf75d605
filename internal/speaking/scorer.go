package speaking

import (
	"context"

	"github.com/cefrkit/placement/internal/engine"
	"github.com/cefrkit/placement/internal/itemgen"
)

// Scorer grades speaking items for the engine. Pronunciation is optional
// and only consulted when the answer carries audio.
type Scorer struct {
	Evaluator     Evaluator
	Pronunciation PronunciationScorer
}

var _ engine.Scorer = (*Scorer)(nil)

func (s *Scorer) Score(ctx context.Context, item itemgen.Item, ans engine.Answer) (engine.Evaluation, error) {
	transcript := CleanTranscript(ans.Transcript)

	ev, err := s.Evaluator.Evaluate(ctx, item.Level, item.Question, transcript)
	if err != nil {
		return engine.Evaluation{}, err
	}

	out := engine.Evaluation{
		Grade:      ev.Grade,
		Feedback:   ev.Feedback,
		Transcript: truncate(transcript, MaxTranscriptRunes),
	}
	if ev.HasPrediction {
		out.PredictedLevel = ev.Predicted.String()
	}
	if s.Pronunciation != nil && len(ans.Audio) > 0 {
		score, msg := s.Pronunciation.Score(ctx, ans.Audio)
		out.PronunciationScore = score
		if score == nil && msg != "" && out.Feedback == "" {
			out.Feedback = msg
		}
	}
	return out, nil
}
