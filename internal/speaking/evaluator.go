package speaking

import (
	"context"
	"fmt"
	"strings"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/difficulty"
	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/llm"
	"github.com/cefrkit/placement/internal/logging"
)

// Source names where an evaluation came from.
type Source string

const (
	SourceLLM       Source = "llm"
	SourceHeuristic Source = "heuristic"
	SourceNone      Source = "none"
)

const noTranscriptFeedback = "No transcript received; keeping level the same."

// Evaluation is the judgment of one spoken answer against its target level.
type Evaluation struct {
	Grade     difficulty.Grade
	Predicted cefr.Level
	// HasPrediction is false only when there was nothing to judge.
	HasPrediction bool
	Feedback      string
	Source        Source
}

// Evaluator judges a transcript against the level of the task it answers.
type Evaluator interface {
	Evaluate(ctx context.Context, target cefr.Level, prompt, transcript string) (Evaluation, error)
}

// HeuristicEvaluator grades with EstimateLevel alone.
type HeuristicEvaluator struct{}

func (HeuristicEvaluator) Evaluate(_ context.Context, target cefr.Level, _, transcript string) (Evaluation, error) {
	if strings.TrimSpace(transcript) == "" {
		return noTranscript(), nil
	}
	return heuristic(target, transcript, ""), nil
}

func noTranscript() Evaluation {
	return Evaluation{Grade: difficulty.GradeEqual, Feedback: noTranscriptFeedback, Source: SourceNone}
}

// heuristic grades from the estimate. feedback, when set, wins over the
// estimate's advice.
func heuristic(target cefr.Level, transcript, feedback string) Evaluation {
	est := EstimateLevel(transcript)
	if feedback == "" {
		feedback = est.Feedback
	}
	return Evaluation{
		Grade:         difficulty.GradeFor(est.Level, target),
		Predicted:     est.Level,
		HasPrediction: true,
		Feedback:      feedback,
		Source:        SourceHeuristic,
	}
}

// LLMEvaluator asks the provider to act as an examiner and falls back to
// the heuristic when the provider fails or its answer is unusable.
type LLMEvaluator struct {
	Provider    llm.Provider
	MaxTokens   int
	Temperature float64
	Logger      *logging.Logger
}

// NewLLMEvaluator returns an evaluator with conservative sampling.
func NewLLMEvaluator(p llm.Provider, log *logging.Logger) *LLMEvaluator {
	if log == nil {
		log = logging.Nop()
	}
	return &LLMEvaluator{Provider: p, MaxTokens: 512, Temperature: 0.2, Logger: log}
}

type examinerReply struct {
	EstimatedLevel string `json:"estimated_level"`
	Grade          string `json:"grade"`
	Feedback       string `json:"feedback"`
	TextFeedback   string `json:"text_feedback"`
}

// Evaluate never returns an error for provider or format failures; those
// degrade to the heuristic. Only a cancelled context is reported.
func (e *LLMEvaluator) Evaluate(ctx context.Context, target cefr.Level, prompt, transcript string) (Evaluation, error) {
	if strings.TrimSpace(transcript) == "" {
		return noTranscript(), nil
	}
	log := e.logger()

	req := llm.UserPrompt(examinerSystem, examinerPrompt(target, prompt, transcript))
	req.MaxTokens = e.MaxTokens
	req.Temperature = e.Temperature

	resp, err := e.Provider.Generate(llm.WithPurpose(ctx, llm.PurposeSpeakingEval), req)
	if err != nil {
		if ctx.Err() != nil {
			return Evaluation{}, ctx.Err()
		}
		log.Warn("speaking evaluation failed, using heuristic", "error", err)
		return heuristic(target, transcript, ""), nil
	}

	var reply examinerReply
	if err := itemgen.DecodeObject(resp.Text, &reply); err != nil {
		log.Warn("speaking evaluation unreadable, using heuristic", "error", err)
		return heuristic(target, transcript, ""), nil
	}
	return fromReply(target, transcript, reply), nil
}

// fromReply normalizes the examiner's answer. A missing or bad predicted
// level is filled from the heuristic; a bad grade is derived from the
// predicted level.
func fromReply(target cefr.Level, transcript string, r examinerReply) Evaluation {
	feedback := strings.TrimSpace(r.Feedback)
	if feedback == "" {
		feedback = strings.TrimSpace(r.TextFeedback)
	}

	predicted, err := cefr.Parse(r.EstimatedLevel)
	if err != nil {
		return heuristic(target, transcript, feedback)
	}

	grade, ok := difficulty.ParseGrade(strings.ToLower(strings.TrimSpace(r.Grade)))
	if !ok {
		grade = difficulty.GradeFor(predicted, target)
	}
	return Evaluation{
		Grade:         grade,
		Predicted:     predicted,
		HasPrediction: true,
		Feedback:      feedback,
		Source:        SourceLLM,
	}
}

func (e *LLMEvaluator) logger() *logging.Logger {
	if e.Logger == nil {
		return logging.Nop()
	}
	return e.Logger
}

const examinerSystem = `You are an expert ESL speaking examiner. Your primary job is to estimate
the speaker's CEFR level (A1-C2). Return only JSON. No markdown, no commentary.`

func examinerPrompt(target cefr.Level, prompt, transcript string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The task was written for CEFR %s. Use that as a reference point when comparing performance.\n", target)
	b.WriteString("Consider task achievement, range and control of grammar and vocabulary, coherence and fluency.\n\n")
	fmt.Fprintf(&b, "Task prompt:\n%s\n\n", prompt)
	fmt.Fprintf(&b, "Student transcript (verbatim):\n%s\n\n", transcript)
	b.WriteString(`Return JSON of this form:
{"estimated_level": "A1|A2|B1|B2|C1|C2", "grade": "better|equal|worse", "feedback": "one or two sentences with concrete advice"}`)
	return b.String()
}
