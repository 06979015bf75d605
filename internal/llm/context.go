package llm

import "context"

// Purpose labels why a request was made. It is recorded with every LLM
// event and drives the `llm list --purpose` filter.
type Purpose string

const (
	PurposeReadingItems         Purpose = "reading-items"
	PurposeListeningItems       Purpose = "listening-items"
	PurposeVocabularyItem       Purpose = "vocabulary-item"
	PurposeVocabularyUniqueness Purpose = "vocabulary-uniqueness"
	PurposeSpeakingPrompt       Purpose = "speaking-prompt"
	PurposeSpeakingEval         Purpose = "speaking-eval"
	PurposeWritingPrompt        Purpose = "writing-prompt"
	PurposeWritingScore         Purpose = "writing-score"
)

type purposeKey struct{}

func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeKey{}, p)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(Purpose); ok && p != "" {
		return string(p)
	}
	return "unknown"
}
