package itemgen

import (
	"time"

	"github.com/cefrkit/placement/internal/logging"
)

// Retry bounds per skill. Vocabulary gets more room because of its extra
// uniqueness pass.
const (
	DefaultAttempts    = 2
	VocabularyAttempts = 4
)

// Caps on auxiliary target lists carried by a single item.
const (
	MaxItemVocab      = 10
	MaxItemStructures = 6
)

// QuestionsPerPassage is the number of questions generated for one
// reading passage.
const QuestionsPerPassage = 5

// MaxListeningBatch is the largest number of clips asked for at once.
const MaxListeningBatch = 2

// Config controls a factory.
type Config struct {
	// Policy bounds regeneration after a parse or validation failure.
	Policy RetryPolicy

	// MaxTokens is the token budget per generation. Zero leaves it to the
	// provider.
	MaxTokens int

	// Temperature controls generator randomness (0.0-1.0).
	Temperature float64

	// Logger receives one warning per failed attempt. Nil is silent.
	Logger *logging.Logger
}

// DefaultConfig returns the standard settings for skill.
func DefaultConfig(skill Skill) Config {
	attempts := DefaultAttempts
	if skill == SkillVocabulary {
		attempts = VocabularyAttempts
	}
	return Config{
		Policy:      RetryPolicy{MaxAttempts: attempts, Backoff: 250 * time.Millisecond},
		Temperature: 0.7,
	}
}

func (c Config) logger() *logging.Logger {
	if c.Logger == nil {
		return logging.Nop()
	}
	return c.Logger
}
