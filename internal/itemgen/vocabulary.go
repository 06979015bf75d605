package itemgen

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/llm"
)

var vocabularyShape = Shape{
	Name:        "vocabulary",
	StimulusKey: "passage",
	AnswerKey:   "answer_index",
	Choice:      true,
}

// VocabularyFactory generates single gap-fill style items and runs each
// through a uniqueness pass before accepting it.
type VocabularyFactory struct {
	gen     generator
	checker *UniquenessChecker
}

// NewVocabularyFactory creates a vocabulary factory. The same provider
// answers the uniqueness pass.
func NewVocabularyFactory(p llm.Provider, cfg Config) *VocabularyFactory {
	return &VocabularyFactory{
		gen:     generator{skill: SkillVocabulary, provider: p, cfg: cfg},
		checker: NewUniquenessChecker(p),
	}
}

func (f *VocabularyFactory) Skill() Skill { return SkillVocabulary }

// GenerateBatch generates count items one by one, each with its own retry
// budget.
func (f *VocabularyFactory) GenerateBatch(ctx context.Context, level cefr.Level, count int) ([]Item, error) {
	items := make([]Item, 0, count)
	for range count {
		it, err := generate(ctx, f.gen, llm.PurposeVocabularyItem, vocabularySystem, vocabularyPrompt(level),
			func(ctx context.Context, text string) (Item, error) {
				it, err := buildVocabulary(text, level)
				if err != nil {
					return Item{}, err
				}
				if err := f.checker.Check(ctx, it); err != nil {
					return Item{}, err
				}
				return it, nil
			})
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func buildVocabulary(text string, level cefr.Level) (Item, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return Item{}, err
	}
	cands, err := ValidateBatch(raw, vocabularyShape, 1)
	if err != nil {
		return Item{}, err
	}
	c := cands[0]
	return Item{
		ID:           uuid.NewString(),
		Skill:        SkillVocabulary,
		Level:        level,
		ExamTag:      level.ExamTag(),
		Stimulus:     c.Stimulus,
		Question:     c.Question,
		Options:      c.Options,
		CorrectIndex: c.CorrectIndex,
		Rationale:    c.Rationale,
	}, nil
}

// UniquenessChecker asks the provider which options of a finished item
// would be acceptable and accepts the item only when the answer is the
// correct index alone.
type UniquenessChecker struct {
	provider llm.Provider
}

// NewUniquenessChecker creates a checker backed by p.
func NewUniquenessChecker(p llm.Provider) *UniquenessChecker {
	return &UniquenessChecker{provider: p}
}

// Check returns nil when exactly one option is acceptable and it is the
// item's correct option. Otherwise it returns a *UniquenessError, or the
// provider or parse error that prevented the check.
func (c *UniquenessChecker) Check(ctx context.Context, it Item) error {
	ctx = llm.WithPurpose(ctx, llm.PurposeVocabularyUniqueness)
	req := llm.UserPrompt(uniquenessSystem, uniquenessPrompt(it))

	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return err
	}
	raw, err := ExtractObject(resp.Text)
	if err != nil {
		return err
	}
	list, ok := raw["acceptable_indices"].([]any)
	if !ok {
		return &ItemFormatError{Shape: "uniqueness", Index: -1, Reason: "acceptable_indices missing"}
	}

	var acceptable []int
	for _, v := range list {
		idx, ok := intField(v)
		if !ok {
			return &ItemFormatError{Shape: "uniqueness", Index: -1, Reason: "acceptable_indices holds a non-integer"}
		}
		if !slices.Contains(acceptable, idx) {
			acceptable = append(acceptable, idx)
		}
	}
	slices.Sort(acceptable)

	if len(acceptable) != 1 || acceptable[0] != it.CorrectIndex {
		return &UniquenessError{Correct: it.CorrectIndex, Acceptable: acceptable}
	}
	return nil
}
