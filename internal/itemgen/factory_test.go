package itemgen

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/llm"
)

func testConfig(skill Skill) Config {
	cfg := DefaultConfig(skill)
	cfg.Policy.Backoff = 0
	return cfg
}

func readingJSON(n int) string {
	qs := make([]string, n)
	for i := range qs {
		qs[i] = fmt.Sprintf(`{"question": "Q%d?", "options": ["a", "b", "c", "d"], "correct_index": %d, "rationale": "because"}`, i+1, i%4)
	}
	return `{"passage": {"title": "Market Day", "text": "Every Saturday the town square fills with stalls."}, "questions": [` +
		strings.Join(qs, ",") + `]}`
}

func TestReadingFactory(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText("Sure! ```json\n" + readingJSON(5) + "\n```")
	f := NewReadingFactory(mock, testConfig(SkillReading))

	items, err := f.GenerateBatch(context.Background(), cefr.B1, QuestionsPerPassage)
	require.NoError(t, err)
	require.Len(t, items, 5)

	idPattern := regexp.MustCompile(`^q[1-5]-[0-9a-f]{8}$`)
	for i, it := range items {
		assert.Regexp(t, idPattern, it.ID)
		assert.True(t, strings.HasPrefix(it.ID, fmt.Sprintf("q%d-", i+1)))
		assert.Equal(t, cefr.B1, it.Level)
		assert.Equal(t, "PET", it.ExamTag)
		assert.Equal(t, "Market Day", it.Title)
		assert.Equal(t, items[0].GroupID, it.GroupID)
		assert.Equal(t, i%4, it.CorrectIndex)
	}
	assert.NotEmpty(t, items[0].GroupID)
	assert.Contains(t, mock.Calls[0].Messages[0].Content, "CEFR B1")
}

func TestReadingFactory_RetriesShortBatch(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText(readingJSON(4), readingJSON(5))
	f := NewReadingFactory(mock, testConfig(SkillReading))

	items, err := f.GenerateBatch(context.Background(), cefr.B2, QuestionsPerPassage)
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, 2, mock.CallCount())
}

func TestReadingFactory_Exhausted(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText("not json", readingJSON(3), readingJSON(5))
	f := NewReadingFactory(mock, testConfig(SkillReading))

	_, err := f.GenerateBatch(context.Background(), cefr.B1, QuestionsPerPassage)

	var exhausted *GenerationExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, SkillReading, exhausted.Skill)
	assert.Equal(t, DefaultAttempts, exhausted.Attempts)
	var ife *ItemFormatError
	assert.ErrorAs(t, err, &ife, "last failure is the short batch")
	assert.Equal(t, 1, mock.Pending(), "no call beyond the bound")
}

func TestReadingFactory_EmptyPassage(t *testing.T) {
	mock := llm.NewMockProvider()
	body := strings.Replace(readingJSON(5), "Every Saturday the town square fills with stalls.", "", 1)
	mock.AddText(body, body)
	f := NewReadingFactory(mock, testConfig(SkillReading))

	_, err := f.GenerateBatch(context.Background(), cefr.B1, QuestionsPerPassage)
	var ife *ItemFormatError
	require.ErrorAs(t, err, &ife)
	assert.Contains(t, ife.Reason, "passage")
}

func TestReadingFactory_WrongCount(t *testing.T) {
	f := NewReadingFactory(llm.NewMockProvider(), testConfig(SkillReading))
	_, err := f.GenerateBatch(context.Background(), cefr.B1, 3)
	assert.Error(t, err)
}

func listeningJSON(n int, vocab int) string {
	words := make([]string, vocab)
	for i := range words {
		words[i] = fmt.Sprintf(`"w%d"`, i)
	}
	clips := make([]string, n)
	for i := range clips {
		clips[i] = fmt.Sprintf(`{"title": "", "transcript": "Attention please, platform %d.", "question": "Where?", "options": ["1", "2", "3", "4"],
			"correct_index": 1, "rationale": "r", "targets": {"target_vocab": [%s], "target_structures": ["s1", "s2", "s3", "s4", "s5", "s6", "s7"]}}`,
			i, strings.Join(words, ","))
	}
	return `{"clips": [` + strings.Join(clips, ",") + `]}`
}

func TestListeningFactory(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText(listeningJSON(2, 12))
	f := NewListeningFactory(mock, testConfig(SkillListening))

	items, err := f.GenerateBatch(context.Background(), cefr.A2, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	it := items[0]
	assert.Equal(t, "Clip 1", it.Title)
	assert.Equal(t, "Clip 2", items[1].Title)
	assert.Equal(t, "gist", it.TaskType)
	assert.Equal(t, "KET", it.ExamTag)
	assert.Len(t, it.TargetVocab, MaxItemVocab)
	assert.Len(t, it.TargetStructures, MaxItemStructures)
	assert.NotEqual(t, items[0].ID, items[1].ID)
}

func TestListeningFactory_ProviderErrorThenSuccess(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{}})
	mock.AddText(listeningJSON(1, 3))
	f := NewListeningFactory(mock, testConfig(SkillListening))

	items, err := f.GenerateBatch(context.Background(), cefr.C1, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestListeningFactory_BatchBounds(t *testing.T) {
	f := NewListeningFactory(llm.NewMockProvider(), testConfig(SkillListening))
	_, err := f.GenerateBatch(context.Background(), cefr.B1, 3)
	assert.Error(t, err)
	_, err = f.GenerateBatch(context.Background(), cefr.B1, 0)
	assert.Error(t, err)
}

const vocabJSON = `{"passage": "She decided to ___ up a new hobby after moving.", "question": "Choose the best word.",
	"options": ["take", "make", "do", "get"], "answer_index": 0, "rationale": "take up = start"}`

func TestVocabularyFactory_UniquenessAccepted(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText(vocabJSON, `{"acceptable_indices": [0]}`)
	f := NewVocabularyFactory(mock, testConfig(SkillVocabulary))

	it, err := GenerateOne(context.Background(), f, cefr.B1)
	require.NoError(t, err)
	assert.Equal(t, 0, it.CorrectIndex)
	assert.Equal(t, "take", it.Options[0])
	assert.Contains(t, mock.Calls[1].Messages[0].Content, "0) take")
}

func TestVocabularyFactory_UniquenessRejectedThenAccepted(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText(
		vocabJSON, `{"acceptable_indices": [0, 3]}`, // two defensible answers
		vocabJSON, `{"acceptable_indices": [2]}`, // wrong answer key
		vocabJSON, `{"acceptable_indices": [0, 0]}`, // duplicates collapse to one
	)
	f := NewVocabularyFactory(mock, testConfig(SkillVocabulary))

	_, err := GenerateOne(context.Background(), f, cefr.B2)
	require.NoError(t, err)
	assert.Equal(t, 6, mock.CallCount())
}

func TestVocabularyFactory_Exhausted(t *testing.T) {
	mock := llm.NewMockProvider()
	for range VocabularyAttempts {
		mock.AddText(vocabJSON, `{"acceptable_indices": [1, 2]}`)
	}
	f := NewVocabularyFactory(mock, testConfig(SkillVocabulary))

	_, err := GenerateOne(context.Background(), f, cefr.B1)
	var exhausted *GenerationExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, VocabularyAttempts, exhausted.Attempts)

	var ue *UniquenessError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []int{1, 2}, ue.Acceptable)

	var ife *ItemFormatError
	assert.ErrorAs(t, err, &ife, "uniqueness failures count as item format failures")
}

func TestSpeakingFactory_Clamps(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddText(
		`{"prompt": "Talk about a journey.", "prep_seconds": 5, "record_seconds": 120, "guidance": "Use past tenses."}`,
		`{"prompt": "Describe your street."}`,
	)
	f := NewSpeakingFactory(mock, testConfig(SkillSpeaking))

	items, err := f.GenerateBatch(context.Background(), cefr.A2, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Talk about a journey.", items[0].Stimulus)
	assert.Equal(t, MinPrepSeconds, items[0].PrepSeconds)
	assert.Equal(t, MaxRecordSeconds, items[0].RecordSeconds)
	assert.Equal(t, "Use past tenses.", items[0].Guidance)
	assert.False(t, items[0].MultipleChoice())

	assert.Equal(t, DefaultPrepSeconds, items[1].PrepSeconds)
	assert.Equal(t, DefaultRecordSeconds, items[1].RecordSeconds)
}

func TestFactory_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := llm.NewMockProvider()
	f := NewSpeakingFactory(mock, testConfig(SkillSpeaking))
	_, err := f.GenerateBatch(ctx, cefr.B1, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	var exhausted *GenerationExhaustedError
	assert.False(t, errors.As(err, &exhausted))
	assert.Zero(t, mock.CallCount())
}

func TestParseSkill(t *testing.T) {
	s, err := ParseSkill("listening")
	require.NoError(t, err)
	assert.Equal(t, SkillListening, s)

	_, err = ParseSkill("maths")
	assert.Error(t, err)
}
