package itemgen

import (
	"fmt"
	"strings"

	"github.com/cefrkit/placement/internal/cefr"
)

const readingSystem = `You are an expert ESL reading item writer for placement tests.
Passages are self-contained, contemporary and free of lists or bullet points.
Every question is answerable from the passage alone and has exactly one correct option.
Return only JSON. No markdown, no commentary.`

func readingPrompt(level cefr.Level) string {
	exam := level.ExamTag()
	var b strings.Builder
	fmt.Fprintf(&b, "Write one reading passage aligned to CEFR %s, using vocabulary and structures typical of Cambridge %s.\n", level, exam)
	b.WriteString("Length: 180-240 words.\n")
	fmt.Fprintf(&b, "Then write exactly %d multiple-choice questions on it covering detail, gist, inference and vocabulary in context.\n", QuestionsPerPassage)
	fmt.Fprintf(&b, "Each question has exactly %d options and one correct_index (0-%d).\n\n", NumOptions, NumOptions-1)
	b.WriteString(`Return JSON of this form:
{"passage": {"title": string, "text": string},
 "questions": [{"question": string, "options": [string, string, string, string], "correct_index": integer, "rationale": string}]}`)
	return b.String()
}

const listeningSystem = `You are an ESL listening item writer. Clips are naturalistic spoken English
(conversations or announcements) with one multiple-choice question each.
Distractors are plausible and only one option is correct.
Return only JSON. No markdown, no commentary.`

func listeningPrompt(level cefr.Level, count int) string {
	exam := level.ExamTag()
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d short audio clip scripts with MCQs.\n", count)
	fmt.Fprintf(&b, "Target difficulty: CEFR %s. Cambridge mapping: %s.\n", level, exam)
	b.WriteString("Each transcript is 70-110 words and uses vocabulary and structures typical for the level.\n")
	b.WriteString("For each clip give: title, transcript (the exact words spoken), question (gist, detail or inference),\n")
	fmt.Fprintf(&b, "options (exactly %d), correct_index (0-%d), rationale, exam_task_type, and\n", NumOptions, NumOptions-1)
	fmt.Fprintf(&b, "targets.target_vocab (5-%d items) and targets.target_structures (3-%d items).\n\n", MaxItemVocab, MaxItemStructures)
	fmt.Fprintf(&b, `Return JSON of this form with exactly %d clips:
{"clips": [{"title": string, "transcript": string, "question": string, "options": [string, string, string, string],
  "correct_index": integer, "rationale": string, "exam_task_type": string,
  "targets": {"target_vocab": [string], "target_structures": [string]}}]}`, count)
	return b.String()
}

const vocabularySystem = `You are an assessment item writer producing adaptive vocabulary questions.
Each item is a single 4-option multiple choice question on a short passage with exactly one correct option.
Return only JSON. No markdown, no commentary.`

func vocabularyPrompt(level cefr.Level) string {
	exam := level.ExamTag()
	var b strings.Builder
	fmt.Fprintf(&b, "CEFR level: %s\n", level)
	fmt.Fprintf(&b, "Cambridge target focus: %s (vocabulary and grammar structures appropriate to %s)\n", exam, exam)
	b.WriteString("Make the passage 40-90 words of natural, age-neutral, general-interest content.\n")
	b.WriteString("Assess collocations, phrasal verbs, or form, meaning and use through gap-fill in context,\n")
	b.WriteString("synonym in context or best completion. Distractors share the register of the answer.\n\n")
	b.WriteString(`Return JSON of this form:
{"passage": string, "question": string, "options": [string, string, string, string],
 "answer_index": integer, "rationale": string}`)
	return b.String()
}

const uniquenessSystem = `You are a strict reviewer of vocabulary test items.
Judge every option independently against the passage and question.
Return only JSON. No markdown, no commentary.`

func uniquenessPrompt(it Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Passage:\n---\n%s\n---\n", it.Stimulus)
	fmt.Fprintf(&b, "Question: %s\n", it.Question)
	for i, o := range it.Options {
		fmt.Fprintf(&b, "%d) %s\n", i, o)
	}
	b.WriteString("\nList EVERY option index that would be grammatically and semantically acceptable as an answer.\n")
	b.WriteString(`Return JSON of this form: {"acceptable_indices": [integer]}`)
	return b.String()
}

const speakingSystem = `You are an ESL speaking task writer. Topics are everyday and age-neutral,
without culture-specific references. Return only JSON. No markdown, no commentary.`

func speakingPrompt(level cefr.Level) string {
	exam := level.ExamTag()
	var b strings.Builder
	fmt.Fprintf(&b, "Generate one short speaking prompt aligned to CEFR %s, mapped to Cambridge %s targets.\n", level, exam)
	fmt.Fprintf(&b, "Default timing is %ds preparation and %ds speaking.\n", DefaultPrepSeconds, DefaultRecordSeconds)
	b.WriteString("The prompt may be a personal experience, a picture description (no image provided),\n")
	b.WriteString("a short opinion with two reasons, a role-play cue or explaining a process.\n")
	fmt.Fprintf(&b, "Include concise guidance on what a good answer contains at %s.\n\n", level)
	b.WriteString(`Return JSON of this form:
{"prompt": string, "prep_seconds": integer, "record_seconds": integer, "guidance": string}`)
	return b.String()
}
