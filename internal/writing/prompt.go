package writing

const promptSystem = `You are an English assessment content writer. Prompts are neutral,
broadly relevant and free of cultural bias. Return only JSON.`

const promptRequest = `Generate one writing prompt on a random, everyday topic.
The prompt must ask the writer for approximately 200 words.
Return JSON with exactly one key: {"prompt": string}`

const rubricSystem = `You are an English writing examiner. You estimate an overall CEFR band
(A1-C2) from holistic evidence. Return only JSON. No markdown, no commentary.`

func rubricPrompt(text string) string {
	return `Assess the writing on these dimensions, each scored 0-5 (half points allowed):
vocabulary_complexity, grammar_complexity, verb_patterns, comparatives_superlatives,
sequencing_words, opinions_and_reasons, coherence_cohesion, accuracy, task_response.
overall is the simple average of the dimension scores.
Also give word_count, a short global comment and optional inline comments.

Return JSON of this form:
{"band": "A1|A2|B1|B2|C1|C2", "scores": {"<dimension>": number}, "overall": number,
 "word_count": integer, "comments": {"global": string, "inline": [{"span": string, "comment": string}]}}

Student writing:
` + text
}
