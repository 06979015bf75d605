package speaking

import (
	"regexp"
	"strings"

	"github.com/cefrkit/placement/internal/cefr"
)

// Estimate is the heuristic reading of a transcript.
type Estimate struct {
	Level    cefr.Level
	Score    int
	Feedback string
}

const (
	noTranscriptAdvice = "No transcript detected. Try to speak for 45-60 seconds with clear ideas."
	clearResponse      = "Clear and coherent response."
)

var (
	wordRe        = regexp.MustCompile(`[A-Za-z']+`)
	sentenceSplit = regexp.MustCompile(`[.!?]+`)

	subordinatorRe = regexp.MustCompile(`(?i)\b(although|though|whereas|while|because|since|unless|until|when|after|before|if)\b`)
	relativeRe     = regexp.MustCompile(`(?i)\b(who|which|that|whose|whom)\b`)
	modalRe        = regexp.MustCompile(`(?i)\b(would|could|should|might|must|may|can|will|shall)\b`)
	perfectRe      = regexp.MustCompile(`(?i)\b(have|has|had)\s+\w+(?:ed|en)\b`)
	linkerRe       = regexp.MustCompile(`(?i)\b(however|therefore|moreover|furthermore|in addition|on the other hand|for example|for instance|in conclusion|nevertheless)\b`)
	conditionalRe  = regexp.MustCompile(`(?i)\bif\b[\s\S]{0,80}?\b(would|could|might|will|can|had)\b`)
	passiveRe      = regexp.MustCompile(`(?i)\b(is|are|was|were|be|been|being)\s+\w+ed\b`)
)

// features are the raw counts the estimate is built from.
type features struct {
	words, sentences int
	typeToken        float64
	longRatio        float64
	avgSentence      float64

	subordinators, relatives, modals, perfect int
	linkers, conditionals, passive            int
}

func measure(text string) features {
	words := wordRe.FindAllString(text, -1)
	f := features{words: len(words)}

	unique := make(map[string]struct{}, len(words))
	long := 0
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
		if len(w) >= 8 {
			long++
		}
	}
	if f.words > 0 {
		f.typeToken = float64(len(unique)) / float64(f.words)
		f.longRatio = float64(long) / float64(f.words)
	}

	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			f.sentences++
		}
	}
	if f.sentences > 0 {
		f.avgSentence = float64(f.words) / float64(f.sentences)
	} else {
		f.avgSentence = float64(f.words)
	}

	count := func(re *regexp.Regexp) int { return len(re.FindAllStringIndex(text, -1)) }
	f.subordinators = count(subordinatorRe)
	f.relatives = count(relativeRe)
	f.modals = count(modalRe)
	f.perfect = count(perfectRe)
	f.linkers = count(linkerRe)
	f.conditionals = count(conditionalRe)
	f.passive = count(passiveRe)
	return f
}

func (f features) score() int {
	score := 0
	switch {
	case f.words >= 120:
		score += 6
	case f.words >= 80:
		score += 5
	case f.words >= 50:
		score += 4
	case f.words >= 30:
		score += 3
	case f.words >= 15:
		score += 2
	default:
		score++
	}

	score += min(4, f.subordinators)
	score += min(3, f.relatives)
	score += min(3, f.modals)
	score += min(3, f.perfect)
	score += min(3, f.linkers)
	score += min(2, f.conditionals)
	score += min(2, f.passive)

	switch {
	case f.longRatio > 0.15:
		score += 3
	case f.longRatio > 0.08:
		score += 2
	case f.longRatio > 0.04:
		score++
	}

	switch {
	case f.typeToken > 0.6:
		score += 2
	case f.typeToken > 0.45:
		score++
	}

	switch {
	case f.avgSentence >= 20:
		score += 2
	case f.avgSentence >= 12:
		score++
	}
	return score
}

func (f features) advice() string {
	var tips []string
	if f.words < 50 {
		tips = append(tips, "Try to speak longer and develop your ideas with examples.")
	}
	if f.linkers < 1 {
		tips = append(tips, "Use linkers (e.g., however, for example) to connect ideas.")
	}
	if f.modals < 1 {
		tips = append(tips, "Include modal verbs to express opinions and suggestions.")
	}
	if f.perfect < 1 {
		tips = append(tips, "Show a wider range of tenses (e.g., present perfect).")
	}
	if f.avgSentence < 12 {
		tips = append(tips, "Combine clauses to create more complex sentences.")
	}
	if f.longRatio < 0.08 {
		tips = append(tips, "Use more topic-specific vocabulary.")
	}
	if len(tips) == 0 {
		return clearResponse
	}
	return strings.Join(tips[:min(2, len(tips))], " ")
}

// LevelForScore maps a heuristic score onto the scale.
func LevelForScore(score int) cefr.Level {
	switch {
	case score <= 5:
		return cefr.A1
	case score <= 7:
		return cefr.A2
	case score <= 10:
		return cefr.B1
	case score <= 13:
		return cefr.B2
	case score <= 16:
		return cefr.C1
	}
	return cefr.C2
}

// EstimateLevel scores a transcript on length, grammatical range, lexical
// richness and sentence complexity. It needs no provider and never fails.
func EstimateLevel(transcript string) Estimate {
	text := strings.TrimSpace(transcript)
	if text == "" {
		return Estimate{Level: cefr.A1, Feedback: noTranscriptAdvice}
	}
	f := measure(text)
	score := f.score()
	return Estimate{Level: LevelForScore(score), Score: score, Feedback: f.advice()}
}
