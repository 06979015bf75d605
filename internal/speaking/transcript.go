// Package speaking grades spoken answers. Transcripts are cleaned of ASR
// repetition, judged by an LLM examiner with a lexical heuristic as the
// fallback, and optionally paired with a pronunciation score.
package speaking

import "strings"

// MaxTranscriptRunes bounds the transcript kept in the answer log.
const MaxTranscriptRunes = 4000

// CleanTranscript collapses whitespace and immediately repeated phrases
// of three, two and one words, compared case-insensitively. Streaming
// recognizers often emit such repeats where interim and final results
// overlap. The first occurrence keeps its original casing.
func CleanTranscript(s string) string {
	words := strings.Fields(s)
	for n := 3; n >= 1; n-- {
		words = collapseRepeats(words, n)
	}
	return strings.Join(words, " ")
}

func collapseRepeats(words []string, n int) []string {
	if len(words) < 2*n {
		return words
	}
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		if len(out) >= n && i+n <= len(words) && sameWords(out[len(out)-n:], words[i:i+n]) {
			i += n
			continue
		}
		out = append(out, words[i])
		i++
	}
	return out
}

func sameWords(a, b []string) bool {
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// truncate cuts s to at most limit runes.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
