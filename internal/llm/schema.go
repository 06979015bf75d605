package llm

import (
	"fmt"
	"net/http"
	"strings"
)

// modelAliases maps friendly names to model IDs per provider. Names not
// listed pass through unchanged, so direct model IDs always work.
var modelAliases = map[string]map[string]string{
	"gemini": {
		"gemini-flash":      "gemini-2.5-flash",
		"gemini-flash-lite": "gemini-2.5-flash-lite",
		"gemini-pro":        "gemini-2.5-pro",
	},
	"openai": {
		"gpt-4o":       "gpt-4o",
		"gpt-4o-mini":  "gpt-4o-mini",
		"gpt-4.1-mini": "gpt-4.1-mini",
	},
	"anthropic": {
		"claude-sonnet": "claude-sonnet-4-20250514",
		"claude-haiku":  "claude-haiku-4-5-20251001",
	},
}

func resolveModel(provider, name string) string {
	if id, ok := modelAliases[provider][name]; ok {
		return id
	}
	return name
}

// finishResponse applies the checks every SDK adapter runs on generated
// text: truncated structured output, empty text and schema conformance.
func finishResponse(provider string, req Request, text, stop string) error {
	if stop == "max_tokens" && req.Schema != nil {
		return &ErrMaxTokensExceeded{Text: text}
	}
	if strings.TrimSpace(text) == "" {
		return &ErrInvalidResponse{Err: fmt.Errorf("empty %s response", provider)}
	}
	return validateResponse(req.Schema, text)
}

// statusError classifies an SDK error by its HTTP status.
func statusError(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// stringsOf reads a JSON Schema keyword holding strings. Definitions
// written in Go use []string; decoded ones use []any.
func stringsOf(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, e := range vs {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{vs}
	}
	return nil
}

// primaryType returns the first non-null entry of a "type" keyword.
// Item schemas accept options as strings or numbers and list both.
func primaryType(def map[string]any) string {
	for _, t := range stringsOf(def["type"]) {
		if t != "null" {
			return t
		}
	}
	return ""
}

func numberOf(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// walkSchema calls fn on def and every nested subschema until fn
// returns false. It reports whether the walk completed.
func walkSchema(def map[string]any, fn func(node map[string]any) bool) bool {
	if !fn(def) {
		return false
	}
	if props, ok := def["properties"].(map[string]any); ok {
		for _, v := range props {
			if sub, ok := v.(map[string]any); ok && !walkSchema(sub, fn) {
				return false
			}
		}
	}
	if items, ok := def["items"].(map[string]any); ok && !walkSchema(items, fn) {
		return false
	}
	if extra, ok := def["additionalProperties"].(map[string]any); ok && !walkSchema(extra, fn) {
		return false
	}
	return true
}

// isFreeMap reports whether node is an object whose keys are not known
// in advance, such as per-dimension rubric scores.
func isFreeMap(node map[string]any) bool {
	if primaryType(node) != "object" {
		return false
	}
	props, _ := node["properties"].(map[string]any)
	return len(props) == 0
}

// strictCompatible reports whether def satisfies strict structured output
// as OpenAI and Anthropic define it: every object closes
// additionalProperties and requires all of its properties.
func strictCompatible(def map[string]any) bool {
	return walkSchema(def, func(node map[string]any) bool {
		if primaryType(node) != "object" {
			return true
		}
		if isFreeMap(node) || node["additionalProperties"] != false {
			return false
		}
		props := node["properties"].(map[string]any)
		required := make(map[string]bool)
		for _, r := range stringsOf(node["required"]) {
			required[r] = true
		}
		for k := range props {
			if !required[k] {
				return false
			}
		}
		return true
	})
}
