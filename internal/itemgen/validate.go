package itemgen

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cefrkit/placement/internal/llm"
)

// NumOptions is the number of choices every multiple-choice item carries.
const NumOptions = 4

// Shape describes where a generator response keeps its items and which
// fields each item must carry.
type Shape struct {
	// Name identifies the shape in errors and the schema cache.
	Name string

	// ListKey is the key of the item array. Empty means the response
	// object is itself the single item.
	ListKey string

	// StimulusKey is the per-item passage or transcript key. Empty when
	// the stimulus is shared and lives outside the items.
	StimulusKey string

	// QuestionKey defaults to "question".
	QuestionKey string

	// AnswerKey is the correct-option key, e.g. "correct_index".
	AnswerKey string

	// Choice is true for multiple-choice items.
	Choice bool
}

func (s Shape) questionKey() string {
	if s.QuestionKey == "" {
		return "question"
	}
	return s.QuestionKey
}

// Candidate is one item that passed validation, before a factory turns
// it into an Item. Fields keeps the raw object for skill-specific extras.
type Candidate struct {
	Stimulus     string
	Question     string
	Options      []string
	CorrectIndex int
	Rationale    string
	Fields       map[string]any
}

// Schema returns the JSON Schema a response of this shape must satisfy.
func (s Shape) Schema() *llm.Schema {
	props := map[string]any{
		s.questionKey(): map[string]any{"type": "string"},
		"rationale":     map[string]any{"type": "string"},
	}
	required := []any{s.questionKey()}
	if s.StimulusKey != "" {
		props[s.StimulusKey] = map[string]any{"type": "string"}
		required = append(required, s.StimulusKey)
	}
	if s.Choice {
		props["options"] = map[string]any{
			"type":  "array",
			"items": map[string]any{"type": []any{"string", "number"}},
		}
		props[s.AnswerKey] = map[string]any{"type": []any{"integer", "string"}}
		required = append(required, "options", s.AnswerKey)
	}
	item := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}

	def := item
	if s.ListKey != "" {
		def = map[string]any{
			"type": "object",
			"properties": map[string]any{
				s.ListKey: map[string]any{"type": "array", "items": item},
			},
			"required": []any{s.ListKey},
		}
	}
	return &llm.Schema{Name: "itemgen-" + s.Name, Description: s.Name + " items", Definition: def}
}

// ValidateBatch checks raw against shape and returns exactly expected
// candidates. Any violation rejects the whole batch with an
// *ItemFormatError; short or long batches are never padded or truncated.
func ValidateBatch(raw map[string]any, shape Shape, expected int) ([]Candidate, error) {
	schema := shape.Schema()
	compiled, err := llm.CompileSchema(schema.Name, schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", shape.Name, err)
	}
	if err := compiled.Validate(any(raw)); err != nil {
		return nil, &ItemFormatError{Shape: shape.Name, Index: -1, Reason: firstLine(err.Error())}
	}

	var objects []map[string]any
	if shape.ListKey == "" {
		objects = []map[string]any{raw}
	} else {
		list, _ := raw[shape.ListKey].([]any)
		for i, v := range list {
			obj, ok := v.(map[string]any)
			if !ok {
				return nil, &ItemFormatError{Shape: shape.Name, Index: i, Reason: "not an object"}
			}
			objects = append(objects, obj)
		}
	}

	if len(objects) != expected {
		return nil, &ItemFormatError{
			Shape:  shape.Name,
			Index:  -1,
			Reason: fmt.Sprintf("expected %d items, got %d", expected, len(objects)),
		}
	}

	out := make([]Candidate, 0, len(objects))
	for i, obj := range objects {
		c, reason := validateItem(obj, shape)
		if reason != "" {
			return nil, &ItemFormatError{Shape: shape.Name, Index: i, Reason: reason}
		}
		out = append(out, c)
	}
	return out, nil
}

func validateItem(obj map[string]any, shape Shape) (Candidate, string) {
	c := Candidate{
		Question:  stringField(obj, shape.questionKey()),
		Rationale: stringField(obj, "rationale"),
		Fields:    obj,
	}
	if c.Question == "" {
		return c, shape.questionKey() + " is empty"
	}
	if shape.StimulusKey != "" {
		c.Stimulus = stringField(obj, shape.StimulusKey)
		if c.Stimulus == "" {
			return c, shape.StimulusKey + " is empty"
		}
	}
	if !shape.Choice {
		return c, ""
	}

	opts, _ := obj["options"].([]any)
	if len(opts) != NumOptions {
		return c, fmt.Sprintf("expected %d options, got %d", NumOptions, len(opts))
	}
	for i, o := range opts {
		s := strings.TrimSpace(fmt.Sprint(o))
		if s == "" {
			return c, fmt.Sprintf("option %d is empty", i+1)
		}
		c.Options = append(c.Options, s)
	}

	idx, ok := intField(obj[shape.AnswerKey])
	if !ok {
		return c, shape.AnswerKey + " is not an integer"
	}
	if idx < 0 || idx >= NumOptions {
		return c, fmt.Sprintf("%s %d out of range [0,%d]", shape.AnswerKey, idx, NumOptions-1)
	}
	c.CorrectIndex = idx
	return c, ""
}

// stringField returns obj[key] trimmed, or "" when absent or not a string.
func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

// stringList returns the non-empty strings of obj[key], capped at limit.
func stringList(obj map[string]any, key string, limit int) []string {
	list, _ := obj[key].([]any)
	var out []string
	for _, v := range list {
		s := strings.TrimSpace(fmt.Sprint(v))
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

// intField accepts integral JSON numbers and numeric strings.
func intField(v any) (int, bool) {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = n.String()
	case float64:
		s = strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return n, true
	case string:
		s = strings.TrimSpace(n)
	default:
		return 0, false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
