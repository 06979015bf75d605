package itemgen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```[A-Za-z]*\\s*(.*?)```")

// ExtractObject pulls a JSON object out of generator text. It tries the
// whole string, then the first fenced code block, then the span from the
// first '{' to the last '}'. Numbers are decoded as json.Number.
func ExtractObject(text string) (map[string]any, error) {
	if obj, err := decodeObject(text); err == nil {
		return obj, nil
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if obj, err := decodeObject(m[1]); err == nil {
			return obj, nil
		}
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last <= first {
		return nil, &ContentFormatError{Text: text}
	}
	obj, err := decodeObject(text[first : last+1])
	if err != nil {
		return nil, &ContentFormatError{Text: text, Err: err}
	}
	return obj, nil
}

// DecodeObject extracts the object in text and decodes it into v.
func DecodeObject(text string, v any) error {
	obj, err := ExtractObject(text)
	if err != nil {
		return err
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return &ContentFormatError{Text: text, Err: err}
	}
	if err := json.Unmarshal(b, v); err != nil {
		return &ContentFormatError{Text: text, Err: err}
	}
	return nil
}

func decodeObject(s string) (map[string]any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty input")
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("JSON value is %T, not an object", v)
	}
	return obj, nil
}
