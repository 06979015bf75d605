package itemgen

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]any
	}{
		{"whole string", `{"a": 1}`, map[string]any{"a": json.Number("1")}},
		{"surrounding whitespace", "  \n{\"a\": 1}\n ", map[string]any{"a": json.Number("1")}},
		{"json fence", "Here you go: ```json\n{\"a\":1}\n```", map[string]any{"a": json.Number("1")}},
		{"bare fence", "```\n{\"a\":\"x\"}\n```\nthanks", map[string]any{"a": "x"}},
		{"outer brace span", `noise {"a": {"b":2}} trailing`, map[string]any{"a": map[string]any{"b": json.Number("2")}}},
		{"broken fence and no clean span", "```json\n{oops\n``` later {\"a\": true}", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.text)
			if tt.want == nil {
				// The outer span "{oops ... true}" is not valid JSON either.
				var cfe *ContentFormatError
				require.ErrorAs(t, err, &cfe)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractObject_Failures(t *testing.T) {
	for _, text := range []string{
		"",
		"no json here",
		"[1, 2, 3]",
		"} backwards {",
		`{"a": 1} {"b": 2}x`,
	} {
		_, err := ExtractObject(text)
		var cfe *ContentFormatError
		if !errors.As(err, &cfe) {
			t.Errorf("ExtractObject(%q) error = %v, want ContentFormatError", text, err)
		}
	}
}

func TestDecodeObject(t *testing.T) {
	var v struct {
		Grade string `json:"grade"`
		Score int    `json:"score"`
	}
	err := DecodeObject("Result:\n```json\n{\"grade\": \"better\", \"score\": 7}\n```", &v)
	require.NoError(t, err)
	assert.Equal(t, "better", v.Grade)
	assert.Equal(t, 7, v.Score)

	err = DecodeObject("nothing", &v)
	var cfe *ContentFormatError
	assert.ErrorAs(t, err, &cfe)
}
