package cefr

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"A1", A1, false},
		{" b2 ", B2, false},
		{"c2", C2, false},
		{"D1", A1, true},
		{"", A1, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownLevel))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStepSaturates(t *testing.T) {
	assert.Equal(t, A1, A1.Step(-1))
	assert.Equal(t, A1, A2.Step(-2))
	assert.Equal(t, C2, C2.Step(1))
	assert.Equal(t, C2, C1.Step(2))
	assert.Equal(t, C1, B1.Step(2))
	assert.Equal(t, B2, B2.Step(0))
}

func TestExamTag(t *testing.T) {
	want := map[Level]string{
		A1: "KET", A2: "KET",
		B1: "PET",
		B2: "FCE", C1: "FCE", C2: "FCE",
	}
	for l, tag := range want {
		assert.Equal(t, tag, l.ExamTag(), l.String())
	}
}

func TestAverage(t *testing.T) {
	assert.Equal(t, B1, Average(nil))
	assert.Equal(t, B2, Average([]Level{B1, C1}))
	assert.Equal(t, A2, Average([]Level{A1, A2, B1}))
}

func TestJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Level Level `json:"level"`
	}
	b, err := json.Marshal(wrapper{Level: C1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"C1"}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"level":"a2"}`), &w))
	assert.Equal(t, A2, w.Level)

	assert.Error(t, json.Unmarshal([]byte(`{"level":"Z9"}`), &w))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, A1.Compare(B1))
	assert.Equal(t, 0, B1.Compare(B1))
	assert.Equal(t, 1, C2.Compare(C1))
}
