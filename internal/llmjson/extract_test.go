package llmjson

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		wantKind Kind
	}{
		{
			name:  "bare array",
			input: `[{"question":"a"}]`,
			want:  `[{"question":"a"}]`,
		},
		{
			name:  "markdown fence and prose",
			input: "Sure! Here you go:\n```json\n[\n  {\"question\": \"a\"},\n  {\"question\": \"b\"}\n]\n```\nGood luck.",
			want:  "[\n  {\"question\": \"a\"},\n  {\"question\": \"b\"}\n]",
		},
		{
			name:  "skips arrays of scalars before the object array",
			input: `tags [1, 2] then [ {"question":"a"} ]`,
			want:  `[ {"question":"a"} ]`,
		},
		{
			name:  "brackets inside strings do not close",
			input: `[{"question":"what does ] mean?"}] trailing ]`,
			want:  `[{"question":"what does ] mean?"}]`,
		},
		{
			name:  "nested arrays",
			input: `[{"tags":["x","y"]},{"tags":[]}]`,
			want:  `[{"tags":["x","y"]},{"tags":[]}]`,
		},
		{
			name:     "no array",
			input:    "I cannot help with that.",
			wantKind: KindNoMatch,
		},
		{
			name:     "truncated output",
			input:    `[{"question":"a"}, {"question":"b"`,
			wantKind: KindUnterminated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractArray(tt.input)
			if tt.wantKind != "" {
				var pe *ParseError
				require.True(t, errors.As(err, &pe), "expected ParseError, got %v", err)
				assert.Equal(t, tt.wantKind, pe.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractObject(t *testing.T) {
	input := `Evaluation {"note": 1} follows: {
  "score": 8,
  "feedback": "Solid {structured} answer",
  "strengths": ["clear"],
  "improvements": ["more depth"]
} end`

	got, err := ExtractObject(input, "score")
	require.NoError(t, err)
	assert.Contains(t, got, `"score": 8`)
	assert.Equal(t, byte('}'), got[len(got)-1])
	assert.NotContains(t, got, "note")
}

func TestDecodeObject_Malformed(t *testing.T) {
	type feedback struct {
		Score int `json:"score"`
	}

	_, err := DecodeObject[feedback](`{"score": "eight",}`, "score")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindMalformed, pe.Kind)
	assert.NotNil(t, pe.Unwrap())
}

func TestDecodeArray(t *testing.T) {
	type item struct {
		Question string `json:"question"`
	}

	items, err := DecodeArray[item]("```json\n[{\"question\":\"a\"},{\"question\":\"b\"}]\n```")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[1].Question)
}
