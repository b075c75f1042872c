package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHistory(t *testing.T) {
	raw := `[{"prompt":"first","response":"one"},{"prompt":"second","response":"two"}]`
	turns, err := ParseHistory(raw)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{Prompt: "first", Response: "one"}, turns[0])
	assert.Equal(t, Turn{Prompt: "second", Response: "two"}, turns[1])
}

func TestParseHistoryEmpty(t *testing.T) {
	turns, err := ParseHistory("")
	require.NoError(t, err)
	assert.Nil(t, turns)
}

func TestParseHistoryMissingResponse(t *testing.T) {
	turns, err := ParseHistory(`[{"prompt":"only"}]`)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "only", turns[0].Prompt)
	assert.Empty(t, turns[0].Response)
}

func TestParseHistoryRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":            `{{`,
		"not an array":        `{"prompt":"x"}`,
		"missing prompt":      `[{"response":"x"}]`,
		"prompt not a string": `[{"prompt":42}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseHistory(raw)
			require.Error(t, err)
		})
	}
}

func TestLastQuestions(t *testing.T) {
	history := []Turn{
		{Prompt: "q1"}, {Prompt: "q2"}, {Prompt: "q3"},
		{Prompt: "q4"}, {Prompt: "q5"}, {Prompt: "q6"}, {Prompt: "q7"},
	}

	// Oldest first, last n only.
	assert.Equal(t, []string{"q3", "q4", "q5", "q6", "q7"}, LastQuestions(history, 5))
	assert.Equal(t, []string{"q7"}, LastQuestions(history, 1))
	assert.Equal(t, []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7"}, LastQuestions(history, 10))
	assert.Nil(t, LastQuestions(history, 0))
	assert.Nil(t, LastQuestions(nil, 5))
}

func TestTruncateToTokenLimitDropsOldestFirst(t *testing.T) {
	history := []Turn{
		{Prompt: "one two", Response: "three four"},   // 4 tokens
		{Prompt: "five six", Response: "seven eight"}, // 4 tokens
		{Prompt: "nine", Response: "ten"},             // 2 tokens
	}

	out := TruncateToTokenLimit(history, 6, wordTokenizer{})
	require.Len(t, out, 2)
	assert.Equal(t, "five six", out[0].Prompt)
	assert.Equal(t, "nine", out[1].Prompt)
}

func TestTruncateToTokenLimitKeepsFittingHistory(t *testing.T) {
	history := []Turn{{Prompt: "one", Response: "two"}}
	out := TruncateToTokenLimit(history, 100, wordTokenizer{})
	assert.Equal(t, history, out)
}

func TestTruncateToTokenLimitDisabled(t *testing.T) {
	history := []Turn{{Prompt: "one", Response: "two"}}
	assert.Equal(t, history, TruncateToTokenLimit(history, 0, wordTokenizer{}))
	assert.Equal(t, history, TruncateToTokenLimit(history, -1, wordTokenizer{}))
	assert.Equal(t, history, TruncateToTokenLimit(history, 1, nil))
}

func TestTruncateToTokenLimitCanEmptyHistory(t *testing.T) {
	history := []Turn{
		{Prompt: "one two three", Response: "four five"},
		{Prompt: "six seven", Response: "eight"},
	}
	out := TruncateToTokenLimit(history, 2, wordTokenizer{})
	assert.Empty(t, out)
}
