package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyFollowUp(t *testing.T) {
	cases := []struct {
		reply string
		want  bool
	}{
		{"follow-up", true},
		{"  Follow-Up \n", true},
		{"FOLLOW-UP", true},
		{"standalone", false},
		{"follow-up.", false}, // trailing punctuation is not an exact match
		{"maybe", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run("reply_"+tc.reply, func(t *testing.T) {
			provider := &scriptedProvider{replies: []string{tc.reply}}
			expander := NewExpander(provider, DefaultExpanderConfig(), nil)

			got, err := expander.ClassifyFollowUp(context.Background(), "What about fees?")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClassifyFollowUpProviderError(t *testing.T) {
	provider := &scriptedProvider{errs: []error{errors.New("upstream down")}}
	expander := NewExpander(provider, DefaultExpanderConfig(), nil)

	_, err := expander.ClassifyFollowUp(context.Background(), "q")
	require.Error(t, err)
}

func TestExpandReturnsExactCount(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  []string
	}{
		{
			name:  "exact",
			reply: "how to apply for a visa ||| visa application steps",
			want:  []string{"how to apply for a visa", "visa application steps"},
		},
		{
			name:  "too many segments truncated",
			reply: "a ||| b ||| c ||| d",
			want:  []string{"a", "b"},
		},
		{
			name:  "too few padded with original",
			reply: "only one variant",
			want:  []string{"only one variant", "original question"},
		},
		{
			name:  "empty segments dropped then padded",
			reply: " ||| just this ||| ",
			want:  []string{"just this", "original question"},
		},
		{
			name:  "garbage reply falls back entirely",
			reply: "   ",
			want:  []string{"original question", "original question"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &scriptedProvider{replies: []string{tc.reply}}
			expander := NewExpander(provider, DefaultExpanderConfig(), nil)

			got, err := expander.Expand(context.Background(), "original question", false, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExpandFollowUpIncludesHistoryTail(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"a ||| b"}}
	expander := NewExpander(provider, DefaultExpanderConfig(), nil)

	_, err := expander.Expand(context.Background(), "and the fees?", true,
		[]string{"what is a green card", "how long does it take"})
	require.NoError(t, err)

	prompt := systemPromptOf(provider.lastRequest())
	assert.Contains(t, prompt, "follow-up question")
	assert.Contains(t, prompt, "- what is a green card\n")
	assert.Contains(t, prompt, "- how long does it take\n")
}

func TestExpandStandaloneOmitsHistory(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"a ||| b"}}
	expander := NewExpander(provider, DefaultExpanderConfig(), nil)

	_, err := expander.Expand(context.Background(), "what is a visa", false,
		[]string{"should not appear"})
	require.NoError(t, err)

	assert.NotContains(t, systemPromptOf(provider.lastRequest()), "should not appear")
}
