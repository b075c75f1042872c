package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveMergesInQueryOrder(t *testing.T) {
	retriever := &fakeRetriever{docs: map[string][]Document{
		"q1": {{Text: "d1"}, {Text: "d2"}},
		"q2": {{Text: "d3"}},
		"q3": {{Text: "d4"}},
	}}

	// Branches run concurrently but output order follows query order;
	// repeat to catch scheduling-dependent ordering.
	for i := 0; i < 20; i++ {
		docs := Retrieve(context.Background(), retriever, []string{"q1", "q2", "q3"}, 5, nil)
		require.Len(t, docs, 4)
		assert.Equal(t, "d1", docs[0].Text)
		assert.Equal(t, "d2", docs[1].Text)
		assert.Equal(t, "d3", docs[2].Text)
		assert.Equal(t, "d4", docs[3].Text)
	}
}

// delayedRetriever delays selected branches so completion order differs
// from query order.
type delayedRetriever struct {
	inner Retriever
	delay map[string]time.Duration
}

func (r *delayedRetriever) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if d, ok := r.delay[query]; ok {
		time.Sleep(d)
	}
	return r.inner.Search(ctx, query, k)
}

func TestRetrieveMergeOrderIgnoresCompletionOrder(t *testing.T) {
	retriever := &delayedRetriever{
		inner: &fakeRetriever{docs: map[string][]Document{
			"q1": {{Text: "from-q1"}},
			"q2": {{Text: "from-q2"}},
		}},
		// q2 finishes well before q1.
		delay: map[string]time.Duration{"q1": 30 * time.Millisecond},
	}

	docs := Retrieve(context.Background(), retriever, []string{"q1", "q2"}, 3, nil)
	require.Len(t, docs, 2)
	assert.Equal(t, "from-q1", docs[0].Text)
	assert.Equal(t, "from-q2", docs[1].Text)
}

func TestRetrieveToleratesFailedBranches(t *testing.T) {
	retriever := &fakeRetriever{
		docs: map[string][]Document{
			"good": {{Text: "kept"}},
		},
		err: map[string]error{
			"bad": errors.New("search unavailable"),
		},
	}

	docs := Retrieve(context.Background(), retriever, []string{"bad", "good"}, 3, nil)
	require.Len(t, docs, 1)
	assert.Equal(t, "kept", docs[0].Text)
}

func TestRetrieveAllBranchesFailed(t *testing.T) {
	retriever := &fakeRetriever{err: map[string]error{
		"q1": errors.New("down"),
		"q2": errors.New("down"),
	}}

	docs := Retrieve(context.Background(), retriever, []string{"q1", "q2"}, 3, nil)
	assert.Empty(t, docs)
}

func TestRetrieveDeduplicatesAcrossBranches(t *testing.T) {
	retriever := &fakeRetriever{docs: map[string][]Document{
		"q1": {{Text: "shared", Source: "first"}, {Text: "only-q1"}},
		"q2": {{Text: "shared", Source: "second"}, {Text: "only-q2"}},
	}}

	docs := Retrieve(context.Background(), retriever, []string{"q1", "q2"}, 5, nil)
	require.Len(t, docs, 3)
	assert.Equal(t, "shared", docs[0].Text)
	assert.Equal(t, "first", docs[0].Source)
}

func TestRetrieveNoQueries(t *testing.T) {
	retriever := &fakeRetriever{}
	docs := Retrieve(context.Background(), retriever, nil, 3, nil)
	assert.Empty(t, docs)
	assert.Empty(t, retriever.queries)
}
