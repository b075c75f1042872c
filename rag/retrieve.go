package rag

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Retriever returns the top-k passages for a query, ordered by descending
// relevance.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Document, error)
}

// Retrieve fans out one search per expanded query, all in flight
// concurrently, and merges the results.
//
// A failed branch is logged and contributes nothing; it never aborts the
// other branches or the overall operation. Results are concatenated in
// query order, not completion order, so output is deterministic for
// deterministic inputs, then deduplicated by trimmed text.
func Retrieve(ctx context.Context, retriever Retriever, queries []string, k int, logger *zap.Logger) []Document {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([][]Document, len(queries))
	var wg sync.WaitGroup

	for i, query := range queries {
		wg.Add(1)
		go func(idx int, q string) {
			defer wg.Done()

			docs, err := retriever.Search(ctx, q, k)
			if err != nil {
				logger.Error("retrieval branch failed",
					zap.Int("query_index", idx),
					zap.Error(err))
				return
			}
			results[idx] = docs
		}(i, query)
	}
	wg.Wait()

	merged := make([]Document, 0, len(queries)*k)
	for i, docs := range results {
		logger.Debug("retrieval branch finished",
			zap.Int("query_index", i),
			zap.Int("documents", len(docs)))
		merged = append(merged, docs...)
	}
	return Deduplicate(merged)
}
