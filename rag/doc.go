// Package rag implements the retrieval-augmented answer pipeline:
// follow-up classification, query expansion, concurrent vector
// retrieval, deduplication, prompt assembly, and answer synthesis.
package rag
