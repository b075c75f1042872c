package rag

import "strings"

// Document is a retrieved passage with its provenance.
type Document struct {
	Title  string  `json:"title,omitempty"`
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score,omitempty"`
}

// dedupKey normalizes document text for duplicate detection.
func dedupKey(text string) string {
	return strings.TrimSpace(text)
}

// Deduplicate removes documents whose trimmed text has already been seen,
// preserving first-seen order. Documents whose text is empty or
// whitespace-only are dropped. The operation is idempotent.
func Deduplicate(docs []Document) []Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]Document, 0, len(docs))

	for _, doc := range docs {
		key := dedupKey(doc.Text)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, doc)
	}
	return out
}
