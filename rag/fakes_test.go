package rag

import (
	"context"
	"strings"
	"sync"

	"github.com/oratio-labs/oratio-svc/llm"
	"github.com/oratio-labs/oratio-svc/types"
)

// scriptedProvider answers Completion calls from a fixed script, matched
// in order, and records every request it sees.
type scriptedProvider struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	calls    int
	requests []*llm.ChatRequest

	streamChunks []llm.StreamChunk
	streamErr    error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Completion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.calls
	p.calls++
	p.requests = append(p.requests, req)

	if idx < len(p.errs) && p.errs[idx] != nil {
		return nil, p.errs[idx]
	}
	reply := ""
	if idx < len(p.replies) {
		reply = p.replies[idx]
	}
	return &llm.ChatResponse{
		Provider: "scripted",
		Content:  reply,
	}, nil
}

func (p *scriptedProvider) Stream(_ context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.streamErr != nil {
		return nil, p.streamErr
	}
	out := make(chan llm.StreamChunk, len(p.streamChunks))
	for _, chunk := range p.streamChunks {
		out <- chunk
	}
	close(out)
	return out, nil
}

// lastRequest returns the most recent request seen by the provider.
func (p *scriptedProvider) lastRequest() *llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	return p.requests[len(p.requests)-1]
}

// systemPromptOf extracts the system message from a request for
// assertions on prompt assembly.
func systemPromptOf(req *llm.ChatRequest) string {
	for _, msg := range req.Messages {
		if msg.Role == types.RoleSystem {
			return msg.Content
		}
	}
	return ""
}

// llmStreamChunks builds a content-only chunk sequence ending with a
// stop finish reason.
func llmStreamChunks(fragments ...string) []llm.StreamChunk {
	out := make([]llm.StreamChunk, 0, len(fragments)+1)
	for _, f := range fragments {
		out = append(out, llm.StreamChunk{Content: f})
	}
	return append(out, llm.StreamChunk{FinishReason: "stop"})
}

// fakeRetriever answers Search from a per-query map and counts calls.
type fakeRetriever struct {
	mu      sync.Mutex
	docs    map[string][]Document
	err     map[string]error
	queries []string
}

func (r *fakeRetriever) Search(_ context.Context, query string, k int) ([]Document, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()

	if err, ok := r.err[query]; ok {
		return nil, err
	}
	docs := r.docs[query]
	if k < len(docs) {
		docs = docs[:k]
	}
	return docs, nil
}

// wordTokenizer counts whitespace-separated words; deterministic and
// cheap for truncation tests.
type wordTokenizer struct{}

func (wordTokenizer) CountTokens(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func (wordTokenizer) Name() string { return "word" }
