package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oratio-labs/oratio-svc/api"
	"github.com/oratio-labs/oratio-svc/llm"
	"github.com/oratio-labs/oratio-svc/rag"
	"github.com/oratio-labs/oratio-svc/types"
)

// fakePipeline records the request it received and returns a canned
// answer or error.
type fakePipeline struct {
	lastReq *rag.Request
	answer  *rag.Answer
	err     error

	streamChunks []llm.StreamChunk
	streamDocs   []rag.Document
}

func (f *fakePipeline) Answer(_ context.Context, req *rag.Request) (*rag.Answer, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func (f *fakePipeline) AnswerStream(_ context.Context, req *rag.Request) (<-chan llm.StreamChunk, []rag.Document, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, nil, f.err
	}
	out := make(chan llm.StreamChunk, len(f.streamChunks))
	for _, chunk := range f.streamChunks {
		out <- chunk
	}
	close(out)
	return out, f.streamDocs, nil
}

func postAnswer(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/answer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAnswerSuccess(t *testing.T) {
	pipeline := &fakePipeline{answer: &rag.Answer{
		Text: "grounded answer",
		Sources: []rag.Document{
			{Title: "T", Text: "passage", Source: "src", Score: 0.9},
		},
	}}
	handler := NewAnswerHandler(pipeline, nil)

	rec := postAnswer(t, handler.Answer, `{"question":"What is X?","conversation_id":"conv-1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp api.AnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "grounded answer", resp.Answer)
	assert.Equal(t, "conv-1", resp.ConversationID)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "passage", resp.Sources[0].Text)
	assert.Equal(t, "src", resp.Sources[0].Source)

	// Unspecified chunks selects the server default.
	assert.Equal(t, -1, pipeline.lastReq.Chunks)
}

func TestAnswerMintsConversationID(t *testing.T) {
	pipeline := &fakePipeline{answer: &rag.Answer{Text: "a"}}
	handler := NewAnswerHandler(pipeline, nil)

	rec := postAnswer(t, handler.Answer, `{"question":"q"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.AnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ConversationID)
}

func TestAnswerParsesHistoryAndOptions(t *testing.T) {
	pipeline := &fakePipeline{answer: &rag.Answer{Text: "a"}}
	handler := NewAnswerHandler(pipeline, nil)

	body := `{"question":"q","history":"[{\"prompt\":\"p\",\"response\":\"r\"}]","chunks":"5","token_limit":100}`
	rec := postAnswer(t, handler.Answer, body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pipeline.lastReq.History, 1)
	assert.Equal(t, rag.Turn{Prompt: "p", Response: "r"}, pipeline.lastReq.History[0])
	assert.Equal(t, 5, pipeline.lastReq.Chunks)
	assert.Equal(t, 100, pipeline.lastReq.TokenLimit)
}

func TestAnswerZeroChunksPassedThrough(t *testing.T) {
	pipeline := &fakePipeline{answer: &rag.Answer{Text: "a"}}
	handler := NewAnswerHandler(pipeline, nil)

	rec := postAnswer(t, handler.Answer, `{"question":"q","chunks":"0"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, pipeline.lastReq.Chunks)
}

func TestAnswerValidation(t *testing.T) {
	cases := map[string]string{
		"empty body":        ``,
		"empty question":    `{"question":"  "}`,
		"unknown field":     `{"question":"q","bogus":1}`,
		"bad history json":  `{"question":"q","history":"not json"}`,
		"history no prompt": `{"question":"q","history":"[{\"response\":\"r\"}]"}`,
		"chunks not an int": `{"question":"q","chunks":"three"}`,
		"negative chunks":   `{"question":"q","chunks":"-1"}`,
		"negative tokens":   `{"question":"q","token_limit":-5}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			pipeline := &fakePipeline{answer: &rag.Answer{Text: "a"}}
			handler := NewAnswerHandler(pipeline, nil)

			rec := postAnswer(t, handler.Answer, body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, string(types.ErrInvalidRequest), resp.Error.Code)
			// The pipeline never runs on invalid input.
			assert.Nil(t, pipeline.lastReq)
		})
	}
}

func TestAnswerPipelineFailure(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "generic failure",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   string(types.ErrInternalError),
		},
		{
			name:       "upstream timeout",
			err:        types.NewError(types.ErrUpstreamTimeout, "model timed out"),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   string(types.ErrUpstreamTimeout),
		},
		{
			name:       "rate limited",
			err:        types.NewError(types.ErrRateLimited, "slow down"),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   string(types.ErrRateLimited),
		},
		{
			name:       "upstream error",
			err:        types.NewError(types.ErrUpstreamError, "bad gateway"),
			wantStatus: http.StatusBadGateway,
			wantCode:   string(types.ErrUpstreamError),
		},
		{
			name:       "context deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   string(types.ErrTimeout),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewAnswerHandler(&fakePipeline{err: tc.err}, nil)
			rec := postAnswer(t, handler.Answer, `{"question":"q"}`)

			require.Equal(t, tc.wantStatus, rec.Code)
			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantCode, resp.Error.Code)
			// Internal detail must not leak.
			assert.NotContains(t, resp.Error.Message, "boom")
		})
	}
}

func TestAnswerStreamEmitsSourcesThenContent(t *testing.T) {
	pipeline := &fakePipeline{
		streamDocs: []rag.Document{{Text: "doc", Source: "s"}},
		streamChunks: []llm.StreamChunk{
			{Content: "part "},
			{Content: "two"},
			{FinishReason: "stop"},
		},
	}
	handler := NewAnswerHandler(pipeline, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/answer/stream", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()
	handler.AnswerStream(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var events []streamEvent
	var sawDone bool
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			sawDone = true
			continue
		}
		var ev streamEvent
		require.NoError(t, json.Unmarshal([]byte(payload), &ev))
		events = append(events, ev)
	}

	require.True(t, sawDone)
	require.Len(t, events, 3)
	require.Len(t, events[0].Sources, 1)
	assert.Equal(t, "doc", events[0].Sources[0].Text)
	assert.Equal(t, "part ", events[1].Content)
	assert.Equal(t, "two", events[2].Content)
}

func TestAnswerStreamUpstreamError(t *testing.T) {
	pipeline := &fakePipeline{
		streamChunks: []llm.StreamChunk{
			{Content: "partial"},
			{Err: types.NewError(types.ErrUpstreamError, "died mid-stream")},
		},
	}
	handler := NewAnswerHandler(pipeline, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/answer/stream", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()
	handler.AnswerStream(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `"error":"UPSTREAM_ERROR"`)
	assert.NotContains(t, body, "[DONE]")
}

func TestAnswerStreamSetupFailure(t *testing.T) {
	handler := NewAnswerHandler(&fakePipeline{err: errors.New("no retriever")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/answer/stream", strings.NewReader(`{"question":"q"}`))
	rec := httptest.NewRecorder()
	handler.AnswerStream(rec, req)

	// Setup failures arrive before any SSE bytes, as a plain JSON error.
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
