package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oratio-labs/oratio-svc/api"
	"github.com/oratio-labs/oratio-svc/llm"
	"github.com/oratio-labs/oratio-svc/rag"
	"github.com/oratio-labs/oratio-svc/types"
)

// Answerer is the pipeline surface the answer endpoints depend on.
type Answerer interface {
	Answer(ctx context.Context, req *rag.Request) (*rag.Answer, error)
	AnswerStream(ctx context.Context, req *rag.Request) (<-chan llm.StreamChunk, []rag.Document, error)
}

// AnswerHandler serves the blocking and streaming answer endpoints.
type AnswerHandler struct {
	pipeline Answerer
	logger   *zap.Logger
}

// NewAnswerHandler creates the answer endpoints over the given pipeline.
func NewAnswerHandler(pipeline Answerer, logger *zap.Logger) *AnswerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerHandler{
		pipeline: pipeline,
		logger:   logger.With(zap.String("component", "answer_handler")),
	}
}

// Answer handles POST /api/answer.
func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)
	logger := h.logger.With(zap.String("request_id", requestID))

	req, convID, err := h.parseRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, types.ErrInvalidRequest, err.Error(), logger)
		return
	}

	answer, err := h.pipeline.Answer(r.Context(), req)
	if err != nil {
		status, code, msg := errorStatus(err)
		logger.Error("answer pipeline failed", zap.Error(err))
		writeError(w, status, code, msg, logger)
		return
	}

	writeJSON(w, http.StatusOK, api.AnswerResponse{
		Answer:         answer.Text,
		Sources:        toSources(answer.Sources),
		ConversationID: convID,
	}, logger)
}

// streamEvent is one server-sent event payload on the streaming endpoint.
// Exactly one field is set per event.
type streamEvent struct {
	Sources []api.Source `json:"sources,omitempty"`
	Content string       `json:"content,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// AnswerStream handles POST /api/answer/stream. Sources are emitted as
// the first event, then incremental content fragments, then a [DONE]
// sentinel.
func (h *AnswerHandler) AnswerStream(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)
	logger := h.logger.With(zap.String("request_id", requestID))

	req, _, err := h.parseRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, types.ErrInvalidRequest, err.Error(), logger)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, types.ErrInternalError, "streaming unsupported by transport", logger)
		return
	}

	stream, docs, err := h.pipeline.AnswerStream(r.Context(), req)
	if err != nil {
		status, code, msg := errorStatus(err)
		logger.Error("answer stream setup failed", zap.Error(err))
		writeError(w, status, code, msg, logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, streamEvent{Sources: toSources(docs)})
	flusher.Flush()

	for chunk := range stream {
		if chunk.Err != nil {
			logger.Error("stream aborted", zap.Error(chunk.Err))
			writeEvent(w, streamEvent{Error: string(chunk.Err.Code)})
			flusher.Flush()
			return
		}
		if chunk.Content == "" {
			continue
		}
		writeEvent(w, streamEvent{Content: chunk.Content})
		flusher.Flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, event streamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

// parseRequest validates the body and builds the pipeline request. The
// conversation ID is minted when the client does not supply one.
func (h *AnswerHandler) parseRequest(w http.ResponseWriter, r *http.Request) (*rag.Request, string, error) {
	var body api.AnswerRequest
	if err := decodeJSONBody(w, r, &body); err != nil {
		return nil, "", err
	}

	if strings.TrimSpace(body.Question) == "" {
		return nil, "", fmt.Errorf("question must not be empty")
	}

	history, err := rag.ParseHistory(body.History)
	if err != nil {
		return nil, "", err
	}

	chunks, err := parseChunks(body.Chunks)
	if err != nil {
		return nil, "", err
	}

	if body.TokenLimit < 0 {
		return nil, "", fmt.Errorf("token_limit must not be negative")
	}

	convID := body.ConversationID
	if convID == "" {
		convID = uuid.NewString()
	}

	return &rag.Request{
		Question:   body.Question,
		History:    history,
		Chunks:     chunks,
		TokenLimit: body.TokenLimit,
	}, convID, nil
}

// parseChunks maps the wire field to pipeline semantics: empty selects
// the configured default (signalled as -1), "0" disables retrieval, and
// anything non-numeric or negative is a client error.
func parseChunks(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("chunks must be an integer: %q", raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("chunks must not be negative")
	}
	return n, nil
}

func toSources(docs []rag.Document) []api.Source {
	sources := make([]api.Source, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, api.Source{
			Title:  doc.Title,
			Text:   doc.Text,
			Source: doc.Source,
		})
	}
	return sources
}
