package rag

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/oratio-labs/oratio-svc/internal/metrics"
	"github.com/oratio-labs/oratio-svc/llm"
	"github.com/oratio-labs/oratio-svc/llm/tokenizer"
)

// PipelineConfig tunes the end-to-end answer pipeline.
type PipelineConfig struct {
	// Chunks is the default number of passages retrieved per expanded
	// query when a request does not specify one.
	Chunks int `yaml:"chunks" json:"chunks"`

	// PromptTemplate is the system prompt with a {summaries} placeholder.
	PromptTemplate string `yaml:"prompt_template" json:"prompt_template"`

	// RequestTimeout bounds one full pipeline run. All outstanding
	// upstream calls are cancelled when it expires. Zero disables the
	// deadline.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// DefaultPipelineConfig returns the default pipeline settings.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Chunks:         3,
		RequestTimeout: 60 * time.Second,
	}
}

// Request carries one question through the pipeline. A negative Chunks
// selects the configured default; zero disables retrieval entirely. A
// TokenLimit of zero disables history truncation.
type Request struct {
	Question   string
	History    []Turn
	Chunks     int
	TokenLimit int
}

// Pipeline orchestrates expansion, retrieval, and synthesis. All entities
// it produces live for a single request; nothing is shared across
// requests except the injected collaborators, which are safe for
// concurrent use.
type Pipeline struct {
	expander    *Expander
	retriever   Retriever
	synthesizer *Synthesizer
	counter     tokenizer.Tokenizer
	cfg         PipelineConfig
	collector   *metrics.Collector
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewPipeline wires the pipeline. counter and collector may be nil;
// a nil counter disables token-limit truncation.
func NewPipeline(expander *Expander, retriever Retriever, synthesizer *Synthesizer, counter tokenizer.Tokenizer, cfg PipelineConfig, collector *metrics.Collector, logger *zap.Logger) *Pipeline {
	if cfg.Chunks <= 0 {
		cfg.Chunks = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		expander:    expander,
		retriever:   retriever,
		synthesizer: synthesizer,
		counter:     counter,
		cfg:         cfg,
		collector:   collector,
		tracer:      otel.Tracer("rag"),
		logger:      logger.With(zap.String("component", "pipeline")),
	}
}

// Answer runs the full pipeline: classify, expand, retrieve, synthesize.
// Expansion, classification, and synthesis failures are fatal to the
// request; retrieval branch failures only degrade the document set.
func (p *Pipeline) Answer(ctx context.Context, req *Request) (*Answer, error) {
	ctx, cancel := p.requestContext(ctx)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "pipeline.answer")
	defer span.End()

	question, history, docs, err := p.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	answer, err := p.synthesizer.Synthesize(ctx, question, history, docs, p.cfg.PromptTemplate)
	if err != nil {
		p.collector.RecordLLMRequest("synthesize", "error", time.Since(start))
		return nil, err
	}
	p.collector.RecordLLMRequest("synthesize", "ok", time.Since(start))
	return answer, nil
}

// AnswerStream runs the retrieval stages like Answer, then streams the
// completion. The document set is returned up front so callers can emit
// sources alongside the fragment stream.
func (p *Pipeline) AnswerStream(ctx context.Context, req *Request) (<-chan llm.StreamChunk, []Document, error) {
	ctx, cancel := p.requestContext(ctx)

	ctx, span := p.tracer.Start(ctx, "pipeline.answer_stream")

	question, history, docs, err := p.prepare(ctx, req)
	if err != nil {
		span.End()
		cancel()
		return nil, nil, err
	}

	start := time.Now()
	stream, err := p.synthesizer.SynthesizeStream(ctx, question, history, docs, p.cfg.PromptTemplate)
	if err != nil {
		p.collector.RecordLLMRequest("synthesize", "error", time.Since(start))
		span.End()
		cancel()
		return nil, nil, err
	}

	out := make(chan llm.StreamChunk)
	go func() {
		defer cancel()
		defer span.End()
		defer close(out)
		outcome := "ok"
		for chunk := range stream {
			if chunk.Err != nil {
				outcome = "error"
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				p.collector.RecordLLMRequest("synthesize", "error", time.Since(start))
				return
			}
		}
		p.collector.RecordLLMRequest("synthesize", outcome, time.Since(start))
	}()
	return out, docs, nil
}

// prepare runs the shared front half of the pipeline: classification,
// expansion, fan-out retrieval, and history truncation.
func (p *Pipeline) prepare(ctx context.Context, req *Request) (string, []Turn, []Document, error) {
	start := time.Now()

	isFollowUp, err := p.expander.ClassifyFollowUp(ctx, req.Question)
	if err != nil {
		p.collector.RecordLLMRequest("classify", "error", time.Since(start))
		return "", nil, nil, err
	}
	p.collector.RecordLLMRequest("classify", "ok", time.Since(start))

	var tail []string
	if isFollowUp {
		tail = LastQuestions(req.History, p.expander.HistoryTail())
		p.logger.Info("follow-up question detected",
			zap.Int("history_tail", len(tail)))
	}

	expandStart := time.Now()
	queries, err := p.expander.Expand(ctx, req.Question, isFollowUp, tail)
	if err != nil {
		p.collector.RecordLLMRequest("expand", "error", time.Since(expandStart))
		return "", nil, nil, err
	}
	p.collector.RecordLLMRequest("expand", "ok", time.Since(expandStart))

	chunks := req.Chunks
	if chunks < 0 {
		chunks = p.cfg.Chunks
	}

	retrievalCtx, retrievalSpan := p.tracer.Start(ctx, "pipeline.retrieve",
		trace.WithAttributes(
			attribute.Int("queries", len(queries)),
			attribute.Int("k", chunks)))
	docs := Retrieve(retrievalCtx, p.retriever, queries, chunks, p.logger)
	retrievalSpan.End()

	p.collector.RecordRetrieval(len(queries), len(docs))
	p.logger.Info("documents retrieved",
		zap.Int("queries", len(queries)),
		zap.Int("documents", len(docs)))

	history := TruncateToTokenLimit(req.History, req.TokenLimit, p.counter)
	return req.Question, history, docs, nil
}

func (p *Pipeline) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, p.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}
