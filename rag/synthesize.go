package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/oratio-labs/oratio-svc/llm"
	"github.com/oratio-labs/oratio-svc/types"
)

const (
	// summariesPlaceholder is the token in the prompt template replaced by
	// the retrieved passages.
	summariesPlaceholder = "{summaries}"

	// documentSeparator joins passage texts inside the system prompt.
	documentSeparator = "\n\n\n"
)

// Answer is a generated completion paired with the passages that
// grounded it.
type Answer struct {
	Text    string     `json:"text"`
	Sources []Document `json:"sources"`
}

// BuildMessages assembles the prompt sequence: one system message with
// the template's placeholder replaced by the joined passage texts, the
// history as user/assistant pairs in chronological order, and the raw
// current question as the final user message.
func BuildMessages(question string, history []Turn, docs []Document, template string) []types.Message {
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}
	systemPrompt := strings.ReplaceAll(template, summariesPlaceholder, strings.Join(texts, documentSeparator))

	messages := make([]types.Message, 0, len(history)*2+2)
	messages = append(messages, types.SystemMessage(systemPrompt))
	for _, turn := range history {
		messages = append(messages,
			types.UserMessage(turn.Prompt),
			types.AssistantMessage(turn.Response))
	}
	return append(messages, types.UserMessage(question))
}

// SynthesizerConfig tunes answer generation.
type SynthesizerConfig struct {
	Model       string  `yaml:"model" json:"model"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	Temperature float32 `yaml:"temperature" json:"temperature"`
}

// Synthesizer produces the final grounded answer from retrieved passages
// and conversation history.
type Synthesizer struct {
	provider llm.Provider
	cfg      SynthesizerConfig
	logger   *zap.Logger
}

// NewSynthesizer creates a Synthesizer. A nil logger falls back to a noop.
func NewSynthesizer(provider llm.Provider, cfg SynthesizerConfig, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "synthesizer")),
	}
}

// Synthesize invokes blocking generation over the assembled prompt and
// returns the completion paired with its sources.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, history []Turn, docs []Document, template string) (*Answer, error) {
	resp, err := s.provider.Completion(ctx, &llm.ChatRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages:    BuildMessages(question, history, docs, template),
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	s.logger.Debug("answer synthesized",
		zap.Int("documents", len(docs)),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return &Answer{Text: resp.Content, Sources: docs}, nil
}

// SynthesizeStream is the streaming counterpart of Synthesize; it
// forwards the provider's incremental fragments.
func (s *Synthesizer) SynthesizeStream(ctx context.Context, question string, history []Turn, docs []Document, template string) (<-chan llm.StreamChunk, error) {
	return s.provider.Stream(ctx, &llm.ChatRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages:    BuildMessages(question, history, docs, template),
	})
}
