package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/oratio-labs/oratio-svc/llm"
	"github.com/oratio-labs/oratio-svc/types"
)

// expansionDelimiter separates the paraphrases in the model's reply.
const expansionDelimiter = "|||"

const classifierSystemPrompt = `You are a helpful assistant that classifies whether a user message in a conversation is a follow-up question that refers to previous context, or a standalone question.`

const classifierUserPrompt = `Classify the following user message as either 'follow-up' or 'standalone':

User message: %s

Answer with just 'follow-up' or 'standalone'.`

// ExpanderConfig tunes query expansion and follow-up classification.
type ExpanderConfig struct {
	// Expansions is the number of paraphrased queries produced per question.
	Expansions int `yaml:"expansions" json:"expansions"`

	// HistoryTail is how many prior questions are included as context when
	// expanding a follow-up question.
	HistoryTail int `yaml:"history_tail" json:"history_tail"`

	// Model overrides the provider's default deployment when set.
	Model string `yaml:"model" json:"model"`

	Temperature float32 `yaml:"temperature" json:"temperature"`
}

// DefaultExpanderConfig returns the default expansion settings.
func DefaultExpanderConfig() ExpanderConfig {
	return ExpanderConfig{
		Expansions:  2,
		HistoryTail: 5,
		Temperature: 0.3,
	}
}

// Expander widens retrieval recall by classifying questions and
// generating paraphrased query variants with the chat model.
type Expander struct {
	provider llm.Provider
	cfg      ExpanderConfig
	logger   *zap.Logger
}

// NewExpander creates an Expander. A nil logger falls back to a noop.
func NewExpander(provider llm.Provider, cfg ExpanderConfig, logger *zap.Logger) *Expander {
	if cfg.Expansions <= 0 {
		cfg.Expansions = 2
	}
	if cfg.HistoryTail <= 0 {
		cfg.HistoryTail = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "expander")),
	}
}

// HistoryTail returns the configured follow-up context length.
func (e *Expander) HistoryTail() int { return e.cfg.HistoryTail }

// ClassifyFollowUp asks the model whether the question depends on prior
// turns. Only the exact reply "follow-up" (after trimming and lowering)
// counts; anything else, including malformed output, means standalone.
func (e *Expander) ClassifyFollowUp(ctx context.Context, question string) (bool, error) {
	resp, err := e.provider.Completion(ctx, &llm.ChatRequest{
		Model:       e.cfg.Model,
		Temperature: e.cfg.Temperature,
		Messages: []types.Message{
			types.SystemMessage(classifierSystemPrompt),
			types.UserMessage(fmt.Sprintf(classifierUserPrompt, question)),
		},
	})
	if err != nil {
		return false, fmt.Errorf("classify follow-up: %w", err)
	}

	verdict := strings.ToLower(strings.TrimSpace(resp.Content))
	isFollowUp := verdict == "follow-up"
	e.logger.Debug("question classified",
		zap.String("verdict", verdict),
		zap.Bool("follow_up", isFollowUp))
	return isFollowUp, nil
}

// Expand generates the configured number of paraphrased queries for the
// question. For follow-up questions, historyTail (prior questions, oldest
// first) is included so the paraphrases pick up conversational context.
//
// The model is asked for delimiter-separated paraphrases; the parsed
// result is normalized to exactly the configured count, padding with the
// original question when the model returns too few.
func (e *Expander) Expand(ctx context.Context, question string, isFollowUp bool, historyTail []string) ([]string, error) {
	systemPrompt := fmt.Sprintf(`You will receive a user query and you will generate %d different versions of the received query.
Use different words and phrases to express the same meaning as the original query.
Do not change the meaning of the original query and do not add new information.

Provide the alternative queries separated by %s.`, e.cfg.Expansions, expansionDelimiter)

	if isFollowUp && len(historyTail) > 0 {
		var sb strings.Builder
		for _, q := range historyTail {
			sb.WriteString("- ")
			sb.WriteString(q)
			sb.WriteString("\n")
		}
		systemPrompt += fmt.Sprintf(`

IMPORTANT: This is a follow-up question in an ongoing conversation.
Previous questions in this conversation:
%s
When generating the expanded queries, use keywords and terminology that build upon the conversation history.`, sb.String())
	}

	resp, err := e.provider.Completion(ctx, &llm.ChatRequest{
		Model:       e.cfg.Model,
		Temperature: e.cfg.Temperature,
		Messages: []types.Message{
			types.SystemMessage(systemPrompt),
			types.UserMessage(question),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("expand query: %w", err)
	}

	queries := parseExpansions(resp.Content, question, e.cfg.Expansions)
	e.logger.Debug("query expanded",
		zap.Bool("follow_up", isFollowUp),
		zap.Strings("queries", queries))
	return queries, nil
}

// parseExpansions splits the raw completion on the delimiter and pins the
// result to exactly n entries: extra segments are dropped, missing ones
// are filled with the original question. The model's output is untrusted
// text, so segments are trimmed and empty ones discarded.
func parseExpansions(completion, question string, n int) []string {
	out := make([]string, 0, n)
	for _, segment := range strings.Split(completion, expansionDelimiter) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		out = append(out, segment)
		if len(out) == n {
			break
		}
	}
	for len(out) < n {
		out = append(out, question)
	}
	return out
}
