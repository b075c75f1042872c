package rag

import (
	"encoding/json"
	"fmt"

	"github.com/oratio-labs/oratio-svc/llm/tokenizer"
)

// Turn is one prior exchange in a conversation: the user's prompt and the
// assistant's response. A chronological slice of turns forms the chat
// history; the caller owns its persistence.
type Turn struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// ParseHistory decodes the caller-supplied history JSON. Every element
// must carry at least a "prompt" field; malformed JSON or a missing field
// is a validation error surfaced before the pipeline runs.
func ParseHistory(raw string) ([]Turn, error) {
	if raw == "" {
		return nil, nil
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("history must be a valid JSON array: %w", err)
	}

	turns := make([]Turn, 0, len(entries))
	for i, entry := range entries {
		rawPrompt, ok := entry["prompt"]
		if !ok {
			return nil, fmt.Errorf("history item %d is missing the prompt field", i)
		}
		var turn Turn
		if err := json.Unmarshal(rawPrompt, &turn.Prompt); err != nil {
			return nil, fmt.Errorf("history item %d has a non-string prompt: %w", i, err)
		}
		if rawResponse, ok := entry["response"]; ok {
			if err := json.Unmarshal(rawResponse, &turn.Response); err != nil {
				return nil, fmt.Errorf("history item %d has a non-string response: %w", i, err)
			}
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// LastQuestions returns the prompts of the last n turns, oldest first.
func LastQuestions(history []Turn, n int) []string {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	start := len(history) - n
	if start < 0 {
		start = 0
	}
	questions := make([]string, 0, len(history)-start)
	for _, turn := range history[start:] {
		questions = append(questions, turn.Prompt)
	}
	return questions
}

// TruncateToTokenLimit drops the oldest turns until the remaining history
// fits within limit tokens. A limit of zero or less disables truncation.
func TruncateToTokenLimit(history []Turn, limit int, counter tokenizer.Tokenizer) []Turn {
	if limit <= 0 || len(history) == 0 || counter == nil {
		return history
	}

	costs := make([]int, len(history))
	total := 0
	for i, turn := range history {
		p, err := counter.CountTokens(turn.Prompt)
		if err != nil {
			return history
		}
		r, err := counter.CountTokens(turn.Response)
		if err != nil {
			return history
		}
		costs[i] = p + r
		total += costs[i]
	}

	start := 0
	for start < len(history) && total > limit {
		total -= costs[start]
		start++
	}
	return history[start:]
}
