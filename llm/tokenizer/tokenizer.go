// Package tokenizer provides token counting for prompt budgeting.
package tokenizer

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer is the token counting interface.
type Tokenizer interface {
	// CountTokens returns the token count of the given text.
	CountTokens(text string) (int, error)

	// Name returns the tokenizer name.
	Name() string
}

// modelEncodings maps model name prefixes to tiktoken encodings.
var modelEncodings = map[string]string{
	"gpt-4o":                 "o200k_base",
	"gpt-4":                  "cl100k_base",
	"gpt-3.5-turbo":          "cl100k_base",
	"text-embedding-3-large": "cl100k_base",
	"text-embedding-3-small": "cl100k_base",
}

// Tiktoken counts tokens with the tiktoken BPE for OpenAI-family models.
// Encoding data loads lazily on first use.
type Tiktoken struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTiktoken creates a tiktoken-backed counter for the given model,
// falling back to cl100k_base for unknown models.
func NewTiktoken(model string) *Tiktoken {
	encoding, ok := modelEncodings[model]
	if !ok {
		for prefix, e := range modelEncodings {
			if len(model) >= len(prefix) && model[:len(prefix)] == prefix {
				encoding = e
				ok = true
				break
			}
		}
	}
	if !ok {
		encoding = "cl100k_base"
	}
	return &Tiktoken{model: model, encoding: encoding}
}

func (t *Tiktoken) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *Tiktoken) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

func (t *Tiktoken) Name() string {
	return fmt.Sprintf("tiktoken/%s", t.encoding)
}

// Estimator is a character-ratio token estimator used when no BPE data is
// available (offline environments, unknown models).
type Estimator struct {
	charsPerToken float64
}

// NewEstimator creates an estimator with the default ~4 chars/token ratio.
func NewEstimator() *Estimator {
	return &Estimator{charsPerToken: 4.0}
}

func (e *Estimator) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	n := int(float64(utf8.RuneCountInString(text)) / e.charsPerToken)
	if n == 0 {
		n = 1
	}
	return n, nil
}

func (e *Estimator) Name() string { return "estimator" }

// ForModel returns a tiktoken counter for the model. Counting falls back
// to the estimator ratio internally only if the encoding cannot load at
// call time, so construction never fails.
func ForModel(model string) Tokenizer {
	return &fallbackTokenizer{primary: NewTiktoken(model), fallback: NewEstimator()}
}

type fallbackTokenizer struct {
	primary  *Tiktoken
	fallback *Estimator
}

func (f *fallbackTokenizer) CountTokens(text string) (int, error) {
	if n, err := f.primary.CountTokens(text); err == nil {
		return n, nil
	}
	return f.fallback.CountTokens(text)
}

func (f *fallbackTokenizer) Name() string { return f.primary.Name() }
