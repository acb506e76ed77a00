// Package tokenizer provides the token counters used as the budget currency
// for chunking and logging.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/tsawler/tabula/rag"

	"omniparse/internal/domain"
)

// Estimator approximates token counts from text length using tabula's size
// calculator. It matches the usual 4-characters-per-token rule of thumb for
// English text without shipping a BPE vocabulary.
type Estimator struct {
	calc *rag.SizeCalculator
}

// NewEstimator creates an Estimator with the default ratio of 0.25 tokens per byte.
func NewEstimator() *Estimator {
	return NewEstimatorWithRatio(0.25)
}

// NewEstimatorWithRatio creates an Estimator using a custom tokens-per-byte ratio.
// Non-positive ratios fall back to the default.
func NewEstimatorWithRatio(tokensPerChar float64) *Estimator {
	cfg := rag.DefaultSizeConfig()
	if tokensPerChar > 0 {
		cfg.TokensPerChar = tokensPerChar
	}
	return &Estimator{calc: rag.NewSizeCalculatorWithConfig(cfg)}
}

// Count returns the estimated number of tokens in text.
func (e *Estimator) Count(text string) int {
	return e.calc.EstimateTokens(text)
}

// Words counts whitespace-separated words as tokens.
type Words struct{}

// Count returns the number of whitespace-separated words in text.
func (Words) Count(text string) int {
	return len(strings.Fields(text))
}

// New returns the tokenizer registered under name ("estimate" or "words").
func New(name string) (domain.Tokenizer, error) {
	switch name {
	case "estimate", "":
		return NewEstimator(), nil
	case "words":
		return Words{}, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer: %s", name)
	}
}
