package chunker

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omniparse/internal/tokenizer"
)

func TestTokenChunker_EmptyText(t *testing.T) {
	c := NewTokenChunker(tokenizer.Words{}, false)
	for _, limit := range []int{-1, 0, 1, 10, 1000} {
		assert.Empty(t, c.Split("", limit), "limit %d", limit)
		assert.Empty(t, c.Split(" \n\n\t ", limit), "limit %d", limit)
	}
}

func TestTokenChunker_PacksSentences(t *testing.T) {
	c := NewTokenChunker(tokenizer.Words{}, false)
	chunks := c.Split("One two three. Four five six. Seven eight nine.", 6)
	assert.Equal(t, []string{"One two three. Four five six.", "Seven eight nine."}, chunks)
}

func TestTokenChunker_KeepsParagraphsTogether(t *testing.T) {
	c := NewTokenChunker(tokenizer.Words{}, false)
	chunks := c.Split("Para one.\n\n\nPara two.", 100)
	assert.Equal(t, []string{"Para one.\n\nPara two."}, chunks)
}

func TestTokenChunker_OversizedSentenceEmittedWhole(t *testing.T) {
	c := NewTokenChunker(tokenizer.Words{}, false)
	chunks := c.Split("a b c d e f g h. i j.", 3)
	assert.Equal(t, []string{"a b c d e f g h.", "i j."}, chunks)
}

func TestTokenChunker_HardSplitAtWords(t *testing.T) {
	c := NewTokenChunker(tokenizer.Words{}, true)
	chunks := c.Split("a b c d e f g h. i j.", 3)
	assert.Equal(t, []string{"a b c", "d e f", "g h.", "i j."}, chunks)
}

func TestTokenChunker_DecimalAmountNotSplit(t *testing.T) {
	c := NewTokenChunker(tokenizer.Words{}, false)
	chunks := c.Split("Invoice 42. Total Due: $150.00 payable now.", 5)
	assert.Equal(t, []string{"Invoice 42.", "Total Due: $150.00 payable now."}, chunks)
}

func TestTokenChunker_LimitBelowOne(t *testing.T) {
	c := NewTokenChunker(tokenizer.Words{}, true)
	assert.Equal(t, []string{"alpha", "beta"}, c.Split("alpha beta", 0))
}

func TestTokenChunker_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"invoice", "total", "due", "$150.00", "contract", "party", "net", "30", "days", "signed"}
	punct := []string{".", "!", "?", ""}

	for iter := 0; iter < 200; iter++ {
		var b strings.Builder
		paragraphs := 1 + rng.Intn(4)
		for p := 0; p < paragraphs; p++ {
			if p > 0 {
				b.WriteString("\n\n")
			}
			sentences := 1 + rng.Intn(5)
			for s := 0; s < sentences; s++ {
				if s > 0 {
					b.WriteString(" ")
				}
				n := 1 + rng.Intn(12)
				for w := 0; w < n; w++ {
					if w > 0 {
						b.WriteString(" ")
					}
					b.WriteString(words[rng.Intn(len(words))])
				}
				b.WriteString(punct[rng.Intn(len(punct))])
			}
		}
		text := b.String()
		limit := 1 + rng.Intn(15)

		for _, hard := range []bool{false, true} {
			name := fmt.Sprintf("iter=%d/hard=%v", iter, hard)
			tok := tokenizer.Words{}
			chunks := NewTokenChunker(tok, hard).Split(text, limit)
			require.NotEmpty(t, chunks, name)

			joined := strings.Join(chunks, " ")
			assert.Equal(t, strings.Fields(text), strings.Fields(joined), name)

			for _, ch := range chunks {
				if tok.Count(ch) <= limit {
					continue
				}
				if hard {
					assert.Len(t, strings.Fields(ch), 1, "%s: oversized chunk %q", name, ch)
				} else {
					assert.Len(t, SplitSentences(ch), 1, "%s: oversized chunk %q", name, ch)
				}
			}
		}
	}
}

func TestTokenChunker_WithEstimator(t *testing.T) {
	est := tokenizer.NewEstimator()
	c := NewTokenChunker(est, false)
	text := strings.Repeat("The vendor shipped the goods on time. ", 50)
	chunks := c.Split(text, 40)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, est.Count(ch), 40)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
}
