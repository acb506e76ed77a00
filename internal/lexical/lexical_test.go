package lexical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordsKeepsAmounts(t *testing.T) {
	assert.Equal(t, []string{"total", "due", "150.00", "don't"}, Words("Total Due: $150.00, don't"))
}

func TestTermsDropsStopwords(t *testing.T) {
	assert.Equal(t, []string{"total", "amount", "due"}, Terms("What is the total amount due?"))
	assert.True(t, IsStopword("the"))
	assert.False(t, IsStopword("invoice"))
}

func TestOverlapAndOchiai(t *testing.T) {
	q := TermSet("total amount due")
	assert.Equal(t, 2, Overlap(q, "Total Due: $150.00"))
	assert.InDelta(t, 2/math.Sqrt(9), Ochiai(q, "Total Due: $150.00"), 1e-9)
	assert.Zero(t, Ochiai(q, ""))
	assert.Zero(t, Ochiai(map[string]struct{}{}, "total"))
}
