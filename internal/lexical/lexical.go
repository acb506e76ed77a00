// Package lexical holds the word tokenization, stopword list and overlap
// scoring shared by the TF-IDF embedder, the summarizer, the document store's
// lexical fallback and the TUI highlighter.
package lexical

import (
	"math"
	"regexp"
	"strings"
)

// wordPattern matches letter/digit runs, keeping amounts such as 150.00 and
// contractions such as don't in one token.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’.,][\p{L}\p{N}]+)*`)

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now", "what", "which", "who", "how",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// Words returns the lower-cased word tokens of text, stopwords included.
func Words(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// Terms returns the lower-cased word tokens of text with stopwords removed.
func Terms(text string) []string {
	raw := Words(text)
	out := raw[:0]
	for _, t := range raw {
		if IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// IsStopword reports whether the lower-cased token is on the stopword list.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// TermSet returns the distinct non-stopword terms of text.
func TermSet(text string) map[string]struct{} {
	terms := Terms(text)
	m := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		m[t] = struct{}{}
	}
	return m
}

// Overlap counts the distinct terms of text that appear in query.
func Overlap(query map[string]struct{}, text string) int {
	n := 0
	for t := range TermSet(text) {
		if _, ok := query[t]; ok {
			n++
		}
	}
	return n
}

// Ochiai returns |A∩B| / sqrt(|A||B|) for the query terms and the terms of text.
func Ochiai(query map[string]struct{}, text string) float64 {
	set := TermSet(text)
	if len(query) == 0 || len(set) == 0 {
		return 0
	}
	inter := 0
	for t := range set {
		if _, ok := query[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(query))*float64(len(set)))
}
