package chunker

import (
	"strings"

	"omniparse/internal/domain"
)

// TokenChunker splits retrieved context into chunks that fit a token budget,
// breaking at paragraph and sentence boundaries where it can.
//
// The budget is best-effort: a sentence that alone exceeds the limit is
// emitted as its own oversized chunk. With hardSplit set, such a sentence is
// cut at word boundaries instead and only a single over-long word can exceed
// the limit.
type TokenChunker struct {
	tokenizer domain.Tokenizer
	hardSplit bool
}

// NewTokenChunker creates a TokenChunker counting with tok.
func NewTokenChunker(tok domain.Tokenizer, hardSplit bool) *TokenChunker {
	return &TokenChunker{tokenizer: tok, hardSplit: hardSplit}
}

type unit struct {
	text string
	// paragraph marks the first unit of a new paragraph
	paragraph bool
}

// Split returns the ordered chunks of text. Empty or blank text yields no chunks.
func (c *TokenChunker) Split(text string, tokenLimit int) []string {
	if tokenLimit < 1 {
		tokenLimit = 1
	}
	units := c.units(text, tokenLimit)
	if len(units) == 0 {
		return nil
	}

	var chunks []string
	current := ""
	for _, u := range units {
		if current == "" {
			current = u.text
			continue
		}
		sep := " "
		if u.paragraph {
			sep = "\n\n"
		}
		candidate := current + sep + u.text
		if c.tokenizer.Count(candidate) <= tokenLimit {
			current = candidate
			continue
		}
		chunks = append(chunks, current)
		current = u.text
	}
	return append(chunks, current)
}

func (c *TokenChunker) units(text string, tokenLimit int) []unit {
	var units []unit
	for _, p := range SplitParagraphs(text) {
		if c.tokenizer.Count(p) <= tokenLimit {
			units = append(units, unit{text: p, paragraph: true})
			continue
		}
		first := true
		for _, s := range SplitSentences(p) {
			pieces := []string{s}
			if c.hardSplit && c.tokenizer.Count(s) > tokenLimit {
				pieces = c.splitWords(s, tokenLimit)
			}
			for _, piece := range pieces {
				units = append(units, unit{text: piece, paragraph: first})
				first = false
			}
		}
	}
	return units
}

func (c *TokenChunker) splitWords(sentence string, tokenLimit int) []string {
	var out []string
	current := ""
	for _, w := range strings.Fields(sentence) {
		if current == "" {
			current = w
			continue
		}
		if c.tokenizer.Count(current+" "+w) <= tokenLimit {
			current += " " + w
			continue
		}
		out = append(out, current)
		current = w
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}
