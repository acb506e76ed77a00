package chunker

import (
	"strconv"
	"strings"

	"omniparse/internal/domain"
)

// SentenceChunker cuts documents into passages of a fixed number of
// sentences, overlapping by a few sentences. Passages never span a
// paragraph break.
type SentenceChunker struct {
	perChunk int
	overlap  int
}

// NewSentenceChunker returns a chunker emitting perChunk sentences per
// passage (5 when unset). overlap is clamped to [0, perChunk-1].
func NewSentenceChunker(perChunk, overlap int) *SentenceChunker {
	if perChunk <= 0 {
		perChunk = 5
	}
	overlap = min(max(overlap, 0), perChunk-1)
	return &SentenceChunker{perChunk: perChunk, overlap: overlap}
}

// Chunk splits document into passages numbered from 0 across the whole document.
func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, paragraph := range SplitParagraphs(document.Content) {
		for _, text := range c.windows(SplitSentences(paragraph)) {
			idx := len(chunks)
			chunks = append(chunks, domain.Chunk{
				DocumentID: document.ID,
				ChunkID:    document.ID + ":" + strconv.Itoa(idx),
				Text:       text,
				Index:      idx,
			})
		}
	}
	return chunks, nil
}

func (c *SentenceChunker) windows(sentences []string) []string {
	var out []string
	step := c.perChunk - c.overlap
	for start := 0; start < len(sentences); start += step {
		end := min(start+c.perChunk, len(sentences))
		out = append(out, strings.Join(sentences[start:end], " "))
		if end == len(sentences) {
			break
		}
	}
	return out
}
