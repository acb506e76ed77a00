package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omniparse/internal/domain"
)

func TestSplitSentences(t *testing.T) {
	got := SplitSentences(`He said "stop." Then left! Did he? Total: $150.00 due trailing text`)
	assert.Equal(t, []string{`He said "stop."`, "Then left!", "Did he?", "Total: $150.00 due trailing text"}, got)
	assert.Empty(t, SplitSentences("   "))
}

func TestSplitParagraphs(t *testing.T) {
	got := SplitParagraphs("first\nline\n \nsecond\n\n\n\nthird  ")
	assert.Equal(t, []string{"first\nline", "second", "third"}, got)
}

func TestSentenceChunker_Overlap(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	doc := domain.Document{ID: "doc", Content: "A one. B two. C three. D four."}
	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "A one. B two.", chunks[0].Text)
	assert.Equal(t, "B two. C three.", chunks[1].Text)
	assert.Equal(t, "C three. D four.", chunks[2].Text)
	assert.Equal(t, "doc:2", chunks[2].ChunkID)
	assert.Equal(t, 2, chunks[2].Index)
	assert.Equal(t, "doc", chunks[2].DocumentID)
}

func TestSentenceChunker_Defaults(t *testing.T) {
	c := NewSentenceChunker(0, 9)
	assert.Equal(t, 5, c.perChunk)
	assert.Equal(t, 4, c.overlap)

	c = NewSentenceChunker(3, -2)
	assert.Equal(t, 0, c.overlap)
}

func TestSentenceChunker_EmptyAndUnterminated(t *testing.T) {
	c := NewSentenceChunker(5, 1)
	chunks, err := c.Chunk(domain.Document{ID: "x", Content: "  "})
	require.NoError(t, err)
	assert.Nil(t, chunks)

	chunks, err = c.Chunk(domain.Document{ID: "x", Content: "no terminator here"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "no terminator here", chunks[0].Text)
}

func TestSentenceChunker_KeepsParagraphsApart(t *testing.T) {
	c := NewSentenceChunker(3, 0)
	doc := domain.Document{ID: "d", Content: "Invoice 42. Bill to: Globex.\n\nTotal Due: $150.00. Net 30."}
	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Invoice 42. Bill to: Globex.", chunks[0].Text)
	assert.Equal(t, "Total Due: $150.00. Net 30.", chunks[1].Text)
	assert.Equal(t, "d:1", chunks[1].ChunkID)
}
