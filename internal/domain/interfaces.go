package domain

// Document represents a single source text added to the document store.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a semantically meaningful part of a document used for indexing.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
	// Digest is the content hash of the whole source document.
	Digest string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Splitter breaks a context blob into ordered pieces that each fit a token budget.
type Splitter interface {
	Split(text string, tokenLimit int) []string
}

// Tokenizer counts tokens in a span of text.
type Tokenizer interface {
	Count(text string) int
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// DocumentStore ingests raw document text and answers relevance queries
// with the concatenated top passages.
type DocumentStore interface {
	Add(text string) error
	Query(text string, resultCount int) (string, error)
}

// TextSource resolves a document name to its plain-text representation.
// A document that does not exist yields an error wrapping fs.ErrNotExist.
type TextSource interface {
	Read(path string) (string, error)
}
