// Package docstore implements the document store the pipeline retrieves
// context from: added text is cut into passages, embedded and indexed in a
// vector storage; queries return the concatenated top passages.
package docstore

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"

	"omniparse/internal/domain"
	"omniparse/internal/lexical"
	"omniparse/internal/vectorstore"
)

var _ domain.DocumentStore = (*Store)(nil)

// ErrEmptyDocument is returned by Add for blank text.
var ErrEmptyDocument = errors.New("docstore: empty document")

// PassageSeparator joins retrieved passages into one context string.
const PassageSeparator = "\n\n"

// Store indexes document text for retrieval.
//
// The whole corpus is re-embedded whenever a document is added because
// corpus-dependent embedders such as TF-IDF change their vocabulary.
type Store struct {
	chunker  domain.Chunker
	embedder domain.Embedder
	storage  vectorstore.Storage
	entropy  *ulid.MonotonicEntropy
	chunks   []domain.Chunk
	digests  map[string]struct{}
}

// New creates a Store. When storage can list a previously persisted corpus,
// the corpus is reloaded and reindexed so queries work immediately.
func New(chunker domain.Chunker, embedder domain.Embedder, storage vectorstore.Storage) (*Store, error) {
	s := &Store{
		chunker:  chunker,
		embedder: embedder,
		storage:  storage,
		entropy:  ulid.Monotonic(rand.Reader, 0),
		digests:  map[string]struct{}{},
	}
	lister, ok := storage.(vectorstore.Lister)
	if !ok {
		return s, nil
	}
	chunks, err := lister.List()
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(chunks) == 0 {
		return s, nil
	}
	if err := s.reindex(chunks); err != nil {
		return nil, fmt.Errorf("reindex corpus: %w", err)
	}
	s.chunks = chunks
	for _, ch := range chunks {
		if ch.Digest != "" {
			s.digests[ch.Digest] = struct{}{}
		}
	}
	return s, nil
}

// Digest returns the content hash Add uses to recognize text it already indexed.
func Digest(text string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// Len returns the number of indexed passages.
func (s *Store) Len() int { return len(s.chunks) }

// Add indexes text as a new document with a fresh ULID. Text already in
// the store, including a persisted corpus reloaded by New, is not added again.
func (s *Store) Add(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyDocument
	}
	digest := Digest(text)
	if _, ok := s.digests[digest]; ok {
		return nil
	}
	doc := domain.Document{
		ID:      ulid.MustNew(ulid.Now(), s.entropy).String(),
		Content: text,
	}
	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return ErrEmptyDocument
	}
	for i := range chunks {
		chunks[i].Digest = digest
	}
	corpus := make([]domain.Chunk, 0, len(s.chunks)+len(chunks))
	corpus = append(corpus, s.chunks...)
	corpus = append(corpus, chunks...)
	if err := s.reindex(corpus); err != nil {
		// put the storage back in line with the corpus we still hold
		if len(s.chunks) > 0 {
			if rerr := s.reindex(s.chunks); rerr != nil {
				return errors.Join(err, fmt.Errorf("restore index: %w", rerr))
			}
		}
		return err
	}
	s.chunks = corpus
	s.digests[digest] = struct{}{}
	return nil
}

func (s *Store) reindex(corpus []domain.Chunk) error {
	texts := make([]string, len(corpus))
	for i := range corpus {
		texts[i] = corpus[i].Text
	}
	if err := s.embedder.Prepare(texts); err != nil {
		return fmt.Errorf("prepare embedder: %w", err)
	}
	vectors := make([][]float64, len(corpus))
	for i := range corpus {
		vec, err := s.embedder.Embed(corpus[i].Text)
		if err != nil {
			return fmt.Errorf("embed chunk %s: %w", corpus[i].ChunkID, err)
		}
		vectors[i] = vec
	}
	if err := s.storage.Init(len(vectors[0])); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := s.storage.Upsert(corpus, vectors); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// Query returns up to resultCount passages relevant to text, joined by
// PassageSeparator. An empty store yields an empty context and no error.
func (s *Store) Query(text string, resultCount int) (string, error) {
	results, err := s.Search(text, resultCount)
	if err != nil {
		return "", err
	}
	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Chunk.Text
	}
	return strings.Join(passages, PassageSeparator), nil
}

// Search returns the scored top passages for text. Queries whose vector or
// scores are all zero fall back to lexical overlap ranking.
func (s *Store) Search(text string, topK int) ([]domain.SearchResult, error) {
	if len(s.chunks) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}
	vec, err := s.embedder.Embed(text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if isZero(vec) {
		return s.lexicalSearch(text, topK), nil
	}
	res, err := s.storage.Search(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	for _, r := range res {
		if r.Score > 1e-9 {
			return res, nil
		}
	}
	return s.lexicalSearch(text, topK), nil
}

// Close releases the underlying storage when it holds resources.
func (s *Store) Close() error {
	if c, ok := s.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Store) lexicalSearch(query string, topK int) []domain.SearchResult {
	qset := lexical.TermSet(query)
	results := make([]domain.SearchResult, len(s.chunks))
	for i, ch := range s.chunks {
		results[i] = domain.SearchResult{Chunk: ch, Score: lexical.Ochiai(qset, ch.Text)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
