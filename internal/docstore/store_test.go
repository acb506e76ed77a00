package docstore

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omniparse/internal/chunker"
	"omniparse/internal/domain"
	"omniparse/internal/embedding/tfidf"
	"omniparse/internal/vectorstore/memory"
	"omniparse/internal/vectorstore/sqlite"
)

const invoice = `ACME Corp Invoice #4411.
Bill to: Globex Ltd.

Item: consulting services. Quantity: 3 hours.
Total Due: $150.00. Payment terms: net 30 days.`

const contract = `This agreement is made between Initech and Hooli.
The term of the contract is twelve months. Either party may terminate with notice.`

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(chunker.NewSentenceChunker(2, 0), tfidf.NewEmbedder(), memory.NewStorage())
	require.NoError(t, err)
	return s
}

func TestStore_QueryEmpty(t *testing.T) {
	s := newMemoryStore(t)
	ctx, err := s.Query("What is the total amount due?", 3)
	require.NoError(t, err)
	assert.Equal(t, "", ctx)
	assert.Zero(t, s.Len())
}

func TestStore_AddAndQuery(t *testing.T) {
	s := newMemoryStore(t)
	require.NoError(t, s.Add(invoice))
	require.NoError(t, s.Add(contract))
	assert.Equal(t, 5, s.Len())

	ctx, err := s.Query("What is the total amount due?", 1)
	require.NoError(t, err)
	assert.Contains(t, ctx, "150.00")

	ctx, err = s.Query("contract term", 2)
	require.NoError(t, err)
	passages := strings.Split(ctx, PassageSeparator)
	require.Len(t, passages, 2)
	assert.Contains(t, passages[0], "twelve months")
}

func TestStore_AddRejectsBlank(t *testing.T) {
	s := newMemoryStore(t)
	assert.ErrorIs(t, s.Add("  \n "), ErrEmptyDocument)
	assert.Zero(t, s.Len())
}

func TestStore_DocumentIDsAreUnique(t *testing.T) {
	s := newMemoryStore(t)
	require.NoError(t, s.Add("First document."))
	require.NoError(t, s.Add("Second document."))
	require.Len(t, s.chunks, 2)
	assert.NotEqual(t, s.chunks[0].DocumentID, s.chunks[1].DocumentID)
	assert.Len(t, s.chunks[0].DocumentID, 26)
}

// zeroEmbedder forces the lexical fallback.
type zeroEmbedder struct{ prepareErr error }

func (zeroEmbedder) Name() string                    { return "zero" }
func (z zeroEmbedder) Prepare([]string) error        { return z.prepareErr }
func (zeroEmbedder) Dimension() int                  { return 2 }
func (zeroEmbedder) Embed(string) ([]float64, error) { return []float64{0, 0}, nil }

func TestStore_LexicalFallback(t *testing.T) {
	s, err := New(chunker.NewSentenceChunker(1, 0), zeroEmbedder{}, memory.NewStorage())
	require.NoError(t, err)
	require.NoError(t, s.Add("Shipping address is Springfield. Total Due: $150.00."))

	res, err := s.Search("total due", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Total Due: $150.00.", res[0].Chunk.Text)
	assert.Greater(t, res[0].Score, 0.0)
}

func TestStore_FailedAddKeepsCorpus(t *testing.T) {
	boom := errors.New("boom")
	s, err := New(chunker.NewSentenceChunker(1, 0), zeroEmbedder{prepareErr: boom}, memory.NewStorage())
	require.NoError(t, err)
	err = s.Add("Anything at all.")
	require.ErrorIs(t, err, boom)
	assert.Zero(t, s.Len())
}

func TestStore_SQLitePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omniparse.db")

	st, err := sqlite.Open(path)
	require.NoError(t, err)
	s, err := New(chunker.NewSentenceChunker(2, 0), tfidf.NewEmbedder(), st)
	require.NoError(t, err)
	require.NoError(t, s.Add(invoice))
	require.NoError(t, s.Close())

	st, err = sqlite.Open(path)
	require.NoError(t, err)
	reopened, err := New(chunker.NewSentenceChunker(2, 0), tfidf.NewEmbedder(), st)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 3, reopened.Len())
	ctx, err := reopened.Query("total amount due", 1)
	require.NoError(t, err)
	assert.Contains(t, ctx, "150.00")

	// the same document ingested again after a restart is recognized
	require.NoError(t, reopened.Add(invoice))
	assert.Equal(t, 3, reopened.Len())
	ctx, err = reopened.Query("total amount due", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(ctx, "Total Due: $150.00"))
}

func TestStore_AddSkipsKnownText(t *testing.T) {
	s := newMemoryStore(t)
	require.NoError(t, s.Add(invoice))
	require.NoError(t, s.Add(invoice))
	require.NoError(t, s.Add("\n"+invoice+"  \n"))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, Digest(invoice), s.chunks[0].Digest)

	require.NoError(t, s.Add(contract))
	assert.Equal(t, 5, s.Len())
}

func TestStore_FailedAddCanBeRetried(t *testing.T) {
	emb := &flakyEmbedder{failures: 1}
	s, err := New(chunker.NewSentenceChunker(1, 0), emb, memory.NewStorage())
	require.NoError(t, err)
	require.Error(t, s.Add("Total Due: $150.00."))
	require.NoError(t, s.Add("Total Due: $150.00."))
	assert.Equal(t, 1, s.Len())
}

func TestStore_FailedRestoreIsReported(t *testing.T) {
	st := &failingStorage{Storage: memory.NewStorage()}
	s, err := New(chunker.NewSentenceChunker(1, 0), tfidf.NewEmbedder(), st)
	require.NoError(t, err)
	require.NoError(t, s.Add(invoice))

	st.fail = errors.New("disk full")
	err = s.Add(contract)
	require.ErrorIs(t, err, st.fail)
	assert.ErrorContains(t, err, "restore index")
	assert.Equal(t, 3, s.Len())
}

type flakyEmbedder struct {
	tfidf.Embedder
	failures int
}

func (f *flakyEmbedder) Prepare(corpus []string) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("temporarily unavailable")
	}
	return f.Embedder.Prepare(corpus)
}

type failingStorage struct {
	*memory.Storage
	fail error
}

func (f *failingStorage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if f.fail != nil {
		return f.fail
	}
	return f.Storage.Upsert(chunks, vectors)
}

var _ domain.Embedder = zeroEmbedder{}
