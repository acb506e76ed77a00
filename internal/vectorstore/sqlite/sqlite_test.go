package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omniparse/internal/domain"
)

func openTemp(t *testing.T) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collection.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestStorage_UpsertSearch(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	require.Error(t, s.Init(-1))
	require.NoError(t, s.Init(2))
	chunks := []domain.Chunk{
		{DocumentID: "d1", ChunkID: "d1:0", Index: 0, Text: "Total Due: $150.00", Digest: "abc"},
		{DocumentID: "d1", ChunkID: "d1:1", Index: 1, Text: "Net 30"},
	}
	require.NoError(t, s.Upsert(chunks, [][]float64{{1, 0}, {0, 1}}))
	assert.Error(t, s.Upsert(chunks[:1], [][]float64{{1, 0, 0}}))

	res, err := s.Search([]float64{0.9, 0.1}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, chunks[0], res[0].Chunk)
	assert.InDelta(t, 0.9, res[0].Score, 1e-9)

	// upsert replaces by chunk id
	chunks[1].Text = "Net 45"
	require.NoError(t, s.Upsert(chunks[1:], [][]float64{{0, 1}}))
	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Net 45", list[1].Text)
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.Init(1))
	require.NoError(t, s.Upsert([]domain.Chunk{{DocumentID: "d", ChunkID: "d:0", Text: "kept", Digest: "f00d"}}, [][]float64{{1}}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 1, reopened.dimension)

	list, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "kept", list[0].Text)
	assert.Equal(t, "f00d", list[0].Digest)

	require.NoError(t, reopened.Clear())
	list, err = reopened.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStorage_InitDropsVectors(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()
	require.NoError(t, s.Init(1))
	require.NoError(t, s.Upsert([]domain.Chunk{{ChunkID: "a"}}, [][]float64{{1}}))
	require.NoError(t, s.Init(3))
	res, err := s.Search([]float64{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestOpen_AddsDigestColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE chunks (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		chunk_id TEXT UNIQUE NOT NULL,
		document_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		text TEXT NOT NULL,
		vector TEXT NOT NULL
	);
	INSERT INTO chunks(chunk_id, document_id, idx, text, vector) VALUES('d:0', 'd', 0, 'legacy', '[1]')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "legacy", list[0].Text)
	assert.Empty(t, list[0].Digest)
}
