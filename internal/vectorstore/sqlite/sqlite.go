// Package sqlite is a file-backed vector storage on modernc.org/sqlite.
// Chunk text is persisted next to its vector, so a collection can be
// reopened and its corpus listed after a restart.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	_ "modernc.org/sqlite"

	"omniparse/internal/domain"
	"omniparse/internal/vectorstore"
)

var (
	_ vectorstore.Storage = (*Storage)(nil)
	_ vectorstore.Lister  = (*Storage)(nil)
)

// Storage implements vectorstore.Storage with brute-force cosine search over SQLite rows.
type Storage struct {
	db        *sql.DB
	dimension int
}

// Open opens (or creates) the database at path with WAL mode enabled.
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	s := &Storage{db: db}
	if err := s.loadDimension(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	chunk_id TEXT UNIQUE NOT NULL,
	document_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	text TEXT NOT NULL,
	vector TEXT NOT NULL,
	digest TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return addDigestColumn(db)
}

// addDigestColumn upgrades databases created before chunks carried a digest.
func addDigestColumn(db *sql.DB) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info('chunks')`)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == "digest" {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if _, err := db.Exec(`ALTER TABLE chunks ADD COLUMN digest TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("add digest column: %w", err)
	}
	return nil
}

func (s *Storage) loadDimension() error {
	var v string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'dimension'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	s.dimension, err = strconv.Atoi(v)
	return err
}

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chunks`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO meta(key, value) VALUES('dimension', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, strconv.Itoa(dimension)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO chunks(chunk_id, document_id, idx, text, vector, digest) VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET document_id = excluded.document_id, idx = excluded.idx,
			text = excluded.text, vector = excluded.vector, digest = excluded.digest`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, ch := range chunks {
		vec, err := json.Marshal(vectors[i])
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(ch.ChunkID, ch.DocumentID, ch.Index, ch.Text, string(vec), ch.Digest); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", ch.ChunkID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	rows, err := s.db.Query(`SELECT chunk_id, document_id, idx, text, digest, vector FROM chunks ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var ch domain.Chunk
		var raw string
		if err := rows.Scan(&ch.ChunkID, &ch.DocumentID, &ch.Index, &ch.Text, &ch.Digest, &raw); err != nil {
			return nil, err
		}
		var vec []float64
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			return nil, fmt.Errorf("decode vector for %s: %w", ch.ChunkID, err)
		}
		results = append(results, domain.SearchResult{Chunk: ch, Score: vectorstore.Cosine(vec, vector)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func (s *Storage) Clear() error {
	_, err := s.db.Exec(`DELETE FROM chunks`)
	return err
}

// List returns the stored chunks in insertion order.
func (s *Storage) List() ([]domain.Chunk, error) {
	rows, err := s.db.Query(`SELECT chunk_id, document_id, idx, text, digest FROM chunks ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var ch domain.Chunk
		if err := rows.Scan(&ch.ChunkID, &ch.DocumentID, &ch.Index, &ch.Text, &ch.Digest); err != nil {
			return nil, err
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}
