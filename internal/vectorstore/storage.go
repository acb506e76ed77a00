package vectorstore

import "omniparse/internal/domain"

// Storage persists vectors and supports similarity search.
//
// Init prepares the storage for vectors of the given dimension and drops any
// previously stored vectors, since a re-prepared embedder may change the
// dimension.
type Storage interface {
	Init(dimension int) error
	Upsert(chunks []domain.Chunk, vectors [][]float64) error
	Search(vector []float64, topK int) ([]domain.SearchResult, error)
	Clear() error
}

// Lister is implemented by storages that persist chunk text and can hand
// the corpus back after a restart.
type Lister interface {
	List() ([]domain.Chunk, error)
}

// Cosine returns the dot product of a and b over their common length.
// Vectors produced by the embedders are L2-normalized, so this is cosine similarity.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
