// Package local implements a persistent brute-force cosine-similarity index.
// Writes take the exclusive lock; searches share a read lock, so concurrent
// queries never block each other.
package local

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

type entry struct {
	chunk  domain.Chunk
	vector []float32
	norm   float64
}

type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []entry
	ids     map[string]struct{}
}

func NewIndex() *Index {
	return &Index{ids: make(map[string]struct{})}
}

// Add inserts one chunk vector. The index dimensionality is fixed by the
// first insertion; every later vector must match it.
func (ix *Index) Add(chunk domain.Chunk, vector []float32) error {
	if len(vector) == 0 {
		return domain.WrapError(domain.ErrDimensionMismatch, "index add", errors.New("empty vector"))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.dim == 0 {
		ix.dim = len(vector)
	}
	if len(vector) != ix.dim {
		return domain.WrapError(
			domain.ErrDimensionMismatch,
			"index add",
			fmt.Errorf("vector dimension %d, index dimension %d", len(vector), ix.dim),
		)
	}
	if _, ok := ix.ids[chunk.ID]; ok {
		return fmt.Errorf("index add: chunk %s already indexed", chunk.ID)
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)
	ix.entries = append(ix.entries, entry{
		chunk:  chunk,
		vector: stored,
		norm:   l2norm(stored),
	})
	ix.ids[chunk.ID] = struct{}{}
	return nil
}

// Search returns at most k entries ordered by cosine similarity descending.
// Equal scores keep insertion order, earliest first. An empty index yields
// an empty result.
func (ix *Index) Search(queryVector []float32, k int) ([]domain.ScoredChunk, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 {
		return nil, nil
	}
	if len(queryVector) != ix.dim {
		return nil, domain.WrapError(
			domain.ErrDimensionMismatch,
			"index search",
			fmt.Errorf("query dimension %d, index dimension %d", len(queryVector), ix.dim),
		)
	}
	if k <= 0 {
		return nil, nil
	}

	queryNorm := l2norm(queryVector)
	scored := make([]domain.ScoredChunk, 0, len(ix.entries))
	for _, e := range ix.entries {
		scored = append(scored, domain.ScoredChunk{
			Chunk: e.chunk,
			Score: cosine(e.vector, queryVector, e.norm, queryNorm),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// Remove drops every entry belonging to the document and reports how many
// were removed.
func (ix *Index) Remove(documentID string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	kept := ix.entries[:0]
	removed := 0
	for _, e := range ix.entries {
		if e.chunk.DocumentID == documentID {
			delete(ix.ids, e.chunk.ID)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	ix.entries = kept
	return removed
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

func l2norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
