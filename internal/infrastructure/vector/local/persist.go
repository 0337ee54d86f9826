package local

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

const (
	vectorsFile = "vectors.json"
	chunksFile  = "chunks.json"
)

type vectorsArtifact struct {
	Dim     int         `json:"dim"`
	Vectors [][]float32 `json:"vectors"`
}

// Persist writes the index as two artifacts: the vector rows and the
// parallel chunk metadata table, both in insertion order so a reload
// reproduces identical scores and tie-breaks.
func (ix *Index) Persist(dir string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	vectors := vectorsArtifact{
		Dim:     ix.dim,
		Vectors: make([][]float32, 0, len(ix.entries)),
	}
	chunks := make([]domain.Chunk, 0, len(ix.entries))
	for _, e := range ix.entries {
		vectors.Vectors = append(vectors.Vectors, e.vector)
		chunks = append(chunks, e.chunk)
	}

	if err := writeJSON(filepath.Join(dir, vectorsFile), vectors); err != nil {
		return fmt.Errorf("persist vectors: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, chunksFile), chunks); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}
	return nil
}

// Load replaces the index contents with the persisted artifacts. A missing
// artifact surfaces fs.ErrNotExist so the caller can decide the cold-start
// policy.
func (ix *Index) Load(dir string) error {
	var vectors vectorsArtifact
	if err := readJSON(filepath.Join(dir, vectorsFile), &vectors); err != nil {
		return fmt.Errorf("load vectors: %w", err)
	}
	var chunks []domain.Chunk
	if err := readJSON(filepath.Join(dir, chunksFile), &chunks); err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) != len(vectors.Vectors) {
		return fmt.Errorf("load index: %d chunks for %d vectors", len(chunks), len(vectors.Vectors))
	}

	entries := make([]entry, 0, len(chunks))
	ids := make(map[string]struct{}, len(chunks))
	for i, chunk := range chunks {
		vector := vectors.Vectors[i]
		if len(vector) != vectors.Dim {
			return domain.WrapError(
				domain.ErrDimensionMismatch,
				"load index",
				fmt.Errorf("entry %d has dimension %d, index dimension %d", i, len(vector), vectors.Dim),
			)
		}
		if _, ok := ids[chunk.ID]; ok {
			return fmt.Errorf("load index: duplicate chunk id %s", chunk.ID)
		}
		entries = append(entries, entry{
			chunk:  chunk,
			vector: vector,
			norm:   l2norm(vector),
		})
		ids[chunk.ID] = struct{}{}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dim = vectors.Dim
	ix.entries = entries
	ix.ids = ids
	return nil
}

// IsNotExist reports whether a Load failure means the persisted artifacts
// are absent rather than unreadable.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func writeJSON(path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}
