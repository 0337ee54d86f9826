package local

import (
	"strconv"
	"sync"
	"testing"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

func chunkWithID(id string) domain.Chunk {
	return domain.Chunk{ID: id, DocumentID: "doc-" + id}
}

func TestAddFixesDimensionOnFirstInsert(t *testing.T) {
	ix := NewIndex()
	if err := ix.Add(chunkWithID("a"), []float32{1, 0, 0}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	err := ix.Add(chunkWithID("b"), []float32{1, 0})
	if err == nil {
		t.Fatalf("expected dimension mismatch")
	}
	if !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if ix.Len() != 1 {
		t.Fatalf("index changed by rejected add: len = %d", ix.Len())
	}
}

func TestSearchEmptyIndexReturnsNothing(t *testing.T) {
	ix := NewIndex()
	results, err := ix.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearchOrdersByScoreThenInsertion(t *testing.T) {
	ix := NewIndex()
	// "b" and "c" are identical vectors; insertion order must break the tie.
	vectors := map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
		"c": {0, 1},
	}
	for _, id := range []string{"a", "b", "c"} {
		if err := ix.Add(chunkWithID(id), vectors[id]); err != nil {
			t.Fatalf("Add(%s) error = %v", id, err)
		}
	}

	results, err := ix.Search([]float32{0, 1}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "b" || results[1].Chunk.ID != "c" {
		t.Fatalf("tie not broken by insertion order: %s, %s", results[0].Chunk.ID, results[1].Chunk.ID)
	}
	if results[0].Score <= 0.99 {
		t.Fatalf("expected cosine close to 1, got %f", results[0].Score)
	}
}

func TestSearchTopKSetIndependentOfInsertionOrder(t *testing.T) {
	vectors := map[string][]float32{
		"a": {1, 0, 0},
		"b": {0.9, 0.1, 0},
		"c": {0, 0, 1},
		"d": {0.5, 0.5, 0},
	}
	orders := [][]string{
		{"a", "b", "c", "d"},
		{"d", "c", "b", "a"},
		{"b", "d", "a", "c"},
	}

	var want map[string]bool
	for _, order := range orders {
		ix := NewIndex()
		for _, id := range order {
			if err := ix.Add(chunkWithID(id), vectors[id]); err != nil {
				t.Fatalf("Add(%s) error = %v", id, err)
			}
		}
		results, err := ix.Search([]float32{1, 0, 0}, 2)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		got := make(map[string]bool, len(results))
		for _, r := range results {
			got[r.Chunk.ID] = true
		}
		if want == nil {
			want = got
			continue
		}
		for id := range want {
			if !got[id] {
				t.Fatalf("order %v changed top-k set: missing %s", order, id)
			}
		}
	}
}

func TestRemoveDropsDocumentEntries(t *testing.T) {
	ix := NewIndex()
	for i := 0; i < 3; i++ {
		chunk := domain.Chunk{ID: "keep:" + strconv.Itoa(i), DocumentID: "keep"}
		if err := ix.Add(chunk, []float32{1, float32(i)}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		chunk := domain.Chunk{ID: "drop:" + strconv.Itoa(i), DocumentID: "drop"}
		if err := ix.Add(chunk, []float32{0, float32(i)}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	if removed := ix.Remove("drop"); removed != 2 {
		t.Fatalf("Remove() = %d, want 2", removed)
	}
	if ix.Len() != 3 {
		t.Fatalf("len = %d after remove, want 3", ix.Len())
	}
	// A removed id can be re-added.
	if err := ix.Add(domain.Chunk{ID: "drop:0", DocumentID: "drop"}, []float32{0, 1}); err != nil {
		t.Fatalf("re-add after remove: %v", err)
	}
}

func TestConcurrentAddsLoseNothing(t *testing.T) {
	ix := NewIndex()
	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				chunk := domain.Chunk{
					ID:         strconv.Itoa(w) + ":" + strconv.Itoa(i),
					DocumentID: "doc-" + strconv.Itoa(w),
				}
				if err := ix.Add(chunk, []float32{float32(w), float32(i)}); err != nil {
					t.Errorf("Add() error = %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if ix.Len() != writers*perWriter {
		t.Fatalf("len = %d, want %d", ix.Len(), writers*perWriter)
	}
}

func TestPersistLoadRoundTripsScores(t *testing.T) {
	dir := t.TempDir()

	ix := NewIndex()
	vectors := [][]float32{{1, 0, 0}, {0.7, 0.7, 0}, {0, 0, 1}}
	for i, v := range vectors {
		chunk := domain.Chunk{
			ID:            "doc:" + strconv.Itoa(i),
			DocumentID:    "doc",
			SequenceIndex: i,
			Text:          "chunk " + strconv.Itoa(i),
		}
		if err := ix.Add(chunk, v); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if err := ix.Persist(dir); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	reloaded := NewIndex()
	if err := reloaded.Load(dir); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	query := []float32{0.6, 0.8, 0}
	before, err := ix.Search(query, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	after, err := reloaded.Search(query, 3)
	if err != nil {
		t.Fatalf("Search() after reload error = %v", err)
	}
	if len(before) != len(after) {
		t.Fatalf("result count changed after reload: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Chunk.ID != after[i].Chunk.ID || before[i].Score != after[i].Score {
			t.Fatalf("result %d changed after reload: %+v vs %+v", i, before[i], after[i])
		}
	}
}

func TestLoadMissingArtifactsReportsNotExist(t *testing.T) {
	ix := NewIndex()
	err := ix.Load(t.TempDir())
	if err == nil {
		t.Fatalf("expected error for missing artifacts")
	}
	if !IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
