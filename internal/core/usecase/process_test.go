package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type processRepoFake struct {
	doc         *domain.Document
	getErr      error
	statusCalls []statusCall
	chunkCount  int
}

func (f *processRepoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *processRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *processRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return nil
}

func (f *processRepoFake) SetChunkCount(_ context.Context, _ string, count int) error {
	f.chunkCount = count
	return nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type chunkerFake struct {
	chunks []domain.Chunk
	err    error
}

func (f *chunkerFake) Split(*domain.Document) ([]domain.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

type embedderFake struct {
	vectors [][]float32
	err     error
}

func (f *embedderFake) Embed(context.Context, []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) { return nil, nil }

type indexFake struct {
	added      []domain.Chunk
	removed    []string
	persistDir string
	addErr     error
}

func (f *indexFake) Add(chunk domain.Chunk, _ []float32) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, chunk)
	return nil
}

func (f *indexFake) Search([]float32, int) ([]domain.ScoredChunk, error) { return nil, nil }

func (f *indexFake) Remove(documentID string) int {
	f.removed = append(f.removed, documentID)
	return 0
}

func (f *indexFake) Persist(dir string) error {
	f.persistDir = dir
	return nil
}

func (f *indexFake) Load(string) error { return nil }

func twoChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "doc-1:0", DocumentID: "doc-1", Text: "a"},
		{ID: "doc-1:1", DocumentID: "doc-1", Text: "b"},
	}
}

func TestProcessByIDSuccess(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	index := &indexFake{}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{chunks: twoChunks()},
		&embedderFake{vectors: [][]float32{{1}, {2}}},
		index,
		"/tmp/index",
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected 2 status calls, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[0].status != domain.StatusProcessing || repo.statusCalls[1].status != domain.StatusReady {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if repo.chunkCount != 2 {
		t.Fatalf("chunk count = %d, want 2", repo.chunkCount)
	}
	if len(index.removed) != 1 || index.removed[0] != "doc-1" {
		t.Fatalf("expected stale vectors removed for doc-1, got %v", index.removed)
	}
	if len(index.added) != 2 {
		t.Fatalf("indexed %d chunks, want 2", len(index.added))
	}
	if index.persistDir != "/tmp/index" {
		t.Fatalf("persist dir = %q, want /tmp/index", index.persistDir)
	}
}

func TestProcessByIDMarksFailedOnExtractError(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{err: errors.New("extract fail")},
		&chunkerFake{chunks: twoChunks()},
		&embedderFake{vectors: [][]float32{{1}, {2}}},
		&indexFake{},
		"",
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected processing + failed status updates, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[1].status != domain.StatusFailed || repo.statusCalls[1].errMsg == "" {
		t.Fatalf("expected failed status with cause, got %+v", repo.statusCalls[1])
	}
}

func TestProcessByIDMarksFailedOnVectorMismatch(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{chunks: twoChunks()},
		&embedderFake{vectors: [][]float32{{1}}},
		&indexFake{},
		"",
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}

func TestProcessByIDMarksFailedOnEmptyExtractedText(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: ""},
		&chunkerFake{chunks: twoChunks()},
		&embedderFake{vectors: [][]float32{{1}, {2}}},
		&indexFake{},
		"",
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile, got %v", err)
	}
}
