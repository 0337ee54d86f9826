package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
	"github.com/lai-labs/sales-assistant/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	extractor  ports.TextExtractor
	chunker    ports.Chunker
	embedder   ports.Embedder
	index      ports.VectorIndex
	persistDir string
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
	persistDir string,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:       repo,
		extractor:  extractor,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		persistDir: persistDir,
	}
}

// ProcessByID runs extract -> chunk -> embed -> index for one document.
// Any pipeline failure marks the document failed with the cause recorded.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	chunkCount, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SetChunkCount(ctx, documentID, chunkCount); err != nil {
		return fmt.Errorf("set chunk count: %w", err)
	}
	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return 0, err
	}
	doc.RawText = text

	chunks, err := uc.chunk(doc)
	if err != nil {
		return 0, err
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return 0, err
	}

	if err := uc.indexChunks(chunks, vectors); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrCorruptFile, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *ProcessDocumentUseCase) chunk(doc *domain.Document) ([]domain.Chunk, error) {
	chunks, err := uc.chunker.Split(doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyInput, "chunk document", errors.New("chunking produced zero chunks"))
	}
	return chunks, nil
}

func (uc *ProcessDocumentUseCase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrEmbedding,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

// indexChunks replaces any earlier vectors for the document so
// reprocessing never leaves stale chunks behind, then persists the
// index artifacts.
func (uc *ProcessDocumentUseCase) indexChunks(chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) > 0 {
		uc.index.Remove(chunks[0].DocumentID)
	}
	for i, chunk := range chunks {
		if err := uc.index.Add(chunk, vectors[i]); err != nil {
			return fmt.Errorf("index chunk %s: %w", chunk.ID, err)
		}
	}
	if uc.persistDir != "" {
		if err := uc.index.Persist(uc.persistDir); err != nil {
			return fmt.Errorf("persist vector index: %w", err)
		}
	}
	return nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
