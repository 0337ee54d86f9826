package usecase

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
	"github.com/lai-labs/sales-assistant/internal/core/ports"
)

// DirectoryPipeline ingests every supported file under a directory
// synchronously, bypassing the queue. Used to seed the knowledge base on
// a cold start and by the batch endpoint.
type DirectoryPipeline struct {
	ingest    *IngestDocumentUseCase
	processor ports.DocumentProcessor
}

func NewDirectoryPipeline(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	processor ports.DocumentProcessor,
) *DirectoryPipeline {
	return &DirectoryPipeline{
		ingest:    NewIngestDocumentUseCase(repo, storage, nil),
		processor: processor,
	}
}

func (p *DirectoryPipeline) ProcessDirectory(ctx context.Context, dir string) (*domain.BatchReport, error) {
	report := domain.NewBatchReport()

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		if !domain.IsSupportedExtension(strings.ToLower(filepath.Ext(name))) {
			report.Skipped = append(report.Skipped, name)
			return nil
		}

		if err := p.processFile(ctx, path, name); err != nil {
			report.Failed[name] = err.Error()
			slog.Warn("directory ingestion: file failed", "file", name, "error", err)
			return nil
		}
		report.Processed = append(report.Processed, name)
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("walk documents dir: %w", err)
	}
	return report, nil
}

func (p *DirectoryPipeline) processFile(ctx context.Context, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer f.Close()

	doc, err := p.ingest.Upload(ctx, name, f)
	if err != nil {
		return err
	}
	return p.processor.ProcessByID(ctx, doc.ID)
}
