// Package office extracts plain text from PDF and DOCX documents.
package office

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
	"github.com/lai-labs/sales-assistant/internal/core/ports"
)

// 200MB cap keeps a malformed upload from exhausting memory.
const maxDocumentBytes = 200 << 20

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

// Extract rejects unsupported extensions before any bytes are read, so the
// chunker only ever sees PDF or DOCX text.
func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	ext := strings.ToLower(doc.Extension)
	if !domain.IsSupportedExtension(ext) {
		return "", domain.WrapError(
			domain.ErrUnsupportedFormat,
			"extract document",
			fmt.Errorf("extension %q (supported: %s)", doc.Extension, strings.Join(domain.SupportedExtensions, ", ")),
		)
	}

	reader, err := e.storage.Open(ctx, doc.SourcePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, maxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}
	if len(raw) > maxDocumentBytes {
		return "", domain.WrapError(domain.ErrCorruptFile, "extract document", errors.New("document exceeds size cap"))
	}

	var text string
	switch ext {
	case ".pdf":
		text, err = extractPDF(raw)
	case ".docx":
		text, err = extractDOCX(raw)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
