package chunking

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Splitter slides a fixed-size window across document text, advancing by
// ChunkSize-Overlap runes per step. The final chunk may be shorter than
// ChunkSize and is never padded.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		return nil, domain.WrapError(
			domain.ErrConfig,
			"new splitter",
			fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, chunkSize),
		)
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}, nil
}

func (s *Splitter) Split(doc *domain.Document) ([]domain.Chunk, error) {
	runes := []rune(doc.RawText)
	if len(runes) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyInput, "split document", errors.New("document has no text"))
	}

	step := s.ChunkSize - s.Overlap
	out := make([]domain.Chunk, 0, len(runes)/step+1)
	for start, seq := 0, 0; start < len(runes); start, seq = start+step, seq+1 {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, domain.Chunk{
			ID:            doc.ID + ":" + strconv.Itoa(seq),
			DocumentID:    doc.ID,
			Filename:      doc.Filename,
			SequenceIndex: seq,
			Text:          string(runes[start:end]),
			CharStart:     start,
			CharEnd:       end,
		})
	}
	return out, nil
}
