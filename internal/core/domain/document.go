package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// SupportedExtensions lists the document formats the extractor accepts.
var SupportedExtensions = []string{".pdf", ".docx"}

type Document struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	SourcePath string         `json:"source_path"`
	Extension  string         `json:"extension"`
	RawText    string         `json:"-"`
	Status     DocumentStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	ChunkCount int            `json:"chunk_count"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Chunk is one bounded slice of a document's extracted text. CharStart and
// CharEnd are rune offsets into the source; consecutive chunks of a document
// share exactly the configured overlap region.
type Chunk struct {
	ID            string `json:"id"`
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	SequenceIndex int    `json:"sequence_index"`
	Text          string `json:"text"`
	CharStart     int    `json:"char_start"`
	CharEnd       int    `json:"char_end"`
}

func IsSupportedExtension(ext string) bool {
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}
