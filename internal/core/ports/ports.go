package ports

import (
	"context"
	"io"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, count int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored PDF or DOCX document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits extracted text into overlapping chunks.
type Chunker interface {
	Split(doc *domain.Document) ([]domain.Chunk, error)
}

// Embedder builds fixed-dimension vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores chunk vectors and performs similarity search.
// Add is the only mutator besides Remove; implementations must allow
// concurrent searches and serialize writes.
type VectorIndex interface {
	Add(chunk domain.Chunk, vector []float32) error
	Search(queryVector []float32, k int) ([]domain.ScoredChunk, error)
	Remove(documentID string) int
	Persist(dir string) error
	Load(dir string) error
}

// Completer generates an answer from a composed prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// SessionStore holds bounded per-session conversation history.
type SessionStore interface {
	GetOrCreate(sessionID string) *domain.Session
	Append(sessionID string, turn domain.SessionTurn)
	Context(sessionID string) []domain.SessionTurn
	Clear(sessionID string)
	Info(sessionID string) domain.SessionInfo
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// Retriever returns the most relevant chunks for a query.
type Retriever interface {
	Retrieve(ctx context.Context, queryText string, k int, scoreThreshold float64) (domain.RetrievedContext, error)
}

// Assistant is the inbound contract for one conversational exchange.
type Assistant interface {
	HandleMessage(ctx context.Context, sessionID, userText string) (*domain.Answer, error)
}
