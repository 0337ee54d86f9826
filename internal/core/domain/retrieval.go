package domain

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievedContext is the ordered result of one retrieval, highest score first.
type RetrievedContext []ScoredChunk

type Answer struct {
	Text    string        `json:"text"`
	Sources []ScoredChunk `json:"sources,omitempty"`
}
