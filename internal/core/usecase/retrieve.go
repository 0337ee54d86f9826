package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
	"github.com/lai-labs/sales-assistant/internal/core/ports"
)

const defaultTopK = 5

type RetrieveUseCase struct {
	embedder ports.Embedder
	index    ports.VectorIndex
}

func NewRetrieveUseCase(embedder ports.Embedder, index ports.VectorIndex) *RetrieveUseCase {
	return &RetrieveUseCase{embedder: embedder, index: index}
}

// Retrieve embeds the query and returns the top-k chunks whose cosine
// score meets the threshold. Pass math.Inf(-1) to disable the threshold.
func (uc *RetrieveUseCase) Retrieve(
	ctx context.Context,
	queryText string,
	k int,
	scoreThreshold float64,
) (domain.RetrievedContext, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, domain.WrapError(domain.ErrEmptyInput, "retrieve", errors.New("query text is required"))
	}
	if k <= 0 {
		k = defaultTopK
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := uc.index.Search(queryVector, k)
	if err != nil {
		// A query vector of the wrong length is an embedder fault, not
		// an index fault.
		if domain.IsKind(err, domain.ErrDimensionMismatch) {
			return nil, domain.WrapError(domain.ErrEmbedding, "retrieve", err)
		}
		return nil, fmt.Errorf("search vector index: %w", err)
	}

	result := make(domain.RetrievedContext, 0, len(scored))
	for _, hit := range scored {
		if hit.Score < scoreThreshold {
			continue
		}
		result = append(result, hit)
	}
	return result, nil
}
