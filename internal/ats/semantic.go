package ats

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/matchcv/internal/embedding"
	"github.com/spigell/matchcv/internal/utils"
)

// embeddingBudget is the number of runes of each text sent to the embedder.
const embeddingBudget = 2000

// EmbeddingStrategy scores the cosine similarity of the two texts' embeddings.
type EmbeddingStrategy struct {
	embedder embedding.Embedder
}

func NewEmbeddingStrategy(embedder embedding.Embedder) *EmbeddingStrategy {
	return &EmbeddingStrategy{embedder: embedder}
}

func (s *EmbeddingStrategy) Name() string { return "embedding:" + s.embedder.Name() }

func (s *EmbeddingStrategy) Raw(ctx context.Context, candidateText, offerText string) (float64, error) {
	vectors, err := s.embedder.Embed(ctx, []string{
		utils.Head(candidateText, embeddingBudget),
		utils.Head(offerText, embeddingBudget),
	})
	if err != nil {
		return 0, fmt.Errorf("embed texts: %w", err)
	}
	if len(vectors) != 2 {
		return 0, errors.New("embedder returned an unexpected number of vectors")
	}

	return embedding.Cosine(embedding.Normalize(vectors[0]), embedding.Normalize(vectors[1]))
}
