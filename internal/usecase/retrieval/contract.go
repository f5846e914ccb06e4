package retrieval

import (
	"context"

	"github.com/docdex-io/docdex/internal/domain"
)

// VectorIndex answers nearest-neighbour queries.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error)
}

// ChunkReader joins vector ids back to chunk and document rows.
type ChunkReader interface {
	GetChunksByVectorIDs(ctx context.Context, vectorIDs []string) ([]domain.ChunkWithDocument, error)
}
