// Package retrieval implements semantic search over indexed chunks.
package retrieval

import (
	"context"
	"fmt"

	"github.com/docdex-io/docdex/internal/domain"
)

// Service embeds a query and resolves ranked matches to chunk rows.
type Service struct {
	vectors  VectorIndex
	chunks   ChunkReader
	embedder domain.Embedder
	topK     int
}

// New creates a retriever. topK is the default match count when the caller
// passes zero.
func New(vectors VectorIndex, chunks ChunkReader, embedder domain.Embedder, topK int) *Service {
	return &Service{vectors: vectors, chunks: chunks, embedder: embedder, topK: topK}
}

// Search returns up to topK chunks ranked by descending similarity to the
// query. Vector hits whose chunk row has vanished are dropped, preserving
// the index ranking over the remainder.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = s.topK
	}

	result, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.vectors.Query(ctx, result.Embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	joined, err := s.chunks.GetChunksByVectorIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve chunks: %w", err)
	}

	byVectorID := make(map[string]domain.ChunkWithDocument, len(joined))
	for _, cw := range joined {
		byVectorID[cw.Chunk.VectorID] = cw
	}

	out := make([]domain.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		cw, ok := byVectorID[m.ID]
		if !ok {
			continue
		}
		out = append(out, domain.RetrievedChunk{
			SimilarityScore: m.Score,
			Document:        cw.Document,
			Chunk:           cw.Chunk,
		})
	}
	return out, nil
}
