// Package vector adapts the Redis search backend into the vector index
// contract used by the ingestion and retrieval services.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/docdex-io/docdex/internal/db"
	"github.com/docdex-io/docdex/internal/domain"
)

const indexSuffix = "vec-idx"

// Repo stores chunk embeddings as Redis hashes under an HNSW FT index.
type Repo struct {
	store     db.Store
	keyPrefix string
	dim       int
}

// New creates a vector index repository. keyPrefix namespaces all keys,
// dim is the embedding dimension the index is created with.
func New(store db.Store, keyPrefix string, dim int) *Repo {
	return &Repo{store: store, keyPrefix: keyPrefix, dim: dim}
}

func (r *Repo) indexName() string {
	return r.keyPrefix + indexSuffix
}

func (r *Repo) key(vectorID string) string {
	return r.keyPrefix + "vec:" + vectorID
}

// EnsureIndex creates the HNSW index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("probe index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.VectorIndexDefinition{
		Name:       r.indexName(),
		Prefix:     r.keyPrefix + "vec:",
		Dimensions: r.dim,
		MetaTags:   []string{"document_id", "filename"},
		MetaNums:   []string{"chunk_index", "start_char", "end_char"},
	}
	if err := r.store.CreateVectorIndex(ctx, def); err != nil && err != db.ErrIndexExists {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Upsert writes a batch of vector records in one round-trip.
func (r *Repo) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(records))
	for i, rec := range records {
		if len(rec.Vector) != r.dim {
			return fmt.Errorf(
				"vector %s: dimension mismatch: got %d, want %d", rec.ID, len(rec.Vector), r.dim,
			)
		}
		items[i] = db.HashSetItem{
			Key: r.key(rec.ID),
			Fields: map[string]string{
				"vector":      vectorToBlob(rec.Vector),
				"document_id": rec.Metadata.DocumentID,
				"filename":    rec.Metadata.Filename,
				"chunk_index": strconv.Itoa(rec.Metadata.ChunkIndex),
				"start_char":  strconv.Itoa(rec.Metadata.StartChar),
				"end_char":    strconv.Itoa(rec.Metadata.EndChar),
				"content":     rec.Metadata.Preview,
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// Query returns the topK nearest neighbours by cosine similarity, ranked by
// descending score.
func (r *Repo) Query(ctx context.Context, vector []float32, topK int) ([]domain.VectorMatch, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            topK,
		ReturnFields: []string{"document_id"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	prefix := r.keyPrefix + "vec:"
	matches := make([]domain.VectorMatch, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := entry.Key
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			id = id[len(prefix):]
		}
		matches = append(matches, domain.VectorMatch{ID: id, Score: entry.Score})
	}
	return matches, nil
}

// Delete removes vector records by id. Missing ids are not an error.
func (r *Repo) Delete(ctx context.Context, vectorIDs []string) error {
	if len(vectorIDs) == 0 {
		return nil
	}

	keys := make([]string, len(vectorIDs))
	for i, id := range vectorIDs {
		keys[i] = r.key(id)
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

// vectorToBlob encodes float32s as little-endian bytes for the hash field.
func vectorToBlob(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
