// Package db defines the thin contract between repositories and the
// Redis/Valkey search backend.
package db

import "context"

// HashSetItem is one hash write in a batched upsert.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// KNNQuery describes a vector similarity search against an FT index.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchEntry is a single hit returned by FT.SEARCH.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult is the parsed FT.SEARCH reply.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// VectorIndexDefinition describes an HNSW index over hash keys.
type VectorIndexDefinition struct {
	Name       string
	Prefix     string
	Dimensions int
	MetaTags   []string // TAG fields
	MetaNums   []string // NUMERIC fields
}

// Store is the backend contract consumed by the vector repository.
type Store interface {
	Ping(ctx context.Context) error
	Close()
	CreateVectorIndex(ctx context.Context, def *VectorIndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSetMulti(ctx context.Context, items []HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
