package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// Ingestion and retrieval must use the same implementation: mixing models
// silently degrades relevance, so the coordinator and retriever are wired
// with one instance at the composition root.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Completer is the generative model contract for answer synthesis.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
