package ingest

import (
	"context"

	"github.com/docdex-io/docdex/internal/chunk"
	"github.com/docdex-io/docdex/internal/domain"
)

// Extractor converts a source file into plain text.
type Extractor interface {
	Text(ctx context.Context, path string) (string, domain.FileType, error)
}

// Chunker splits extracted text into token-bounded pieces.
type Chunker interface {
	Split(text string) []chunk.Piece
}

// Store is the relational storage contract for documents and chunks.
type Store interface {
	CreateDocument(ctx context.Context, doc *domain.Document) (domain.Document, error)
	GetDocumentByHash(ctx context.Context, hash string) (domain.Document, error)
	GetDocumentByFilename(ctx context.Context, filename string) (domain.Document, error)
	UpdateDocumentChunkCount(ctx context.Context, documentID string, totalChunks int) error
	DeleteDocument(ctx context.Context, documentID string) error
	CreateChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, error)
	GetChunksByDocumentID(ctx context.Context, documentID string) ([]domain.Chunk, error)
	DeleteChunksByDocumentID(ctx context.Context, documentID string) error
}

// VectorIndex is the vector storage contract.
type VectorIndex interface {
	Upsert(ctx context.Context, records []domain.VectorRecord) error
	Delete(ctx context.Context, vectorIDs []string) error
}
