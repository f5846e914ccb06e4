package domain

import (
	"fmt"
	"time"
)

// FileType tags the source format of an ingested document.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeTXT  FileType = "txt"
)

// Document is one ingested file, identified by the hash of its extracted text.
type Document struct {
	ID          string
	Filename    string
	FilePath    string
	FileType    FileType
	FileHash    string // sha256 over extracted text, the deduplication key
	TotalChunks int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk is a contiguous token-bounded slice of a document's extracted text.
// StartChar/EndChar form a half-open range into that text.
type Chunk struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Content    string
	TokenCount int
	StartChar  int
	EndChar    int
	VectorID   string
}

// ChunkWithDocument is a chunk joined with its owning document's metadata.
type ChunkWithDocument struct {
	Chunk    Chunk
	Document Document
}

// VectorID derives the vector index key for a chunk. Chunk rows and vector
// entries are a bijection under this scheme.
func VectorID(documentID string, chunkIndex int) string {
	return fmt.Sprintf("%s_%d", documentID, chunkIndex)
}
