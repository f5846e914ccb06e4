package domain

// VectorMetadata is the metadata subset stored alongside an embedding in the
// vector index. Preview is capped at 500 characters at write time.
type VectorMetadata struct {
	DocumentID string
	Filename   string
	ChunkIndex int
	StartChar  int
	EndChar    int
	Preview    string
}

// VectorRecord is one entry in the vector index, keyed by VectorID.
// Its lifetime is tied 1:1 to the chunk row carrying the same id.
type VectorRecord struct {
	ID       string
	Vector   []float32
	Metadata VectorMetadata
}

// VectorMatch is a ranked nearest-neighbour hit from the vector index.
type VectorMatch struct {
	ID    string
	Score float64 // cosine similarity in [0, 1]
}
