package domain

// Source is per-chunk provenance attached to a synthesized answer.
type Source struct {
	DocumentName    string  `json:"document_name"`
	DocumentType    string  `json:"document_type"`
	DocumentPath    string  `json:"document_filepath"`
	ChunkID         string  `json:"chunk_id"`
	ChunkIndex      int     `json:"chunk_index"`
	StartChar       int     `json:"start_char_index"`
	EndChar         int     `json:"end_char_index"`
	CharacterRange  string  `json:"character_range"`
	SimilarityScore float64 `json:"similarity_score"`
	ContentPreview  string  `json:"content_preview"`
}

// Answer is the result of one retrieval-augmented generation request.
type Answer struct {
	Answer            string   `json:"answer"`
	Sources           []Source `json:"sources"`
	Question          string   `json:"question"`
	TotalSourcesFound int      `json:"total_sources_found"`
}

// RetrievedChunk is one semantic search hit joined with chunk and document
// metadata, ordered by descending similarity.
type RetrievedChunk struct {
	SimilarityScore float64
	Document        Document
	Chunk           Chunk
}
