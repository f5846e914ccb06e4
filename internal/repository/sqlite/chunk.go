package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/docdex-io/docdex/internal/domain"
)

const chunkColumns = "id, document_id, chunk_index, content, token_count, start_char_index, end_char_index, vector_id"

// CreateChunks inserts chunk rows in one transaction, assigning ids.
func (s *Store) CreateChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (`+chunkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.ID = uuid.New().String()
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.DocumentID, c.ChunkIndex, c.Content, c.TokenCount,
			c.StartChar, c.EndChar, c.VectorID,
		); err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
		}
		out[i] = c
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// GetChunksByDocumentID returns a document's chunks ordered by chunk_index.
func (s *Store) GetChunksByDocumentID(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if err := validID(documentID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE document_id = ? ORDER BY chunk_index`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content,
			&c.TokenCount, &c.StartChar, &c.EndChar, &c.VectorID); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// GetChunksByVectorIDs joins chunks with their documents by vector id.
// Ids with no matching row are simply absent from the result.
func (s *Store) GetChunksByVectorIDs(ctx context.Context, vectorIDs []string) ([]domain.ChunkWithDocument, error) {
	if len(vectorIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(vectorIDs)-1) + "?"
	args := make([]any, len(vectorIDs))
	for i, id := range vectorIDs {
		args[i] = id
	}

	query := `SELECT c.id, c.document_id, c.chunk_index, c.content, c.token_count,
			c.start_char_index, c.end_char_index, c.vector_id,
			d.id, d.filename, d.file_path, d.file_type, d.file_hash,
			d.total_chunks, d.created_at, d.updated_at
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.vector_id IN (` + placeholders + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks by vector ids: %w", err)
	}
	defer rows.Close()

	var out []domain.ChunkWithDocument
	for rows.Next() {
		var cw domain.ChunkWithDocument
		var fileType, createdAt, updatedAt string
		if err := rows.Scan(
			&cw.Chunk.ID, &cw.Chunk.DocumentID, &cw.Chunk.ChunkIndex, &cw.Chunk.Content,
			&cw.Chunk.TokenCount, &cw.Chunk.StartChar, &cw.Chunk.EndChar, &cw.Chunk.VectorID,
			&cw.Document.ID, &cw.Document.Filename, &cw.Document.FilePath, &fileType,
			&cw.Document.FileHash, &cw.Document.TotalChunks, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan joined chunk: %w", err)
		}
		cw.Document.FileType = domain.FileType(fileType)
		cw.Document.CreatedAt = parseTime(createdAt)
		cw.Document.UpdatedAt = parseTime(updatedAt)
		out = append(out, cw)
	}
	return out, rows.Err()
}

// DeleteChunksByDocumentID removes all chunk rows of a document.
func (s *Store) DeleteChunksByDocumentID(ctx context.Context, documentID string) error {
	if err := validID(documentID); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}
