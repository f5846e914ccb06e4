package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docdex-io/docdex/internal/domain"
)

const documentColumns = "id, filename, file_path, file_type, file_hash, total_chunks, created_at, updated_at"

// CreateDocument inserts a new document row with a generated id.
func (s *Store) CreateDocument(ctx context.Context, doc *domain.Document) (domain.Document, error) {
	now := time.Now().UTC()
	out := *doc
	out.ID = uuid.New().String()
	out.CreatedAt = now
	out.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		out.ID, out.Filename, out.FilePath, string(out.FileType), out.FileHash,
		out.TotalChunks, formatTime(out.CreatedAt), formatTime(out.UpdatedAt),
	)
	if err != nil {
		return domain.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return out, nil
}

// GetDocumentByHash resolves a document by its content hash, the
// deduplication key. Returns domain.ErrNotFound when absent.
func (s *Store) GetDocumentByHash(ctx context.Context, hash string) (domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE file_hash = ?`, hash)
	return scanDocument(row)
}

// GetDocumentByFilename resolves a document by filename.
// Returns domain.ErrNotFound when absent.
func (s *Store) GetDocumentByFilename(ctx context.Context, filename string) (domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE filename = ?`, filename)
	return scanDocument(row)
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateDocumentChunkCount sets total_chunks after ingestion completes.
func (s *Store) UpdateDocumentChunkCount(ctx context.Context, documentID string, totalChunks int) error {
	if err := validID(documentID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET total_chunks = ?, updated_at = ? WHERE id = ?`,
		totalChunks, formatTime(time.Now().UTC()), documentID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document row.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	if err := validID(documentID); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var doc domain.Document
	var fileType, createdAt, updatedAt string

	err := row.Scan(&doc.ID, &doc.Filename, &doc.FilePath, &fileType, &doc.FileHash,
		&doc.TotalChunks, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("scan document: %w", err)
	}

	doc.FileType = domain.FileType(fileType)
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)
	return doc, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
