// Package ingest coordinates the document pipeline: extract, hash, chunk,
// embed, index, persist.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/logger"
	"github.com/docdex-io/docdex/internal/metrics"
)

// Vector upserts are batched to bound round-trip size.
const upsertBatchSize = 100

// Vector metadata stores at most this many characters of chunk content.
const metadataPreviewLimit = 500

// Outcome classifies what Process did with a file.
type Outcome string

const (
	OutcomeIndexed   Outcome = "indexed"
	OutcomeDuplicate Outcome = "duplicate"
)

// Result reports one processed file.
type Result struct {
	Outcome     Outcome
	DocumentID  string
	TotalChunks int
}

// Service is the ingestion coordinator.
type Service struct {
	extractor Extractor
	chunker   Chunker
	store     Store
	vectors   VectorIndex
	embedder  domain.Embedder
}

// New creates an ingestion coordinator. The embedder must be the same
// instance the retriever uses.
func New(extractor Extractor, chunker Chunker, store Store, vectors VectorIndex, embedder domain.Embedder) *Service {
	return &Service{
		extractor: extractor,
		chunker:   chunker,
		store:     store,
		vectors:   vectors,
		embedder:  embedder,
	}
}

// Process ingests the file at path. A document whose extracted text hashes
// to an already-stored value is a duplicate and short-circuits before any
// embedding work. A failure after the document row exists rolls back
// vectors, chunk rows, and the row itself, so no orphan survives.
func (s *Service) Process(ctx context.Context, path string) (Result, error) {
	log := logger.FromContext(ctx).With(zap.String("path", path))

	text, fileType, err := s.extractor.Text(ctx, path)
	if err != nil {
		metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("extract text: %w", err)
	}

	hash := contentHash(text)
	if existing, err := s.store.GetDocumentByHash(ctx, hash); err == nil {
		metrics.DocumentsProcessedTotal.WithLabelValues("duplicate").Inc()
		log.Info("document already indexed",
			zap.String("document_id", existing.ID),
			zap.String("existing_filename", existing.Filename))
		return Result{Outcome: OutcomeDuplicate, DocumentID: existing.ID}, nil
	} else if !isNotFound(err) {
		metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("dedup lookup: %w", err)
	}

	return s.index(ctx, log, path, text, fileType, hash)
}

// Refresh re-ingests a modified file. Unchanged content short-circuits as a
// duplicate; changed content replaces the stale document stored for the
// same filename.
func (s *Service) Refresh(ctx context.Context, path string) (Result, error) {
	log := logger.FromContext(ctx).With(zap.String("path", path))
	filename := filepath.Base(path)

	text, fileType, err := s.extractor.Text(ctx, path)
	if err != nil {
		metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("extract text: %w", err)
	}

	hash := contentHash(text)
	if existing, err := s.store.GetDocumentByHash(ctx, hash); err == nil {
		metrics.DocumentsProcessedTotal.WithLabelValues("duplicate").Inc()
		return Result{Outcome: OutcomeDuplicate, DocumentID: existing.ID}, nil
	} else if !isNotFound(err) {
		metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("dedup lookup: %w", err)
	}

	if stale, err := s.store.GetDocumentByFilename(ctx, filename); err == nil {
		log.Info("replacing stale document", zap.String("document_id", stale.ID))
		if err := s.removeDocument(ctx, stale); err != nil {
			metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
			return Result{}, fmt.Errorf("remove stale document: %w", err)
		}
	} else if !isNotFound(err) {
		metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("stale lookup: %w", err)
	}

	return s.index(ctx, log, path, text, fileType, hash)
}

// index runs the embed-upsert-persist tail of the pipeline for already
// extracted, deduplicated text.
func (s *Service) index(ctx context.Context, log *zap.Logger, path, text string, fileType domain.FileType, hash string) (Result, error) {
	filename := filepath.Base(path)

	doc, err := s.store.CreateDocument(ctx, &domain.Document{
		Filename: filename,
		FilePath: path,
		FileType: fileType,
		FileHash: hash,
	})
	if err != nil {
		metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("create document: %w", err)
	}

	pieces := s.chunker.Split(text)
	log.Info("chunked document",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(pieces)))

	records := make([]domain.VectorRecord, 0, len(pieces))
	chunkRows := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		embedding, err := s.embedder.Embed(ctx, piece.Text)
		if err != nil {
			s.rollback(ctx, log, doc.ID, vectorIDs(records))
			metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
			return Result{}, fmt.Errorf("embed chunk %d: %w", i, err)
		}

		vectorID := domain.VectorID(doc.ID, i)
		records = append(records, domain.VectorRecord{
			ID:     vectorID,
			Vector: embedding.Embedding,
			Metadata: domain.VectorMetadata{
				DocumentID: doc.ID,
				Filename:   filename,
				ChunkIndex: i,
				StartChar:  piece.StartChar,
				EndChar:    piece.EndChar,
				Preview:    truncate(piece.Text, metadataPreviewLimit),
			},
		})
		chunkRows = append(chunkRows, domain.Chunk{
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    piece.Text,
			TokenCount: piece.TokenCount,
			StartChar:  piece.StartChar,
			EndChar:    piece.EndChar,
			VectorID:   vectorID,
		})
	}

	for start := 0; start < len(records); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(records))
		if err := s.vectors.Upsert(ctx, records[start:end]); err != nil {
			// Batches before this one may already be live.
			s.rollback(ctx, log, doc.ID, vectorIDs(records[:end]))
			metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
			return Result{}, fmt.Errorf("upsert vectors: %w", err)
		}
	}

	if _, err := s.store.CreateChunks(ctx, chunkRows); err != nil {
		s.rollback(ctx, log, doc.ID, vectorIDs(records))
		metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("persist chunks: %w", err)
	}

	if err := s.store.UpdateDocumentChunkCount(ctx, doc.ID, len(pieces)); err != nil {
		s.rollback(ctx, log, doc.ID, vectorIDs(records))
		metrics.DocumentsProcessedTotal.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("update chunk count: %w", err)
	}

	metrics.DocumentsProcessedTotal.WithLabelValues("indexed").Inc()
	metrics.ChunksIndexedTotal.Add(float64(len(pieces)))
	log.Info("document indexed",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(pieces)))

	return Result{Outcome: OutcomeIndexed, DocumentID: doc.ID, TotalChunks: len(pieces)}, nil
}

// Delete removes the document known by the basename of path, its chunk rows,
// and its vectors. An unknown filename is a benign no-op.
func (s *Service) Delete(ctx context.Context, path string) error {
	log := logger.FromContext(ctx).With(zap.String("path", path))
	filename := filepath.Base(path)

	doc, err := s.store.GetDocumentByFilename(ctx, filename)
	if isNotFound(err) {
		log.Info("file not tracked, nothing to delete")
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve document: %w", err)
	}

	if err := s.removeDocument(ctx, doc); err != nil {
		return err
	}

	metrics.DocumentsProcessedTotal.WithLabelValues("deleted").Inc()
	log.Info("document deleted", zap.String("document_id", doc.ID))
	return nil
}

// removeDocument deletes a document's vectors, then its chunk rows, then
// the row itself. Order matters: a crash mid-way leaves rows that still
// resolve, never dangling vectors.
func (s *Service) removeDocument(ctx context.Context, doc domain.Document) error {
	chunks, err := s.store.GetChunksByDocumentID(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.VectorID
	}
	if err := s.vectors.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.store.DeleteChunksByDocumentID(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.store.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// HandleEvent routes a filesystem event to the matching pipeline operation.
func (s *Service) HandleEvent(ctx context.Context, event domain.FileEvent) error {
	switch event.Kind {
	case domain.EventStartup, domain.EventCreated:
		_, err := s.Process(ctx, event.Path)
		return err
	case domain.EventModified:
		_, err := s.Refresh(ctx, event.Path)
		return err
	case domain.EventDeleted:
		return s.Delete(ctx, event.Path)
	default:
		return fmt.Errorf("unknown file event kind %q", event.Kind)
	}
}

// rollback compensates a partial ingest. Errors are logged, not returned:
// the original failure is what the caller needs to see.
func (s *Service) rollback(ctx context.Context, log *zap.Logger, documentID string, ids []string) {
	if err := s.vectors.Delete(ctx, ids); err != nil {
		log.Warn("rollback: delete vectors", zap.Error(err))
	}
	if err := s.store.DeleteChunksByDocumentID(ctx, documentID); err != nil {
		log.Warn("rollback: delete chunks", zap.Error(err))
	}
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		log.Warn("rollback: delete document", zap.Error(err))
	}
}

func vectorIDs(records []domain.VectorRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
