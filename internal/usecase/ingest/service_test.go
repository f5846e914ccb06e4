package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docdex-io/docdex/internal/chunk"
	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	m.Run()
}

// --- Mocks ---

type mockExtractor struct {
	text     string
	fileType domain.FileType
	err      error
}

func (m *mockExtractor) Text(_ context.Context, _ string) (string, domain.FileType, error) {
	return m.text, m.fileType, m.err
}

type mockChunker struct {
	pieces []chunk.Piece
}

func (m *mockChunker) Split(_ string) []chunk.Piece {
	return m.pieces
}

type mockStore struct {
	byHash       map[string]domain.Document
	byFilename   map[string]domain.Document
	createErr    error
	chunksErr    error
	countErr     error
	docChunks    []domain.Chunk
	created      []domain.Document
	createdRows  []domain.Chunk
	deletedDocs  []string
	deletedRows  []string
	updatedCount int
}

func (m *mockStore) CreateDocument(_ context.Context, doc *domain.Document) (domain.Document, error) {
	if m.createErr != nil {
		return domain.Document{}, m.createErr
	}
	out := *doc
	out.ID = "11111111-1111-1111-1111-111111111111"
	m.created = append(m.created, out)
	return out, nil
}

func (m *mockStore) GetDocumentByHash(_ context.Context, hash string) (domain.Document, error) {
	if doc, ok := m.byHash[hash]; ok {
		return doc, nil
	}
	return domain.Document{}, domain.ErrNotFound
}

func (m *mockStore) GetDocumentByFilename(_ context.Context, filename string) (domain.Document, error) {
	if doc, ok := m.byFilename[filename]; ok {
		return doc, nil
	}
	return domain.Document{}, domain.ErrNotFound
}

func (m *mockStore) UpdateDocumentChunkCount(_ context.Context, _ string, totalChunks int) error {
	if m.countErr != nil {
		return m.countErr
	}
	m.updatedCount = totalChunks
	return nil
}

func (m *mockStore) DeleteDocument(_ context.Context, documentID string) error {
	m.deletedDocs = append(m.deletedDocs, documentID)
	return nil
}

func (m *mockStore) CreateChunks(_ context.Context, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if m.chunksErr != nil {
		return nil, m.chunksErr
	}
	m.createdRows = append(m.createdRows, chunks...)
	return chunks, nil
}

func (m *mockStore) GetChunksByDocumentID(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.docChunks, nil
}

func (m *mockStore) DeleteChunksByDocumentID(_ context.Context, documentID string) error {
	m.deletedRows = append(m.deletedRows, documentID)
	return nil
}

type mockVectors struct {
	upsertErr error
	upserted  []domain.VectorRecord
	deleted   []string
}

func (m *mockVectors) Upsert(_ context.Context, records []domain.VectorRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, records...)
	return nil
}

func (m *mockVectors) Delete(_ context.Context, vectorIDs []string) error {
	m.deleted = append(m.deleted, vectorIDs...)
	return nil
}

type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 5}, nil
}

// --- Tests ---

func twoPieces() []chunk.Piece {
	return []chunk.Piece{
		{Text: "first piece", StartChar: 0, EndChar: 11, TokenCount: 2},
		{Text: "second piece", StartChar: 12, EndChar: 24, TokenCount: 2},
	}
}

func TestProcess_Indexed(t *testing.T) {
	store := &mockStore{}
	vectors := &mockVectors{}
	embedder := &mockEmbedder{}
	svc := New(
		&mockExtractor{text: "first piece\nsecond piece", fileType: domain.FileTypeTXT},
		&mockChunker{pieces: twoPieces()},
		store, vectors, embedder,
	)

	result, err := svc.Process(context.Background(), "/watch/notes.txt")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Outcome != OutcomeIndexed {
		t.Errorf("outcome = %s, want indexed", result.Outcome)
	}
	if result.TotalChunks != 2 {
		t.Errorf("TotalChunks = %d, want 2", result.TotalChunks)
	}
	if embedder.calls != 2 {
		t.Errorf("embedder calls = %d, want 2", embedder.calls)
	}
	if len(vectors.upserted) != 2 {
		t.Fatalf("upserted = %d records, want 2", len(vectors.upserted))
	}
	wantID := domain.VectorID(result.DocumentID, 0)
	if vectors.upserted[0].ID != wantID {
		t.Errorf("vector id = %s, want %s", vectors.upserted[0].ID, wantID)
	}
	if len(store.createdRows) != 2 {
		t.Errorf("chunk rows = %d, want 2", len(store.createdRows))
	}
	if store.createdRows[1].VectorID != domain.VectorID(result.DocumentID, 1) {
		t.Errorf("chunk row vector id = %s", store.createdRows[1].VectorID)
	}
	if store.updatedCount != 2 {
		t.Errorf("updated chunk count = %d, want 2", store.updatedCount)
	}
}

func TestProcess_Duplicate(t *testing.T) {
	text := "already indexed content"
	store := &mockStore{byHash: map[string]domain.Document{
		contentHash(text): {ID: "existing-id", Filename: "earlier.txt"},
	}}
	embedder := &mockEmbedder{}
	svc := New(
		&mockExtractor{text: text, fileType: domain.FileTypeTXT},
		&mockChunker{}, store, &mockVectors{}, embedder,
	)

	result, err := svc.Process(context.Background(), "/watch/copy.txt")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Outcome != OutcomeDuplicate {
		t.Errorf("outcome = %s, want duplicate", result.Outcome)
	}
	if result.DocumentID != "existing-id" {
		t.Errorf("document id = %s, want existing-id", result.DocumentID)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times for a duplicate", embedder.calls)
	}
	if len(store.created) != 0 {
		t.Errorf("created %d documents for a duplicate", len(store.created))
	}
}

func TestProcess_ExtractError(t *testing.T) {
	svc := New(
		&mockExtractor{err: domain.ErrUnsupportedFormat},
		&mockChunker{}, &mockStore{}, &mockVectors{}, &mockEmbedder{},
	)

	_, err := svc.Process(context.Background(), "/watch/image.png")
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestProcess_EmbedFailureRollsBack(t *testing.T) {
	store := &mockStore{}
	vectors := &mockVectors{}
	svc := New(
		&mockExtractor{text: "some content here", fileType: domain.FileTypeTXT},
		&mockChunker{pieces: twoPieces()},
		store, vectors,
		&mockEmbedder{err: domain.ErrEmbeddingProviderError},
	)

	_, err := svc.Process(context.Background(), "/watch/doc.txt")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("error = %v, want ErrEmbeddingProviderError", err)
	}
	if len(store.deletedDocs) != 1 {
		t.Errorf("document row not rolled back")
	}
	if len(store.deletedRows) != 1 {
		t.Errorf("chunk rows not rolled back")
	}
}

func TestProcess_UpsertFailureRollsBack(t *testing.T) {
	store := &mockStore{}
	vectors := &mockVectors{upsertErr: errors.New("redis down")}
	svc := New(
		&mockExtractor{text: "some content here", fileType: domain.FileTypeTXT},
		&mockChunker{pieces: twoPieces()},
		store, vectors, &mockEmbedder{},
	)

	_, err := svc.Process(context.Background(), "/watch/doc.txt")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(vectors.deleted) != 2 {
		t.Errorf("deleted %d vector ids during rollback, want 2", len(vectors.deleted))
	}
	if len(store.deletedDocs) != 1 {
		t.Errorf("document row not rolled back")
	}
}

func TestProcess_MetadataPreviewCapped(t *testing.T) {
	long := strings.Repeat("x", 600)
	vectors := &mockVectors{}
	svc := New(
		&mockExtractor{text: long, fileType: domain.FileTypeTXT},
		&mockChunker{pieces: []chunk.Piece{{Text: long, EndChar: 600, TokenCount: 75}}},
		&mockStore{}, vectors, &mockEmbedder{},
	)

	if _, err := svc.Process(context.Background(), "/watch/long.txt"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := len(vectors.upserted[0].Metadata.Preview); got != 500 {
		t.Errorf("preview length = %d, want 500", got)
	}
	if got := len(vectors.upserted[0].Metadata.Preview); got > 0 && vectors.upserted[0].Metadata.Preview != long[:500] {
		t.Errorf("preview is not a prefix of the content")
	}
}

func TestDelete(t *testing.T) {
	doc := domain.Document{ID: "22222222-2222-2222-2222-222222222222", Filename: "gone.txt"}
	store := &mockStore{
		byFilename: map[string]domain.Document{"gone.txt": doc},
		docChunks: []domain.Chunk{
			{VectorID: domain.VectorID(doc.ID, 0)},
			{VectorID: domain.VectorID(doc.ID, 1)},
		},
	}
	vectors := &mockVectors{}
	svc := New(&mockExtractor{}, &mockChunker{}, store, vectors, &mockEmbedder{})

	if err := svc.Delete(context.Background(), "/watch/gone.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(vectors.deleted) != 2 {
		t.Errorf("deleted %d vectors, want 2", len(vectors.deleted))
	}
	if len(store.deletedRows) != 1 || store.deletedRows[0] != doc.ID {
		t.Errorf("chunk rows not deleted for %s", doc.ID)
	}
	if len(store.deletedDocs) != 1 || store.deletedDocs[0] != doc.ID {
		t.Errorf("document row not deleted for %s", doc.ID)
	}
}

func TestRefresh_ChangedContentReplacesStaleDocument(t *testing.T) {
	stale := domain.Document{ID: "33333333-3333-3333-3333-333333333333", Filename: "report.txt"}
	store := &mockStore{
		byFilename: map[string]domain.Document{"report.txt": stale},
		docChunks: []domain.Chunk{
			{VectorID: domain.VectorID(stale.ID, 0)},
		},
	}
	vectors := &mockVectors{}
	svc := New(
		&mockExtractor{text: "revised content", fileType: domain.FileTypeTXT},
		&mockChunker{pieces: twoPieces()},
		store, vectors, &mockEmbedder{},
	)

	result, err := svc.Refresh(context.Background(), "/watch/report.txt")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Outcome != OutcomeIndexed {
		t.Errorf("outcome = %s, want indexed", result.Outcome)
	}
	if len(store.deletedDocs) != 1 || store.deletedDocs[0] != stale.ID {
		t.Errorf("stale document not removed, deleted = %v", store.deletedDocs)
	}
	if len(vectors.deleted) != 1 {
		t.Errorf("deleted %d stale vectors, want 1", len(vectors.deleted))
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d documents, want 1", len(store.created))
	}
	if len(vectors.upserted) != 2 {
		t.Errorf("upserted %d records, want 2", len(vectors.upserted))
	}
}

func TestRefresh_UnchangedContentIsDuplicate(t *testing.T) {
	text := "same content as before"
	store := &mockStore{byHash: map[string]domain.Document{
		contentHash(text): {ID: "existing-id", Filename: "report.txt"},
	}}
	embedder := &mockEmbedder{}
	vectors := &mockVectors{}
	svc := New(
		&mockExtractor{text: text, fileType: domain.FileTypeTXT},
		&mockChunker{}, store, vectors, embedder,
	)

	result, err := svc.Refresh(context.Background(), "/watch/report.txt")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Outcome != OutcomeDuplicate {
		t.Errorf("outcome = %s, want duplicate", result.Outcome)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times for unchanged content", embedder.calls)
	}
	if len(store.deletedDocs) != 0 {
		t.Error("unchanged refresh removed a document")
	}
}

func TestRefresh_NewFilenameIndexesWithoutRemoval(t *testing.T) {
	store := &mockStore{}
	vectors := &mockVectors{}
	svc := New(
		&mockExtractor{text: "brand new content", fileType: domain.FileTypeTXT},
		&mockChunker{pieces: twoPieces()},
		store, vectors, &mockEmbedder{},
	)

	result, err := svc.Refresh(context.Background(), "/watch/fresh.txt")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if result.Outcome != OutcomeIndexed {
		t.Errorf("outcome = %s, want indexed", result.Outcome)
	}
	if len(vectors.deleted) != 0 {
		t.Error("refresh of an untracked file deleted vectors")
	}
}

func TestHandleEvent(t *testing.T) {
	tests := []struct {
		kind       domain.EventKind
		path       string
		wantCreate int
		wantDelete int
	}{
		{kind: domain.EventStartup, path: "/watch/a.txt", wantCreate: 1},
		{kind: domain.EventCreated, path: "/watch/b.txt", wantCreate: 1},
		{kind: domain.EventModified, path: "/watch/c.txt", wantCreate: 1},
		{kind: domain.EventDeleted, path: "/watch/d.txt"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			store := &mockStore{}
			svc := New(
				&mockExtractor{text: "content for " + tt.path, fileType: domain.FileTypeTXT},
				&mockChunker{pieces: twoPieces()},
				store, &mockVectors{}, &mockEmbedder{},
			)

			err := svc.HandleEvent(context.Background(), domain.FileEvent{Kind: tt.kind, Path: tt.path})
			if err != nil {
				t.Fatalf("HandleEvent: %v", err)
			}
			if len(store.created) != tt.wantCreate {
				t.Errorf("created %d documents, want %d", len(store.created), tt.wantCreate)
			}
		})
	}
}

func TestHandleEvent_UnknownKind(t *testing.T) {
	svc := New(&mockExtractor{}, &mockChunker{}, &mockStore{}, &mockVectors{}, &mockEmbedder{})

	err := svc.HandleEvent(context.Background(), domain.FileEvent{Kind: "renamed", Path: "/watch/x.txt"})
	if err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}

func TestDelete_UnknownFileIsNoop(t *testing.T) {
	store := &mockStore{}
	vectors := &mockVectors{}
	svc := New(&mockExtractor{}, &mockChunker{}, store, vectors, &mockEmbedder{})

	if err := svc.Delete(context.Background(), "/watch/never-seen.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(vectors.deleted) != 0 || len(store.deletedDocs) != 0 {
		t.Error("no-op delete touched storage")
	}
}
