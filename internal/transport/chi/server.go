// Package chi exposes the chat and document API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/logger"
	"github.com/docdex-io/docdex/internal/metrics"
	"github.com/docdex-io/docdex/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	chats         ChatStore
	documents     DocumentLister
	processor     ChatProcessor
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the API server.
func NewServer(chats ChatStore, documents DocumentLister, processor ChatProcessor, health HealthChecker, log *zap.Logger) *Server {
	s := &Server{
		chats:     chats,
		documents: documents,
		processor: processor,
		health:    health,
		logger:    log,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(domain.ErrInvalidID, http.StatusBadRequest, "invalid_id"),
		sentinelHandler(domain.ErrDuplicateContent, http.StatusConflict, "duplicate_content"),
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, "unsupported_format"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, "completion_provider_error"),
	}
	return s
}

// Router assembles the chi router with middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware())
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/chats", func(r chi.Router) {
		r.Post("/", s.createChat)
		r.Get("/", s.listChats)
		r.Get("/{chatID}", s.getChat)
		r.Put("/{chatID}", s.updateChat)
		r.Delete("/{chatID}", s.deleteChat)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Post("/", s.createMessage)
		r.Get("/chat/{chatID}", s.listChatMessages)
	})

	r.Get("/documents", s.listDocuments)

	return r
}

// --- DTOs ---

type chatDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageDTO struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	ChunkID   string    `json:"chunk_id,omitempty"`
	Role      string    `json:"role"`
	Task      string    `json:"task"`
	Status    string    `json:"status"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type documentDTO struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	FilePath    string    `json:"file_path"`
	FileType    string    `json:"file_type"`
	FileHash    string    `json:"file_hash"`
	TotalChunks int       `json:"total_chunks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func chatToDTO(c domain.Chat) chatDTO {
	return chatDTO{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func messageToDTO(m domain.Message) messageDTO {
	return messageDTO{
		ID:        m.ID,
		ChatID:    m.ChatID,
		ChunkID:   m.ChunkID,
		Role:      string(m.Role),
		Task:      string(m.Task),
		Status:    string(m.Status),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func documentToDTO(d domain.Document) documentDTO {
	return documentDTO{
		ID:          d.ID,
		Filename:    d.Filename,
		FilePath:    d.FilePath,
		FileType:    string(d.FileType),
		FileHash:    d.FileHash,
		TotalChunks: d.TotalChunks,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// --- Chat handlers ---

func (s *Server) createChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if req.Title == "" {
		req.Title = "New chat"
	}

	chat, err := s.chats.CreateChat(r.Context(), req.Title)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chatToDTO(chat))
}

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.chats.ListChats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	items := make([]chatDTO, len(chats))
	for i, c := range chats {
		items[i] = chatToDTO(c)
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	chat, err := s.chats.GetChat(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatToDTO(chat))
}

func (s *Server) updateChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "title is required")
		return
	}

	chatID := chi.URLParam(r, "chatID")
	if err := s.chats.UpdateChatTitle(r.Context(), chatID, req.Title); err != nil {
		s.handleDomainError(w, err)
		return
	}

	chat, err := s.chats.GetChat(r.Context(), chatID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatToDTO(chat))
}

func (s *Server) deleteChat(w http.ResponseWriter, r *http.Request) {
	if err := s.chats.DeleteChat(r.Context(), chi.URLParam(r, "chatID")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Message handlers ---

func (s *Server) createMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID  string `json:"chat_id"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	if req.ChatID == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "chat_id and content are required")
		return
	}

	if _, err := s.chats.GetChat(r.Context(), req.ChatID); err != nil {
		s.handleDomainError(w, err)
		return
	}

	msg, err := s.chats.CreateMessage(r.Context(), &domain.Message{
		ChatID:  req.ChatID,
		Role:    domain.RoleUser,
		Task:    domain.TaskChat,
		Status:  domain.StatusPending,
		Content: req.Content,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	// Answering happens in the background; the request context is about to
	// die with this response.
	go func() {
		ctx := logger.WithContext(context.Background(), s.logger)
		if err := s.processor.ProcessChat(ctx, msg.ChatID); err != nil {
			s.logger.Error("process chat",
				zap.String("chat_id", msg.ChatID),
				zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusCreated, messageToDTO(msg))
}

func (s *Server) listChatMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.chats.GetMessagesByChatID(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	items := make([]messageDTO, len(msgs))
	for i, m := range msgs {
		items[i] = messageToDTO(m)
	}
	writeJSON(w, http.StatusOK, items)
}

// --- Document handlers ---

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.ListDocuments(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	items := make([]documentDTO, len(docs))
	for i, d := range docs {
		items[i] = documentToDTO(d)
	}
	writeJSON(w, http.StatusOK, items)
}

// --- Health ---

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// --- Error mapping ---

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidID,
		domain.ErrDuplicateContent,
		domain.ErrUnsupportedFormat,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
