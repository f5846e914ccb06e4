package chi

import (
	"context"

	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/usecase/health"
)

// ChatStore is the chat persistence surface the handlers need.
type ChatStore interface {
	CreateChat(ctx context.Context, title string) (domain.Chat, error)
	GetChat(ctx context.Context, chatID string) (domain.Chat, error)
	ListChats(ctx context.Context) ([]domain.Chat, error)
	UpdateChatTitle(ctx context.Context, chatID, title string) error
	DeleteChat(ctx context.Context, chatID string) error
	CreateMessage(ctx context.Context, msg *domain.Message) (domain.Message, error)
	GetMessagesByChatID(ctx context.Context, chatID string) ([]domain.Message, error)
}

// DocumentLister lists indexed documents.
type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// ChatProcessor answers a chat's pending messages.
type ChatProcessor interface {
	ProcessChat(ctx context.Context, chatID string) error
}

// HealthChecker reports component liveness for the health endpoint.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
