package chat

import (
	"context"

	"github.com/docdex-io/docdex/internal/domain"
)

// Store is the relational contract for chats and their messages.
type Store interface {
	GetMessagesByChatID(ctx context.Context, chatID string) ([]domain.Message, error)
	CreateMessage(ctx context.Context, msg *domain.Message) (domain.Message, error)
	UpdateMessageStatus(ctx context.Context, messageID string, status domain.MessageStatus) error
	UpdateChatTitle(ctx context.Context, chatID, title string) error
}

// Answerer produces a cited answer for one question.
type Answerer interface {
	Answer(ctx context.Context, chatID, question string) (domain.Answer, error)
}
