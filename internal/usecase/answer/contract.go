package answer

import (
	"context"

	"github.com/docdex-io/docdex/internal/domain"
)

// Retriever finds the chunks most similar to a question.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error)
}

// MessageWriter persists citation audit messages.
type MessageWriter interface {
	CreateMessage(ctx context.Context, msg *domain.Message) (domain.Message, error)
}
