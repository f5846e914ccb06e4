// Package chat drives the conversation loop that answers pending user
// messages.
package chat

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/logger"
)

// titleLimit is how many characters of the first message become the chat
// title before an ellipsis is appended.
const titleLimit = 27

// Service processes one chat's pending questions. Concurrent triggers for
// the same chat serialize on a per-chat lock, so a question is never
// answered twice.
type Service struct {
	store    Store
	answerer Answerer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store Store, answerer Answerer) *Service {
	return &Service{
		store:    store,
		answerer: answerer,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) chatLock(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	return l
}

// ProcessChat answers every pending user message of the chat, oldest first.
// The first message of a fresh chat also names it.
func (s *Service) ProcessChat(ctx context.Context, chatID string) error {
	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	log := logger.FromContext(ctx).With(zap.String("chat_id", chatID))

	messages, err := s.store.GetMessagesByChatID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	if len(messages) == 1 {
		if err := s.store.UpdateChatTitle(ctx, chatID, deriveTitle(messages[0].Content)); err != nil {
			log.Warn("update chat title", zap.Error(err))
		}
	}

	for _, msg := range messages {
		if msg.Role != domain.RoleUser || msg.Status != domain.StatusPending {
			continue
		}
		if err := s.answerMessage(ctx, log, chatID, msg); err != nil {
			log.Error("answer message",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *Service) answerMessage(ctx context.Context, log *zap.Logger, chatID string, msg domain.Message) error {
	if err := s.store.UpdateMessageStatus(ctx, msg.ID, domain.StatusInProgress); err != nil {
		return fmt.Errorf("mark in progress: %w", err)
	}

	result, err := s.answerer.Answer(ctx, chatID, msg.Content)
	if err != nil {
		if statusErr := s.store.UpdateMessageStatus(ctx, msg.ID, domain.StatusFailed); statusErr != nil {
			log.Warn("mark message failed", zap.Error(statusErr))
		}
		return fmt.Errorf("synthesize answer: %w", err)
	}

	if err := s.store.UpdateMessageStatus(ctx, msg.ID, domain.StatusCompleted); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	if _, err := s.store.CreateMessage(ctx, &domain.Message{
		ChatID:  chatID,
		Role:    domain.RoleAssistant,
		Task:    domain.TaskChat,
		Status:  domain.StatusCompleted,
		Content: result.Answer,
	}); err != nil {
		return fmt.Errorf("append assistant message: %w", err)
	}
	return nil
}

// deriveTitle names a chat after the start of its first message.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleLimit {
		return content
	}
	return string(runes[:titleLimit]) + "..."
}
