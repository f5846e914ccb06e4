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

// CreateChat inserts a new chat with a generated id.
func (s *Store) CreateChat(ctx context.Context, title string) (domain.Chat, error) {
	now := time.Now().UTC()
	chat := domain.Chat{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		chat.ID, chat.Title, formatTime(chat.CreatedAt), formatTime(chat.UpdatedAt),
	)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("insert chat: %w", err)
	}
	return chat, nil
}

// GetChat returns a chat by id. Returns domain.ErrNotFound when absent.
func (s *Store) GetChat(ctx context.Context, chatID string) (domain.Chat, error) {
	if err := validID(chatID); err != nil {
		return domain.Chat{}, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chats WHERE id = ?`, chatID)

	var chat domain.Chat
	var createdAt, updatedAt string
	err := row.Scan(&chat.ID, &chat.Title, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Chat{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Chat{}, fmt.Errorf("scan chat: %w", err)
	}

	chat.CreatedAt = parseTime(createdAt)
	chat.UpdatedAt = parseTime(updatedAt)
	return chat, nil
}

// ListChats returns all chats, newest first.
func (s *Store) ListChats(ctx context.Context) ([]domain.Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM chats ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []domain.Chat
	for rows.Next() {
		var chat domain.Chat
		var createdAt, updatedAt string
		if err := rows.Scan(&chat.ID, &chat.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chat.CreatedAt = parseTime(createdAt)
		chat.UpdatedAt = parseTime(updatedAt)
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// UpdateChatTitle sets a chat's title.
func (s *Store) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	if err := validID(chatID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = ?, updated_at = ? WHERE id = ?`,
		title, formatTime(time.Now().UTC()), chatID,
	)
	if err != nil {
		return fmt.Errorf("update chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteChat removes a chat and its messages.
func (s *Store) DeleteChat(ctx context.Context, chatID string) error {
	if err := validID(chatID); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete chat messages: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
