package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docdex-io/docdex/internal/domain"
)

const messageColumns = "id, chat_id, chunk_id, role, task, status, content, created_at, updated_at"

// CreateMessage appends a message to a chat ledger with a generated id.
func (s *Store) CreateMessage(ctx context.Context, msg *domain.Message) (domain.Message, error) {
	if err := validID(msg.ChatID); err != nil {
		return domain.Message{}, err
	}

	now := time.Now().UTC()
	out := *msg
	out.ID = uuid.New().String()
	out.CreatedAt = now
	out.UpdatedAt = now

	var chunkID any
	if out.ChunkID != "" {
		chunkID = out.ChunkID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.ID, out.ChatID, chunkID, string(out.Role), string(out.Task),
		string(out.Status), out.Content, formatTime(out.CreatedAt), formatTime(out.UpdatedAt),
	)
	if err != nil {
		return domain.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return out, nil
}

// GetMessagesByChatID returns a chat's messages oldest first, so the chat
// loop answers pending questions in arrival order.
func (s *Store) GetMessagesByChatID(ctx context.Context, chatID string) ([]domain.Message, error) {
	if err := validID(chatID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE chat_id = ? ORDER BY created_at, rowid`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// UpdateMessageStatus transitions a message's processing status.
func (s *Store) UpdateMessageStatus(ctx context.Context, messageID string, status domain.MessageStatus) error {
	if err := validID(messageID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(time.Now().UTC()), messageID,
	)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanMessage(row rowScanner) (domain.Message, error) {
	var msg domain.Message
	var chunkID sql.NullString
	var role, task, status, createdAt, updatedAt string

	err := row.Scan(&msg.ID, &msg.ChatID, &chunkID, &role, &task, &status,
		&msg.Content, &createdAt, &updatedAt)
	if err != nil {
		return domain.Message{}, fmt.Errorf("scan message: %w", err)
	}

	msg.ChunkID = chunkID.String
	msg.Role = domain.MessageRole(role)
	msg.Task = domain.MessageTask(task)
	msg.Status = domain.MessageStatus(status)
	msg.CreatedAt = parseTime(createdAt)
	msg.UpdatedAt = parseTime(updatedAt)
	return msg, nil
}
