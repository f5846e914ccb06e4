package docdex

import (
	"context"
	"net/http"
	"net/url"
)

// MessageService sends questions and reads conversation history.
type MessageService struct {
	client *Client
}

// Send posts a user question to a chat. The server accepts the message and
// answers asynchronously; poll ListByChat for the assistant's reply.
func (s *MessageService) Send(ctx context.Context, chatID, content string) (Message, error) {
	req := struct {
		ChatID  string `json:"chat_id"`
		Content string `json:"content"`
	}{ChatID: chatID, Content: content}

	var msg Message
	if err := s.client.do(ctx, http.MethodPost, "/messages", req, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// ListByChat returns a chat's messages in chronological order.
func (s *MessageService) ListByChat(ctx context.Context, chatID string) ([]Message, error) {
	var msgs []Message
	if err := s.client.do(ctx, http.MethodGet, "/messages/chat/"+url.PathEscape(chatID), nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
