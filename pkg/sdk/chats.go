package docdex

import (
	"context"
	"net/http"
	"net/url"
)

// ChatService manages chats.
type ChatService struct {
	client *Client
}

// Create creates a new chat. An empty title gets a server-side default.
func (s *ChatService) Create(ctx context.Context, title string) (Chat, error) {
	req := struct {
		Title string `json:"title"`
	}{Title: title}

	var chat Chat
	if err := s.client.do(ctx, http.MethodPost, "/chats", req, &chat); err != nil {
		return Chat{}, err
	}
	return chat, nil
}

// Get returns one chat by id.
func (s *ChatService) Get(ctx context.Context, chatID string) (Chat, error) {
	var chat Chat
	if err := s.client.do(ctx, http.MethodGet, "/chats/"+url.PathEscape(chatID), nil, &chat); err != nil {
		return Chat{}, err
	}
	return chat, nil
}

// List returns all chats, most recently updated first.
func (s *ChatService) List(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	if err := s.client.do(ctx, http.MethodGet, "/chats", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// Rename sets a chat's title and returns the updated chat.
func (s *ChatService) Rename(ctx context.Context, chatID, title string) (Chat, error) {
	req := struct {
		Title string `json:"title"`
	}{Title: title}

	var chat Chat
	if err := s.client.do(ctx, http.MethodPut, "/chats/"+url.PathEscape(chatID), req, &chat); err != nil {
		return Chat{}, err
	}
	return chat, nil
}

// Delete removes a chat and its messages.
func (s *ChatService) Delete(ctx context.Context, chatID string) error {
	return s.client.do(ctx, http.MethodDelete, "/chats/"+url.PathEscape(chatID), nil, nil)
}
