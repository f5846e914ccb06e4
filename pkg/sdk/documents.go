package docdex

import (
	"context"
	"net/http"
)

// DocumentService reads the indexed document inventory.
type DocumentService struct {
	client *Client
}

// List returns all indexed documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := s.client.do(ctx, http.MethodGet, "/documents", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
