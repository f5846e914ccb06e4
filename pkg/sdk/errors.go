package docdex

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped from API error codes. Use errors.Is() to check.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidID          = errors.New("invalid id")
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateContent   = errors.New("duplicate content")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrEmbeddingProvider  = errors.New("embedding provider error")
	ErrCompletionProvider = errors.New("completion provider error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// APIError is a structured error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("docdex: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Unwrap maps the API error code to a sentinel error.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "not_found":
		return ErrNotFound
	case "invalid_id":
		return ErrInvalidID
	case "validation_failed", "bad_request":
		return ErrValidation
	case "duplicate_content":
		return ErrDuplicateContent
	case "unsupported_format":
		return ErrUnsupportedFormat
	case "embedding_provider_error":
		return ErrEmbeddingProvider
	case "completion_provider_error":
		return ErrCompletionProvider
	default:
		return nil
	}
}
