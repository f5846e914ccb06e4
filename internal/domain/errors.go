package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateContent signals that a document with the same content hash is already stored.
	ErrDuplicateContent = errors.New("duplicate content")
	// ErrUnsupportedFormat signals a file extension the extractor cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrInvalidID signals a malformed identifier, rejected before any I/O.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a generative provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
)
