// Package extract converts source files into plain text for chunking.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docdex-io/docdex/internal/domain"
)

// Extractor dispatches to a format-specific reader based on file extension.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// TypeForPath maps a file extension to its document type. Returns
// domain.ErrUnsupportedFormat for anything else, before any file I/O.
func TypeForPath(path string) (domain.FileType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return domain.FileTypePDF, nil
	case ".docx", ".doc":
		return domain.FileTypeDOCX, nil
	case ".txt":
		return domain.FileTypeTXT, nil
	default:
		return "", fmt.Errorf("%q: %w", filepath.Ext(path), domain.ErrUnsupportedFormat)
	}
}

// Text extracts the plain text of the file at path.
func (e *Extractor) Text(ctx context.Context, path string) (string, domain.FileType, error) {
	fileType, err := TypeForPath(path)
	if err != nil {
		return "", "", err
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	var text string
	switch fileType {
	case domain.FileTypePDF:
		text, err = pdfText(path)
	case domain.FileTypeDOCX:
		text, err = docxText(path)
	case domain.FileTypeTXT:
		text, err = txtText(path)
	}
	if err != nil {
		return "", "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	return text, fileType, nil
}
