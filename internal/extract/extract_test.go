package extract

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex-io/docdex/internal/domain"
)

func TestTypeForPath(t *testing.T) {
	tests := []struct {
		path string
		want domain.FileType
	}{
		{"report.pdf", domain.FileTypePDF},
		{"Report.PDF", domain.FileTypePDF},
		{"notes.docx", domain.FileTypeDOCX},
		{"legacy.doc", domain.FileTypeDOCX},
		{"readme.txt", domain.FileTypeTXT},
	}
	for _, tt := range tests {
		got, err := TypeForPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestTypeForPath_Unsupported(t *testing.T) {
	for _, path := range []string{"image.png", "data.csv", "noext"} {
		_, err := TypeForPath(path)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat, path)
	}
}

func TestText_TXT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world\n"), 0o644))

	text, fileType, err := New().Text(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypeTXT, fileType)
	assert.Equal(t, "hello world\n", text)
}

func TestText_DOCX(t *testing.T) {
	path := writeTestDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, fileType, err := New().Text(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypeDOCX, fileType)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestText_DOCX_MissingDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/other.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, _, err = New().Text(context.Background(), path)
	assert.Error(t, err)
}

func TestText_UnsupportedBeforeIO(t *testing.T) {
	// The file does not exist; the format check must reject first.
	_, _, err := New().Text(context.Background(), "/nope/image.png")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func writeTestDocx(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}
