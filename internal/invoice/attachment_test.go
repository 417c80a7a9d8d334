package invoice

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pdfBytes  = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

func TestNewAttachment_DetectsAllowedTypes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"invoice.pdf", pdfBytes, "application/pdf"},
		{"scan.png", pngBytes, "image/png"},
		{"photo.jpg", jpegBytes, "image/jpeg"},
		{"misnamed.txt", pdfBytes, "application/pdf"},
	}
	for _, tt := range tests {
		att, err := NewAttachment(tt.name, tt.data)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, att.ContentType, tt.name)
		assert.Equal(t, int64(len(tt.data)), att.Size())
	}
}

func TestNewAttachment_Rejects(t *testing.T) {
	_, err := NewAttachment("empty.pdf", nil)
	assert.ErrorIs(t, err, ErrEmptyAttachment)

	_, err = NewAttachment("notes.pdf", []byte("just some plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedAttachment)

	big := append(bytes.Clone(pdfBytes), make([]byte, MaxAttachmentBytes)...)
	_, err = NewAttachment("big.pdf", big)
	assert.ErrorIs(t, err, ErrAttachmentTooLarge)
}

func TestLoadAttachment(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "receipt.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o600))
	att, err := LoadAttachment(path)
	require.NoError(t, err)
	assert.Equal(t, "receipt.png", att.Name)
	assert.Equal(t, "image/png", att.ContentType)
	assert.NotEmpty(t, att.HumanSize())

	big := filepath.Join(dir, "big.pdf")
	require.NoError(t, os.WriteFile(big, make([]byte, MaxAttachmentBytes+1), 0o600))
	_, err = LoadAttachment(big)
	assert.ErrorIs(t, err, ErrAttachmentTooLarge)

	_, err = LoadAttachment(dir)
	assert.Error(t, err)

	_, err = LoadAttachment(filepath.Join(dir, "missing.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
