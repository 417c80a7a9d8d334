package invoice

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// MaxAttachmentBytes is the largest file the console will upload (2MB).
const MaxAttachmentBytes = 2 << 20

// AllowedAttachmentTypes are the content types accepted for upload.
var AllowedAttachmentTypes = []string{"application/pdf", "image/png", "image/jpeg"}

// Attachment is a file staged for upload to an invoice. Content type is
// detected from the bytes, not the file name.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewAttachment validates data and wraps it as an Attachment.
func NewAttachment(name string, data []byte) (Attachment, error) {
	if len(data) == 0 {
		return Attachment{}, fmt.Errorf("%w: %s", ErrEmptyAttachment, name)
	}
	if len(data) > MaxAttachmentBytes {
		return Attachment{}, fmt.Errorf("%w: %s is %s (max %s)", ErrAttachmentTooLarge,
			name, humanize.Bytes(uint64(len(data))), humanize.Bytes(MaxAttachmentBytes))
	}

	mime := mimetype.Detect(data)
	for _, allowed := range AllowedAttachmentTypes {
		if mime.Is(allowed) {
			return Attachment{Name: name, ContentType: allowed, Data: data}, nil
		}
	}
	return Attachment{}, fmt.Errorf("%w: %s is %s (supported: PDF, PNG, JPG)", ErrUnsupportedAttachment, name, mime.String())
}

// LoadAttachment reads and validates a file from disk. The size limit is
// checked before the file is read.
func LoadAttachment(path string) (Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("attachment %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return Attachment{}, fmt.Errorf("attachment %s: not a regular file", path)
	}
	if info.Size() > MaxAttachmentBytes {
		return Attachment{}, fmt.Errorf("%w: %s is %s (max %s)", ErrAttachmentTooLarge,
			filepath.Base(path), humanize.Bytes(uint64(info.Size())), humanize.Bytes(MaxAttachmentBytes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("attachment %s: %w", path, err)
	}
	return NewAttachment(filepath.Base(path), data)
}

// Size returns the attachment size in bytes.
func (a Attachment) Size() int64 {
	return int64(len(a.Data))
}

// HumanSize returns the size formatted for display, e.g. "2.1 MB".
func (a Attachment) HumanSize() string {
	return humanize.Bytes(uint64(len(a.Data)))
}
