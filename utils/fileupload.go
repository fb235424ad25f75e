package utils

import (
	"fmt"
	"mime/multipart"
	"strings"
	"unicode"
)

const (
	// MaxFileSize is 25MB in bytes
	MaxFileSize = 25 * 1024 * 1024
)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidatePrintFile validates the uploaded document before it is sent to storage
func ValidatePrintFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size == 0 {
		return &FileUploadError{
			Code:    "EMPTY_FILE",
			Message: "Uploaded file is empty",
		}
	}

	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	return nil
}

// SanitizeFileName normalizes a caller-supplied file name for use in a
// storage key. Alphanumerics, dots, hyphens, underscores and whitespace
// are kept; everything else becomes an underscore.
func SanitizeFileName(filename string) string {
	var b strings.Builder
	b.Grow(len(filename))
	for _, r := range filename {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
