package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxContactIDLen bounds contact labels; real boards use two or three digits.
const maxContactIDLen = 32

// ValidateContactID validates a contact label from configuration or an event.
//
// Labels must be non-empty, at most 32 characters, and free of whitespace and
// control characters (they become Graphviz node IDs and SVG titles).
func ValidateContactID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "contact ID cannot be empty")
	}
	if len(id) > maxContactIDLen {
		return New(ErrCodeInvalidInput, "contact ID too long (max %d characters)", maxContactIDLen)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "contact ID %q contains whitespace or control characters", id)
		}
	}
	return nil
}

// ValidateOutputPath validates a path the current image is saved to.
// It rejects empty paths, paths ending in a separator and null bytes.
func ValidateOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidPath, "output path contains a null byte")
	}
	if strings.HasSuffix(path, string(filepath.Separator)) || strings.HasSuffix(path, "/") {
		return New(ErrCodeInvalidPath, "output path %q is a directory", path)
	}
	return nil
}
