package domain

import (
	"fmt"
	"strings"
)

// ErrorKind classifies why a candidate photo URL failed validation.
type ErrorKind string

const (
	ErrorKindInvalidContentType ErrorKind = "INVALID_CONTENT_TYPE"
	ErrorKindFileTooLarge       ErrorKind = "FILE_TOO_LARGE"
	ErrorKindFileTooSmall       ErrorKind = "FILE_TOO_SMALL"
	ErrorKindTimeout            ErrorKind = "TIMEOUT"
	ErrorKindNetworkError       ErrorKind = "NETWORK_ERROR"
	ErrorKindUnknown            ErrorKind = "UNKNOWN_ERROR"
)

// HTTPErrorKind returns the error kind for a non-2xx HTTP status,
// e.g. HTTP_404.
func HTTPErrorKind(status int) ErrorKind {
	return ErrorKind(fmt.Sprintf("HTTP_%d", status))
}

// Validation limits. Declared sizes outside [MinFileSizeBytes,
// MaxFileSizeBytes] are rejected; an absent declared size skips the check.
const (
	MaxFileSizeBytes int64 = 50 * 1024 * 1024
	MinFileSizeBytes int64 = 100
)

// allowedImageSubtypes is the content-type allow-list for candidate photos.
var allowedImageSubtypes = map[string]bool{
	"jpeg":    true,
	"jpg":     true,
	"png":     true,
	"gif":     true,
	"webp":    true,
	"svg+xml": true,
	"bmp":     true,
	"tiff":    true,
}

// IsAllowedImageType reports whether a declared content type (possibly with
// parameters, e.g. "image/png; charset=binary") is an acceptable image type.
func IsAllowedImageType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	subtype, ok := strings.CutPrefix(ct, "image/")
	if !ok {
		return false
	}

	return allowedImageSubtypes[subtype]
}

// ValidationResult is a point-in-time judgment about a candidate photo URL.
// Not persisted: a reference that fails today may succeed tomorrow and vice
// versa.
type ValidationResult struct {
	IsValid       bool      `json:"is_valid"`
	ErrorKind     ErrorKind `json:"error_kind,omitempty"`
	ContentType   string    `json:"content_type,omitempty"`
	FileSizeBytes int64     `json:"file_size_bytes,omitempty"`
}

// Invalid builds a failed result with the given kind.
func Invalid(kind ErrorKind) ValidationResult {
	return ValidationResult{IsValid: false, ErrorKind: kind}
}
