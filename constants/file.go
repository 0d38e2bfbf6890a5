package constants

import "strings"

// Format is the coarse document type used to pick an extraction path.
type Format string

const (
	PDF  Format = "PDF"
	TXT  Format = "TXT"
	WORD Format = "WORD"
)

// AllowedExtensions holds the file extensions accepted at upload.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"txt":  {},
	"doc":  {},
	"docx": {},
}

// AllowedMimeTypes mirrors AllowedExtensions for multipart uploads that carry a content type.
var AllowedMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"text/plain":         {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// MaxUploadBytes is the default upload size limit (10MB).
const MaxUploadBytes int64 = 10 * 1024 * 1024

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns the Format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "txt":
		return TXT
	case "doc", "docx":
		return WORD
	default:
		return ""
	}
}

// ContentType returns a MIME type for a stored case document.
func ContentType(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return "application/pdf"
	case "txt":
		return "text/plain"
	case "doc":
		return "application/msword"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
