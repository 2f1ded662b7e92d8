package common

import (
	"path/filepath"
	"strings"
)

// videoMimeTypes maps known video file extensions to their MIME types.
var videoMimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
}

// MimeTypeForFile returns the MIME type for a file based on its extension,
// or an empty string if the extension is not a known video type.
func MimeTypeForFile(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return videoMimeTypes[ext]
}

// IsVideoMimeType reports whether the MIME type belongs to the video family.
func IsVideoMimeType(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/")
}
