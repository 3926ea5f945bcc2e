package validation

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/tradejournal/backend/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                  true,
	"application/csv":           true,
	"text/tab-separated-values": true,
	"text/plain":                true,
	"text/html":                 true,
	"application/xhtml+xml":     true,
	"application/json":          true,
	"application/vnd.ms-excel":  true, // often used for CSV by older Excel
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/octet-stream": true, // fallback, parsing stays strict
	"application/x-msdownload": false,
	"application/pdf":          false,
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if allowed, exists := AllowedClientContentTypes[mediaType]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for trade history upload", contentType)
	}
	return nil
}

// allowedDetectedTypes are the sniffed types a trade report can legitimately have.
// Spreadsheets sniff as zip archives.
var allowedDetectedTypes = map[string]bool{
	"text/plain":               true,
	"text/html":                true,
	"text/xml":                 true,
	"text/csv":                 true,
	"application/csv":          true,
	"application/zip":          true,
	"application/octet-stream": true,
}

// ValidateFileContentByMagicBytes checks the actual file content signature (magic bytes).
// It returns the detected content type and an error if validation fails.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset so the parser reads the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type (magic bytes)", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("detected file content type '%s' is not consistent with a trade report", detectedContentType)
	}

	logger.L.Debug("File content type (magic bytes) validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
