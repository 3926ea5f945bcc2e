package services

import "errors"

var (
	ErrParsingFailed           = errors.New("failed to parse trade history")
	ErrUnsupportedSource       = errors.New("unsupported import source")
	ErrImportNotFound          = errors.New("import not found")
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
)
