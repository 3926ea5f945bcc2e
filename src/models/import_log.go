// src/models/import_log.go
package models

import "time"

const (
	ImportStatusOK     = "ok"
	ImportStatusFailed = "failed"
)

// ImportLogEntry is the audit trail of one import attempt. Trade records themselves
// are never stored; only what was uploaded and how parsing went.
type ImportLogEntry struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	UserID       int64     `json:"user_id"`
	Source       string    `json:"source"`
	Format       string    `json:"format"`
	ContentHash  string    `json:"content_hash"`
	SizeBytes    int64     `json:"size_bytes"`
	TradeCount   int       `json:"trade_count"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
