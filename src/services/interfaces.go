package services

import (
	"context"
	"io"
	"time"

	"github.com/username/tradejournal/backend/src/models"
)

// ImportResult is one parsed upload, addressable by its session id until the
// import cache expires.
type ImportResult struct {
	SessionID   string                 `json:"session_id"`
	UserID      int64                  `json:"-"`
	Source      string                 `json:"source"`
	Format      string                 `json:"format"`
	ContentHash string                 `json:"content_hash"`
	SizeBytes   int64                  `json:"size_bytes"`
	TradeCount  int                    `json:"trade_count"`
	Trades      []models.ImportedTrade `json:"trades"`
	Cached      bool                   `json:"cached"`
	ImportedAt  time.Time              `json:"imported_at"`
}

// clone copies the result deeply enough that callers editing trades never
// touch the cached session.
func (r *ImportResult) clone() *ImportResult {
	c := *r
	c.Trades = make([]models.ImportedTrade, len(r.Trades))
	for i, t := range r.Trades {
		c.Trades[i] = cloneTrade(t)
	}
	return &c
}

func cloneTrade(t models.ImportedTrade) models.ImportedTrade {
	t.StopLoss = cloneFloat(t.StopLoss)
	t.TakeProfit = cloneFloat(t.TakeProfit)
	t.Commission = cloneFloat(t.Commission)
	t.Swap = cloneFloat(t.Swap)
	return t
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ExportFile is a rendered import ready to be sent as a download.
type ExportFile struct {
	Data        []byte
	ContentType string
	FileName    string
}

// ImportService defines the interface for trade history imports.
type ImportService interface {
	ProcessImport(ctx context.Context, fileReader io.Reader, userID int64, source string) (*ImportResult, error)
	GetImport(sessionID string, userID int64) (*ImportResult, error)
	ListImports(userID int64, limit int) ([]models.ImportLogEntry, error)
	ExportImport(sessionID string, userID int64, format string) (*ExportFile, error)
}
