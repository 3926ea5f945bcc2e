package model

import (
	"database/sql"
	"fmt"

	"github.com/username/tradejournal/backend/src/models"
)

const defaultImportLogLimit = 50

// CreateImportLog appends an audit row for one import attempt.
func CreateImportLog(db *sql.DB, entry *models.ImportLogEntry) error {
	query := `
	INSERT INTO import_log (session_id, user_id, source, format, content_hash, size_bytes, trade_count, status, error_message)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := db.Prepare(query)
	if err != nil {
		return fmt.Errorf("prepare import log insert: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(entry.SessionID, entry.UserID, entry.Source, entry.Format, entry.ContentHash,
		entry.SizeBytes, entry.TradeCount, entry.Status, nullIfEmpty(entry.ErrorMessage))
	if err != nil {
		return fmt.Errorf("insert import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// GetImportLogsByUser returns the user's most recent import attempts, newest first.
func GetImportLogsByUser(db *sql.DB, userID int64, limit int) ([]models.ImportLogEntry, error) {
	if limit <= 0 {
		limit = defaultImportLogLimit
	}
	query := `
	SELECT id, session_id, user_id, source, COALESCE(format, ''), content_hash, size_bytes,
	       trade_count, status, COALESCE(error_message, ''), created_at
	FROM import_log
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ?`

	rows, err := db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query import log: %w", err)
	}
	defer rows.Close()

	var entries []models.ImportLogEntry
	for rows.Next() {
		var e models.ImportLogEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.UserID, &e.Source, &e.Format, &e.ContentHash,
			&e.SizeBytes, &e.TradeCount, &e.Status, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan import log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import log: %w", err)
	}
	return entries, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
