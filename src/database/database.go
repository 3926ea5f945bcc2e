package database

import (
	"database/sql"
	stdlog "log"

	_ "modernc.org/sqlite"

	"github.com/username/tradejournal/backend/src/logger"
)

var DB *sql.DB

const createTableStatement = `
	CREATE TABLE IF NOT EXISTS import_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		source TEXT NOT NULL,
		format TEXT,
		content_hash TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		trade_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error_message TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_import_log_user ON import_log(user_id, created_at);
	`

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	DB = db

	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	migrateImportLog()

	if _, err = DB.Exec(createTableStatement); err != nil {
		logger.L.Error("failed to create tables", "error", err)
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	logger.L.Info("Database tables ensured/created.")
}

// migrateImportLog adds columns that older import_log tables lack.
func migrateImportLog() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='import_log'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.L.Info("import_log table does not exist, no migration needed as table will be created.")
			return
		}
		logger.L.Error("Error checking for import_log table", "error", err)
		return
	}

	rows, err := DB.Query("PRAGMA table_info(import_log)")
	if err != nil {
		logger.L.Error("Error querying table schema for import_log", "error", err)
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			logger.L.Error("Error scanning column info for import_log", "error", err)
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		logger.L.Error("Error iterating over column info for import_log", "error", err)
		return
	}

	migrations := []struct{ column, ddl string }{
		{"format", "ALTER TABLE import_log ADD COLUMN format TEXT"},
		{"size_bytes", "ALTER TABLE import_log ADD COLUMN size_bytes INTEGER NOT NULL DEFAULT 0"},
		{"error_message", "ALTER TABLE import_log ADD COLUMN error_message TEXT"},
	}
	for _, m := range migrations {
		if columnExists[m.column] {
			continue
		}
		if _, err := DB.Exec(m.ddl); err != nil {
			logger.L.Error("Error adding column to import_log", "column", m.column, "error", err)
		} else {
			logger.L.Info("Added column to import_log table", "column", m.column)
		}
	}
}
