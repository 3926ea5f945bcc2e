// backend/src/services/import_service.go
package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers"
	"github.com/username/tradejournal/backend/src/parsers/heuristic"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/utils"
)

const (
	ckImportByContent = "import_content_user_%d_%s_%s"
	ckImportSession   = "import_session_%s"

	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
)

// zipMagic starts every xlsx workbook.
var zipMagic = []byte("PK\x03\x04")

var csvExportHeader = []string{
	"pair", "direction", "openDate", "openTime", "closeDate", "closeTime", "lotSize",
	"entryPrice", "closingPrice", "stopLoss", "takeProfit", "commission", "swap", "strategy", "note",
}

type importServiceImpl struct {
	importCache *cache.Cache
}

func NewImportService(importCache *cache.Cache) ImportService {
	return &importServiceImpl{importCache: importCache}
}

// ProcessImport logs through the request-scoped logger carried by ctx, which
// already names the user when the call comes through the HTTP layer.
func (s *importServiceImpl) ProcessImport(ctx context.Context, fileReader io.Reader, userID int64, source string) (*ImportResult, error) {
	startTime := time.Now()
	log := logger.FromContext(ctx)

	data, err := io.ReadAll(fileReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	source = resolveSource(source, data)
	log.Info("ProcessImport START", "source", source, "size", humanize.Bytes(uint64(len(data))))

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}

	hash := utils.ContentFingerprint(data)
	contentKey := fmt.Sprintf(ckImportByContent, userID, source, hash)
	if cached, found := s.importCache.Get(contentKey); found {
		log.Info("Cache hit for identical upload", "sessionID", cached.(*ImportResult).SessionID)
		hit := cached.(*ImportResult).clone()
		hit.Cached = true
		return hit, nil
	}

	content := data
	format := parsers.SourceXLSX
	if !parsers.IsBinarySource(source) {
		text := validation.StripUnprintable(string(data))
		content = []byte(text)
		format = formatForSource(source, text)
	}

	result := &ImportResult{
		SessionID:   uuid.NewString(),
		UserID:      userID,
		Source:      source,
		Format:      format,
		ContentHash: hash,
		SizeBytes:   int64(len(data)),
		ImportedAt:  time.Now().UTC(),
	}

	log = log.With("sessionID", result.SessionID)

	trades, err := parser.Parse(bytes.NewReader(content))
	if err != nil {
		s.audit(log, result, err)
		log.Warn("Trade history import failed", "format", format, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrParsingFailed, err)
	}

	result.Trades = trades
	result.TradeCount = len(trades)
	cached := result.clone()
	s.importCache.Set(contentKey, cached, cache.DefaultExpiration)
	s.importCache.Set(fmt.Sprintf(ckImportSession, result.SessionID), cached, cache.DefaultExpiration)
	s.audit(log, result, nil)

	log.Info("ProcessImport END", "format", format, "trades", len(trades), "duration", time.Since(startTime))
	return result, nil
}

// audit records the attempt in the import log. A failed write is logged and
// never fails the import itself.
func (s *importServiceImpl) audit(log *slog.Logger, result *ImportResult, parseErr error) {
	if database.DB == nil {
		log.Warn("Database not initialized, skipping import audit")
		return
	}
	entry := &models.ImportLogEntry{
		SessionID:   result.SessionID,
		UserID:      result.UserID,
		Source:      result.Source,
		Format:      result.Format,
		ContentHash: result.ContentHash,
		SizeBytes:   result.SizeBytes,
		TradeCount:  result.TradeCount,
		Status:      models.ImportStatusOK,
	}
	if parseErr != nil {
		entry.Status = models.ImportStatusFailed
		entry.ErrorMessage = parseErr.Error()
	}
	if err := model.CreateImportLog(database.DB, entry); err != nil {
		log.Error("Failed to write import audit log", "error", err)
	}
}

func (s *importServiceImpl) GetImport(sessionID string, userID int64) (*ImportResult, error) {
	cached, found := s.importCache.Get(fmt.Sprintf(ckImportSession, sessionID))
	if !found {
		return nil, ErrImportNotFound
	}
	result := cached.(*ImportResult)
	if result.UserID != userID {
		logger.L.Warn("Import session requested by another user", "sessionID", sessionID, "userID", userID)
		return nil, ErrImportNotFound
	}
	return result.clone(), nil
}

func (s *importServiceImpl) ListImports(userID int64, limit int) ([]models.ImportLogEntry, error) {
	if database.DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	entries, err := model.GetImportLogsByUser(database.DB, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing imports for user %d: %w", userID, err)
	}
	return entries, nil
}

func (s *importServiceImpl) ExportImport(sessionID string, userID int64, format string) (*ExportFile, error) {
	result, err := s.GetImport(sessionID, userID)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", ExportFormatJSON:
		data, err := heuristic.ExportJSON(result.Trades)
		if err != nil {
			return nil, fmt.Errorf("failed to render JSON export: %w", err)
		}
		return &ExportFile{Data: data, ContentType: "application/json", FileName: "trades-" + sessionID + ".json"}, nil
	case ExportFormatCSV:
		data, err := tradesToCSV(result.Trades)
		if err != nil {
			return nil, fmt.Errorf("failed to render CSV export: %w", err)
		}
		return &ExportFile{Data: data, ContentType: "text/csv", FileName: "trades-" + sessionID + ".csv"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExportFormat, format)
	}
}

// resolveSource routes workbook uploads to the spreadsheet parser when the
// client asked for auto-detection.
func resolveSource(source string, data []byte) string {
	source = strings.ToLower(strings.TrimSpace(source))
	if (source == "" || source == parsers.SourceAuto) && bytes.HasPrefix(data, zipMagic) {
		return parsers.SourceXLSX
	}
	if source == "" {
		return parsers.SourceAuto
	}
	return source
}

func formatForSource(source, text string) string {
	switch source {
	case parsers.SourceJSON:
		return heuristic.FormatJSON.String()
	case parsers.SourceHTML:
		return heuristic.FormatHTML.String()
	case parsers.SourceCSV, parsers.SourceText:
		return heuristic.FormatDelimited.String()
	default:
		return heuristic.DetectFormat(text).String()
	}
}

func tradesToCSV(trades []models.ImportedTrade) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvExportHeader); err != nil {
		return nil, err
	}
	for _, t := range trades {
		record := []string{
			validation.SanitizeForFormulaInjection(t.Pair),
			string(t.Direction),
			t.OpenDate,
			t.OpenTime,
			t.CloseDate,
			t.CloseTime,
			formatFloat(t.LotSize),
			formatFloat(t.EntryPrice),
			formatFloat(t.ClosingPrice),
			formatOptional(t.StopLoss),
			formatOptional(t.TakeProfit),
			formatOptional(t.Commission),
			formatOptional(t.Swap),
			validation.SanitizeForFormulaInjection(t.Strategy),
			validation.SanitizeForFormulaInjection(t.Note),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
