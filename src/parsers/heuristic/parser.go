// Package heuristic imports trade history from reports that have no fixed
// schema: MetaTrader-style HTML reports, delimited or fixed-width text, and the
// application's own JSON export.
//
// The pipeline runs strictly downstream:
//
//	raw text -> format detection -> [HTML: table extraction] -> delimiter
//	detection -> header location -> header mapping -> row parsing -> trades
//
// Parsing is synchronous, keeps no state between calls and is deterministic,
// so a failed import can simply be retried with corrected input.
package heuristic

import (
	"fmt"
	"io"
	"strings"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
)

// FormatKind is the input classification made once per document.
type FormatKind int

const (
	FormatJSON FormatKind = iota
	FormatHTML
	FormatDelimited
)

func (k FormatKind) String() string {
	switch k {
	case FormatJSON:
		return "json"
	case FormatHTML:
		return "html"
	case FormatDelimited:
		return "delimited"
	default:
		return "unknown"
	}
}

// DetectFormat classifies raw input. JSON that is not this application's
// export is classified by the text rules instead.
func DetectFormat(raw string) FormatKind {
	kind, _ := classify(raw)
	return kind
}

func classify(raw string) (FormatKind, []models.ImportedTrade) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if trades, ok := decodeExport([]byte(trimmed)); ok {
			return FormatJSON, trades
		}
	}
	if strings.Contains(strings.ToLower(raw), "<html") {
		return FormatHTML, nil
	}
	return FormatDelimited, nil
}

// ParseTradeData runs the whole import pipeline over raw and returns the
// trades in source order.
func ParseTradeData(raw string) ([]models.ImportedTrade, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}
	kind, exported := classify(raw)
	if kind == FormatJSON {
		return finishJSON(exported)
	}
	return ParseAs(raw, kind)
}

// ParseAs parses raw as the given format without sniffing it.
func ParseAs(raw string, kind FormatKind) ([]models.ImportedTrade, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}
	switch kind {
	case FormatJSON:
		exported, ok := decodeExport([]byte(raw))
		if !ok {
			return nil, ErrUnrecognizedJSON
		}
		return finishJSON(exported)
	case FormatHTML:
		table, err := extractTable(raw)
		if err != nil {
			return nil, err
		}
		logger.L.Debug("Extracted trade table from HTML", "viaPositionsHeading", table.ViaPositions)
		return parseText(table.Text, table.ViaPositions)
	case FormatDelimited:
		return parseText(raw, false)
	default:
		return nil, fmt.Errorf("%w: unsupported format kind %d", ErrFormat, int(kind))
	}
}

// ParseDelimited runs the delimited-text stages on already tabular text, such
// as rows read from a spreadsheet.
func ParseDelimited(text string) ([]models.ImportedTrade, error) {
	return ParseAs(text, FormatDelimited)
}

func finishJSON(exported []models.ImportedTrade) ([]models.ImportedTrade, error) {
	trades := validExported(exported)
	if len(trades) == 0 {
		return nil, ErrNoValidRows
	}
	logger.L.Debug("Imported trades from JSON export", "trades", len(trades), "dropped", len(exported)-len(trades))
	return trades, nil
}

func parseText(text string, viaPositions bool) ([]models.ImportedTrade, error) {
	lines := splitLines(text)

	candidates, offset, inSection := positionsSection(lines)

	delim := DetectDelimiter(candidates)
	header, err := LocateHeader(candidates, delim)
	if err != nil {
		return nil, err
	}
	columns, err := MapHeaders(header.Headers)
	if err != nil {
		return nil, err
	}
	logger.L.Debug("Mapped report header",
		"delimiter", delim.String(),
		"headerLine", offset+header.Index+1,
		"startColumn", header.StartColumn,
		"mappedFields", len(columns))

	trades := parseRows(rowSet{
		lines:       candidates[header.Index+1:],
		delim:       delim,
		columns:     columns,
		startColumn: header.StartColumn,
		headerCount: len(header.Headers),
		metaTrader:  viaPositions || inSection,
		lineOffset:  offset + header.Index + 1,
	})
	if len(trades) == 0 {
		return nil, ErrNoValidRows
	}
	return trades, nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// Parser adapts the engine to the parsers.Parser interface.
type Parser struct {
	kind   FormatKind
	forced bool
}

// NewParser returns a parser that detects the input format.
func NewParser() *Parser {
	return &Parser{}
}

// NewParserFor returns a parser that always treats input as kind.
func NewParserFor(kind FormatKind) *Parser {
	return &Parser{kind: kind, forced: true}
}

// Parse reads the whole of file and imports it.
func (p *Parser) Parse(file io.Reader) ([]models.ImportedTrade, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read trade report: %w", err)
	}
	if p.forced {
		return ParseAs(string(data), p.kind)
	}
	return ParseTradeData(string(data))
}
