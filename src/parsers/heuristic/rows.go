package heuristic

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
)

// minRowCoverage is the share of header cells a data row must have.
const minRowCoverage = 0.8

var (
	metaTraderRow = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}\s+\d{2}:\d{2}(:\d{2})?\t`)
	// validate is safe for concurrent use and caches struct metadata.
	validate = validator.New()

	errShortRow = errors.New("malformed row: too few cells")
	errRowPanic = errors.New("unexpected failure reading row")
)

// rowSet is everything the row parser needs to know about one document.
type rowSet struct {
	lines       []string
	delim       Delimiter
	columns     ColumnIndexMap
	startColumn int
	headerCount int
	// metaTrader restricts admission to lines starting with a report timestamp.
	metaTrader bool
	// lineOffset converts an index in lines to a 1-based line number for logs.
	lineOffset int
}

// parseRows turns data lines into validated trades, skipping bad rows.
func parseRows(rs rowSet) []models.ImportedTrade {
	var trades []models.ImportedTrade
	for i, line := range rs.lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if rs.metaTrader && !metaTraderRow.MatchString(strings.TrimLeft(line, " \t")) {
			continue
		}
		trade, err := parseRow(line, rs)
		if err != nil {
			rowErr := &RowError{Line: rs.lineOffset + i + 1, Err: err}
			logger.L.Warn("Skipping trade row", "line", rowErr.Line, "error", rowErr.Err)
			continue
		}
		if err := ValidateTrade(trade); err != nil {
			logger.L.Debug("Dropping incomplete trade row", "line", rs.lineOffset+i+1, "error", err)
			continue
		}
		trades = append(trades, trade)
	}
	return trades
}

// parseRow reads one data line. A panic while reading it is returned as an
// error so only that row is lost.
func parseRow(line string, rs rowSet) (trade models.ImportedTrade, err error) {
	defer func() {
		if r := recover(); r != nil {
			trade, err = models.ImportedTrade{}, fmt.Errorf("%w: %v", errRowPanic, r)
		}
	}()

	cells := rs.delim.Split(line)
	if rs.startColumn > 0 {
		if len(cells) <= rs.startColumn {
			return models.ImportedTrade{}, errShortRow
		}
		cells = cells[rs.startColumn:]
	}
	if float64(len(cells)) < minRowCoverage*float64(rs.headerCount) {
		return models.ImportedTrade{}, fmt.Errorf("%w: got %d, header has %d", errShortRow, len(cells), rs.headerCount)
	}

	cell := func(f CanonicalField) (string, bool) {
		i, ok := rs.columns[f]
		if !ok || i >= len(cells) {
			return "", false
		}
		return cleanCell(cells[i]), true
	}
	number := func(f CanonicalField) *float64 {
		s, ok := cell(f)
		if !ok {
			return nil
		}
		v, ok := ParseNumber(s)
		if !ok {
			return nil
		}
		return &v
	}
	value := func(f CanonicalField) float64 {
		if v := number(f); v != nil {
			return *v
		}
		return 0
	}

	pair, _ := cell(FieldPair)
	direction, _ := cell(FieldDirection)
	t := models.ImportedTrade{
		Pair:         NormalizePair(pair),
		Direction:    NormalizeDirection(direction),
		LotSize:      value(FieldLotSize),
		EntryPrice:   value(FieldEntryPrice),
		ClosingPrice: value(FieldClosingPrice),
		StopLoss:     number(FieldStopLoss),
		TakeProfit:   number(FieldTakeProfit),
		Commission:   number(FieldCommission),
		Swap:         number(FieldSwap),
	}
	t.Note, _ = cell(FieldNote)
	t.Strategy, _ = cell(FieldStrategy)

	openRaw, _ := cell(FieldOpenDate)
	t.OpenDate, t.OpenTime = NormalizeDateTime(openRaw)
	if raw, ok := cell(FieldOpenTime); ok {
		if clock, ok := clockFromCell(raw); ok {
			t.OpenTime = clock
		}
	}

	if closeRaw, ok := cell(FieldCloseDate); ok {
		if date, clock := NormalizeDateTime(closeRaw); date != "" {
			t.CloseDate, t.CloseTime = date, clock
		}
	}
	if raw, ok := cell(FieldCloseTime); ok && t.CloseDate != "" {
		if clock, ok := clockFromCell(raw); ok {
			t.CloseTime = clock
		}
	}

	if _, ok := rs.columns[FieldLotSize]; ok && number(FieldLotSize) == nil {
		raw, _ := cell(FieldLotSize)
		return t, fmt.Errorf("lot size %q is not a number", raw)
	}
	return t, nil
}

// clockFromCell reads a time-of-day from a dedicated time column, which may
// also hold a full timestamp.
func clockFromCell(raw string) (string, bool) {
	if clock, ok := normalizeClock(raw); ok {
		return clock, true
	}
	if date, clock := NormalizeDateTime(raw); date != "" {
		return clock, true
	}
	return "", false
}

// ParseNumber keeps only digits, '.' and '-' and parses what is left. It
// reports false instead of failing when nothing numeric remains.
//
// Thousands separators are not interpreted: "1,234.56" only parses as 1234.56
// because the comma is dropped, and a decimal comma ("1,5") parses as 15.
func ParseNumber(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeDirection maps any text containing "buy", or exactly "in", to Buy.
// Everything else is a Sell.
func NormalizeDirection(s string) models.Direction {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(s, "buy") || s == "in" {
		return models.DirectionBuy
	}
	return models.DirectionSell
}

// NormalizePair strips everything but letters and digits and upper-cases the rest.
func NormalizePair(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// ValidateTrade checks the required-field invariant of an ImportedTrade.
func ValidateTrade(t models.ImportedTrade) error {
	return validate.Struct(t)
}
