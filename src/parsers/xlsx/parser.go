// backend/src/parsers/xlsx/parser.go
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/heuristic"
)

// sheetProbeRows is how many leading rows are searched for trade headers.
const sheetProbeRows = 20

var ErrNoSheet = fmt.Errorf("%w: workbook has no sheet with data", heuristic.ErrFormat)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads a workbook, picks the sheet holding the trade history and runs
// its rows through the delimited-text import.
func (p *Parser) Parse(file io.Reader) ([]models.ImportedTrade, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %v", heuristic.ErrFormat, err)
	}
	defer f.Close()

	sheet, rows, err := tradeSheet(f)
	if err != nil {
		return nil, err
	}
	logger.L.Debug("Importing trades from sheet", "sheet", sheet, "rows", len(rows))

	return heuristic.ParseDelimited(rowsToTSV(rows))
}

// tradeSheet prefers the first sheet whose leading rows mention both "symbol"
// and "profit", and otherwise falls back to the first sheet with any rows.
func tradeSheet(f *excelize.File) (string, [][]string, error) {
	var (
		fallbackName string
		fallbackRows [][]string
	)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			logger.L.Warn("Skipping unreadable sheet", "sheet", name, "error", err)
			continue
		}
		if len(rows) == 0 {
			continue
		}
		if looksLikeTrades(rows) {
			return name, rows, nil
		}
		if fallbackRows == nil {
			fallbackName, fallbackRows = name, rows
		}
	}
	if fallbackRows == nil {
		return "", nil, ErrNoSheet
	}
	return fallbackName, fallbackRows, nil
}

func looksLikeTrades(rows [][]string) bool {
	for i := 0; i < len(rows) && i < sheetProbeRows; i++ {
		text := strings.ToLower(strings.Join(rows[i], " "))
		if strings.Contains(text, "symbol") && strings.Contains(text, "profit") {
			return true
		}
	}
	return false
}

var cellReplacer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// rowsToTSV serializes sheet rows as tab-separated lines. Cell text never
// carries a tab or line break into the output. GetRows drops trailing empty
// cells, so every non-blank row is padded back to the widest row.
func rowsToTSV(rows [][]string) string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		if len(row) == 0 {
			continue
		}
		for j := 0; j < width; j++ {
			if j > 0 {
				b.WriteByte('\t')
			}
			if j < len(row) {
				b.WriteString(cellReplacer.Replace(row[j]))
			}
		}
	}
	return b.String()
}
