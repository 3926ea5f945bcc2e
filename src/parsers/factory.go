// backend/src/parsers/factory.go
package parsers

import (
	"fmt"
	"strings"

	"github.com/username/tradejournal/backend/src/parsers/heuristic"
	"github.com/username/tradejournal/backend/src/parsers/xlsx"
)

// Sources accepted by GetParser, besides the empty string.
const (
	SourceAuto = "auto"
	SourceJSON = "json"
	SourceHTML = "html"
	SourceCSV  = "csv"
	SourceText = "text"
	SourceXLSX = "xlsx"
)

func GetParser(source string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "", SourceAuto:
		return heuristic.NewParser(), nil
	case SourceJSON:
		return heuristic.NewParserFor(heuristic.FormatJSON), nil
	case SourceHTML:
		return heuristic.NewParserFor(heuristic.FormatHTML), nil
	case SourceCSV, SourceText:
		return heuristic.NewParserFor(heuristic.FormatDelimited), nil
	case SourceXLSX:
		return xlsx.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}

// IsBinarySource reports whether uploads for source must not be treated as text.
func IsBinarySource(source string) bool {
	return strings.EqualFold(strings.TrimSpace(source), SourceXLSX)
}
