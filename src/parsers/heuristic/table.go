package heuristic

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const positionsHeading = "positions"

var headingSelector = "h1, h2, h3, h4, h5, h6, b, strong, caption, div, span, p"

// extractedTable is an HTML table flattened to tab-separated lines.
type extractedTable struct {
	Text string
	// ViaPositions is set when the table was found under a "Positions" heading,
	// which is how MetaTrader reports lay out their trade table.
	ViaPositions bool
}

// ExtractTable locates the trade table of an HTML report and serializes it to
// tab-separated text.
func ExtractTable(document string) (string, error) {
	t, err := extractTable(document)
	if err != nil {
		return "", err
	}
	return t.Text, nil
}

func extractTable(document string) (extractedTable, error) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return extractedTable{}, fmt.Errorf("%w: html parse: %v", ErrFormat, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	if table := tableAfterPositionsHeading(doc); table != nil {
		return extractedTable{Text: serializeTable(table), ViaPositions: true}, nil
	}
	if table := fallbackTable(doc); table != nil {
		return extractedTable{Text: serializeTable(table)}, nil
	}
	return extractedTable{}, ErrNoTable
}

func tableAfterPositionsHeading(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find(headingSelector).EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(heading.Text()), positionsHeading) {
			return true
		}
		heading.NextAll().EachWithBreak(func(_ int, sib *goquery.Selection) bool {
			if goquery.NodeName(sib) == "table" {
				found = sib
				return false
			}
			if nested := sib.Find("table").First(); nested.Length() > 0 {
				found = nested
				return false
			}
			return true
		})
		return found == nil
	})
	return found
}

func fallbackTable(doc *goquery.Document) *goquery.Selection {
	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil
	}

	var byKeywords *goquery.Selection
	tables.EachWithBreak(func(_ int, t *goquery.Selection) bool {
		text := t.Text()
		if strings.Contains(text, "Profit") && strings.Contains(text, "Symbol") {
			byKeywords = t
			return false
		}
		return true
	})
	if byKeywords != nil {
		return byKeywords
	}

	var largest *goquery.Selection
	most := -1
	tables.Each(func(_ int, t *goquery.Selection) {
		if n := len(ownRows(t)); n > most {
			largest, most = t, n
		}
	})
	return largest
}

// ownRows returns the rows that belong to table itself, not to nested tables.
func ownRows(table *goquery.Selection) []*goquery.Selection {
	var rows []*goquery.Selection
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Closest("table").IsSelection(table) {
			rows = append(rows, tr)
		}
	})
	return rows
}

func serializeTable(table *goquery.Selection) string {
	rows := ownRows(table)
	lines := make([]string, 0, len(rows))
	for _, tr := range rows {
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cellText(cell))
		})
		lines = append(lines, strings.Join(cells, "\t"))
	}
	return strings.Join(lines, "\n")
}

// cellText collapses internal whitespace so a cell can never introduce a tab
// or line break into the serialized table.
func cellText(cell *goquery.Selection) string {
	return strings.Join(strings.Fields(cell.Text()), " ")
}
