package heuristic

import (
	"regexp"
	"strings"
)

// minDelimiterCount is the number of separators a representative line must
// exceed before a character delimiter is trusted over fixed-width splitting.
const minDelimiterCount = 3

var (
	delimiterCandidates = []string{"\t", ",", ";", "|"}
	fixedWidthSplitter  = regexp.MustCompile(`\s{2,}`)
)

// Delimiter splits one line of a document into cells.
type Delimiter struct {
	sep string
	re  *regexp.Regexp
}

// Split returns the raw cells of line.
func (d Delimiter) Split(line string) []string {
	if d.re != nil {
		return d.re.Split(line, -1)
	}
	return strings.Split(line, d.sep)
}

// IsFixedWidth reports whether the delimiter is the whitespace-run fallback.
func (d Delimiter) IsFixedWidth() bool { return d.re != nil }

func (d Delimiter) String() string {
	if d.re != nil {
		return d.re.String()
	}
	switch d.sep {
	case "\t":
		return `\t`
	default:
		return d.sep
	}
}

// DetectDelimiter chooses the field separator for a block of lines.
func DetectDelimiter(lines []string) Delimiter {
	line := representativeLine(lines)
	best, bestCount := "", 0
	for _, c := range delimiterCandidates {
		if n := strings.Count(line, c); n > bestCount {
			best, bestCount = c, n
		}
	}
	if bestCount > minDelimiterCount {
		return Delimiter{sep: best}
	}
	return Delimiter{re: fixedWidthSplitter}
}

// representativeLine prefers a line that splits into more than five fields, so
// that titles and short noise lines do not decide the delimiter.
func representativeLine(lines []string) string {
	first := ""
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if first == "" {
			first = l
		}
		for _, c := range delimiterCandidates {
			if strings.Count(l, c)+1 > 5 {
				return l
			}
		}
		if len(fixedWidthSplitter.Split(strings.TrimSpace(l), -1)) > 5 {
			return l
		}
	}
	return first
}
