package heuristic

import (
	"regexp"
	"strings"
)

const (
	minHeaderLineLength = 20
	minHeaderScore      = 5
)

var (
	headerKeywords   = []string{"symbol", "type", "volume", "profit", "s/l", "t/p", "time", "price"}
	sectionEndMarker = regexp.MustCompile(`(?i)^(deals|orders|summary)`)
)

// HeaderLocation describes the header row found in a block of lines.
type HeaderLocation struct {
	// Index is the header's position in the lines it was searched in.
	Index int
	// StartColumn is the first non-empty cell, skipping indentation columns.
	StartColumn int
	// Headers are the trimmed, unquoted header cells from StartColumn on.
	Headers []string
	Score   int
}

// positionsSection narrows lines to the MetaTrader "Positions" section when the
// marker is present; offset is the index of the section's first line. ok is
// false when there is no such section.
func positionsSection(lines []string) (section []string, offset int, ok bool) {
	start := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == "Positions" {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return lines, 0, false
	}
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if sectionEndMarker.MatchString(strings.TrimSpace(lines[i])) {
			end = i
			break
		}
	}
	return lines[start:end], start, true
}

// LocateHeader scores every sufficiently long line by how many header keywords
// its cells mention and returns the best one. Ties go to the earliest line.
func LocateHeader(lines []string, delim Delimiter) (HeaderLocation, error) {
	best := HeaderLocation{Index: -1}
	for i, line := range lines {
		if len(line) < minHeaderLineLength {
			continue
		}
		cells := delim.Split(line)
		start := firstNonEmpty(cells)
		if start < 0 {
			continue
		}
		score := scoreHeaderCells(cells[start:])
		if score >= minHeaderScore && score > best.Score {
			best = HeaderLocation{Index: i, StartColumn: start, Score: score}
		}
	}
	if best.Index < 0 {
		return HeaderLocation{}, ErrNoHeader
	}

	cells := delim.Split(lines[best.Index])[best.StartColumn:]
	best.Headers = make([]string, len(cells))
	for i, c := range cells {
		best.Headers[i] = cleanCell(c)
	}
	return best, nil
}

func scoreHeaderCells(cells []string) int {
	lowered := make([]string, len(cells))
	for i, c := range cells {
		lowered[i] = strings.ToLower(strings.TrimSpace(c))
	}
	score := 0
	for _, kw := range headerKeywords {
		for _, c := range lowered {
			if strings.Contains(c, kw) {
				score++
				break
			}
		}
	}
	return score
}

func firstNonEmpty(cells []string) int {
	for i, c := range cells {
		if cleanCell(c) != "" {
			return i
		}
	}
	return -1
}

// cleanCell trims whitespace and surrounding quotes from a raw cell.
func cleanCell(c string) string {
	c = strings.TrimSpace(c)
	c = strings.Trim(c, `"'`)
	return strings.TrimSpace(c)
}
