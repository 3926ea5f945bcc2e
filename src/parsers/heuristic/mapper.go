package heuristic

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/username/tradejournal/backend/src/logger"
)

const (
	fuzzyMatchPenalty  = 2
	maxMatchDistance   = 4 // exclusive
	minSubstringLength = 3 // "tp" and "sl" occur inside unrelated synonyms
	noMatch            = -1
)

// ColumnIndexMap maps each resolved canonical field to its zero-based column.
type ColumnIndexMap map[CanonicalField]int

// Column returns the column mapped to f.
func (m ColumnIndexMap) Column(f CanonicalField) (int, bool) {
	i, ok := m[f]
	return i, ok
}

// usedColumns records which header columns have been claimed. No column is ever
// assigned to two canonical fields.
type usedColumns []bool

func newUsedColumns(n int) usedColumns { return make(usedColumns, n) }

func (u usedColumns) claim(i int) usedColumns {
	next := append(usedColumns(nil), u...)
	next[i] = true
	return next
}

// MapHeaders resolves raw header cells to canonical fields.
func MapHeaders(headers []string) (ColumnIndexMap, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	m, used := reserveDuplicateHeaders(headers, newUsedColumns(len(headers)))
	m, used = matchExact(normalized, m, used)
	m, _ = matchFuzzy(normalized, m, used)

	var missing []CanonicalField
	for _, f := range requiredFields {
		if _, ok := m[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &MappingError{Missing: missing, Headers: headers}
	}
	return m, nil
}

// positionalPairs are literal headers that MetaTrader repeats: the first
// occurrence belongs to the opening leg and the second to the closing leg.
var positionalPairs = map[string][2]CanonicalField{
	"time":  {FieldOpenDate, FieldCloseDate},
	"price": {FieldEntryPrice, FieldClosingPrice},
}

// reserveDuplicateHeaders applies the positional rules for duplicated literal
// headers. Occurrences past the second of any literal header are claimed
// without a field so fuzzy matching cannot mis-assign them.
func reserveDuplicateHeaders(headers []string, used usedColumns) (ColumnIndexMap, usedColumns) {
	m := ColumnIndexMap{}
	occurrences := map[string][]int{}
	var order []string
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if _, seen := occurrences[key]; !seen {
			order = append(order, key)
		}
		occurrences[key] = append(occurrences[key], i)
	}

	for _, key := range order {
		cols := occurrences[key]
		if pair, ok := positionalPairs[key]; ok && len(cols) > 1 {
			m[pair[0]] = cols[0]
			m[pair[1]] = cols[1]
			used = used.claim(cols[0]).claim(cols[1])
		}
		if len(cols) > 2 {
			for _, extra := range cols[2:] {
				used = used.claim(extra)
			}
			logger.L.Warn("Ignoring repeated header beyond its second occurrence",
				"header", key, "occurrences", len(cols), "ignoredColumns", cols[2:])
		}
	}
	return m, used
}

// matchExact binds every field to an unused header that equals one of its
// synonyms. It runs before any fuzzy matching so a short exact header like
// "T/P" is owned by its field before a longer synonym can absorb it.
func matchExact(normalized []string, m ColumnIndexMap, used usedColumns) (ColumnIndexMap, usedColumns) {
	for _, f := range AllFields() {
		if _, done := m[f]; done {
			continue
		}
		col := exactColumn(headerSynonyms[f], normalized, used)
		if col == noMatch {
			continue
		}
		m[f] = col
		used = used.claim(col)
	}
	return m, used
}

// exactColumn returns the unused header equal to the earliest synonym.
func exactColumn(synonyms []string, normalized []string, used usedColumns) int {
	for _, syn := range synonyms {
		syn = normalizeHeader(syn)
		for i, h := range normalized {
			if !used[i] && h != "" && h == syn {
				return i
			}
		}
	}
	return noMatch
}

// matchFuzzy assigns every still-unresolved field to its closest unused header.
func matchFuzzy(normalized []string, m ColumnIndexMap, used usedColumns) (ColumnIndexMap, usedColumns) {
	for _, f := range AllFields() {
		if _, done := m[f]; done || exactOnlyFields[f] {
			continue
		}
		col, dist := bestColumn(headerSynonyms[f], normalized, used)
		if col == noMatch || dist >= maxMatchDistance {
			continue
		}
		m[f] = col
		used = used.claim(col)
	}
	return m, used
}

// bestColumn finds the unused header closest to any synonym. Ties go to the
// leftmost column.
func bestColumn(synonyms []string, normalized []string, used usedColumns) (col, dist int) {
	col, dist = noMatch, maxMatchDistance
	for i, h := range normalized {
		if used[i] || h == "" {
			continue
		}
		for _, syn := range synonyms {
			if d := matchDistance(normalizeHeader(syn), h); d < dist {
				col, dist = i, d
			}
		}
	}
	return col, dist
}

// matchDistance compares two normalized strings: 0 when equal, 1 when one
// contains the other and the shorter has at least minSubstringLength runes,
// otherwise the edit distance plus the fuzzy penalty.
func matchDistance(a, b string) int {
	switch {
	case a == b:
		return 0
	case substringMatch(a, b):
		return 1
	default:
		return LevenshteinDistance(a, b) + fuzzyMatchPenalty
	}
}

func substringMatch(a, b string) bool {
	shorter, longer := a, b
	if utf8.RuneCountInString(shorter) > utf8.RuneCountInString(longer) {
		shorter, longer = longer, shorter
	}
	return utf8.RuneCountInString(shorter) >= minSubstringLength && strings.Contains(longer, shorter)
}

// LevenshteinDistance is the rune-wise edit distance between a and b.
func LevenshteinDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// normalizeHeader lower-cases s and drops everything but letters and digits.
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
