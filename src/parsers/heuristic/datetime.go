package heuristic

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	dateLayout  = "2006-01-02"
	timeLayout  = "15:04"
	defaultTime = "00:00"
)

var (
	metaTraderDateTime = regexp.MustCompile(`^(\d{4})\.(\d{2})\.(\d{2})\s+(\d{2}):(\d{2})(?::\d{2})?$`)
	clockTime          = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2}(?:\.\d+)?)?$`)
)

// NormalizeDateTime splits a raw date/time cell into a YYYY-MM-DD date and an
// HH:MM time. An unparsable cell yields an empty date and "00:00"; callers
// decide whether an empty date is acceptable.
func NormalizeDateTime(raw string) (date, clock string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", defaultTime
	}
	if m := metaTraderDateTime.FindStringSubmatch(raw); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]), fmt.Sprintf("%s:%s", m[4], m[5])
	}
	t, err := dateparse.ParseLocal(raw)
	if err != nil {
		return "", defaultTime
	}
	t = t.In(time.Local)
	return t.Format(dateLayout), t.Format(timeLayout)
}

// normalizeClock turns an HH:MM[:SS] cell into HH:MM.
func normalizeClock(raw string) (string, bool) {
	m := clockTime.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", false
	}
	hour := m[1]
	if len(hour) == 1 {
		hour = "0" + hour
	}
	return hour + ":" + m[2], true
}
