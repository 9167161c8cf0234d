package normalize

import (
	"strconv"
	"strings"
	"time"
)

// mapColumns builds a case-insensitive column name to index map.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

// getCol gets a column value by name from a CSV record, returning empty string if not found.
func getCol(record []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[strings.ToLower(name)]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseFloat parses a float, reporting whether the value was well formed.
func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

// parseInt parses an int, reporting whether the value was well formed.
func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	return v, err == nil
}

// collisionTimeLayouts are the observed incident timestamp formats in the
// collisions extract: date-only, or date plus a 12-hour clock.
var collisionTimeLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
}

// parseCollisionDate parses an incident timestamp and strips the time of day.
func parseCollisionDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range collisionTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return midnight(t), true
		}
	}
	return time.Time{}, false
}

// parsePermitDate parses an ISO permit date (YYYY-MM-DD).
func parsePermitDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// midnight strips the time-of-day component.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
