package normalize

import (
	"regexp"
	"strings"
	"time"
)

var dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Layouts tried for strings that carry a time component. Layouts without a zone
// are read in local time.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate parses a backend date string.
//
// A pure YYYY-MM-DD string is built as midnight in the local zone so that the
// calendar day never shifts; reading it as a UTC instant would move it to the
// previous day west of Greenwich.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if dateOnlyPattern.MatchString(s) {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local), true
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DisplayDate returns the YYYY-MM-DD portion of a raw date, or the raw value
// when it does not start with one.
func DisplayDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 && dateOnlyPattern.MatchString(s[:10]) {
		return s[:10]
	}
	return s
}

// sortKey is the timestamp used for ordering; unparsable dates sort as the epoch.
func sortKey(s string) int64 {
	if t, ok := ParseDate(s); ok {
		return t.UnixMilli()
	}
	return 0
}
