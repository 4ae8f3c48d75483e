package rules

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// canonicalLayout is the form written back into cleaned rows.
const canonicalLayout = "2006-01-02 15:04:05.999999999"

// ParseTimestamp parses s with each layout in turn and then with a free-form
// parser. Zone-less input is read as UTC. It never panics; ok reports success.
//
// Purely numeric input is only accepted through an explicit layout (such as
// "20060102") so that bare integers are not taken as epoch seconds.
func ParseTimestamp(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if allDigits(s) {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatTimestamp renders t the way cleaned rows store it: converted to UTC
// with no zone suffix, so equal instants always format identically.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(canonicalLayout)
}

// Timestamps returns a RecencyFunc-compatible parser bound to layouts.
func Timestamps(layouts []string) func(string) (time.Time, bool) {
	ls := append([]string(nil), layouts...)
	return func(s string) (time.Time, bool) { return ParseTimestamp(s, ls) }
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
