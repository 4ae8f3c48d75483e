package builtin

import (
	"strings"

	"golang.org/x/text/cases"
)

// Lookup canonicalizes enumerated values case-insensitively. Keys are the
// Unicode case-folded spelling of each declared value; lookups return the
// declared spelling.
type Lookup struct {
	byFold    map[string]string
	canonical []string
}

// NewLookup builds a Lookup over the declared canonical values. Blank entries
// are ignored. If two values fold to the same key, the first declaration wins.
func NewLookup(canonical ...string) Lookup {
	fold := cases.Fold()
	l := Lookup{byFold: make(map[string]string, len(canonical))}
	for _, c := range canonical {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		k := fold.String(c)
		if _, dup := l.byFold[k]; dup {
			continue
		}
		l.byFold[k] = c
		l.canonical = append(l.canonical, c)
	}
	return l
}

// Canonical returns the declared spelling of v and whether v is allowed.
func (l Lookup) Canonical(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	c, ok := l.byFold[cases.Fold().String(v)]
	return c, ok
}

// Values returns the declared values in declaration order.
func (l Lookup) Values() []string {
	return append([]string(nil), l.canonical...)
}

// Len returns the number of allowed values.
func (l Lookup) Len() int { return len(l.canonical) }
