package builtin

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/bmetcalf21/data-integrity-validator/internal/records"
)

// Normalize lowercases and trims header names and trims every cell. It never
// drops columns or reorders rows.
type Normalize struct{}

// Apply trims every value in place.
func (Normalize) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for k, v := range r {
			r[k] = strings.TrimSpace(v)
		}
	}
	return in
}

// Table returns a normalized copy of t; t itself is left untouched.
//
// Headers are NFC-composed, trimmed and lowercased. If two headers collapse
// to the same name, later ones are suffixed ".1", ".2", ... so both columns
// survive.
func (n Normalize) Table(t records.Table) records.Table {
	lower := cases.Lower(language.Und)
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = NormalizeHeader(lower, c)
	}
	names = records.UniqueNames(names)

	out := records.Table{
		Name:    t.Name,
		Columns: names,
		Rows:    make([]records.Record, len(t.Rows)),
	}
	if len(t.Lines) > 0 {
		out.Lines = append([]int(nil), t.Lines...)
	}
	for i, r := range t.Rows {
		nr := make(records.Record, len(names))
		for j, c := range t.Columns {
			nr[names[j]] = r[c]
		}
		out.Rows[i] = nr
	}
	n.Apply(out.Rows)
	return out
}

// NormalizeHeader maps a raw header cell onto its canonical column name.
// The caser is passed in because cases.Caser is not safe for concurrent use.
func NormalizeHeader(lower cases.Caser, s string) string {
	return lower.String(strings.TrimSpace(norm.NFC.String(s)))
}
