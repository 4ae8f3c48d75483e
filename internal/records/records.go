// Package records defines the in-memory row and table shapes that flow through
// the validation pipeline. Every cell is kept as a string; typed
// interpretation (numbers, timestamps, enums) belongs to the rule engine.
package records

import "strconv"

// Record is one row keyed by column name.
type Record map[string]string

// Clone returns a shallow copy of r. Values are strings, so the copy is
// fully independent of the original.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Values returns the cells of r in the given column order. Missing columns
// yield empty strings.
func (r Record) Values(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r[c]
	}
	return out
}

// Table is an ordered header plus the rows read under it.
type Table struct {
	// Name identifies the dataset, e.g. "properties" or "events".
	Name string

	// Columns is the header in source order.
	Columns []string

	// Rows holds the data rows in source order.
	Rows []Record

	// Lines holds the 1-based source line of each row (header is line 1).
	// It is optional; when empty, Line derives the number from the row index.
	Lines []int
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Line returns the source line number for row i.
func (t Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

// HasColumn reports whether name is part of the header.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Index maps each column name to its position in the header. When a header
// repeats a name, the first position wins.
func (t Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	return idx
}

// Clone deep-copies the table so callers can rewrite cells without touching
// the source.
func (t Table) Clone() Table {
	out := Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Record, len(t.Rows)),
	}
	if len(t.Lines) > 0 {
		out.Lines = append([]int(nil), t.Lines...)
	}
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Matrix returns the rows as positional string slices aligned to Columns.
func (t Table) Matrix() [][]string {
	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values(t.Columns)
	}
	return out
}

// RejectedRow is a row that failed one or more checks.
type RejectedRow struct {
	// Table is the dataset the row came from ("properties" or "events").
	Table string

	// Line is the 1-based source line.
	Line int

	// Record is the normalized row as it was when checked.
	Record Record

	// Violations lists every failed check in rule-evaluation order.
	Violations []string
}

// Reason joins the violations with "; ".
func (r RejectedRow) Reason() string {
	return JoinReasons(r.Violations)
}

// JoinReasons renders a violation list the way it is written to the
// violation_reason column.
func JoinReasons(v []string) string {
	switch len(v) {
	case 0:
		return ""
	case 1:
		return v[0]
	}
	n := 2 * (len(v) - 1)
	for _, s := range v {
		n += len(s)
	}
	b := make([]byte, 0, n)
	for i, s := range v {
		if i > 0 {
			b = append(b, ';', ' ')
		}
		b = append(b, s...)
	}
	return string(b)
}

// UniqueNames returns names with repeats rewritten as "name.N", where N is
// the smallest positive integer that keeps the result unique.
func UniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		cand := n
		for k := 1; ; k++ {
			if _, dup := seen[cand]; !dup {
				break
			}
			cand = n + "." + strconv.Itoa(k)
		}
		seen[cand] = struct{}{}
		out[i] = cand
	}
	return out
}
