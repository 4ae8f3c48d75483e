// Package rules validates normalized rows against per-table column checks.
//
// An Engine holds an ordered list of rules. Every rule runs on every row;
// failures accumulate in declaration order so the same row always yields the
// same violation list. Enum and timestamp checks rewrite passing cells to
// their canonical spelling.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmetcalf21/data-integrity-validator/internal/records"
)

// ErrMissingColumns is matched by every *MissingColumnsError.
var ErrMissingColumns = errors.New("missing required columns")

// MissingColumnsError reports required columns absent from a table header.
type MissingColumnsError struct {
	Table   string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Table, ErrMissingColumns, strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrMissingColumns) succeed.
func (e *MissingColumnsError) Is(target error) bool { return target == ErrMissingColumns }

// Rule pairs a field with a check and the failure text template. The
// template may reference {field} and {value}.
type Rule struct {
	Field   string
	Check   Check
	Message string
}

// Engine evaluates one table's rules. It is immutable after construction and
// safe for concurrent use.
type Engine struct {
	name     string
	required []string
	rules    []Rule
}

// NewEngine returns an engine for the named table. Every rule field must be
// listed in required.
func NewEngine(name string, required []string, rules ...Rule) (*Engine, error) {
	req := make(map[string]struct{}, len(required))
	for _, c := range required {
		req[c] = struct{}{}
	}
	for i, r := range rules {
		if r.Check == nil {
			return nil, fmt.Errorf("rules: %s rule %d (%s): nil check", name, i, r.Field)
		}
		if _, ok := req[r.Field]; !ok {
			return nil, fmt.Errorf("rules: %s rule %d: field %q is not a required column", name, i, r.Field)
		}
	}
	return &Engine{
		name:     name,
		required: append([]string(nil), required...),
		rules:    append([]Rule(nil), rules...),
	}, nil
}

// Name returns the table name the engine validates.
func (e *Engine) Name() string { return e.name }

// Required returns the required columns in declaration order.
func (e *Engine) Required() []string { return append([]string(nil), e.required...) }

// CheckColumns returns a *MissingColumnsError if any required column is
// absent from columns.
func (e *Engine) CheckColumns(columns []string) error {
	have := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		have[c] = struct{}{}
	}
	var missing []string
	for _, c := range e.required {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Table: e.name, Missing: missing}
	}
	return nil
}

// Outcome is the result of evaluating one row.
type Outcome struct {
	// Record is a copy of the input with passing cells canonicalized.
	Record records.Record

	// Violations lists failure texts in rule order.
	Violations []string
}

// Valid reports whether no rule failed.
func (o Outcome) Valid() bool { return len(o.Violations) == 0 }

// Evaluate runs every rule against r. r is not modified.
func (e *Engine) Evaluate(r records.Record) Outcome {
	out := Outcome{Record: r.Clone()}
	for _, rule := range e.rules {
		v := r[rule.Field]
		res := rule.Check.Check(v)
		if res.OK {
			out.Record[rule.Field] = res.Value
			continue
		}
		tmpl := res.Message
		if tmpl == "" {
			tmpl = rule.Message
		}
		out.Violations = append(out.Violations, render(tmpl, rule.Field, v))
	}
	return out
}

// Partition is a table split into passing and failing rows.
type Partition struct {
	Valid    records.Table
	Rejected []records.RejectedRow
}

// Partition checks the header and then evaluates every row. Valid rows keep
// their canonicalized cells; rejected rows keep the cells as they were
// given. A missing required column fails the whole table.
func (e *Engine) Partition(t records.Table) (Partition, error) {
	if err := e.CheckColumns(t.Columns); err != nil {
		return Partition{}, err
	}
	p := Partition{Valid: records.Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
	}}
	for i, r := range t.Rows {
		o := e.Evaluate(r)
		if o.Valid() {
			p.Valid.Rows = append(p.Valid.Rows, o.Record)
			p.Valid.Lines = append(p.Valid.Lines, t.Line(i))
			continue
		}
		p.Rejected = append(p.Rejected, records.RejectedRow{
			Table:      e.name,
			Line:       t.Line(i),
			Record:     r.Clone(),
			Violations: o.Violations,
		})
	}
	return p, nil
}

func render(tmpl, field, value string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	return strings.NewReplacer("{field}", field, "{value}", value).Replace(tmpl)
}
