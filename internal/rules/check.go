package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bmetcalf21/data-integrity-validator/internal/transformer/builtin"
)

// Verdict is the result of checking one cell.
type Verdict struct {
	// OK reports whether the value passed.
	OK bool

	// Value is the cell to store back into the row when OK. Enum and
	// timestamp checks use it to canonicalize.
	Value string

	// Message overrides the rule's template on failure. Empty means use the
	// rule's own template.
	Message string
}

// Check tests a single normalized cell.
type Check interface {
	Check(value string) Verdict
}

// CheckFunc adapts a function to Check.
type CheckFunc func(value string) Verdict

// Check calls f(value).
func (f CheckFunc) Check(value string) Verdict { return f(value) }

func pass(v string) Verdict { return Verdict{OK: true, Value: v} }

// Pattern full-matches the value against expr. The expression is anchored
// at both ends regardless of how it is written.
func Pattern(expr string) (Check, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, err
	}
	return CheckFunc(func(v string) Verdict {
		if !re.MatchString(v) {
			return Verdict{}
		}
		return pass(v)
	}), nil
}

// Enum accepts members of l case-insensitively and rewrites the value to
// the declared spelling.
func Enum(l builtin.Lookup) Check {
	return CheckFunc(func(v string) Verdict {
		c, ok := l.Canonical(v)
		if !ok {
			return Verdict{}
		}
		return pass(c)
	})
}

// decimalNumber matches plain decimal and exponent notation. Hex floats,
// underscores, Inf and NaN are not numbers here.
var decimalNumber = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// PositiveNumber accepts decimal numbers strictly greater than zero. Values
// that are not decimal numbers fail with notNumeric; the rest fail with
// notPositive. The accepted value is stored unchanged.
func PositiveNumber(notNumeric, notPositive string) Check {
	return CheckFunc(func(v string) Verdict {
		s := strings.TrimSpace(v)
		if !decimalNumber.MatchString(s) {
			return Verdict{Message: notNumeric}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Verdict{Message: notNumeric}
		}
		if !(f > 0) {
			return Verdict{Message: notPositive}
		}
		return pass(v)
	})
}

// Timestamp accepts values ParseTimestamp understands and rewrites them in
// canonical form.
func Timestamp(layouts []string) Check {
	parse := Timestamps(layouts)
	return CheckFunc(func(v string) Verdict {
		t, ok := parse(v)
		if !ok {
			return Verdict{}
		}
		return pass(FormatTimestamp(t))
	})
}
