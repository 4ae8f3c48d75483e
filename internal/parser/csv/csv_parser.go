// Package csv reads and writes the delimited files consumed and produced by
// the validator. Reading is strict about structure (a malformed file is a
// fatal error for its table) and lenient about content: every cell is kept as
// the raw string so that the rule engine can report row-level violations.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bmetcalf21/data-integrity-validator/internal/records"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// ErrEmptyInput is returned when the input has no header row.
var ErrEmptyInput = errors.New("csv: empty input, no header row")

// Options configures the CSV parser. The zero value reads comma-separated
// input with strict quoting.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// LazyQuotes relaxes quote handling in unquoted fields.
	LazyQuotes bool
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse consumes the whole input and returns it as a table named name.
//
// Structure rules:
//   - The first record is the header; a missing header is ErrEmptyInput.
//   - A UTF-8 BOM on the first header cell is removed. Header cells are
//     otherwise kept verbatim; normalization is a separate step.
//   - Repeated header names are disambiguated as "name.1", "name.2", ...
//   - Blank lines are skipped.
//   - A row with fewer cells than the header is padded with empty cells.
//   - A row with more cells than the header, or a quoting error, aborts the
//     parse with an error naming the line.
func (p *Parser) Parse(r io.Reader, name string) (records.Table, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	// Width is enforced after reading so short rows can be padded.
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return records.Table{}, fmt.Errorf("%s: %w", name, ErrEmptyInput)
	}
	if err != nil {
		return records.Table{}, fmt.Errorf("%s: read csv header: %w", name, err)
	}
	headers := records.UniqueNames(stripBOM(append([]string(nil), h...)))

	t := records.Table{Name: name, Columns: headers}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records.Table{}, fmt.Errorf("%s: read csv: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		if len(row) > len(headers) {
			return records.Table{}, fmt.Errorf(
				"%s: line %d: expected %d fields, saw %d", name, line, len(headers), len(row))
		}

		rec := make(records.Record, len(headers))
		for i, col := range headers {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		t.Rows = append(t.Rows, rec)
		t.Lines = append(t.Lines, line)
	}
	return t, nil
}

// stripBOM removes a UTF-8 BOM from the first header cell if present.
func stripBOM(headers []string) []string {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return headers
}
