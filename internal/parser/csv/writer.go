package csv

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/bmetcalf21/data-integrity-validator/internal/records"
)

// Write emits a header followed by rows. Each row must be aligned to columns.
func Write(w io.Writer, columns []string, rows [][]string, comma rune) error {
	cw := csv.NewWriter(w)
	if comma != 0 {
		cw.Comma = comma
	}
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("write csv: row %d has %d fields, header has %d", i, len(row), len(columns))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes t with its own header.
func WriteTable(w io.Writer, t records.Table, comma rune) error {
	return Write(w, t.Columns, t.Matrix(), comma)
}
