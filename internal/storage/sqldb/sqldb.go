// Package sqldb implements storage.Repository over database/sql for drivers
// without a dedicated bulk-load API. Each CopyFrom runs one transaction with
// a prepared single-row INSERT.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the SQL spelling differences between drivers.
type Dialect struct {
	// Name prefixes error messages, e.g. "sqlite".
	Name string

	// Quote quotes one identifier segment.
	Quote func(string) string

	// Placeholder renders the i-th (1-based) bind parameter.
	Placeholder func(i int) string

	// TextType is the column type used for every column.
	TextType string
}

// QuestionMark is the "?" placeholder style.
func QuestionMark(int) string { return "?" }

// Dollar is the "$1" placeholder style.
func Dollar(i int) string { return "$" + strconv.Itoa(i) }

// DoubleQuote quotes an identifier ANSI-style.
func DoubleQuote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// Backtick quotes an identifier MySQL-style.
func Backtick(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// QualifiedName quotes each dot-separated segment of name.
func (d Dialect) QualifiedName(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.Quote(p)
	}
	return strings.Join(parts, ".")
}

// InsertSQL builds the single-row INSERT used by CopyFrom.
func (d Dialect) InsertSQL(table string, columns []string) string {
	cols := make([]string, len(columns))
	ph := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = d.Quote(c)
		ph[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QualifiedName(table), strings.Join(cols, ", "), strings.Join(ph, ", "))
}

// CreateTableSQL builds CREATE TABLE IF NOT EXISTS with every column typed
// as TextType.
func (d Dialect) CreateTableSQL(table string, columns []string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("%s ddl: table name must not be empty", d.Name)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, table)
		}
		defs[i] = "  " + d.Quote(c) + " " + d.TextType
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)",
		d.QualifiedName(table), strings.Join(defs, ",\n")), nil
}

// Repository is a database/sql backed storage.Repository.
type Repository struct {
	db *sql.DB
	d  Dialect
}

// New wraps an open database handle. The Repository owns db from here on.
func New(db *sql.DB, d Dialect) *Repository {
	return &Repository{db: db, d: d}
}

// DB exposes the underlying handle, mainly for tests.
func (r *Repository) DB() *sql.DB { return r.db }

// CopyFrom inserts rows into table inside one transaction. A row whose
// length differs from columns aborts and rolls back the batch.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: CopyFrom: columns must not be empty", r.d.Name)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", r.d.Name, err)
	}
	stmt, err := tx.PrepareContext(ctx, r.d.InsertSQL(table, columns))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%s: prepare insert: %w", r.d.Name, err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: CopyFrom: row length %d != columns length %d", r.d.Name, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: insert: %w", r.d.Name, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", r.d.Name, err)
	}
	return inserted, nil
}

// Exec executes a single statement. Blank statements are ignored.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("%s: exec: %w", r.d.Name, err)
	}
	return nil
}

// Close closes the database handle.
func (r *Repository) Close() { _ = r.db.Close() }
