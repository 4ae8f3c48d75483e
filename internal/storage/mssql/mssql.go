// Package mssql registers the "mssql" storage kind. Batches are written with
// the go-mssqldb bulk copy API.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/bmetcalf21/data-integrity-validator/internal/storage"
)

// Kind is the storage.kind value this package registers.
const Kind = "mssql"

// Repository is a SQL Server backed storage.Repository.
type Repository struct {
	db *sql.DB
}

var _ storage.Repository = (*Repository)(nil)

// Open validates dsn, connects and pings.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db}, nil
}

// CopyFrom bulk-inserts rows into table inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Exec executes a SQL statement.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// Close closes the handle.
func (r *Repository) Close() { _ = r.db.Close() }

// CreateTableSQL returns a T-SQL script creating table with NVARCHAR(MAX)
// columns. T-SQL lacks CREATE TABLE IF NOT EXISTS, so the statement is
// guarded by OBJECT_ID.
func CreateTableSQL(table string, columns []string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("mssql ddl: table name must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("mssql ddl: at least one column is required")
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return "", fmt.Errorf("mssql ddl: column with empty name in table %s", table)
		}
		defs[i] = "    " + msIdent(c) + " NVARCHAR(MAX) NULL"
	}
	fqn := msFQN(table)
	var sb strings.Builder
	fmt.Fprintf(&sb, "IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n", strings.ReplaceAll(fqn, "'", "''"))
	fmt.Fprintf(&sb, "  CREATE TABLE %s (\n%s\n  );\nEND", fqn, strings.Join(defs, ",\n"))
	return sb.String(), nil
}

// EnsureTable creates table if it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, table string, columns []string) error {
	stmt, err := CreateTableSQL(table, columns)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, stmt)
}

// msIdent quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// msFQN quotes a possibly schema-qualified name like "dbo.events".
func msFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = msIdent(p)
	}
	return strings.Join(parts, ".")
}

func init() {
	storage.Register(Kind, func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	storage.RegisterDDL(Kind, EnsureTable)
}
