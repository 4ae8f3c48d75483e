// Package mysql registers the "mysql" storage kind on top of
// github.com/go-sql-driver/mysql and the generic sqldb repository.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	driver "github.com/go-sql-driver/mysql"

	"github.com/bmetcalf21/data-integrity-validator/internal/storage"
	"github.com/bmetcalf21/data-integrity-validator/internal/storage/sqldb"
)

// Kind is the storage.kind value this package registers.
const Kind = "mysql"

// Dialect is MySQL's SQL spelling.
var Dialect = sqldb.Dialect{
	Name:        Kind,
	Quote:       sqldb.Backtick,
	Placeholder: sqldb.QuestionMark,
	TextType:    "TEXT",
}

// openDB is replaced in tests.
var openDB = func(dsn string) (*sql.DB, error) { return sql.Open("mysql", dsn) }

// Open validates dsn, connects and pings.
func Open(ctx context.Context, dsn string) (*sqldb.Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	if _, err := driver.ParseDSN(dsn); err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	db, err := openDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return sqldb.New(db, Dialect), nil
}

// EnsureTable creates table with TEXT columns if it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, table string, columns []string) error {
	stmt, err := Dialect.CreateTableSQL(table, columns)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, stmt)
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
