// Package sqlite registers the "sqlite" storage kind. It uses the pure-Go
// modernc.org/sqlite driver and the generic sqldb repository; SQLite has no
// bulk-load API, so batches are transactional prepared INSERTs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bmetcalf21/data-integrity-validator/internal/storage"
	"github.com/bmetcalf21/data-integrity-validator/internal/storage/sqldb"
)

// Kind is the storage.kind value this package registers.
const Kind = "sqlite"

// Dialect is SQLite's SQL spelling.
var Dialect = sqldb.Dialect{
	Name:        Kind,
	Quote:       sqldb.DoubleQuote,
	Placeholder: sqldb.QuestionMark,
	TextType:    "TEXT",
}

// Open opens dsn (a file path or "file:" URI) and pings it.
func Open(ctx context.Context, dsn string) (*sqldb.Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer at a time; this also keeps ":memory:" databases on a single
	// connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
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
