// Package storage contains storage-agnostic contracts for the optional
// database sink. Backends (sqlite, postgres, mysql, mssql) register a
// factory and a table bootstrapper for their kind at init time; callers pick
// one by name through New and never import a driver directly.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and configures a backend.
type Config struct {
	// Kind names a registered backend, e.g. "sqlite" or "postgres".
	Kind string

	// DSN is passed to the backend's driver.
	DSN string
}

// Repository is the minimal write surface a backend provides.
type Repository interface {
	// CopyFrom inserts rows aligned to columns into table and returns the
	// number of rows written.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// Close releases the connection pool.
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

// DDLBootstrapper creates table with the given text columns if it does not
// already exist.
type DDLBootstrapper func(ctx context.Context, repo Repository, table string, columns []string) error

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
	ddlFns    = map[string]DDLBootstrapper{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// RegisterDDL registers (or replaces) the table bootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	mu.Lock()
	defer mu.Unlock()
	ddlFns[kind] = fn
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EnsureTable runs the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, table string, columns []string) error {
	mu.RLock()
	fn, ok := ddlFns[kind]
	mu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, table, columns)
}
