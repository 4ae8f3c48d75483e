// Package datasource opens raw inputs and parses them into tables.
package datasource

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	csvparser "github.com/bmetcalf21/data-integrity-validator/internal/parser/csv"
	"github.com/bmetcalf21/data-integrity-validator/internal/records"
)

// Source is anything that can be opened for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name is used in error messages and logs (a path, URL, ...).
	Name() string
}

// LoadTable opens src and parses it as a CSV table called name. The whole
// table is read into memory before returning.
func LoadTable(ctx context.Context, src Source, name string, opt csvparser.Options) (records.Table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return records.Table{}, fmt.Errorf("open %s source: %w", name, err)
	}
	defer rc.Close()

	t, err := csvparser.NewParser(opt).Parse(rc, name)
	if err != nil {
		return records.Table{}, fmt.Errorf("parse %s (%s): %w", name, src.Name(), err)
	}
	return t, nil
}

// LoadPair reads the properties and events inputs concurrently. Either
// failure aborts both and is returned.
func LoadPair(
	ctx context.Context,
	properties, events Source,
	opt csvparser.Options,
) (records.Table, records.Table, error) {
	var props, evs records.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := LoadTable(gctx, properties, "properties", opt)
		props = t
		return err
	})
	g.Go(func() error {
		t, err := LoadTable(gctx, events, "events", opt)
		evs = t
		return err
	})
	if err := g.Wait(); err != nil {
		return records.Table{}, records.Table{}, err
	}
	return props, evs, nil
}
