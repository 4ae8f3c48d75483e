// Package output writes a run's three CSV files into the output directory.
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	csvparser "github.com/bmetcalf21/data-integrity-validator/internal/parser/csv"
	"github.com/bmetcalf21/data-integrity-validator/internal/pipeline"
	"github.com/bmetcalf21/data-integrity-validator/internal/records"
)

// Names are the file names written under the output directory.
type Names struct {
	CleanedProperties string
	CleanedEvents     string
	Rejected          string
}

// DefaultNames returns the conventional file names.
func DefaultNames() Names {
	return Names{
		CleanedProperties: "cleaned_properties.csv",
		CleanedEvents:     "cleaned_events.csv",
		Rejected:          "rejected_rows.csv",
	}
}

func (n Names) withDefaults() Names {
	d := DefaultNames()
	if n.CleanedProperties == "" {
		n.CleanedProperties = d.CleanedProperties
	}
	if n.CleanedEvents == "" {
		n.CleanedEvents = d.CleanedEvents
	}
	if n.Rejected == "" {
		n.Rejected = d.Rejected
	}
	return n
}

// Paths are the files Write produced.
type Paths struct {
	CleanedProperties string
	CleanedEvents     string
	Rejected          string
}

// Write creates dir if needed and writes the cleaned tables and the rejected
// table concurrently. Each file is written to a temporary name and renamed
// into place, so a failed run never leaves a truncated output behind.
func Write(ctx context.Context, dir string, names Names, res *pipeline.Result) (Paths, error) {
	if res == nil {
		return Paths{}, fmt.Errorf("output: nil result")
	}
	names = names.withDefaults()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("output: create %s: %w", dir, err)
	}

	p := Paths{
		CleanedProperties: filepath.Join(dir, names.CleanedProperties),
		CleanedEvents:     filepath.Join(dir, names.CleanedEvents),
		Rejected:          filepath.Join(dir, names.Rejected),
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range []struct {
		path string
		t    records.Table
	}{
		{p.CleanedProperties, res.Properties},
		{p.CleanedEvents, res.Events},
		{p.Rejected, res.RejectedTable()},
	} {
		g.Go(func() error { return writeFile(gctx, job.path, job.t) })
	}
	if err := g.Wait(); err != nil {
		return Paths{}, err
	}
	return p, nil
}

// writeFile writes t to path via a temporary file in the same directory.
func writeFile(ctx context.Context, path string, t records.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := csvparser.WriteTable(tmp, t, 0); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("output: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}
