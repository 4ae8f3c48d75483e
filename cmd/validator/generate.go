package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	csvparser "github.com/bmetcalf21/data-integrity-validator/internal/parser/csv"
	"github.com/bmetcalf21/data-integrity-validator/internal/records"
	"github.com/bmetcalf21/data-integrity-validator/internal/synth"
)

func newGenerateCmd() *cobra.Command {
	opt := synth.DefaultOptions()
	var dir string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write synthetic properties.csv and events.csv with injected dirty rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opt.DirtyRatio < 0 || opt.DirtyRatio > 1 {
				return fmt.Errorf("--dirty-ratio must be within [0, 1], got %v", opt.DirtyRatio)
			}
			opt.Now = time.Now()
			props, events := synth.Generate(opt)

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
			for _, t := range []records.Table{props, events} {
				path := filepath.Join(dir, t.Name+".csv")
				if err := writeCSV(path, t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", t.Len(), path)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&dir, "out-dir", "sample_data", "directory for properties.csv and events.csv")
	fl.IntVar(&opt.Properties, "properties", opt.Properties, "number of property rows before duplicates")
	fl.IntVar(&opt.Events, "events", opt.Events, "number of event rows before duplicates")
	fl.Float64Var(&opt.DirtyRatio, "dirty-ratio", opt.DirtyRatio, "share of rows eligible for injected problems")
	fl.Uint64Var(&opt.Seed, "seed", opt.Seed, "random seed")
	return cmd
}

func writeCSV(path string, t records.Table) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := csvparser.WriteTable(fh, t, 0); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}
