// Command validator cleans a properties/events CSV pair: it validates every
// row, removes duplicates, writes cleaned and rejected CSVs and prints a data
// quality summary.
//
// Usage:
//
//	validator [flags]                          # sample_data/properties.csv sample_data/events.csv
//	validator [flags] <properties.csv> <events.csv>
//	validator generate [flags]                 # write synthetic sample data
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
