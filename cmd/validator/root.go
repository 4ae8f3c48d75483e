package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bmetcalf21/data-integrity-validator/internal/config"
	"github.com/bmetcalf21/data-integrity-validator/internal/datasource"
	"github.com/bmetcalf21/data-integrity-validator/internal/datasource/file"
	"github.com/bmetcalf21/data-integrity-validator/internal/logging"
	"github.com/bmetcalf21/data-integrity-validator/internal/metrics"
	"github.com/bmetcalf21/data-integrity-validator/internal/metrics/prompush"
	"github.com/bmetcalf21/data-integrity-validator/internal/output"
	csvparser "github.com/bmetcalf21/data-integrity-validator/internal/parser/csv"
	"github.com/bmetcalf21/data-integrity-validator/internal/pipeline"
	"github.com/bmetcalf21/data-integrity-validator/internal/report"
	"github.com/bmetcalf21/data-integrity-validator/internal/storage"

	// Every backend is compiled in; storage.kind picks one at runtime.
	_ "github.com/bmetcalf21/data-integrity-validator/internal/storage/all"
)

// errInvalidConfig is returned after the issues have been printed.
var errInvalidConfig = errors.New("configuration is invalid")

type rootFlags struct {
	configPath     string
	verbose        bool
	validateConfig bool
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "validator [properties.csv events.csv]",
		Short: "Validate, clean and deduplicate property and event CSVs",
		Long: `validator reads a properties CSV and an events CSV, checks every row
against format, enum, numeric, date and foreign-key rules, keeps the most
recent row per business key and writes:

  <out-dir>/cleaned_properties.csv
  <out-dir>/cleaned_events.csv
  <out-dir>/rejected_rows.csv

Dirty rows never fail the run; a missing required column or an unreadable
file does.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected 0 or 2 arguments (properties.csv events.csv), got %d", len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if len(args) == 2 {
				cfg.Input.Properties, cfg.Input.Events = args[0], args[1]
			}
			return run(cmd.Context(), cfg, f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "config file (YAML or JSON)")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	fl.BoolVar(&f.validateConfig, "validate-config", false, "lint the configuration and exit")

	d := config.Default()
	fl.String("job", d.Job, "job name for logs, metrics and the stats document")
	fl.String("comma", d.Input.Comma, "input field delimiter")
	fl.String("out-dir", d.Output.Dir, "output directory")
	fl.String("stats-file", "", "also write the stats document to this file (relative to --out-dir)")
	fl.String("stats-format", d.Output.StatsFormat, "stats document format: json|yaml")
	fl.Int("top-n", d.Rules.TopN, "postponement list length (negative: unbounded)")
	fl.String("storage-kind", d.Storage.Kind, "database sink: none|sqlite|postgres|mysql|mssql")
	fl.String("storage-dsn", "", "database sink DSN")
	fl.String("table-prefix", "", "prefix for database sink tables")
	fl.String("metrics-backend", d.Metrics.Backend, "metrics backend: none|pushgateway")
	fl.String("pushgateway-url", d.Metrics.PushgatewayURL, "Pushgateway base URL")
	fl.String("log-level", d.Log.Level, "log level: debug|info|warn|error")
	fl.String("log-format", d.Log.Format, "log format: text|json")

	_ = cmd.RegisterFlagCompletionFunc("storage-kind", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return append([]string{"none"}, storage.ListKinds()...), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("stats-format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{report.FormatJSON, report.FormatYAML}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(newGenerateCmd())
	return cmd
}

// run executes one validation run with a loaded configuration.
func run(ctx context.Context, cfg *config.Config, f rootFlags, stdout, stderr io.Writer) error {
	issues := config.Validate(*cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errInvalidConfig
	}
	if f.validateConfig {
		fmt.Fprintln(stdout, "configuration is valid")
		return nil
	}

	level := cfg.Log.Level
	if f.verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Log.Format, stderr)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	log = log.With("run_id", runID, "job", cfg.Job)

	flush := setupMetrics(cfg, log)
	defer flush()

	start := time.Now()
	log.Info("reading inputs", "properties", cfg.Input.Properties, "events", cfg.Input.Events)
	props, events, err := datasource.LoadPair(ctx,
		file.NewLocal(cfg.Input.Properties),
		file.NewLocal(cfg.Input.Events),
		csvparser.Options{Comma: cfg.Comma()},
	)
	if err != nil {
		return err
	}

	rc := cfg.RuleConfig()
	res, err := pipeline.Run(props, events, pipeline.Options{
		Rules:  &rc,
		TopN:   cfg.Rules.TopN,
		Job:    cfg.Job,
		Logger: log,
	})
	if err != nil {
		return err
	}

	paths, err := output.Write(ctx, cfg.Output.Dir, output.Names{
		CleanedProperties: cfg.Output.CleanedProperties,
		CleanedEvents:     cfg.Output.CleanedEvents,
		Rejected:          cfg.Output.Rejected,
	}, res)
	if err != nil {
		return err
	}

	if cfg.Output.StatsFile != "" {
		if err := writeStats(cfg, runID, res); err != nil {
			return err
		}
	}

	if cfg.StorageEnabled() {
		if err := publish(ctx, cfg, res, log); err != nil {
			return err
		}
	}

	if err := report.Summary(stdout, res.Stats); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Output files:\n  %s\n  %s\n  %s\n", paths.CleanedProperties, paths.CleanedEvents, paths.Rejected)

	log.Info("run complete",
		"cleaned_properties", res.Properties.Len(),
		"cleaned_events", res.Events.Len(),
		"rejected", len(res.Rejected),
		"elapsed", time.Since(start).Truncate(time.Millisecond),
	)
	return nil
}

// setupMetrics installs the configured backend and returns its flush func.
func setupMetrics(cfg *config.Config, log *slog.Logger) func() {
	switch cfg.Metrics.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
		if err != nil {
			log.Warn("metrics: pushgateway backend unavailable; using nop", "error", err)
			return func() {}
		}
		metrics.SetBackend(b)
		log.Debug("metrics: pushgateway enabled", "url", cfg.Metrics.PushgatewayURL)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics: flush failed", "error", err)
			}
		}
	case "", "none":
		return func() {}
	default:
		log.Warn("metrics: unknown backend; metrics disabled", "backend", cfg.Metrics.Backend)
		return func() {}
	}
}

func writeStats(cfg *config.Config, runID string, res *pipeline.Result) error {
	path := cfg.Output.StatsFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Output.Dir, path)
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stats file: %w", err)
	}
	doc := report.NewDocument(runID, cfg.Job, res.Stats, time.Now())
	if err := report.WriteStats(fh, cfg.Output.StatsFormat, doc); err != nil {
		_ = fh.Close()
		return fmt.Errorf("stats file %s: %w", path, err)
	}
	return fh.Close()
}

func publish(ctx context.Context, cfg *config.Config, res *pipeline.Result, log *slog.Logger) error {
	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer repo.Close()

	_, err = storage.Publish(ctx, repo, storage.PublishOptions{
		Kind:        cfg.Storage.Kind,
		TablePrefix: cfg.Storage.TablePrefix,
		BatchSize:   cfg.Storage.BatchSize,
		AutoCreate:  cfg.Storage.AutoCreate,
		Job:         cfg.Job,
		Logger:      log,
	}, res.Properties, res.Events, res.RejectedTable())
	return err
}
