// Package config defines the run configuration for the validator and loads
// it from defaults, an optional YAML/JSON file, the environment and
// command-line flags, in increasing order of precedence.
//
// Example (YAML):
//
//	job: nightly
//	input:
//	  properties: sample_data/properties.csv
//	  events: sample_data/events.csv
//	output:
//	  dir: outputs
//	  stats_format: yaml
//	rules:
//	  statuses: [Active, Pre-foreclosure, Sold]
//	  top_n: 10
//	storage:
//	  kind: sqlite
//	  dsn: file:outputs/validator.db
package config

import (
	"github.com/bmetcalf21/data-integrity-validator/internal/rules"
)

// Defaults for paths and names.
const (
	DefaultJob               = "data-integrity-validator"
	DefaultPropertiesPath    = "sample_data/properties.csv"
	DefaultEventsPath        = "sample_data/events.csv"
	DefaultOutputDir         = "outputs"
	DefaultCleanedProperties = "cleaned_properties.csv"
	DefaultCleanedEvents     = "cleaned_events.csv"
	DefaultRejected          = "rejected_rows.csv"
	DefaultPushgatewayURL    = "http://localhost:9091"
	DefaultBatchSize         = 500
)

// Config is the full run configuration.
type Config struct {
	// Job names the run in logs, metrics and the stats document.
	Job string `koanf:"job"`

	Input   Input   `koanf:"input"`
	Output  Output  `koanf:"output"`
	Rules   Rules   `koanf:"rules"`
	Storage Storage `koanf:"storage"`
	Metrics Metrics `koanf:"metrics"`
	Log     Log     `koanf:"log"`
}

// Input locates the two source files.
type Input struct {
	Properties string `koanf:"properties"`
	Events     string `koanf:"events"`

	// Comma is the field delimiter, a single character. Empty means ",".
	Comma string `koanf:"comma"`
}

// Output controls where results are written.
type Output struct {
	Dir               string `koanf:"dir"`
	CleanedProperties string `koanf:"cleaned_properties"`
	CleanedEvents     string `koanf:"cleaned_events"`
	Rejected          string `koanf:"rejected"`

	// StatsFile, when set, receives the stats document (relative to Dir).
	StatsFile string `koanf:"stats_file"`

	// StatsFormat is "json" or "yaml".
	StatsFormat string `koanf:"stats_format"`
}

// Rules mirrors rules.Config in a serializable form.
type Rules struct {
	APNPattern       string   `koanf:"apn_pattern"`
	Statuses         []string `koanf:"statuses"`
	EventTypes       []string `koanf:"event_types"`
	Sources          []string `koanf:"sources"`
	TimestampLayouts []string `koanf:"timestamp_layouts"`

	// TopN bounds the postponement list; negative means unbounded.
	TopN int `koanf:"top_n"`

	Messages Messages `koanf:"messages"`
}

// Messages overrides failure texts. Blank entries keep the defaults.
type Messages struct {
	APNFormat        string `koanf:"apn_format"`
	LastUpdated      string `koanf:"last_updated"`
	Status           string `koanf:"status"`
	ValueNotNumeric  string `koanf:"value_not_numeric"`
	ValueNotPositive string `koanf:"value_not_positive"`
	ForeignKey       string `koanf:"foreign_key"`
	EventDate        string `koanf:"event_date"`
	UpdatedAt        string `koanf:"updated_at"`
	EventType        string `koanf:"event_type"`
	Source           string `koanf:"source"`
}

// Storage selects the optional database sink. An empty or "none" kind
// disables it.
type Storage struct {
	Kind        string `koanf:"kind"`
	DSN         string `koanf:"dsn"`
	TablePrefix string `koanf:"table_prefix"`
	BatchSize   int    `koanf:"batch_size"`
	AutoCreate  bool   `koanf:"auto_create"`
}

// Metrics selects the metrics backend: "none" or "pushgateway".
type Metrics struct {
	Backend        string `koanf:"backend"`
	PushgatewayURL string `koanf:"pushgateway_url"`
}

// Log configures the process logger.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	rc := rules.DefaultConfig()
	return Config{
		Job: DefaultJob,
		Input: Input{
			Properties: DefaultPropertiesPath,
			Events:     DefaultEventsPath,
			Comma:      ",",
		},
		Output: Output{
			Dir:               DefaultOutputDir,
			CleanedProperties: DefaultCleanedProperties,
			CleanedEvents:     DefaultCleanedEvents,
			Rejected:          DefaultRejected,
			StatsFormat:       "json",
		},
		Rules: Rules{
			APNPattern:       rc.APNPattern,
			Statuses:         rc.Statuses,
			EventTypes:       rc.EventTypes,
			Sources:          rc.Sources,
			TimestampLayouts: rc.TimestampLayouts,
			TopN:             10,
		},
		Storage: Storage{
			Kind:       "none",
			BatchSize:  DefaultBatchSize,
			AutoCreate: true,
		},
		Metrics: Metrics{
			Backend:        "none",
			PushgatewayURL: DefaultPushgatewayURL,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// RuleConfig converts the rules section into an immutable rules.Config.
func (c Config) RuleConfig() rules.Config {
	m := c.Rules.Messages
	return rules.Config{
		APNPattern:       c.Rules.APNPattern,
		Statuses:         append([]string(nil), c.Rules.Statuses...),
		EventTypes:       append([]string(nil), c.Rules.EventTypes...),
		Sources:          append([]string(nil), c.Rules.Sources...),
		TimestampLayouts: append([]string(nil), c.Rules.TimestampLayouts...),
		Messages: rules.Messages{
			APNFormat:        m.APNFormat,
			LastUpdated:      m.LastUpdated,
			Status:           m.Status,
			ValueNotNumeric:  m.ValueNotNumeric,
			ValueNotPositive: m.ValueNotPositive,
			ForeignKey:       m.ForeignKey,
			EventDate:        m.EventDate,
			UpdatedAt:        m.UpdatedAt,
			EventType:        m.EventType,
			Source:           m.Source,
		},
	}
}

// Comma returns the input delimiter as a rune, or 0 for the default.
func (c Config) Comma() rune {
	r := []rune(c.Input.Comma)
	if len(r) != 1 {
		return 0
	}
	return r[0]
}

// StorageEnabled reports whether a database sink is configured.
func (c Config) StorageEnabled() bool {
	return c.Storage.Kind != "" && c.Storage.Kind != "none"
}
