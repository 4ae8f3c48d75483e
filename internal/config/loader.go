package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nesting levels: VALIDATOR_STORAGE__DSN sets storage.dsn.
const EnvPrefix = "VALIDATOR_"

// FlagKeys maps command-line flag names onto configuration keys. Flags not
// listed here are not configuration.
var FlagKeys = map[string]string{
	"job":             "job",
	"comma":           "input.comma",
	"out-dir":         "output.dir",
	"stats-file":      "output.stats_file",
	"stats-format":    "output.stats_format",
	"top-n":           "rules.top_n",
	"storage-kind":    "storage.kind",
	"storage-dsn":     "storage.dsn",
	"table-prefix":    "storage.table_prefix",
	"metrics-backend": "metrics.backend",
	"pushgateway-url": "metrics.pushgateway_url",
	"log-level":       "log.level",
	"log-format":      "log.format",
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// path may be empty; flags may be nil. Only flags that were explicitly set
// override lower layers.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaultsMap(Default()), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	// 2. File (YAML; JSON parses as YAML)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// envKey maps VALIDATOR_OUTPUT__STATS_FORMAT to output.stats_format.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func defaultsMap(c Config) map[string]interface{} {
	return map[string]interface{}{
		"job": c.Job,

		"input.properties": c.Input.Properties,
		"input.events":     c.Input.Events,
		"input.comma":      c.Input.Comma,

		"output.dir":                c.Output.Dir,
		"output.cleaned_properties": c.Output.CleanedProperties,
		"output.cleaned_events":     c.Output.CleanedEvents,
		"output.rejected":           c.Output.Rejected,
		"output.stats_file":         c.Output.StatsFile,
		"output.stats_format":       c.Output.StatsFormat,

		"rules.apn_pattern":       c.Rules.APNPattern,
		"rules.statuses":          c.Rules.Statuses,
		"rules.event_types":       c.Rules.EventTypes,
		"rules.sources":           c.Rules.Sources,
		"rules.timestamp_layouts": c.Rules.TimestampLayouts,
		"rules.top_n":             c.Rules.TopN,

		"storage.kind":         c.Storage.Kind,
		"storage.dsn":          c.Storage.DSN,
		"storage.table_prefix": c.Storage.TablePrefix,
		"storage.batch_size":   c.Storage.BatchSize,
		"storage.auto_create":  c.Storage.AutoCreate,

		"metrics.backend":         c.Metrics.Backend,
		"metrics.pushgateway_url": c.Metrics.PushgatewayURL,

		"log.level":  c.Log.Level,
		"log.format": c.Log.Format,
	}
}
