package config

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/bmetcalf21/data-integrity-validator/internal/logging"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding worth surfacing that does not block
	// execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "rules.statuses[2]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Storage kinds the validator ships with.
var knownStorageKinds = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mysql":    {},
	"mssql":    {},
}

// Validate performs static validation of a Config. It does not mutate c.
// Callers decide whether warnings are fatal.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and the stats document",
		})
	}
	issues = append(issues, validateInput(c.Input)...)
	issues = append(issues, validateOutput(c.Output)...)
	issues = append(issues, validateRules(c.Rules)...)
	issues = append(issues, validateStorage(c.Storage)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	issues = append(issues, validateLog(c.Log)...)

	return issues
}

func validateInput(in Input) []Issue {
	var issues []Issue
	if strings.TrimSpace(in.Properties) == "" {
		issues = append(issues, Issue{SeverityError, "input.properties", "properties path must not be empty"})
	}
	if strings.TrimSpace(in.Events) == "" {
		issues = append(issues, Issue{SeverityError, "input.events", "events path must not be empty"})
	}
	if in.Comma != "" {
		r, n := utf8.DecodeRuneInString(in.Comma)
		switch {
		case n != len(in.Comma):
			issues = append(issues, Issue{SeverityError, "input.comma", fmt.Sprintf("delimiter %q must be a single character", in.Comma)})
		case r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError:
			issues = append(issues, Issue{SeverityError, "input.comma", fmt.Sprintf("delimiter %q is not allowed", in.Comma)})
		}
	}
	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue
	if strings.TrimSpace(o.Dir) == "" {
		issues = append(issues, Issue{SeverityError, "output.dir", "output directory must not be empty"})
	}
	names := map[string]string{}
	for _, f := range []struct{ path, name string }{
		{"output.cleaned_properties", o.CleanedProperties},
		{"output.cleaned_events", o.CleanedEvents},
		{"output.rejected", o.Rejected},
		{"output.stats_file", o.StatsFile},
	} {
		if f.name == "" {
			if f.path != "output.stats_file" {
				issues = append(issues, Issue{SeverityError, f.path, "file name must not be empty"})
			}
			continue
		}
		if prev, dup := names[f.name]; dup {
			issues = append(issues, Issue{SeverityError, f.path, fmt.Sprintf("file name %q is also used by %s", f.name, prev)})
			continue
		}
		names[f.name] = f.path
	}
	switch strings.ToLower(o.StatsFormat) {
	case "", "json", "yaml":
	default:
		issues = append(issues, Issue{SeverityError, "output.stats_format", fmt.Sprintf("unknown stats format %q; want json or yaml", o.StatsFormat)})
	}
	return issues
}

func validateRules(r Rules) []Issue {
	var issues []Issue
	if r.APNPattern != "" {
		if _, err := regexp.Compile(r.APNPattern); err != nil {
			issues = append(issues, Issue{SeverityError, "rules.apn_pattern", fmt.Sprintf("invalid pattern: %v", err)})
		}
	}
	issues = append(issues, validateEnum("rules.statuses", r.Statuses)...)
	issues = append(issues, validateEnum("rules.event_types", r.EventTypes)...)
	issues = append(issues, validateEnum("rules.sources", r.Sources)...)

	if len(r.TimestampLayouts) == 0 {
		issues = append(issues, Issue{SeverityWarning, "rules.timestamp_layouts", "no layouts configured; built-in layouts are used"})
	}
	if r.TopN < 0 {
		issues = append(issues, Issue{SeverityWarning, "rules.top_n", "negative top_n lists every postponed property"})
	}
	return issues
}

// validateEnum requires a non-empty set whose members stay distinct after
// case folding, since matching is case-insensitive.
func validateEnum(path string, values []string) []Issue {
	if len(values) == 0 {
		return []Issue{{SeverityError, path, "allowed value set must not be empty"}}
	}
	var issues []Issue
	fold := cases.Fold()
	seen := make(map[string]int, len(values))
	for i, v := range values {
		p := fmt.Sprintf("%s[%d]", path, i)
		if strings.TrimSpace(v) == "" {
			issues = append(issues, Issue{SeverityError, p, "allowed value must not be blank"})
			continue
		}
		k := fold.String(strings.TrimSpace(v))
		if j, dup := seen[k]; dup {
			issues = append(issues, Issue{SeverityWarning, p, fmt.Sprintf("%q duplicates %s[%d] ignoring case; the first spelling is canonical", v, path, j)})
			continue
		}
		seen[k] = i
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	if s.Kind == "" || s.Kind == "none" {
		return nil
	}
	if _, ok := knownStorageKinds[s.Kind]; !ok {
		issues = append(issues, Issue{SeverityError, "storage.kind", fmt.Sprintf("unknown storage kind %q", s.Kind)})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.dsn", "storage requires a non-empty dsn"})
	}
	if s.BatchSize < 0 {
		issues = append(issues, Issue{SeverityError, "storage.batch_size", "batch_size must be >= 0"})
	}
	if !s.AutoCreate {
		issues = append(issues, Issue{SeverityWarning, "storage.auto_create", "auto_create is off; the output tables must already exist"})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
		return nil
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			return []Issue{{SeverityError, "metrics.pushgateway_url", "pushgateway backend requires a URL"}}
		}
		return nil
	default:
		return []Issue{{SeverityWarning, "metrics.backend", fmt.Sprintf("unknown metrics backend %q; metrics disabled", m.Backend)}}
	}
}

func validateLog(l Log) []Issue {
	var issues []Issue
	if _, err := logging.ParseLevel(l.Level); err != nil {
		issues = append(issues, Issue{SeverityError, "log.level", err.Error()})
	}
	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		issues = append(issues, Issue{SeverityError, "log.format", fmt.Sprintf("unknown log format %q; want text or json", l.Format)})
	}
	return issues
}
