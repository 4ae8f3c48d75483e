package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/bmetcalf21/data-integrity-validator/internal/rules"
	"github.com/bmetcalf21/data-integrity-validator/internal/stats"
)

// Stats document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Document is the machine-readable stats file.
type Document struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	Job         string    `json:"job" yaml:"job"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// PassRates holds defined rates only, in percent.
	PassRates map[string]float64 `json:"pass_rates" yaml:"pass_rates"`

	stats.Report `yaml:",inline"`
}

// NewDocument wraps rep with run metadata. runID may be empty, in which case
// a random one is generated.
func NewDocument(runID, job string, rep stats.Report, now time.Time) Document {
	if runID == "" {
		runID = uuid.NewString()
	}
	rates := make(map[string]float64, 2)
	for _, name := range []string{rules.TableProperties, rules.TableEvents} {
		if pct, ok := rep.PassRate(name); ok {
			rates[name] = pct
		}
	}
	return Document{
		RunID:       runID,
		Job:         job,
		GeneratedAt: now.UTC(),
		PassRates:   rates,
		Report:      rep,
	}
}

// WriteStats encodes doc in format ("json", "yaml" or "yml").
func WriteStats(w io.Writer, format string, doc Document) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode stats json: %w", err)
		}
		return nil
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode stats yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported stats format %q", format)
	}
}
