// Package stats computes the run summary from the cleaned tables: per-table
// counts and pass rates, average reporting lag per source, and the
// properties with the most postponements.
package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/bmetcalf21/data-integrity-validator/internal/records"
	"github.com/bmetcalf21/data-integrity-validator/internal/rules"
)

// DefaultTopN is the postponement list length when Options.TopN is zero.
const DefaultTopN = 10

// DefaultPostponed is the event type counted by the postponement list.
const DefaultPostponed = "Postponed"

// TableCounts tracks how one table's rows were routed.
type TableCounts struct {
	Input      int `json:"input" yaml:"input"`
	Cleaned    int `json:"cleaned" yaml:"cleaned"`
	Rejected   int `json:"rejected" yaml:"rejected"`
	Duplicates int `json:"duplicates_removed" yaml:"duplicates_removed"`
}

// PassRate returns Cleaned/Input as a percentage. ok is false for an empty
// input, where the rate is undefined.
func (c TableCounts) PassRate() (pct float64, ok bool) {
	if c.Input == 0 {
		return 0, false
	}
	return float64(c.Cleaned) / float64(c.Input) * 100, true
}

// Lag is the mean updated_at - event_date gap for one source.
type Lag struct {
	Source       string  `json:"source" yaml:"source"`
	Events       int     `json:"events" yaml:"events"`
	AverageHours float64 `json:"average_hours" yaml:"average_hours"`
	HasData      bool    `json:"has_data" yaml:"has_data"`
}

// Rounded returns AverageHours rounded to two decimals.
func (l Lag) Rounded() float64 { return math.Round(l.AverageHours*100) / 100 }

// Postponement counts postponed events for one property.
type Postponement struct {
	APN   string `json:"apn" yaml:"apn"`
	Count int    `json:"count" yaml:"count"`
}

// Report is the computed summary.
type Report struct {
	Properties   TableCounts    `json:"properties" yaml:"properties"`
	Events       TableCounts    `json:"events" yaml:"events"`
	Lag          []Lag          `json:"lag_by_source" yaml:"lag_by_source"`
	TopPostponed []Postponement `json:"top_postponed" yaml:"top_postponed"`
}

// PassRate returns the pass rate of the named table ("properties" or
// "events").
func (r Report) PassRate(table string) (float64, bool) {
	switch table {
	case rules.TableProperties:
		return r.Properties.PassRate()
	case rules.TableEvents:
		return r.Events.PassRate()
	}
	return 0, false
}

// Input carries the counts gathered by the pipeline and the cleaned events.
type Input struct {
	Properties    TableCounts
	Events        TableCounts
	CleanedEvents records.Table
}

// Options tunes Compute.
type Options struct {
	// Sources are always listed in the lag section, with HasData=false when
	// no cleaned event carries them.
	Sources []string

	// TopN bounds the postponement list. Zero means DefaultTopN; negative
	// means unbounded.
	TopN int

	// PostponedType is the event_type counted. Empty means DefaultPostponed.
	PostponedType string

	// Layouts parse event_date and updated_at.
	Layouts []string
}

// Compute builds the report. It never modifies in.
func Compute(in Input, opt Options) Report {
	return Report{
		Properties:   in.Properties,
		Events:       in.Events,
		Lag:          lagBySource(in.CleanedEvents, opt),
		TopPostponed: topPostponed(in.CleanedEvents, opt),
	}
}

func lagBySource(events records.Table, opt Options) []Lag {
	layouts := opt.Layouts
	if len(layouts) == 0 {
		layouts = rules.DefaultLayouts
	}
	type acc struct {
		n     int
		hours float64
	}
	by := make(map[string]*acc, len(opt.Sources))
	for _, s := range opt.Sources {
		by[s] = &acc{}
	}
	for _, r := range events.Rows {
		at, ok1 := rules.ParseTimestamp(r[rules.ColEventDate], layouts)
		up, ok2 := rules.ParseTimestamp(r[rules.ColUpdatedAt], layouts)
		if !ok1 || !ok2 {
			continue
		}
		src := r[rules.ColSource]
		a, ok := by[src]
		if !ok {
			a = &acc{}
			by[src] = a
		}
		a.n++
		a.hours += up.Sub(at).Hours()
	}

	out := make([]Lag, 0, len(by))
	for src, a := range by {
		l := Lag{Source: src, Events: a.n}
		if a.n > 0 {
			l.HasData = true
			l.AverageHours = a.hours / float64(a.n)
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

func topPostponed(events records.Table, opt Options) []Postponement {
	want := opt.PostponedType
	if want == "" {
		want = DefaultPostponed
	}
	counts := make(map[string]int)
	for _, r := range events.Rows {
		if strings.EqualFold(r[rules.ColEventType], want) {
			counts[r[rules.ColAPN]]++
		}
	}
	out := make([]Postponement, 0, len(counts))
	for apn, n := range counts {
		out = append(out, Postponement{APN: apn, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].APN < out[j].APN
	})

	n := opt.TopN
	if n == 0 {
		n = DefaultTopN
	}
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
