// Package synth generates properties and events tables with a controlled
// share of dirty rows: malformed APNs, unknown enum values, bad dates,
// non-positive values, orphaned events and duplicates. The output exercises
// every rule the validator enforces.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/bmetcalf21/data-integrity-validator/internal/records"
	"github.com/bmetcalf21/data-integrity-validator/internal/rules"
)

const (
	dateTimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
)

// Options controls generation. The same Options always produce the same
// tables.
type Options struct {
	Properties int
	Events     int

	// DirtyRatio is the probability that a row is a candidate for injected
	// problems.
	DirtyRatio float64

	Seed uint64

	// Now anchors every generated timestamp.
	Now time.Time
}

// DefaultOptions returns 200 properties, 600 events and a 15% dirty ratio.
func DefaultOptions() Options {
	return Options{Properties: 200, Events: 600, DirtyRatio: 0.15, Seed: 42, Now: time.Now()}
}

var (
	counties = []string{"Los Angeles", "Orange", "San Diego", "Riverside", "San Bernardino"}
	streets  = []string{"Main St", "Oak Ave", "Elm Dr", "Maple Ct", "Pine Rd", "Cedar Ln", "Birch Way"}
	notes    = []string{"Regular update", "Court filing received", "Trustee notification", "Status change confirmed", ""}

	// Mean reporting lag per source, in hours.
	lagBySource = map[string]float64{
		"attorney_update": 2,
		"trustee_site":    12,
		"aggregator":      24,
	}

	badStatuses   = []string{"ACTIVE", "active  ", "Unknown", "Pending", ""}
	badValues     = []string{"-50000", "0", "-1", ""}
	badEventTypes = []string{"POSTPONED", "postponed  ", "Unknown", "Rescheduled", ""}
	badSources    = []string{"ATTORNEY_UPDATE", "unknown_source", "manual", ""}
	badDates      = []string{"", "invalid-date", "2024-13-45"}
	badUpdated    = []string{"", "invalid"}
)

type generator struct {
	rng *rand.Rand
	opt Options
}

// Generate builds both tables. About a tenth of each table is appended as
// duplicates of earlier rows with a different recency timestamp.
func Generate(opt Options) (props, events records.Table) {
	if opt.Now.IsZero() {
		opt.Now = time.Now()
	}
	g := &generator{rng: rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15)), opt: opt}
	props, apns := g.properties()
	return props, g.events(apns)
}

func (g *generator) dirty() bool { return g.rng.Float64() < g.opt.DirtyRatio }
func (g *generator) chance(p float64) bool { return g.rng.Float64() < p }
func (g *generator) pick(s []string) string { return s[g.rng.IntN(len(s))] }
func (g *generator) between(lo, hi int) int { return lo + g.rng.IntN(hi-lo+1) }

func (g *generator) apn() string {
	return fmt.Sprintf("%d-%d-%d", g.between(100, 999), g.between(100, 999), g.between(10, 99))
}

func (g *generator) malformedAPN() string {
	switch g.rng.IntN(5) {
	case 0:
		return fmt.Sprintf("%d-%d-%d", g.between(10, 99), g.between(100, 999), g.between(10, 99))
	case 1:
		return fmt.Sprintf("%d%d%d", g.between(100, 999), g.between(100, 999), g.between(10, 99))
	case 2:
		return fmt.Sprintf("%d-%d", g.between(100, 999), g.between(10, 99))
	case 3:
		return "INVALID"
	default:
		return ""
	}
}

func (g *generator) daysAgo(days int) time.Time {
	return g.opt.Now.AddDate(0, 0, -g.between(0, days))
}

func (g *generator) property() records.Record {
	county := g.pick(counties)
	return records.Record{
		rules.ColAPN:            g.apn(),
		rules.ColCounty:         county,
		rules.ColStatus:         g.pick(rules.DefaultStatuses),
		rules.ColEstimatedValue: strconv.Itoa(g.between(200000, 2000000)),
		rules.ColAddress:        fmt.Sprintf("%d %s, %s", g.between(100, 9999), g.pick(streets), county),
		rules.ColLastUpdated:    g.daysAgo(365).Format(dateTimeLayout),
	}
}

func (g *generator) properties() (records.Table, []string) {
	t := records.Table{Name: rules.TableProperties, Columns: append([]string(nil), rules.PropertyColumns...)}
	var valid []string

	for i := 0; i < g.opt.Properties; i++ {
		dirty := g.dirty()
		r := g.property()
		if dirty && g.chance(0.3) {
			r[rules.ColAPN] = g.malformedAPN()
		} else {
			valid = append(valid, r[rules.ColAPN])
		}
		if dirty && g.chance(0.2) {
			r[rules.ColStatus] = g.pick(badStatuses)
		}
		if dirty && g.chance(0.3) {
			r[rules.ColEstimatedValue] = g.pick(badValues)
		}
		t.Rows = append(t.Rows, r)
	}

	// Same APN, fresh attributes and last_updated.
	for i := 0; i < g.opt.Properties/10 && len(valid) > 0; i++ {
		r := g.property()
		r[rules.ColAPN] = g.pick(valid)
		t.Rows = append(t.Rows, r)
	}
	return t, valid
}

func (g *generator) events(apns []string) records.Table {
	t := records.Table{Name: rules.TableEvents, Columns: append([]string(nil), rules.EventColumns...)}

	for i := 0; i < g.opt.Events; i++ {
		dirty := g.dirty()

		var apn string
		switch {
		case dirty && g.chance(0.2) && len(apns) > 0:
			apn = g.apn() // orphan
		case dirty && g.chance(0.1):
			apn = g.malformedAPN()
		case len(apns) > 0:
			apn = g.pick(apns)
		default:
			apn = g.apn()
		}

		eventType := g.pick(rules.DefaultEventTypes)
		if dirty && g.chance(0.2) {
			eventType = g.pick(badEventTypes)
		}
		source := g.pick(rules.DefaultSources)
		if dirty && g.chance(0.2) {
			source = g.pick(badSources)
		}

		var (
			eventDate string
			at        time.Time
			validDate bool
		)
		if dirty && g.chance(0.15) {
			eventDate = g.pick(badDates)
		} else {
			at = g.daysAgo(180)
			at = time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
			eventDate = at.Format(dateLayout)
			validDate = true
		}

		var updatedAt string
		switch {
		case dirty && g.chance(0.15):
			updatedAt = g.pick(badUpdated)
		case validDate:
			mean, ok := lagBySource[source]
			if !ok {
				mean = lagBySource["aggregator"]
			}
			lag := math.Max(0.1, g.rng.NormFloat64()*mean*0.5+mean)
			updatedAt = at.Add(time.Duration(lag * float64(time.Hour))).Format(dateTimeLayout)
		default:
			updatedAt = g.opt.Now.Format(dateTimeLayout)
		}

		t.Rows = append(t.Rows, records.Record{
			rules.ColAPN:       apn,
			rules.ColEventType: eventType,
			rules.ColEventDate: eventDate,
			rules.ColSource:    source,
			rules.ColUpdatedAt: updatedAt,
			rules.ColNotes:     g.pick(notes),
		})
	}

	// Same dedup key, later updated_at when it parses.
	n := len(t.Rows)
	for i := 0; i < g.opt.Events/10 && n > 0; i++ {
		dupe := t.Rows[g.rng.IntN(n)].Clone()
		if ts, err := time.Parse(dateTimeLayout, dupe[rules.ColUpdatedAt]); err == nil {
			dupe[rules.ColUpdatedAt] = ts.Add(time.Duration(g.between(1, 48)) * time.Hour).Format(dateTimeLayout)
		}
		t.Rows = append(t.Rows, dupe)
	}
	return t
}
