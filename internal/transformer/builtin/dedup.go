// Package builtin contains the reusable row transforms used by the validator.
//
// DeDup is the policy-driven de-duplication transform. It collapses rows that
// share a business key and picks one winner per key:
//
//   - "keep-first"   : keep the earliest occurrence in the batch
//   - "keep-last"    : keep the latest occurrence in the batch (default)
//   - "most-complete": keep the row with the most non-empty fields;
//     ties break by "keep-last"
//   - "most-recent"  : keep the row with the greatest RecencyField value;
//     ties and unparseable values break by "keep-first"
//
// This runs in-memory on a single batch of rows. Run it after Normalize and
// after validation so that keys compare canonical values.
//
// Keys: a row's key is the xxh3-128 hash of its key fields joined with a unit
// separator. Rows missing a key field pass through untouched.
package builtin

import (
	"sort"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/bmetcalf21/data-integrity-validator/internal/records"
)

// Policy names accepted by DeDup.
const (
	PolicyKeepFirst    = "keep-first"
	PolicyKeepLast     = "keep-last"
	PolicyMostComplete = "most-complete"
	PolicyMostRecent   = "most-recent"
)

// RecencyFunc parses a recency cell. ok=false marks the value as missing.
type RecencyFunc func(s string) (t time.Time, ok bool)

// DeDup implements a configurable, in-memory de-duplication policy.
type DeDup struct {
	// Keys are the field names that form the business key, e.g. ["apn"].
	Keys []string

	// Policy selects the winner among duplicates (default "keep-last").
	Policy string

	// PreferFields optionally lists fields that weigh more heavily in
	// "most-complete" selection.
	PreferFields []string

	// RecencyField names the timestamp column used by "most-recent".
	RecencyField string

	// Recency parses RecencyField. Required for "most-recent".
	Recency RecencyFunc
}

// Apply executes the de-duplication and returns only the winning rows.
func (d DeDup) Apply(in []records.Record) []records.Record {
	out, _ := d.Run(in)
	return out
}

// Run executes the de-duplication and also reports how many rows were
// discarded. Winners are emitted in ascending order of their input position,
// followed by pass-through rows in input order.
func (d DeDup) Run(in []records.Record) ([]records.Record, int) {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in, 0
	}
	keep, removed := d.Select(in)
	out := make([]records.Record, 0, len(keep))
	for _, idx := range keep {
		out = append(out, in[idx])
	}
	return out, removed
}

// Select is Run reporting input positions instead of rows.
func (d DeDup) Select(in []records.Record) (keep []int, removed int) {
	if len(d.Keys) == 0 {
		keep = make([]int, len(in))
		for i := range keep {
			keep[i] = i
		}
		return keep, 0
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = PolicyKeepLast
	}
	if policy == PolicyMostRecent && d.Recency == nil {
		// Without a parser no value is valid; every group keeps its first row.
		policy = PolicyKeepFirst
	}

	type slot struct {
		index int
		score int       // most-complete
		at    time.Time // most-recent
		valid bool      // most-recent: at parsed
	}

	winners := make(map[xxh3.Uint128]slot, len(in))
	prefer := make(map[string]struct{}, len(d.PreferFields))
	for _, f := range d.PreferFields {
		prefer[f] = struct{}{}
	}

	scoreOf := func(r records.Record) int {
		score, bonus := 0, 0
		for k, v := range r {
			if v == "" {
				continue
			}
			score++
			if _, ok := prefer[k]; ok {
				bonus++
			}
		}
		return score*10 + bonus
	}

	keyed := 0
	passthrough := make([]int, 0)
	for i, r := range in {
		key, ok := d.keyOf(r)
		if !ok {
			passthrough = append(passthrough, i)
			continue
		}
		keyed++
		prev, exists := winners[key]
		switch policy {
		case PolicyKeepFirst:
			if !exists {
				winners[key] = slot{index: i}
			}
		case PolicyMostComplete:
			s := slot{index: i, score: scoreOf(r)}
			if !exists || s.score >= prev.score {
				winners[key] = s
			}
		case PolicyMostRecent:
			at, valid := d.Recency(r[d.RecencyField])
			s := slot{index: i, at: at, valid: valid}
			switch {
			case !exists:
				winners[key] = s
			case s.valid && (!prev.valid || s.at.After(prev.at)):
				winners[key] = s
			}
		default: // keep-last
			winners[key] = slot{index: i}
		}
	}

	indexes := make([]int, 0, len(winners))
	for _, s := range winners {
		indexes = append(indexes, s.index)
	}
	sort.Ints(indexes)

	return append(indexes, passthrough...), keyed - len(winners)
}

// keyOf hashes the configured key fields. It reports false if any key field
// is absent from the row.
func (d DeDup) keyOf(r records.Record) (xxh3.Uint128, bool) {
	var b strings.Builder
	for i, k := range d.Keys {
		v, ok := r[k]
		if !ok {
			return xxh3.Uint128{}, false
		}
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(v)
	}
	return xxh3.HashString128(b.String()), true
}
