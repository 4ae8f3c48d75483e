package builtin

import (
	"reflect"
	"testing"
	"time"

	"github.com/bmetcalf21/data-integrity-validator/internal/records"
)

func mk(apn, updated string, fields map[string]string) records.Record {
	r := records.Record{
		"apn":          apn,
		"last_updated": updated,
	}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

func parseISO(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

func TestDeDupKeepFirst(t *testing.T) {
	in := []records.Record{
		mk("111-111-11", "2024-01-01", map[string]string{"county": "A"}),
		mk("111-111-11", "2024-01-01", map[string]string{"county": "B"}),
		mk("222-222-22", "2024-01-01", map[string]string{"county": "C"}),
	}
	d := DeDup{Keys: []string{"apn"}, Policy: PolicyKeepFirst}
	got, removed := d.Run(in)
	want := []records.Record{in[0], in[2]}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keep-first: got %#v want %#v", got, want)
	}
	if removed != 1 {
		t.Fatalf("removed = %d; want 1", removed)
	}
}

func TestDeDupKeepLast(t *testing.T) {
	in := []records.Record{
		mk("111-111-11", "2024-01-01", map[string]string{"county": "A"}),
		mk("111-111-11", "2024-01-01", map[string]string{"county": "B"}),
		mk("222-222-22", "2024-01-01", map[string]string{"county": "C"}),
	}
	got := DeDup{Keys: []string{"apn"}}.Apply(in)
	want := []records.Record{in[1], in[2]}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keep-last: got %#v want %#v", got, want)
	}
}

func TestDeDupMostComplete(t *testing.T) {
	in := []records.Record{
		mk("111-111-11", "2024-01-01", map[string]string{"county": ""}),
		mk("111-111-11", "2024-01-01", map[string]string{"county": "B", "address": "1 Main St"}),
		mk("222-222-22", "2024-01-01", map[string]string{"county": "C"}),
	}
	got := DeDup{Keys: []string{"apn"}, Policy: PolicyMostComplete}.Apply(in)
	want := []records.Record{in[1], in[2]}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("most-complete: got %#v want %#v", got, want)
	}
}

func TestDeDupMostRecent(t *testing.T) {
	tests := []struct {
		name        string
		in          []records.Record
		wantCounty  []string
		wantRemoved int
	}{
		{
			name: "later timestamp wins regardless of position",
			in: []records.Record{
				mk("111-111-11", "2024-03-01", map[string]string{"county": "newer"}),
				mk("111-111-11", "2024-01-01", map[string]string{"county": "older"}),
			},
			wantCounty:  []string{"newer"},
			wantRemoved: 1,
		},
		{
			name: "identical recency keeps first encountered",
			in: []records.Record{
				mk("111-111-11", "2024-01-01", map[string]string{"county": "first"}),
				mk("111-111-11", "2024-01-01", map[string]string{"county": "second"}),
			},
			wantCounty:  []string{"first"},
			wantRemoved: 1,
		},
		{
			name: "invalid recency never beats valid",
			in: []records.Record{
				mk("111-111-11", "garbage", map[string]string{"county": "invalid"}),
				mk("111-111-11", "2020-01-01", map[string]string{"county": "valid"}),
				mk("111-111-11", "", map[string]string{"county": "empty"}),
			},
			wantCounty:  []string{"valid"},
			wantRemoved: 2,
		},
		{
			name: "all invalid keeps first",
			in: []records.Record{
				mk("111-111-11", "x", map[string]string{"county": "first"}),
				mk("111-111-11", "y", map[string]string{"county": "second"}),
			},
			wantCounty:  []string{"first"},
			wantRemoved: 1,
		},
		{
			name: "distinct keys keep input order",
			in: []records.Record{
				mk("222-222-22", "2024-01-01", map[string]string{"county": "b"}),
				mk("111-111-11", "2024-01-01", map[string]string{"county": "a"}),
			},
			wantCounty:  []string{"b", "a"},
			wantRemoved: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DeDup{
				Keys:         []string{"apn"},
				Policy:       PolicyMostRecent,
				RecencyField: "last_updated",
				Recency:      parseISO,
			}
			got, removed := d.Run(tt.in)
			if removed != tt.wantRemoved {
				t.Fatalf("removed = %d; want %d", removed, tt.wantRemoved)
			}
			var counties []string
			for _, r := range got {
				counties = append(counties, r["county"])
			}
			if !reflect.DeepEqual(counties, tt.wantCounty) {
				t.Fatalf("winners = %q; want %q", counties, tt.wantCounty)
			}
		})
	}
}

func TestDeDupCompositeKey(t *testing.T) {
	ev := func(typ, date, src, upd string) records.Record {
		return records.Record{"apn": "111-111-11", "event_type": typ, "event_date": date, "source": src, "updated_at": upd}
	}
	in := []records.Record{
		ev("Scheduled", "2024-01-01", "aggregator", "2024-01-02"),
		ev("Scheduled", "2024-01-01", "aggregator", "2024-01-05"),
		ev("Scheduled", "2024-01-01", "trustee_site", "2024-01-02"),
		ev("Postponed", "2024-01-01", "aggregator", "2024-01-02"),
	}
	d := DeDup{
		Keys:         []string{"apn", "event_type", "event_date", "source"},
		Policy:       PolicyMostRecent,
		RecencyField: "updated_at",
		Recency:      parseISO,
	}
	got, removed := d.Run(in)
	if removed != 1 || len(got) != 3 {
		t.Fatalf("got %d rows, removed %d; want 3 and 1", len(got), removed)
	}
	if got[0]["updated_at"] != "2024-01-05" {
		t.Fatalf("winner = %#v; want the 2024-01-05 update", got[0])
	}
}

func TestDeDupKeySeparatorAvoidsCollisions(t *testing.T) {
	in := []records.Record{
		{"a": "ab", "b": "c"},
		{"a": "a", "b": "bc"},
	}
	got, removed := DeDup{Keys: []string{"a", "b"}, Policy: PolicyKeepFirst}.Run(in)
	if removed != 0 || len(got) != 2 {
		t.Fatalf("distinct composite keys collapsed: %#v", got)
	}
}

func TestDeDupMissingKeyPassesThrough(t *testing.T) {
	in := []records.Record{
		{"other": "x"},
		{"apn": "111-111-11"},
		{"apn": "111-111-11"},
	}
	got, removed := DeDup{Keys: []string{"apn"}, Policy: PolicyKeepFirst}.Run(in)
	want := []records.Record{in[1], in[0]}
	if !reflect.DeepEqual(got, want) || removed != 1 {
		t.Fatalf("got %#v removed %d; want %#v removed 1", got, removed, want)
	}
}

func TestDeDupMostRecentWithoutParserKeepsFirst(t *testing.T) {
	in := []records.Record{
		mk("111-111-11", "2024-01-01", map[string]string{"county": "first"}),
		mk("111-111-11", "2024-06-01", map[string]string{"county": "second"}),
	}
	got := DeDup{Keys: []string{"apn"}, Policy: PolicyMostRecent, RecencyField: "last_updated"}.Apply(in)
	if len(got) != 1 || got[0]["county"] != "first" {
		t.Fatalf("got %#v", got)
	}
}

func TestDeDupEmpty(t *testing.T) {
	got, removed := DeDup{Keys: []string{"apn"}}.Run(nil)
	if got != nil || removed != 0 {
		t.Fatalf("got %#v removed %d", got, removed)
	}
}

func TestDeDupSelectReportsPositions(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		{"apn": "1", "v": "a"},
		{"v": "no key"},
		{"apn": "2", "v": "b"},
		{"apn": "1", "v": "c"},
	}
	keep, removed := DeDup{Keys: []string{"apn"}, Policy: PolicyKeepLast}.Select(in)
	if want := []int{2, 3, 1}; !reflect.DeepEqual(keep, want) {
		t.Fatalf("keep = %v; want %v", keep, want)
	}
	if removed != 1 {
		t.Fatalf("removed = %d; want 1", removed)
	}

	keep, removed = DeDup{}.Select(in)
	if want := []int{0, 1, 2, 3}; !reflect.DeepEqual(keep, want) || removed != 0 {
		t.Fatalf("no keys: keep = %v removed = %d", keep, removed)
	}
}
