package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	csvparser "github.com/bmetcalf21/data-integrity-validator/internal/parser/csv"
	"github.com/bmetcalf21/data-integrity-validator/internal/records"
	"github.com/bmetcalf21/data-integrity-validator/internal/rules"
	"github.com/bmetcalf21/data-integrity-validator/internal/testutil"
)

const propertiesCSV = `APN,County,Status,Estimated_Value,Address,Last_Updated
123-456-78,Travis,active,250000,1 Main St,2024-01-01
123-456-78,Travis,SOLD,260000,1 Main St,2024-02-01
12X-456-78,Travis,Active,-5,2 Main St,2024-01-01
222-333-44,Hays,Pre-foreclosure,100000,3 Oak Ave,2024-01-05
555-666-77,Hays,Active,90000,4 Elm St,not-a-date
`

const eventsCSV = `apn,event_type,event_date,source,updated_at,notes
123-456-78,postponed,2024-01-01T00:00:00,attorney_update,2024-01-01T05:00:00,first
123-456-78,Postponed,2024-01-01 00:00:00,ATTORNEY_UPDATE,2024-01-01 07:00:00,newer dup
222-333-44,Postponed,2024-02-01,trustee_site,2024-02-01 02:00:00,
12X-456-78,Scheduled,2024-01-01,aggregator,2024-01-02,bad apn property
555-666-77,Scheduled,2024-01-01,aggregator,2024-01-02,rejected property
999-999-99,Sold,2024-01-01,aggregator,2024-01-02,orphan
`

func parse(t *testing.T, name, in string) records.Table {
	t.Helper()
	tbl, err := csvparser.NewParser(csvparser.Options{}).Parse(strings.NewReader(in), name)
	require.NoError(t, err)
	return tbl
}

func run(t *testing.T, props, events string) *Result {
	t.Helper()
	res, err := Run(parse(t, rules.TableProperties, props), parse(t, rules.TableEvents, events), Options{
		Logger: testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	return res
}

func column(t records.Table, col string) []string {
	out := make([]string, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, r[col])
	}
	return out
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	res := run(t, propertiesCSV, eventsCSV)

	// Properties: the newer 123-456-78 row wins; canonical casing applied.
	assert.Equal(t, rules.PropertyColumns, res.Properties.Columns)
	assert.Equal(t, []string{"123-456-78", "222-333-44"}, column(res.Properties, rules.ColAPN))
	assert.Equal(t, []string{"Sold", "Pre-foreclosure"}, column(res.Properties, rules.ColStatus))
	assert.Equal(t, []string{"2024-02-01 00:00:00", "2024-01-05 00:00:00"}, column(res.Properties, rules.ColLastUpdated))
	assert.Equal(t, []int{3, 5}, res.Properties.Lines)

	// Events: the two 123-456-78 rows share a key once canonicalized.
	assert.Equal(t, []string{"newer dup", ""}, column(res.Events, rules.ColNotes))
	assert.Equal(t, []string{"attorney_update", "trustee_site"}, column(res.Events, rules.ColSource))

	require.Len(t, res.Rejected, 5)
	want := []struct {
		table  string
		line   int
		reason string
	}{
		{rules.TableProperties, 4, "Invalid APN format; Invalid estimated_value (must be > 0)"},
		{rules.TableProperties, 6, "Invalid last_updated date"},
		{rules.TableEvents, 5, "Invalid APN format; APN not found in properties (FK violation)"},
		{rules.TableEvents, 6, "APN not found in properties (FK violation)"},
		{rules.TableEvents, 7, "APN not found in properties (FK violation)"},
	}
	for i, w := range want {
		got := res.Rejected[i]
		assert.Equal(t, w.table, got.Table, "rejected[%d]", i)
		assert.Equal(t, w.line, got.Line, "rejected[%d]", i)
		assert.Equal(t, w.reason, got.Reason(), "rejected[%d]", i)
	}

	s := res.Stats
	assert.Equal(t, 5, s.Properties.Input)
	assert.Equal(t, 2, s.Properties.Cleaned)
	assert.Equal(t, 2, s.Properties.Rejected)
	assert.Equal(t, 1, s.Properties.Duplicates)
	assert.Equal(t, 6, s.Events.Input)
	assert.Equal(t, 2, s.Events.Cleaned)
	assert.Equal(t, 3, s.Events.Rejected)
	assert.Equal(t, 1, s.Events.Duplicates)

	pct, ok := s.PassRate(rules.TableProperties)
	require.True(t, ok)
	assert.InDelta(t, 40.0, pct, 1e-9)

	lag := map[string]float64{}
	noData := map[string]bool{}
	for _, l := range s.Lag {
		lag[l.Source] = l.AverageHours
		noData[l.Source] = !l.HasData
	}
	assert.InDelta(t, 7.0, lag["attorney_update"], 1e-9)
	assert.InDelta(t, 2.0, lag["trustee_site"], 1e-9)
	assert.True(t, noData["aggregator"])

	require.Len(t, s.TopPostponed, 2)
	assert.Equal(t, "123-456-78", s.TopPostponed[0].APN)
	assert.Equal(t, "222-333-44", s.TopPostponed[1].APN)
}

func TestRun_EveryRowIsAccountedFor(t *testing.T) {
	t.Parallel()

	res := run(t, propertiesCSV, eventsCSV)
	for _, c := range []struct {
		name string
		in   int
		got  int
	}{
		{"properties", res.Stats.Properties.Input, res.Stats.Properties.Cleaned + res.Stats.Properties.Rejected + res.Stats.Properties.Duplicates},
		{"events", res.Stats.Events.Input, res.Stats.Events.Cleaned + res.Stats.Events.Rejected + res.Stats.Events.Duplicates},
	} {
		assert.Equal(t, c.in, c.got, c.name)
	}
}

func TestRun_Invariants(t *testing.T) {
	t.Parallel()

	res := run(t, propertiesCSV, eventsCSV)

	apns := map[string]struct{}{}
	for _, r := range res.Properties.Rows {
		_, dup := apns[r[rules.ColAPN]]
		assert.False(t, dup, "duplicate apn %s", r[rules.ColAPN])
		apns[r[rules.ColAPN]] = struct{}{}
	}

	keys := map[string]struct{}{}
	for _, r := range res.Events.Rows {
		k := strings.Join(r.Values(EventKey), "|")
		_, dup := keys[k]
		assert.False(t, dup, "duplicate event key %s", k)
		keys[k] = struct{}{}

		_, known := apns[r[rules.ColAPN]]
		assert.True(t, known, "event apn %s has no cleaned property", r[rules.ColAPN])
	}
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	a := run(t, propertiesCSV, eventsCSV)
	b := run(t, propertiesCSV, eventsCSV)
	assert.Equal(t, a, b)
}

func TestRun_DedupKeepsMaxRecency(t *testing.T) {
	t.Parallel()

	props := `apn,county,status,estimated_value,address,last_updated
111-222-33,A,Active,10,x,2024-03-01
111-222-33,A,Sold,20,x,2024-01-01
111-222-33,A,Sold,30,x,2024-03-01
`
	res := run(t, props, "apn,event_type,event_date,source,updated_at,notes\n")
	require.Equal(t, 1, res.Properties.Len())
	// Equal max recency: the first row wins.
	assert.Equal(t, "10", res.Properties.Rows[0][rules.ColEstimatedValue])
	assert.Equal(t, 2, res.Stats.Properties.Duplicates)
	assert.Equal(t, 0, res.Events.Len())
	_, ok := res.Stats.PassRate(rules.TableEvents)
	assert.False(t, ok)
}

func TestRun_EventDedupComparesInstants(t *testing.T) {
	t.Parallel()

	props := `apn,county,status,estimated_value,address,last_updated
111-222-33,A,Active,10,x,2024-01-01
`
	events := `apn,event_type,event_date,source,updated_at,notes
111-222-33,Postponed,2024-01-01T05:00:00Z,aggregator,2024-01-02T00:00:00Z,a
111-222-33,Postponed,2024-01-01T00:00:00-05:00,aggregator,2024-01-03T00:00:00Z,b
`
	res := run(t, props, events)

	require.Equal(t, 1, res.Events.Len())
	assert.Equal(t, "b", res.Events.Rows[0][rules.ColNotes])
	assert.Equal(t, "2024-01-01 05:00:00", res.Events.Rows[0][rules.ColEventDate])
	assert.Equal(t, 1, res.Stats.Events.Duplicates)
}

func TestRun_MissingColumn(t *testing.T) {
	t.Parallel()

	props := `apn,county,status,address,last_updated
123-456-78,Travis,Active,1 Main St,2024-01-01
`
	_, err := Run(parse(t, rules.TableProperties, props), parse(t, rules.TableEvents, eventsCSV), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, rules.ErrMissingColumns))

	var mce *rules.MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, rules.TableProperties, mce.Table)
	assert.Equal(t, []string{rules.ColEstimatedValue}, mce.Missing)
	assert.Contains(t, err.Error(), StageValidateProperties.String())

	events := "apn,event_type,event_date,source,notes\n"
	_, err = Run(parse(t, rules.TableProperties, propertiesCSV), parse(t, rules.TableEvents, events), Options{})
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, rules.TableEvents, mce.Table)
	assert.Equal(t, []string{rules.ColUpdatedAt}, mce.Missing)
}

func TestRun_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	props := parse(t, rules.TableProperties, propertiesCSV)
	events := parse(t, rules.TableEvents, eventsCSV)
	pc, ec := props.Clone(), events.Clone()

	_, err := Run(props, events, Options{})
	require.NoError(t, err)
	assert.Equal(t, pc, props)
	assert.Equal(t, ec, events)
}

func TestRun_CustomRules(t *testing.T) {
	t.Parallel()

	cfg := rules.DefaultConfig()
	cfg.Statuses = []string{"Active"}
	res, err := Run(parse(t, rules.TableProperties, propertiesCSV), parse(t, rules.TableEvents, eventsCSV), Options{Rules: &cfg})
	require.NoError(t, err)

	// The SOLD row is now invalid, so the older Active row survives.
	assert.Equal(t, []string{"123-456-78"}, column(res.Properties, rules.ColAPN))
	assert.Equal(t, "250000", res.Properties.Rows[0][rules.ColEstimatedValue])
}

func TestRejectedTable(t *testing.T) {
	t.Parallel()

	res := run(t, propertiesCSV, eventsCSV)
	tbl := res.RejectedTable()

	assert.Equal(t, []string{
		ColSourceTable, ColViolationReason,
		"apn", "county", "status", "estimated_value", "address", "last_updated",
		"event_type", "event_date", "source", "updated_at", "notes",
	}, tbl.Columns)
	require.Equal(t, 5, tbl.Len())

	first := tbl.Rows[0]
	assert.Equal(t, rules.TableProperties, first[ColSourceTable])
	assert.Equal(t, "12X-456-78", first["apn"])
	assert.Equal(t, "-5", first["estimated_value"])
	assert.Empty(t, first["event_type"])

	last := tbl.Rows[4]
	assert.Equal(t, rules.TableEvents, last[ColSourceTable])
	assert.Equal(t, "orphan", last["notes"])
	assert.Empty(t, last["county"])
	assert.Equal(t, 7, tbl.Line(4))
}

func TestStageString(t *testing.T) {
	t.Parallel()

	var names []string
	for _, s := range Stages() {
		names = append(names, s.String())
	}
	assert.Equal(t, []string{
		"NORMALIZE", "VALIDATE_PROPERTIES", "DEDUP_PROPERTIES",
		"VALIDATE_EVENTS", "DEDUP_EVENTS", "REPORT",
	}, names)
	assert.Equal(t, "Stage(42)", Stage(42).String())
}
