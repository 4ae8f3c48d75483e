// Package report renders a run's statistics: a console summary for people
// and a stats document (JSON or YAML) for machines.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/bmetcalf21/data-integrity-validator/internal/rules"
	"github.com/bmetcalf21/data-integrity-validator/internal/stats"
)

// Placeholders for values the statistics leave undefined.
const (
	NotApplicable = "n/a"
	NoData        = "no data"
)

// Summary writes the console summary: per-table counts and pass rates, mean
// reporting lag per source and the most postponed properties.
func Summary(w io.Writer, rep stats.Report) error {
	counts := newTable(w, "Data quality")
	counts.AppendHeader(table.Row{"Table", "Input", "Cleaned", "Rejected", "Duplicates removed", "Pass rate"})
	for _, r := range []struct {
		name string
		c    stats.TableCounts
	}{
		{rules.TableProperties, rep.Properties},
		{rules.TableEvents, rep.Events},
	} {
		counts.AppendRow(table.Row{
			r.name,
			humanize.Comma(int64(r.c.Input)),
			humanize.Comma(int64(r.c.Cleaned)),
			humanize.Comma(int64(r.c.Rejected)),
			humanize.Comma(int64(r.c.Duplicates)),
			PassRate(r.c),
		})
	}
	counts.Render()

	lag := newTable(w, "Average lag (updated_at - event_date)")
	lag.AppendHeader(table.Row{"Source", "Events", "Hours"})
	for _, l := range rep.Lag {
		lag.AppendRow(table.Row{l.Source, humanize.Comma(int64(l.Events)), LagHours(l)})
	}
	if len(rep.Lag) == 0 {
		lag.AppendRow(table.Row{NoData, "", ""})
	}
	lag.Render()

	top := newTable(w, "Most postponed properties")
	top.AppendHeader(table.Row{"#", "APN", "Postponements"})
	for i, p := range rep.TopPostponed {
		top.AppendRow(table.Row{i + 1, p.APN, humanize.Comma(int64(p.Count))})
	}
	if len(rep.TopPostponed) == 0 {
		top.AppendRow(table.Row{"", NoData, ""})
	}
	top.Render()

	_, err := fmt.Fprintln(w)
	return err
}

// PassRate formats c's pass rate with one decimal, or n/a for empty input.
func PassRate(c stats.TableCounts) string {
	pct, ok := c.PassRate()
	if !ok {
		return NotApplicable
	}
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

// LagHours formats the rounded mean lag, or "no data".
func LagHours(l stats.Lag) string {
	if !l.HasData {
		return NoData
	}
	return strconv.FormatFloat(l.Rounded(), 'f', 2, 64)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}
