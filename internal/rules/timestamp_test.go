package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	utc := func(y int, mo time.Month, d, h, mi, s int) time.Time {
		return time.Date(y, mo, d, h, mi, s, 0, time.UTC)
	}
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-15", utc(2024, 1, 15, 0, 0, 0), true},
		{"2024-01-15 10:30:00", utc(2024, 1, 15, 10, 30, 0), true},
		{"2024-01-15T10:30:00", utc(2024, 1, 15, 10, 30, 0), true},
		{"2024-01-15T10:30:00Z", utc(2024, 1, 15, 10, 30, 0), true},
		{"2024-01-15T10:30:00-05:00", utc(2024, 1, 15, 15, 30, 0), true},
		{"01/15/2024", utc(2024, 1, 15, 0, 0, 0), true},
		{"  2024-01-15  ", utc(2024, 1, 15, 0, 0, 0), true},
		{"January 15, 2024", utc(2024, 1, 15, 0, 0, 0), true},
		{"20240115", utc(2024, 1, 15, 0, 0, 0), true},
		{"invalid-date", time.Time{}, false},
		{"2024-13-45", time.Time{}, false},
		{"12345", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in, DefaultLayouts)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, got.Equal(tt.want), "got %v; want %v", got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2024-01-15 10:30:00", FormatTimestamp(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-15 10:30:00.5", FormatTimestamp(time.Date(2024, 1, 15, 10, 30, 0, 500_000_000, time.UTC)))

	est := time.FixedZone("", -5*3600)
	assert.Equal(t, "2024-01-15 15:30:00", FormatTimestamp(time.Date(2024, 1, 15, 10, 30, 0, 0, est)))
}

func TestTimestampCheckSameInstantSameValue(t *testing.T) {
	t.Parallel()

	c := Timestamp(DefaultLayouts)
	a := c.Check("2024-01-01T05:00:00Z")
	b := c.Check("2024-01-01T00:00:00-05:00")
	require.True(t, a.OK)
	require.True(t, b.OK)
	assert.Equal(t, "2024-01-01 05:00:00", a.Value)
	assert.Equal(t, a.Value, b.Value)
}

func TestTimestampCheckCanonicalizes(t *testing.T) {
	t.Parallel()

	c := Timestamp(DefaultLayouts)
	v := c.Check("2024-01-15T10:30:00")
	require.True(t, v.OK)
	assert.Equal(t, "2024-01-15 10:30:00", v.Value)

	assert.False(t, c.Check("not a date").OK)
}
