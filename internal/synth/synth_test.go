package synth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmetcalf21/data-integrity-validator/internal/pipeline"
	"github.com/bmetcalf21/data-integrity-validator/internal/rules"
)

var anchor = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	opt := Options{Properties: 50, Events: 120, DirtyRatio: 0.3, Seed: 7, Now: anchor}
	p1, e1 := Generate(opt)
	p2, e2 := Generate(opt)
	assert.Equal(t, p1, p2)
	assert.Equal(t, e1, e2)

	opt.Seed = 8
	p3, _ := Generate(opt)
	assert.NotEqual(t, p1.Rows, p3.Rows)
}

func TestGenerate_ShapeAndCounts(t *testing.T) {
	t.Parallel()

	props, events := Generate(Options{Properties: 40, Events: 100, DirtyRatio: 0.5, Seed: 1, Now: anchor})

	assert.Equal(t, rules.PropertyColumns, props.Columns)
	assert.Equal(t, rules.EventColumns, events.Columns)
	assert.Equal(t, rules.TableProperties, props.Name)
	assert.Equal(t, 44, props.Len())
	assert.Equal(t, 110, events.Len())
	for _, r := range props.Rows {
		assert.Len(t, r, len(rules.PropertyColumns))
	}
}

func TestGenerate_CleanDataPassesValidation(t *testing.T) {
	t.Parallel()

	props, events := Generate(Options{Properties: 100, Events: 300, DirtyRatio: 0, Seed: 3, Now: anchor})
	res, err := pipeline.Run(props, events, pipeline.Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Rejected)
	assert.GreaterOrEqual(t, res.Stats.Properties.Duplicates, 10)
	assert.GreaterOrEqual(t, res.Stats.Events.Duplicates, 30)
	for _, l := range res.Stats.Lag {
		assert.True(t, l.HasData, "source %s should have lag data", l.Source)
		assert.Greater(t, l.AverageHours, 0.0)
	}
}

func TestGenerate_DirtyDataIsRejected(t *testing.T) {
	t.Parallel()

	props, events := Generate(Options{Properties: 200, Events: 600, DirtyRatio: 0.5, Seed: 42, Now: anchor})
	res, err := pipeline.Run(props, events, pipeline.Options{})
	require.NoError(t, err)

	assert.Positive(t, res.Stats.Properties.Rejected)
	assert.Positive(t, res.Stats.Events.Rejected)
	assert.Equal(t, res.Stats.Properties.Input,
		res.Stats.Properties.Cleaned+res.Stats.Properties.Rejected+res.Stats.Properties.Duplicates)
}
