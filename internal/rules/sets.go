package rules

import (
	"fmt"

	"github.com/bmetcalf21/data-integrity-validator/internal/transformer/builtin"
)

// Table names used in rejected rows and outputs.
const (
	TableProperties = "properties"
	TableEvents     = "events"
)

// PropertyColumns are the columns a properties table must carry.
var PropertyColumns = []string{ColAPN, ColCounty, ColStatus, ColEstimatedValue, ColAddress, ColLastUpdated}

// EventColumns are the columns an events table must carry.
var EventColumns = []string{ColAPN, ColEventType, ColEventDate, ColSource, ColUpdatedAt, ColNotes}

// PropertyRules builds the properties engine: apn format, last_updated,
// status, estimated_value.
func PropertyRules(cfg Config) (*Engine, error) {
	m := cfg.Messages.withDefaults()
	apn, err := Pattern(patternOrDefault(cfg.APNPattern))
	if err != nil {
		return nil, fmt.Errorf("rules: apn pattern: %w", err)
	}
	return NewEngine(TableProperties, PropertyColumns,
		Rule{Field: ColAPN, Check: apn, Message: m.APNFormat},
		Rule{Field: ColLastUpdated, Check: Timestamp(layoutsOrDefault(cfg.TimestampLayouts)), Message: m.LastUpdated},
		Rule{Field: ColStatus, Check: Enum(builtin.NewLookup(cfg.Statuses...)), Message: m.Status},
		Rule{Field: ColEstimatedValue, Check: PositiveNumber(m.ValueNotNumeric, m.ValueNotPositive), Message: m.ValueNotNumeric},
	)
}

// EventRules builds the events engine: apn format, foreign key, event_date,
// updated_at, event_type, source. refs holds the cleaned property APNs.
func EventRules(cfg Config, refs *ReferentialChecker) (*Engine, error) {
	m := cfg.Messages.withDefaults()
	apn, err := Pattern(patternOrDefault(cfg.APNPattern))
	if err != nil {
		return nil, fmt.Errorf("rules: apn pattern: %w", err)
	}
	ts := Timestamp(layoutsOrDefault(cfg.TimestampLayouts))
	return NewEngine(TableEvents, EventColumns,
		Rule{Field: ColAPN, Check: apn, Message: m.APNFormat},
		Rule{Field: ColAPN, Check: refs, Message: m.ForeignKey},
		Rule{Field: ColEventDate, Check: ts, Message: m.EventDate},
		Rule{Field: ColUpdatedAt, Check: ts, Message: m.UpdatedAt},
		Rule{Field: ColEventType, Check: Enum(builtin.NewLookup(cfg.EventTypes...)), Message: m.EventType},
		Rule{Field: ColSource, Check: Enum(builtin.NewLookup(cfg.Sources...)), Message: m.Source},
	)
}

func patternOrDefault(p string) string {
	if p == "" {
		return DefaultAPNPattern
	}
	return p
}

func layoutsOrDefault(ls []string) []string {
	if len(ls) == 0 {
		return DefaultLayouts
	}
	return ls
}
