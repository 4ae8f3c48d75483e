package rules

import "time"

// Column names shared by the rule sets, the deduplicator and the stats.
const (
	ColAPN            = "apn"
	ColCounty         = "county"
	ColStatus         = "status"
	ColEstimatedValue = "estimated_value"
	ColAddress        = "address"
	ColLastUpdated    = "last_updated"

	ColEventType = "event_type"
	ColEventDate = "event_date"
	ColSource    = "source"
	ColUpdatedAt = "updated_at"
	ColNotes     = "notes"
)

// Canonical enumerations.
var (
	DefaultStatuses   = []string{"Active", "Pre-foreclosure", "Sold"}
	DefaultEventTypes = []string{"Scheduled", "Postponed", "Cancelled", "Sold"}
	DefaultSources    = []string{"attorney_update", "trustee_site", "aggregator"}
)

// DefaultAPNPattern is the Assessor's Parcel Number format.
const DefaultAPNPattern = `\d{3}-\d{3}-\d{2}`

// Messages holds the failure text templates. A template may reference
// {field} and {value}.
type Messages struct {
	APNFormat        string
	LastUpdated      string
	Status           string
	ValueNotNumeric  string
	ValueNotPositive string
	ForeignKey       string
	EventDate        string
	UpdatedAt        string
	EventType        string
	Source           string
}

// DefaultMessages returns the stock failure texts.
func DefaultMessages() Messages {
	return Messages{
		APNFormat:        "Invalid APN format",
		LastUpdated:      "Invalid last_updated date",
		Status:           "Invalid status value",
		ValueNotNumeric:  "Invalid estimated_value (not numeric)",
		ValueNotPositive: "Invalid estimated_value (must be > 0)",
		ForeignKey:       "APN not found in properties (FK violation)",
		EventDate:        "Invalid event_date",
		UpdatedAt:        "Invalid updated_at",
		EventType:        "Invalid event_type",
		Source:           "Invalid source",
	}
}

// withDefaults fills blank templates from DefaultMessages.
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return Messages{
		APNFormat:        pick(m.APNFormat, d.APNFormat),
		LastUpdated:      pick(m.LastUpdated, d.LastUpdated),
		Status:           pick(m.Status, d.Status),
		ValueNotNumeric:  pick(m.ValueNotNumeric, d.ValueNotNumeric),
		ValueNotPositive: pick(m.ValueNotPositive, d.ValueNotPositive),
		ForeignKey:       pick(m.ForeignKey, d.ForeignKey),
		EventDate:        pick(m.EventDate, d.EventDate),
		UpdatedAt:        pick(m.UpdatedAt, d.UpdatedAt),
		EventType:        pick(m.EventType, d.EventType),
		Source:           pick(m.Source, d.Source),
	}
}

// Config is the immutable rule configuration handed to the rule sets at
// construction. Slices are copied on use; callers may reuse theirs.
type Config struct {
	APNPattern       string
	Statuses         []string
	EventTypes       []string
	Sources          []string
	TimestampLayouts []string
	Messages         Messages
}

// DefaultConfig returns the stock rule configuration.
func DefaultConfig() Config {
	return Config{
		APNPattern:       DefaultAPNPattern,
		Statuses:         append([]string(nil), DefaultStatuses...),
		EventTypes:       append([]string(nil), DefaultEventTypes...),
		Sources:          append([]string(nil), DefaultSources...),
		TimestampLayouts: append([]string(nil), DefaultLayouts...),
		Messages:         DefaultMessages(),
	}
}

// DefaultLayouts are tried in order before the free-form fallback parser.
var DefaultLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"20060102",
}
