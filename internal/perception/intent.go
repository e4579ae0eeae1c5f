// Package perception classifies a free-text question into one reporting
// intent.
//
// Routing is an ordered rule list evaluated against the accent-folded,
// lower-cased query; the first matching rule wins. The list is exposed so
// callers can inspect or replace it.
package perception

import (
	"errors"
	"fmt"
)

// Intent is the kind of report a query asks for.
type Intent int

const (
	Unrecognized Intent = iota
	SpecificRecordLookup
	ResponsibleBreakdown
	DelayedOrCritical
	TrendsAndPatterns
	PredictiveForecast
	BiddingStatus
	CompletedSummary
	GeneralSummary
)

// ErrUnrecognized is carried on decisions no rule matched.
var ErrUnrecognized = errors.New("query not recognized")

var intentNames = map[Intent]string{
	Unrecognized:         "unrecognized",
	SpecificRecordLookup: "specific_record_lookup",
	ResponsibleBreakdown: "responsible_breakdown",
	DelayedOrCritical:    "delayed_or_critical",
	TrendsAndPatterns:    "trends_and_patterns",
	PredictiveForecast:   "predictive_forecast",
	BiddingStatus:        "bidding_status",
	CompletedSummary:     "completed_summary",
	GeneralSummary:       "general_summary",
}

// Intents lists every intent in declaration order.
var Intents = []Intent{
	Unrecognized,
	SpecificRecordLookup,
	ResponsibleBreakdown,
	DelayedOrCritical,
	TrendsAndPatterns,
	PredictiveForecast,
	BiddingStatus,
	CompletedSummary,
	GeneralSummary,
}

// String returns the stable snake_case name.
func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

// ParseIntent resolves a snake_case name produced by String.
func ParseIntent(name string) (Intent, error) {
	for i, n := range intentNames {
		if n == name {
			return i, nil
		}
	}
	return Unrecognized, fmt.Errorf("unknown intent %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Intent) UnmarshalText(b []byte) error {
	parsed, err := ParseIntent(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
