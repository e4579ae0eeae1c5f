// Package health classifies process records by how long they have been open.
//
// A record with an exit timestamp is Completed. An open record is Critical
// past the critical threshold, Delayed past the delayed threshold and OnTrack
// otherwise. Elapsed time is measured in whole days, floored.
package health

import (
	"time"

	"procintel/internal/types"
)

// State is the temporal health of a process record.
type State int

const (
	OnTrack State = iota
	Delayed
	Critical
	Completed
)

// String returns the Portuguese status label used in reports.
func (s State) String() string {
	switch s {
	case OnTrack:
		return "Em andamento"
	case Delayed:
		return "Atrasado"
	case Critical:
		return "Crítico"
	case Completed:
		return "Concluído"
	default:
		return "Desconhecido"
	}
}

// Icon returns the marker shown next to the status label.
func (s State) Icon() string {
	switch s {
	case OnTrack:
		return "🟢"
	case Delayed:
		return "🟠"
	case Critical:
		return "🔴"
	case Completed:
		return "✅"
	default:
		return "⚪"
	}
}

// Thresholds are the day boundaries used by the classifier.
type Thresholds struct {
	Fast     int // completion at or under this is "fast"
	Delayed  int // open for more than this is Delayed
	Critical int // open for more than this is Critical
}

// DefaultThresholds returns the 15/30/45 day boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Fast: 15, Delayed: 30, Critical: 45}
}

const day = 24 * time.Hour

// ElapsedDays returns the whole days between arrival and ref, never negative.
func ElapsedDays(arrival, ref time.Time) int {
	d := ref.Sub(arrival)
	if d <= 0 {
		return 0
	}
	return int(d / day)
}

// Classifier computes elapsed days and health states against a clock.
type Classifier struct {
	clock      func() time.Time
	thresholds Thresholds
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithClock injects the reference clock. Tests pass a fixed instant.
func WithClock(clock func() time.Time) Option {
	return func(c *Classifier) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithThresholds overrides the default day boundaries.
func WithThresholds(t Thresholds) Option {
	return func(c *Classifier) {
		c.thresholds = t
	}
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// New creates a classifier using wall-clock time and default thresholds
// unless overridden.
func New(opts ...Option) *Classifier {
	c := &Classifier{clock: time.Now, thresholds: DefaultThresholds()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the classifier's reference time.
func (c *Classifier) Now() time.Time {
	return c.clock()
}

// Thresholds returns the configured boundaries.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Elapsed returns days from arrival to exit, or to now for open records.
func (c *Classifier) Elapsed(p types.ProcessRecord) int {
	if p.ExitDate != nil {
		return ElapsedDays(p.ArrivalDate, *p.ExitDate)
	}
	return ElapsedDays(p.ArrivalDate, c.clock())
}

// Since returns whole days from t to now.
func (c *Classifier) Since(t time.Time) int {
	return ElapsedDays(t, c.clock())
}

// CompletionDays returns arrival-to-exit days for completed records.
func (c *Classifier) CompletionDays(p types.ProcessRecord) (int, bool) {
	if p.ExitDate == nil {
		return 0, false
	}
	return ElapsedDays(p.ArrivalDate, *p.ExitDate), true
}

// State classifies a record.
func (c *Classifier) State(p types.ProcessRecord) State {
	if p.ExitDate != nil {
		return Completed
	}
	return c.StateForDays(c.Elapsed(p))
}

// StateForDays classifies an open record that has been pending for days.
func (c *Classifier) StateForDays(days int) State {
	switch {
	case days > c.thresholds.Critical:
		return Critical
	case days > c.thresholds.Delayed:
		return Delayed
	default:
		return OnTrack
	}
}

// IsLate reports whether an open record is Delayed or Critical.
func (c *Classifier) IsLate(p types.ProcessRecord) bool {
	s := c.State(p)
	return s == Delayed || s == Critical
}
