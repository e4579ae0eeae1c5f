package aggregate

import (
	"sort"

	"procintel/internal/health"
	"procintel/internal/types"
)

// =============================================================================
// PER-RESPONSIBLE
// =============================================================================

// ResponsibleStat accumulates one party's workload.
type ResponsibleStat struct {
	Name                  string
	Active                int
	Completed             int
	Delayed               int
	Critical              int
	AverageCompletionDays float64
	Types                 *Counter
}

// DelayedOrCritical returns the number of late open processes.
func (s *ResponsibleStat) DelayedOrCritical() int {
	return s.Delayed + s.Critical
}

// DelayRate returns late open processes over open processes.
func (s *ResponsibleStat) DelayRate() float64 {
	return DelayRate(s.DelayedOrCritical(), s.Active)
}

func (s *ResponsibleStat) observeOpen(state health.State) {
	s.Active++
	switch state {
	case health.Critical:
		s.Critical++
	case health.Delayed:
		s.Delayed++
	}
}

func (s *ResponsibleStat) observeCompleted(days int) {
	s.AverageCompletionDays = runningMean(s.AverageCompletionDays, s.Completed, float64(days))
	s.Completed++
}

// ResponsibleTable maps responsible names to their stats in first-seen order.
type ResponsibleTable struct {
	order []string
	stats map[string]*ResponsibleStat
}

func newResponsibleTable() *ResponsibleTable {
	return &ResponsibleTable{stats: make(map[string]*ResponsibleStat)}
}

func (t *ResponsibleTable) entry(name string) *ResponsibleStat {
	s, ok := t.stats[name]
	if !ok {
		s = &ResponsibleStat{Name: name, Types: NewCounter()}
		t.stats[name] = s
		t.order = append(t.order, name)
	}
	return s
}

// ResponsibleStats accumulates per-responsible counts over records. Open
// records count toward Active and their health state; completed records feed
// the average completion time.
func ResponsibleStats(records []types.ProcessRecord, c *health.Classifier) *ResponsibleTable {
	t := newResponsibleTable()
	for _, r := range records {
		s := t.entry(r.Responsible)
		s.Types.Inc(string(r.Type))
		if days, done := c.CompletionDays(r); done {
			s.observeCompleted(days)
			continue
		}
		s.observeOpen(c.State(r))
	}
	return t
}

// Names returns responsible names in first-seen order.
func (t *ResponsibleTable) Names() []string {
	return append([]string(nil), t.order...)
}

// Get returns the stats for name.
func (t *ResponsibleTable) Get(name string) (*ResponsibleStat, bool) {
	s, ok := t.stats[name]
	return s, ok
}

// Len returns the number of responsibles.
func (t *ResponsibleTable) Len() int {
	return len(t.order)
}

// All returns every entry in first-seen order.
func (t *ResponsibleTable) All() []*ResponsibleStat {
	out := make([]*ResponsibleStat, 0, len(t.order))
	for _, n := range t.order {
		out = append(out, t.stats[n])
	}
	return out
}

// MostEfficient ranks responsibles with completed work by ascending average
// completion time.
func (t *ResponsibleTable) MostEfficient(n int) []*ResponsibleStat {
	var out []*ResponsibleStat
	for _, s := range t.All() {
		if s.Completed > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AverageCompletionDays < out[j].AverageCompletionDays
	})
	return limit(out, n)
}

// HighestLoad ranks responsibles with open work by descending Active.
func (t *ResponsibleTable) HighestLoad(n int) []*ResponsibleStat {
	var out []*ResponsibleStat
	for _, s := range t.All() {
		if s.Active > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Active > out[j].Active
	})
	return limit(out, n)
}

// Bottlenecks returns responsibles whose delay rate exceeds threshold,
// highest rate first.
func (t *ResponsibleTable) Bottlenecks(threshold float64, n int) []*ResponsibleStat {
	var out []*ResponsibleStat
	for _, s := range t.All() {
		if s.Active > 0 && s.DelayRate() > threshold {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DelayRate() > out[j].DelayRate()
	})
	return limit(out, n)
}

// ByCritical returns responsibles with late work, most critical first.
func (t *ResponsibleTable) ByCritical() []*ResponsibleStat {
	var out []*ResponsibleStat
	for _, s := range t.All() {
		if s.DelayedOrCritical() > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Critical > out[j].Critical
	})
	return out
}

// =============================================================================
// PER-TYPE
// =============================================================================

// TypeStat accumulates one process type.
type TypeStat struct {
	Type                  types.ProcessType
	Count                 int
	DelayedActive         int
	Completed             int
	AverageCompletionDays float64
}

// DelayRate returns DelayedActive over Count, the ranking metric for types.
func (s *TypeStat) DelayRate() float64 {
	return DelayRate(s.DelayedActive, s.Count)
}

// TypeTable maps process types to stats in first-seen order.
type TypeTable struct {
	order []types.ProcessType
	stats map[types.ProcessType]*TypeStat
}

// TypeCompletionStats accumulates per-type counts over active and completed
// records together. An open record past the delayed threshold counts toward
// DelayedActive.
func TypeCompletionStats(records []types.ProcessRecord, c *health.Classifier) *TypeTable {
	t := &TypeTable{stats: make(map[types.ProcessType]*TypeStat)}
	for _, r := range records {
		s, ok := t.stats[r.Type]
		if !ok {
			s = &TypeStat{Type: r.Type}
			t.stats[r.Type] = s
			t.order = append(t.order, r.Type)
		}
		s.Count++
		if days, done := c.CompletionDays(r); done {
			s.AverageCompletionDays = runningMean(s.AverageCompletionDays, s.Completed, float64(days))
			s.Completed++
			continue
		}
		if c.IsLate(r) {
			s.DelayedActive++
		}
	}
	return t
}

// Get returns the stats for typ.
func (t *TypeTable) Get(typ types.ProcessType) (*TypeStat, bool) {
	s, ok := t.stats[typ]
	return s, ok
}

// Len returns the number of types.
func (t *TypeTable) Len() int {
	return len(t.order)
}

// All returns every entry in first-seen order.
func (t *TypeTable) All() []*TypeStat {
	out := make([]*TypeStat, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.stats[k])
	}
	return out
}

// ByDelayRate ranks types by descending delay rate.
func (t *TypeTable) ByDelayRate(n int) []*TypeStat {
	out := t.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DelayRate() > out[j].DelayRate()
	})
	return limit(out, n)
}

// SlowestCompletion ranks types with a positive average completion time,
// slowest first.
func (t *TypeTable) SlowestCompletion(n int) []*TypeStat {
	var out []*TypeStat
	for _, s := range t.All() {
		if s.AverageCompletionDays > 0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AverageCompletionDays > out[j].AverageCompletionDays
	})
	return limit(out, n)
}

// =============================================================================
// COUNTERS
// =============================================================================

// ModalityCounts counts records per modality. Records without one are skipped.
func ModalityCounts(records []types.ProcessRecord) *Counter {
	c := NewCounter()
	for _, r := range records {
		if r.Modality == "" {
			continue
		}
		c.Inc(string(r.Modality))
	}
	return c
}

// ResponsibleCounts counts records per responsible.
func ResponsibleCounts(records []types.ProcessRecord) *Counter {
	c := NewCounter()
	for _, r := range records {
		c.Inc(r.Responsible)
	}
	return c
}

// MeanCompletionDays returns the mean completion time over completed records.
// ok is false when none of the records is completed.
func MeanCompletionDays(records []types.ProcessRecord, c *health.Classifier) (mean float64, ok bool) {
	n := 0
	for _, r := range records {
		if days, done := c.CompletionDays(r); done {
			mean = runningMean(mean, n, float64(days))
			n++
		}
	}
	return mean, n > 0
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
