package health

import (
	"testing"
	"time"

	"procintel/internal/types"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return now.Add(-time.Duration(n) * 24 * time.Hour)
}

func open(n int) types.ProcessRecord {
	return types.ProcessRecord{ID: "open", ArrivalDate: daysAgo(n)}
}

func TestElapsedDaysFloors(t *testing.T) {
	arrival := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, ElapsedDays(arrival, arrival.Add(23*time.Hour)))
	assert.Equal(t, 1, ElapsedDays(arrival, arrival.Add(24*time.Hour)))
	assert.Equal(t, 1, ElapsedDays(arrival, arrival.Add(47*time.Hour)))
	assert.Equal(t, 0, ElapsedDays(arrival, arrival.Add(-72*time.Hour)), "never negative")
}

func TestStateBoundaries(t *testing.T) {
	c := New(WithClock(FixedClock(now)))

	tests := []struct {
		days int
		want State
	}{
		{0, OnTrack},
		{15, OnTrack},
		{30, OnTrack},
		{31, Delayed},
		{45, Delayed},
		{46, Critical},
		{120, Critical},
	}
	for _, tt := range tests {
		got := c.State(open(tt.days))
		assert.Equal(t, tt.want, got, "days=%d", tt.days)
		assert.Equal(t, tt.days, c.Elapsed(open(tt.days)))
	}
}

func TestCompletedRegardlessOfElapsed(t *testing.T) {
	c := New(WithClock(FixedClock(now)))

	for _, span := range []int{0, 10, 31, 46, 400} {
		arrival := daysAgo(span + 500)
		exit := arrival.Add(time.Duration(span) * 24 * time.Hour)
		rec := types.ProcessRecord{ArrivalDate: arrival, ExitDate: &exit}

		assert.Equal(t, Completed, c.State(rec))
		days, ok := c.CompletionDays(rec)
		assert.True(t, ok)
		assert.Equal(t, span, days)
		assert.Equal(t, span, c.Elapsed(rec), "completed records measure to exit, not now")
		assert.False(t, c.IsLate(rec))
	}
}

func TestCompletionDaysOpenRecord(t *testing.T) {
	c := New(WithClock(FixedClock(now)))
	_, ok := c.CompletionDays(open(10))
	assert.False(t, ok)
}

func TestCustomThresholds(t *testing.T) {
	c := New(WithClock(FixedClock(now)), WithThresholds(Thresholds{Fast: 5, Delayed: 10, Critical: 20}))

	assert.Equal(t, Delayed, c.State(open(11)))
	assert.Equal(t, Critical, c.State(open(21)))
	assert.Equal(t, 5, c.Thresholds().Fast)
}

func TestNilClockKeepsDefault(t *testing.T) {
	c := New(WithClock(nil))
	assert.WithinDuration(t, time.Now(), c.Now(), time.Minute)
}

func TestStateLabels(t *testing.T) {
	assert.Equal(t, "Crítico", Critical.String())
	assert.Equal(t, "🔴", Critical.Icon())
	assert.Equal(t, "Concluído", Completed.String())
	assert.Equal(t, "Desconhecido", State(42).String())
}

func TestSince(t *testing.T) {
	c := New(WithClock(FixedClock(now)))
	assert.Equal(t, 7, c.Since(daysAgo(7)))
}
