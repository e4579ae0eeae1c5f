package demo

import (
	"testing"
	"time"

	"procintel/internal/retrieval"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

func opts() Options {
	o := DefaultOptions()
	o.Now = now
	return o
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(opts())
	b := Generate(opts())
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different snapshots:\n%s", diff)
	}

	o := opts()
	o.Seed = 7
	assert.NotEqual(t, a.Processes[0].ID, Generate(o).Processes[0].ID)
}

func TestGenerateShape(t *testing.T) {
	o := opts()
	snap := Generate(o)

	assert.Len(t, snap.Processes, o.Processes)
	assert.Len(t, snap.Completed, o.Completed)
	assert.Len(t, snap.Biddings, o.Biddings)

	for _, p := range snap.Processes {
		assert.False(t, p.IsCompleted())
		require.NoError(t, p.Validate())
		assert.False(t, p.ArrivalDate.After(now))
		assert.Contains(t, o.Responsibles, p.Responsible)
		assert.True(t, p.Type.Known())
		code, ok := retrieval.ExtractCode(p.SEI)
		assert.True(t, ok, "SEI %q must look like a reference code", p.SEI)
		assert.Equal(t, p.SEI, code)
	}
	for _, p := range snap.Completed {
		require.NotNil(t, p.ExitDate)
		require.NoError(t, p.Validate())
		assert.False(t, p.ExitDate.After(now))
	}
	for _, b := range snap.Biddings {
		assert.Contains(t, b.Description, "Pregão")
	}
}

func TestGenerateFillsDefaults(t *testing.T) {
	snap := Generate(Options{Seed: 1, Processes: 3, Now: now})
	require.Len(t, snap.Processes, 3)
	for _, p := range snap.Processes {
		assert.NotEmpty(t, p.Responsible)
	}
	assert.Equal(t, 3, snap.Len())
}
