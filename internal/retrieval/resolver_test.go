package retrieval

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procintel/internal/types"
)

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain", "situação do 12345-678.2024", "12345-678.2024", true},
		{"first of two", "1-2.3 e 4-5.6", "1-2.3", true},
		{"embedded in sei", "SEI 00012-000345.2023/0001", "00012-000345.2023", true},
		{"missing dot", "processo 12345-678", "", false},
		{"no digits", "processo atrasado", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractCode(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func fixtures() ([]types.ProcessRecord, []types.ProcessRecord, []types.BiddingRecord) {
	arrival := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	exit := arrival.AddDate(0, 0, 10)
	active := []types.ProcessRecord{
		{ID: "a1", SEI: "11111-111.2024", ArrivalDate: arrival},
		{ID: "a2", SEI: "22222-222.2024", ArrivalDate: arrival},
	}
	completed := []types.ProcessRecord{
		{ID: "c1", SEI: "33333-333.2024", ArrivalDate: arrival, ExitDate: &exit},
		{ID: "c2", SEI: "22222-222.2024/dup", ArrivalDate: arrival, ExitDate: &exit},
	}
	biddings := []types.BiddingRecord{
		{ID: "b1", SEI: "44444-444.2024", Status: "AUTORIZADO"},
	}
	return active, completed, biddings
}

func TestResolve(t *testing.T) {
	active, completed, biddings := fixtures()
	r := NewResolver()

	m, err := r.Resolve("status do 11111-111.2024", active, completed, biddings)
	require.NoError(t, err)
	assert.Equal(t, KindProcess, m.Kind)
	assert.Equal(t, "a1", m.Process.ID)
	assert.Nil(t, m.Bidding)

	m, err = r.Resolve("33333-333.2024", active, completed, biddings)
	require.NoError(t, err)
	assert.Equal(t, "c1", m.Process.ID)

	m, err = r.Resolve("pregão 44444-444.2024", active, completed, biddings)
	require.NoError(t, err)
	assert.Equal(t, KindBidding, m.Kind)
	assert.Equal(t, "b1", m.Bidding.ID)
}

func TestResolve_ActiveWinsOverCompleted(t *testing.T) {
	active, completed, biddings := fixtures()

	m, err := NewResolver().Resolve("22222-222.2024", active, completed, biddings)
	require.NoError(t, err)
	assert.Equal(t, "a2", m.Process.ID)
}

func TestResolve_ReturnsCopy(t *testing.T) {
	active, completed, biddings := fixtures()

	m, err := NewResolver().Resolve("11111-111.2024", active, completed, biddings)
	require.NoError(t, err)
	m.Process.SEI = "changed"
	assert.Equal(t, "11111-111.2024", active[0].SEI)
}

func TestResolve_NoMatch(t *testing.T) {
	active, completed, biddings := fixtures()
	r := NewResolver()

	_, err := r.Resolve("99999-999.2024", active, completed, biddings)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMatch))
	var nm *NoMatchError
	require.True(t, errors.As(err, &nm))
	assert.Equal(t, "99999-999.2024", nm.Code)
	assert.Contains(t, err.Error(), "99999-999.2024")

	_, err = r.Resolve("qual o processo?", active, completed, biddings)
	require.True(t, errors.As(err, &nm))
	assert.Empty(t, nm.Code)
	assert.ErrorIs(t, err, ErrNoMatch)
}
