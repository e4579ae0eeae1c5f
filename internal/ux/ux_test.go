package ux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "15;0")
	assert.True(t, DetectTheme().IsDark)

	t.Setenv("COLORFGBG", "0;15")
	t.Setenv("PROCINTEL_DARK_MODE", "")
	assert.False(t, DetectTheme().IsDark)

	t.Setenv("PROCINTEL_DARK_MODE", "1")
	assert.True(t, DetectTheme().IsDark)
}

func TestRenderer_Disabled(t *testing.T) {
	r, err := NewRenderer(LightTheme(), 80, false)
	require.NoError(t, err)
	assert.False(t, r.Enabled())
	assert.Equal(t, "**x**", r.Render("**x**"))
}

func TestRenderer_Enabled(t *testing.T) {
	r, err := NewRenderer(DarkTheme(), 60, true)
	require.NoError(t, err)
	out := r.Render("**Processos Ativos:** 3")
	assert.Contains(t, out, "Processos Ativos:")
	assert.NotContains(t, out, "**")
}
