// Package ux holds terminal presentation: the color theme, lipgloss styles
// and the markdown renderer shared by the CLI and the chat.
package ux

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	LightBackground = lipgloss.Color("#f5f6f4")
	LightForeground = lipgloss.Color("#1b2a1f")
	LightPrimary    = lipgloss.Color("#1f5130") // Deep green
	LightMuted      = lipgloss.Color("#8a948c")
	LightBorder     = lipgloss.Color("#d5dbd6")

	DarkBackground = lipgloss.Color("#121a14")
	DarkForeground = lipgloss.Color("#eef2ef")
	DarkPrimary    = lipgloss.Color("#7cc38e")
	DarkMuted      = lipgloss.Color("#5d6a60")
	DarkBorder     = lipgloss.Color("#2b3a2f")

	// Same in both modes
	CriticalColor = lipgloss.Color("#e53935")
)

// Theme holds the current color scheme.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Muted:      LightMuted,
		Border:     LightBorder,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// DetectTheme picks dark mode from COLORFGBG or PROCINTEL_DARK_MODE=1,
// light otherwise.
func DetectTheme() Theme {
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil && ((bg >= 0 && bg <= 6) || bg == 8) {
			return DarkTheme()
		}
	}
	if os.Getenv("PROCINTEL_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds the styled components.
type Styles struct {
	Theme Theme

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Prompt   lipgloss.Style
	User     lipgloss.Style
	Thinking lipgloss.Style
	Error    lipgloss.Style
	Spinner  lipgloss.Style
	Divider  lipgloss.Style
}

// NewStyles creates styles for theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		User: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Thinking: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(theme.Border).
			PaddingLeft(1),

		Error: lipgloss.NewStyle().
			Foreground(CriticalColor).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Primary),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),
	}
}
