package ux

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Renderer turns report markdown into terminal output. With rendering
// disabled it returns the markdown unchanged.
type Renderer struct {
	term    *glamour.TermRenderer
	enabled bool
}

// NewRenderer creates a renderer for theme wrapping at width columns.
func NewRenderer(theme Theme, width int, enabled bool) (*Renderer, error) {
	if !enabled {
		return &Renderer{}, nil
	}
	if width <= 0 {
		width = 80
	}
	style := glamour.WithStylePath("light")
	if theme.IsDark {
		style = glamour.WithStylePath("dark")
	}
	term, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &Renderer{term: term, enabled: true}, nil
}

// Enabled reports whether markdown is rendered.
func (r *Renderer) Enabled() bool {
	return r.enabled
}

// Render renders md. On renderer failure the raw markdown is returned.
func (r *Renderer) Render(md string) string {
	if !r.enabled || r.term == nil {
		return md
	}
	out, err := r.term.Render(md)
	if err != nil {
		return md
	}
	return out
}
