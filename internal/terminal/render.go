// Package terminal renders lookup views for a terminal using lipgloss.
package terminal

import (
	"github.com/charmbracelet/lipgloss"

	"dictionary/app/internal/lookup"
	"dictionary/app/internal/theme"
)

var tokenColors = map[theme.Token]lipgloss.Color{
	theme.Light: lipgloss.Color("#FFFFFF"),
	theme.Dark:  lipgloss.Color("#000000"),
}

const loadingText = "Loading…"

const (
	accentColor = lipgloss.Color("#198754")
	dangerColor = lipgloss.Color("#DC3545")
	mutedColor  = lipgloss.Color("#6C757D")
)

// Styles is the set of styles used for one theme.
type Styles struct {
	Heading    lipgloss.Style
	Definition lipgloss.Style
	Error      lipgloss.Style
	Loading    lipgloss.Style
	Muted      lipgloss.Style
}

// NewStyles builds the styles for th on renderer r. A nil renderer uses the default one.
func NewStyles(r *lipgloss.Renderer, th theme.Theme) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}

	fg := tokenColors[th.Foreground]
	bg := tokenColors[th.Background]

	return Styles{
		Heading: r.NewStyle().
			Foreground(accentColor).
			Bold(true),
		Definition: r.NewStyle().
			Foreground(fg).
			Background(bg).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor),
		Error: r.NewStyle().
			Foreground(dangerColor).
			Bold(true),
		Loading: r.NewStyle().
			Foreground(mutedColor).
			Italic(true),
		Muted: r.NewStyle().
			Foreground(mutedColor),
	}
}

// Render draws a view. The empty view renders as an empty string.
func (s Styles) Render(view lookup.View) string {
	switch view.Kind {
	case lookup.ViewLoading:
		return s.Loading.Render(loadingText)
	case lookup.ViewError:
		return s.Error.Render(view.Text)
	case lookup.ViewDefinition:
		return s.Definition.Render(view.Text)
	default:
		return ""
	}
}

// Title draws the word a view belongs to.
func (s Styles) Title(word string) string {
	return s.Heading.Render(word)
}

// Hint draws secondary text such as prompts and usage notes.
func (s Styles) Hint(text string) string {
	return s.Muted.Render(text)
}
