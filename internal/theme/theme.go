// Package theme holds the light/dark display toggle shared by the web page and the terminal client.
package theme

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Token is one of the two colour tokens a theme assigns to text or background.
type Token string

const (
	Light Token = "light"
	Dark  Token = "dark"
)

// Theme pairs the foreground and background tokens used for rendering.
type Theme struct {
	Foreground Token `json:"foreground"`
	Background Token `json:"background"`
}

// Default is light text on a dark background.
func Default() Theme {
	return Theme{Foreground: Light, Background: Dark}
}

// Parse builds a theme from its background token name.
func Parse(background string) (Theme, error) {
	switch Token(strings.ToLower(strings.TrimSpace(background))) {
	case "", Dark:
		return Default(), nil
	case Light:
		return Default().Toggle(), nil
	default:
		return Theme{}, eris.Errorf("unknown theme: %s", background)
	}
}

// Toggle flips both tokens.
func (t Theme) Toggle() Theme {
	return Theme{Foreground: t.Foreground.opposite(), Background: t.Background.opposite()}
}

// IsDark reports whether the background is dark.
func (t Theme) IsDark() bool {
	return t.Background == Dark
}

// Icon names the glyph on the toggle button: the sun switches a dark page to light.
func (t Theme) Icon() string {
	if t.IsDark() {
		return "sun"
	}
	return "moon"
}

// CSSColor maps a token to the page colour used for it.
func (tok Token) CSSColor() string {
	if tok == Dark {
		return "black"
	}
	return "#fff"
}

func (tok Token) opposite() Token {
	if tok == Dark {
		return Light
	}
	return Dark
}
