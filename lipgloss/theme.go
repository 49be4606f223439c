// Package lipgloss renders comparison results for the terminal using the
// Lipgloss styling library.
package lipgloss

import "github.com/fwojciec/comparator"

// Palette holds the hex colors used by the renderer.
type Palette struct {
	Foreground string
	Muted      string
	Accent     string
	Border     string
	Error      string
	Warning    string
	Success    string

	// Per-provider header colors.
	Groq   string
	Gemini string
}

// Theme provides the palette for a terminal background.
type Theme struct {
	palette Palette
}

// Palette returns the theme's colors.
func (t *Theme) Palette() Palette {
	return t.palette
}

// ProviderColor returns the header color for key.
func (t *Theme) ProviderColor(key comparator.ProviderKey) string {
	switch key {
	case comparator.Groq:
		return t.palette.Groq
	case comparator.Gemini:
		return t.palette.Gemini
	default:
		return t.palette.Accent
	}
}

// DefaultTheme returns the default theme (dark background optimized).
func DefaultTheme() *Theme {
	return DarkTheme()
}

// DarkTheme returns a theme for dark terminal backgrounds (Catppuccin Mocha).
func DarkTheme() *Theme {
	return &Theme{
		palette: Palette{
			Foreground: "#cdd6f4",
			Muted:      "#6c7086",
			Accent:     "#89b4fa",
			Border:     "#45475a",
			Error:      "#f38ba8",
			Warning:    "#f9e2af",
			Success:    "#a6e3a1",
			Groq:       "#fab387", // Peach
			Gemini:     "#89b4fa", // Blue
		},
	}
}

// LightTheme returns a theme for light terminal backgrounds (Catppuccin Latte).
func LightTheme() *Theme {
	return &Theme{
		palette: Palette{
			Foreground: "#4c4f69",
			Muted:      "#9ca0b0",
			Accent:     "#1e66f5",
			Border:     "#bcc0cc",
			Error:      "#d20f39",
			Warning:    "#df8e1d",
			Success:    "#40a02b",
			Groq:       "#fe640b",
			Gemini:     "#1e66f5",
		},
	}
}
