package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the browser's lipgloss styles
type Theme struct {
	Body, Path, Cursor, Dim lipgloss.Style

	Selected  lipgloss.Style
	Highlight lipgloss.Color // background of the row under the cursor

	PreviewHeader, PreviewPath    lipgloss.Style
	PreviewContext, PreviewTarget lipgloss.Style
	Divider, Status               lipgloss.Style
}

func DefaultTheme() *Theme {
	highlight := lipgloss.Color("236")
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	bold := lipgloss.NewStyle().Bold(true)

	return &Theme{
		Body:           lipgloss.NewStyle(),
		Path:           fg("6"),
		Cursor:         fg("212"),
		Dim:            fg("241"),
		Selected:       lipgloss.NewStyle().Background(highlight),
		Highlight:      highlight,
		PreviewHeader:  bold,
		PreviewPath:    fg("6"),
		PreviewContext: fg("245"),
		PreviewTarget:  bold,
		Divider:        fg("240"),
		Status:         fg("10"),
	}
}

// Marker is the bold label style for a configured marker color
func (t *Theme) Marker(color string) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	if color == "" {
		return style
	}
	return style.Foreground(parseColor(color))
}

// Highlighted puts style on the cursor row background
func (t *Theme) Highlighted(style lipgloss.Style) lipgloss.Style {
	return style.Background(t.Highlight)
}

// paletteIndex maps color names and SGR foreground codes to the 16-color
// ANSI palette.
var paletteIndex = map[string]string{
	"black": "0", "red": "1", "green": "2", "yellow": "3",
	"blue": "4", "magenta": "5", "cyan": "6", "white": "7",
	"gray": "8", "grey": "8",

	"30": "0", "31": "1", "32": "2", "33": "3",
	"34": "4", "35": "5", "36": "6", "37": "7",
	"90": "8", "91": "9", "92": "10", "93": "11",
	"94": "12", "95": "13", "96": "14", "97": "15",
}

// parseColor accepts a color name or SGR code; 256-color indexes and hex
// values pass through to lipgloss.
func parseColor(s string) lipgloss.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	if idx, ok := paletteIndex[s]; ok {
		return lipgloss.Color(idx)
	}
	return lipgloss.Color(s)
}

var styles = DefaultTheme()
