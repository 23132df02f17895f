package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme is the colour scheme of the viewer. The trail fades from Head at the newest
// point to Tail at the oldest.
type Theme struct {
	Name    string
	Title   lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Axis    lipgloss.Color
	Running lipgloss.Color
	Paused  lipgloss.Color
	Error   lipgloss.Color
	Graph   lipgloss.Color
	Head    colorful.Color
	Tail    colorful.Color
}

var Themes = []Theme{
	{
		Name:    "cyberpunk",
		Title:   lipgloss.Color("#00ffff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666688"),
		Axis:    lipgloss.Color("#333344"),
		Running: lipgloss.Color("#00ff88"),
		Paused:  lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff4444"),
		Graph:   lipgloss.Color("#ff00ff"),
		Head:    colorful.MustParseHex("#00ffff"),
		Tail:    colorful.MustParseHex("#3a0066"),
	},
	{
		Name:    "retro",
		Title:   lipgloss.Color("#33ff33"),
		Text:    lipgloss.Color("#ccffcc"),
		Muted:   lipgloss.Color("#338833"),
		Axis:    lipgloss.Color("#1a441a"),
		Running: lipgloss.Color("#33ff33"),
		Paused:  lipgloss.Color("#ffff33"),
		Error:   lipgloss.Color("#ff3333"),
		Graph:   lipgloss.Color("#66ff66"),
		Head:    colorful.MustParseHex("#ccffcc"),
		Tail:    colorful.MustParseHex("#0a330a"),
	},
	{
		Name:    "ocean",
		Title:   lipgloss.Color("#00a8cc"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Axis:    lipgloss.Color("#1a3a55"),
		Running: lipgloss.Color("#00ff88"),
		Paused:  lipgloss.Color("#ffcc00"),
		Error:   lipgloss.Color("#ff4444"),
		Graph:   lipgloss.Color("#ffd700"),
		Head:    colorful.MustParseHex("#ffd940"),
		Tail:    colorful.MustParseHex("#0a2a55"),
	},
}

// GetTheme returns the named theme, or the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func nextTheme(cur Theme) Theme {
	for i, t := range Themes {
		if t.Name == cur.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
