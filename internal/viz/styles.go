package viz

import "github.com/charmbracelet/lipgloss"

const sidebarWidth = 36

type styles struct {
	canvas  lipgloss.Style
	sidebar lipgloss.Style
	title   lipgloss.Style
	desc    lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	fixed   lipgloss.Style
	graph   lipgloss.Style
	help    lipgloss.Style
	running lipgloss.Style
	paused  lipgloss.Style
	failed  lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Padding(1, 2),
		sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(sidebarWidth),
		title:   lipgloss.NewStyle().Foreground(t.Title).Bold(true),
		desc:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:   lipgloss.NewStyle().Foreground(t.Text),
		fixed:   lipgloss.NewStyle().Foreground(t.Title),
		graph:   lipgloss.NewStyle().Foreground(t.Graph).Padding(1, 0),
		help:    lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		running: lipgloss.NewStyle().Foreground(t.Running).Bold(true),
		paused:  lipgloss.NewStyle().Foreground(t.Paused).Bold(true),
		failed:  lipgloss.NewStyle().Foreground(t.Error).Bold(true),
	}
}
