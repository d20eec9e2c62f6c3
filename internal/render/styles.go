package render

import "github.com/charmbracelet/lipgloss"

type styles struct {
	frame   lipgloss.Style
	title   lipgloss.Style
	danger  lipgloss.Style
	clock   lipgloss.Style
	date    lipgloss.Style
	accent  lipgloss.Style
	accent2 lipgloss.Style
	text    lipgloss.Style
	dim     lipgloss.Style
	up      lipgloss.Style
	down    lipgloss.Style
	bar     lipgloss.Style
}

func newStyles(width int) styles {
	return styles{
		frame:   lipgloss.NewStyle().Width(width).Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")),
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		danger:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		clock:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		date:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		accent2: lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		text:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		dim:     lipgloss.NewStyle().Faint(true),
		up:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		down:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		bar:     lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
	}
}
