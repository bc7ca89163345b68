package catalog

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rafaeldtinoco-dev/investfolio/internal/application"
)

type styles struct {
	title       lipgloss.Style
	header      lipgloss.Style
	name        lipgloss.Style
	description lipgloss.Style
	label       lipgloss.Style
	value       lipgloss.Style
	gainValue   lipgloss.Style
	lossValue   lipgloss.Style
	section     lipgloss.Style
	empty       lipgloss.Style
	investors   lipgloss.Style
	barBracket  lipgloss.Style
	barGain     lipgloss.Style
	barLoss     lipgloss.Style
	barEmpty    lipgloss.Style

	badges map[application.Badge]lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true),
		header:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		name:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		description: lipgloss.NewStyle().Faint(true),
		label:       lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		value:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		gainValue:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		lossValue:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		section:     lipgloss.NewStyle().MarginTop(1),
		empty:       lipgloss.NewStyle().Faint(true),
		investors:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		barBracket:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barGain:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		barLoss:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		barEmpty:    lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		badges: map[application.Badge]lipgloss.Style{
			application.BadgeLow:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
			application.BadgeMedium:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
			application.BadgeHigh:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
			application.BadgeNeutral: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")),
		},
	}
}

func (s styles) badge(b application.Badge) lipgloss.Style {
	if style, ok := s.badges[b]; ok {
		return style
	}
	return s.badges[application.BadgeNeutral]
}
