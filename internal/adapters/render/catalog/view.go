package catalog

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rafaeldtinoco-dev/investfolio/internal/application"
	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
)

type RenderOptions struct {
	// Stale marks the output as coming from the local snapshot rather than
	// a fresh remote read.
	Stale bool
}

const returnBarWidth = 24

func renderView(views []application.CardView, opts RenderOptions, s styles) string {
	header := fmt.Sprintf("options: %d", len(views))
	if opts.Stale {
		header += " (cached)"
	}

	lines := []string{
		s.title.Render("Investment Catalog"),
		s.header.Render(header),
	}

	if len(views) == 0 {
		lines = append(lines, s.empty.Render("No investment options available."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, view := range views {
		lines = append(lines, s.section.Render(renderCard(view, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCard(view application.CardView, s styles) string {
	option := view.Option

	parts := []string{
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.name.Render(cardTitle(option)),
			" ",
			s.badge(view.Badge).Render(badgeLabel(view.Badge)),
		),
	}

	if option.Description != "" {
		parts = append(parts, s.description.Render(option.Description))
	}

	parts = append(parts,
		detailLine(s, "expected return", option.ExpectedReturn),
		detailLine(s, "current value", formatAmount(option.CurrentValue)),
		detailLine(s, "min investment", formatAmount(option.MinInvestment)),
	)
	if option.MaxInvestment > 0 {
		parts = append(parts, detailLine(s, "max investment", formatAmount(option.MaxInvestment)))
	}

	parts = append(parts, returnLine(view, s))

	if option.ExpirationPeriod != "" {
		parts = append(parts, detailLine(s, "expires", option.ExpirationPeriod))
	}

	if line := investorsLine(view, s); line != "" {
		parts = append(parts, line)
	}

	if line := performanceLine(view.Performance, s); line != "" {
		parts = append(parts, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func cardTitle(option domain.InvestmentOption) string {
	return fmt.Sprintf("%s (%s)", strings.TrimSpace(option.Name), option.ID)
}

func badgeLabel(b application.Badge) string {
	switch b {
	case application.BadgeLow:
		return "[low risk]"
	case application.BadgeMedium:
		return "[medium risk]"
	case application.BadgeHigh:
		return "[high risk]"
	default:
		return "[risk n/a]"
	}
}

func detailLine(s styles, label, value string) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render(label+": "),
		s.value.Render(value),
	)
}

// returnLine shows the raw return figure next to a gauge whose width uses
// the capped display return, so a 250% performer still fits the bar.
func returnLine(view application.CardView, s styles) string {
	valueStyle := s.gainValue
	barStyle := s.barGain
	if view.ReturnPercent < 0 {
		valueStyle = s.lossValue
		barStyle = s.barLoss
	}

	bar := renderReturnBar(view.DisplayReturn, returnBarWidth, barStyle, s)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render("return: "),
		valueStyle.Render(fmt.Sprintf("%+.2f%%", view.ReturnPercent)),
		" ",
		bar,
	)
}

func renderReturnBar(displayReturn float64, width int, fillStyle lipgloss.Style, s styles) string {
	if width <= 0 {
		return ""
	}

	fraction := math.Abs(displayReturn) / 100
	if fraction > 1 {
		fraction = 1
	}
	filled := int(math.Round(float64(width) * fraction))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillStyle.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func investorsLine(view application.CardView, s styles) string {
	if len(view.VisibleInvestors) == 0 {
		return ""
	}

	names := make([]string, 0, len(view.VisibleInvestors))
	for _, investor := range view.VisibleInvestors {
		names = append(names, investor.Name)
	}

	line := "investors: " + strings.Join(names, ", ")
	if view.HiddenInvestors > 0 {
		line += fmt.Sprintf(" +%d more", view.HiddenInvestors)
	}

	return s.investors.Render(line)
}

// performanceLine draws a coarse one-row sparkline of the value series.
func performanceLine(samples []domain.PerformanceSample, s styles) string {
	if len(samples) == 0 {
		return ""
	}

	minValue, maxValue := samples[0].Value, samples[0].Value
	for _, sample := range samples[1:] {
		if sample.Value < minValue {
			minValue = sample.Value
		}
		if sample.Value > maxValue {
			maxValue = sample.Value
		}
	}

	levels := []rune("▁▂▃▄▅▆▇█")
	var b strings.Builder
	for _, sample := range samples {
		idx := 0
		if maxValue > minValue {
			idx = int((sample.Value - minValue) / (maxValue - minValue) * float64(len(levels)-1))
		}
		b.WriteRune(levels[idx])
	}

	return s.investors.Render("history: " + b.String())
}

func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("$%.0f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}
