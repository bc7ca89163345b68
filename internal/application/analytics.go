package application

import "github.com/rafaeldtinoco-dev/investfolio/internal/domain"

// Badge is the display category for a risk level.
type Badge string

const (
	BadgeLow     Badge = "low"
	BadgeMedium  Badge = "medium"
	BadgeHigh    Badge = "high"
	BadgeNeutral Badge = "neutral"
)

// ReturnPercent computes the raw return of an option as a percentage of the
// initial investment. Options without a recorded initial investment yield 0
// rather than a division error; absent values and a genuine 0% return are
// indistinguishable here, which is fine for display purposes.
func ReturnPercent(option domain.InvestmentOption) float64 {
	if option.InitialInvestment == 0 {
		return 0
	}
	return (option.CurrentValue - option.InitialInvestment) / option.InitialInvestment * 100
}

// DisplayReturn caps the return used for proportional gauge rendering at
// 100 so a better-than-doubled option does not overflow a percentage-width
// bar. The raw return itself is never clamped.
func DisplayReturn(option domain.InvestmentOption) float64 {
	r := ReturnPercent(option)
	if r > 100 {
		return 100
	}
	return r
}

// RiskBadge maps a risk level to its display category. Unknown levels get
// the neutral badge.
func RiskBadge(level domain.RiskLevel) Badge {
	switch level {
	case domain.RiskLow:
		return BadgeLow
	case domain.RiskMedium:
		return BadgeMedium
	case domain.RiskHigh:
		return BadgeHigh
	default:
		return BadgeNeutral
	}
}

// AggregateInvestors returns the first visibleLimit investors in insertion
// order plus the count of those hidden. Deterministic across calls.
func AggregateInvestors(investors []domain.Investor, visibleLimit int) ([]domain.Investor, int) {
	if visibleLimit < 0 {
		visibleLimit = 0
	}
	if visibleLimit >= len(investors) {
		return investors, 0
	}
	return investors[:visibleLimit], len(investors) - visibleLimit
}

// PerformanceSeries shapes the raw samples for charting. Today it is the
// identity in insertion order; it exists as the seam where a resampling or
// smoothing policy would go without touching callers.
func PerformanceSeries(samples []domain.PerformanceSample) []domain.PerformanceSample {
	return samples
}
