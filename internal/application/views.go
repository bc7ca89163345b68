package application

import "github.com/rafaeldtinoco-dev/investfolio/internal/domain"

// CardView is a display-ready projection of one investment option, combining
// the record with its derived metrics.
type CardView struct {
	Option           domain.InvestmentOption
	ReturnPercent    float64
	DisplayReturn    float64
	Badge            Badge
	VisibleInvestors []domain.Investor
	HiddenInvestors  int
	Performance      []domain.PerformanceSample
}

// visibleInvestorLimit matches the original card layout: three avatars plus
// a "+N more" remainder.
const visibleInvestorLimit = 3

func NewCardView(option domain.InvestmentOption) CardView {
	visible, hidden := AggregateInvestors(option.Investors, visibleInvestorLimit)

	return CardView{
		Option:           option,
		ReturnPercent:    ReturnPercent(option),
		DisplayReturn:    DisplayReturn(option),
		Badge:            RiskBadge(option.RiskLevel),
		VisibleInvestors: visible,
		HiddenInvestors:  hidden,
		Performance:      PerformanceSeries(option.Performance),
	}
}

// CardViews projects a whole catalog in order.
func CardViews(options []domain.InvestmentOption) []CardView {
	views := make([]CardView, 0, len(options))
	for _, option := range options {
		views = append(views, NewCardView(option))
	}
	return views
}
