package rest

import (
	"fmt"
	"strings"
	"time"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
)

// optionRow is the wire shape of one investment_options record. The remote
// store speaks snake_case JSON; mapping to the domain happens here and only
// here, so untyped rows never leak inward.
type optionRow struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Description       string        `json:"description,omitempty"`
	RiskLevel         string        `json:"risk_level,omitempty"`
	ExpectedReturn    string        `json:"expected_return"`
	CurrentValue      float64       `json:"current_value,omitempty"`
	InitialInvestment float64       `json:"initial_investment,omitempty"`
	MinInvestment     float64       `json:"min_investment"`
	MaxInvestment     float64       `json:"max_investment,omitempty"`
	ExpirationPeriod  string        `json:"expiration_period,omitempty"`
	Investors         []investorRow `json:"investors,omitempty"`
	Performance       []sampleRow   `json:"performance_history,omitempty"`
}

type investorRow struct {
	Name           string  `json:"name"`
	InvestedAmount float64 `json:"invested_amount,omitempty"`
}

type sampleRow struct {
	At    string  `json:"date"`
	Value float64 `json:"value"`
}

// sampleTimeLayouts are accepted in the order listed; the original data set
// records months as "2006-01" while newer rows carry full RFC 3339 stamps.
var sampleTimeLayouts = []string{time.RFC3339, "2006-01-02", "2006-01"}

func (r optionRow) toDomain() (domain.InvestmentOption, error) {
	if strings.TrimSpace(r.ID) == "" {
		return domain.InvestmentOption{}, fmt.Errorf("row missing id")
	}
	if strings.TrimSpace(r.Name) == "" {
		return domain.InvestmentOption{}, fmt.Errorf("row %s missing name", r.ID)
	}

	option := domain.InvestmentOption{
		ID:                domain.OptionID(r.ID),
		Name:              r.Name,
		Description:       r.Description,
		RiskLevel:         domain.ParseRiskLevel(r.RiskLevel),
		ExpectedReturn:    r.ExpectedReturn,
		CurrentValue:      r.CurrentValue,
		InitialInvestment: r.InitialInvestment,
		MinInvestment:     r.MinInvestment,
		MaxInvestment:     r.MaxInvestment,
		ExpirationPeriod:  r.ExpirationPeriod,
	}

	for _, investor := range r.Investors {
		option.Investors = append(option.Investors, domain.Investor{
			Name:           investor.Name,
			InvestedAmount: investor.InvestedAmount,
		})
	}

	for _, sample := range r.Performance {
		at, err := parseSampleTime(sample.At)
		if err != nil {
			return domain.InvestmentOption{}, fmt.Errorf("row %s: %w", r.ID, err)
		}
		option.Performance = append(option.Performance, domain.PerformanceSample{
			At:    at,
			Value: sample.Value,
		})
	}

	return option, nil
}

func parseSampleTime(raw string) (time.Time, error) {
	for _, layout := range sampleTimeLayouts {
		if at, err := time.Parse(layout, raw); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable performance sample date %q", raw)
}

// draftRow is the insert payload. No id: the store assigns it.
type draftRow struct {
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	RiskLevel        string  `json:"risk_level,omitempty"`
	ExpectedReturn   string  `json:"expected_return"`
	MinInvestment    float64 `json:"min_investment"`
	MaxInvestment    float64 `json:"max_investment,omitempty"`
	ExpirationPeriod string  `json:"expiration_period,omitempty"`
}

func toDraftRow(draft domain.OptionDraft) draftRow {
	return draftRow{
		Name:             draft.Name,
		Description:      draft.Description,
		RiskLevel:        string(draft.RiskLevel),
		ExpectedReturn:   draft.ExpectedReturn,
		MinInvestment:    draft.MinInvestment,
		MaxInvestment:    draft.MaxInvestment,
		ExpirationPeriod: draft.ExpirationPeriod,
	}
}

// toPatchBody keeps only the fields the patch actually sets, so the remote
// store leaves everything else alone.
func toPatchBody(patch domain.OptionPatch) map[string]any {
	body := map[string]any{}
	if patch.Name != nil {
		body["name"] = *patch.Name
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	if patch.RiskLevel != nil {
		body["risk_level"] = string(*patch.RiskLevel)
	}
	if patch.ExpectedReturn != nil {
		body["expected_return"] = *patch.ExpectedReturn
	}
	if patch.MinInvestment != nil {
		body["min_investment"] = *patch.MinInvestment
	}
	if patch.MaxInvestment != nil {
		body["max_investment"] = *patch.MaxInvestment
	}
	if patch.ExpirationPeriod != nil {
		body["expiration_period"] = *patch.ExpirationPeriod
	}
	return body
}
