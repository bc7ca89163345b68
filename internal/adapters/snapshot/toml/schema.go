package toml

import (
	"fmt"
	"time"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version    int            `toml:"version"`
	CapturedAt string         `toml:"captured_at,omitempty"`
	Options    []optionSchema `toml:"options"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported catalog snapshot version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type optionSchema struct {
	ID                string           `toml:"id"`
	Name              string           `toml:"name"`
	Description       string           `toml:"description,omitempty"`
	RiskLevel         string           `toml:"risk_level,omitempty"`
	ExpectedReturn    string           `toml:"expected_return,omitempty"`
	CurrentValue      float64          `toml:"current_value,omitempty"`
	InitialInvestment float64          `toml:"initial_investment,omitempty"`
	MinInvestment     float64          `toml:"min_investment,omitempty"`
	MaxInvestment     float64          `toml:"max_investment,omitempty"`
	ExpirationPeriod  string           `toml:"expiration_period,omitempty"`
	Investors         []investorSchema `toml:"investors,omitempty"`
	Performance       []sampleSchema   `toml:"performance,omitempty"`
}

type investorSchema struct {
	Name           string  `toml:"name"`
	InvestedAmount float64 `toml:"invested_amount,omitempty"`
}

type sampleSchema struct {
	At    string  `toml:"at"`
	Value float64 `toml:"value"`
}

func toSchema(option domain.InvestmentOption) optionSchema {
	entry := optionSchema{
		ID:                string(option.ID),
		Name:              option.Name,
		Description:       option.Description,
		RiskLevel:         string(option.RiskLevel),
		ExpectedReturn:    option.ExpectedReturn,
		CurrentValue:      option.CurrentValue,
		InitialInvestment: option.InitialInvestment,
		MinInvestment:     option.MinInvestment,
		MaxInvestment:     option.MaxInvestment,
		ExpirationPeriod:  option.ExpirationPeriod,
	}

	for _, investor := range option.Investors {
		entry.Investors = append(entry.Investors, investorSchema{
			Name:           investor.Name,
			InvestedAmount: investor.InvestedAmount,
		})
	}

	for _, sample := range option.Performance {
		entry.Performance = append(entry.Performance, sampleSchema{
			At:    sample.At.Format(time.RFC3339),
			Value: sample.Value,
		})
	}

	return entry
}

func fromSchema(entry optionSchema) domain.InvestmentOption {
	option := domain.InvestmentOption{
		ID:                domain.OptionID(entry.ID),
		Name:              entry.Name,
		Description:       entry.Description,
		RiskLevel:         domain.RiskLevel(entry.RiskLevel),
		ExpectedReturn:    entry.ExpectedReturn,
		CurrentValue:      entry.CurrentValue,
		InitialInvestment: entry.InitialInvestment,
		MinInvestment:     entry.MinInvestment,
		MaxInvestment:     entry.MaxInvestment,
		ExpirationPeriod:  entry.ExpirationPeriod,
	}

	for _, investor := range entry.Investors {
		option.Investors = append(option.Investors, domain.Investor{
			Name:           investor.Name,
			InvestedAmount: investor.InvestedAmount,
		})
	}

	for _, sample := range entry.Performance {
		at, err := time.Parse(time.RFC3339, sample.At)
		if err != nil {
			// A snapshot is a cache, never authoritative; drop samples
			// whose timestamp no longer parses instead of failing the load.
			continue
		}
		option.Performance = append(option.Performance, domain.PerformanceSample{
			At:    at,
			Value: sample.Value,
		})
	}

	return option
}
