package domain

import (
	"strings"
	"time"
)

type OptionID string

type RiskLevel string

const (
	RiskUnknown RiskLevel = ""
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
)

// ParseRiskLevel maps the free-form risk strings found in remote rows to the
// enum. The catalog data carries both English and Portuguese labels, so both
// are accepted; anything else is RiskUnknown, never an error.
func ParseRiskLevel(raw string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "baixo", "baixa":
		return RiskLow
	case "medium", "medio", "médio", "media", "média":
		return RiskMedium
	case "high", "alto", "alta":
		return RiskHigh
	default:
		return RiskUnknown
	}
}

type Investor struct {
	Name           string
	InvestedAmount float64
}

type PerformanceSample struct {
	At    time.Time
	Value float64
}

// InvestmentOption is one catalog record. The local copy is always a
// reflection of the last successful remote read; the remote store assigns
// IDs and stays authoritative.
type InvestmentOption struct {
	ID                OptionID
	Name              string
	Description       string
	RiskLevel         RiskLevel
	ExpectedReturn    string
	CurrentValue      float64
	InitialInvestment float64
	MinInvestment     float64
	MaxInvestment     float64
	ExpirationPeriod  string
	Investors         []Investor
	Performance       []PerformanceSample
}

// OptionDraft is the insert payload. It deliberately has no ID field: the
// remote store is the sole assigner of identity.
type OptionDraft struct {
	Name             string
	Description      string
	RiskLevel        RiskLevel
	ExpectedReturn   string
	MinInvestment    float64
	MaxInvestment    float64
	ExpirationPeriod string
}

// OptionPatch is a partial update; nil fields are left untouched by the
// remote store.
type OptionPatch struct {
	Name             *string
	Description      *string
	RiskLevel        *RiskLevel
	ExpectedReturn   *string
	MinInvestment    *float64
	MaxInvestment    *float64
	ExpirationPeriod *string
}

// Empty reports whether the patch would change nothing.
func (p OptionPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.RiskLevel == nil &&
		p.ExpectedReturn == nil && p.MinInvestment == nil &&
		p.MaxInvestment == nil && p.ExpirationPeriod == nil
}
