package care

import "strings"

// Impact is the direction a Factor moves an interval
type Impact string

const (
	ImpactIncrease Impact = "increase"
	ImpactDecrease Impact = "decrease"
	ImpactNeutral  Impact = "neutral"
)

// Factor is one additive contribution to a predicted interval
type Factor struct {
	Name           string  `json:"name"`
	Impact         Impact  `json:"impact"`
	AdjustmentDays float64 `json:"adjustmentDays"`
	Description    string  `json:"description"`
}

// NewFactor builds a Factor whose impact follows the sign of days
func NewFactor(name string, days float64, description string) Factor {
	impact := ImpactNeutral
	switch {
	case days > 0:
		impact = ImpactIncrease
	case days < 0:
		impact = ImpactDecrease
	}
	return Factor{Name: name, Impact: impact, AdjustmentDays: days, Description: description}
}

// HealthStatus is the grower's assessment of the plant
type HealthStatus string

const (
	HealthExcellent HealthStatus = "excellent"
	HealthGood      HealthStatus = "good"
	HealthFair      HealthStatus = "fair"
	HealthPoor      HealthStatus = "poor"
	HealthCritical  HealthStatus = "critical"
)

// ParseHealthStatus normalizes a free-text health label
func ParseHealthStatus(s string) HealthStatus {
	return HealthStatus(strings.ToLower(strings.TrimSpace(s)))
}
