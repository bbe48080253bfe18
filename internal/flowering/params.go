package flowering

import (
	"fmt"

	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// Params holds every tunable of the flowering model. Durations are in days.
type Params struct {
	// IntervalAlpha smooths the gaps between cycle starts, newest first
	IntervalAlpha float64 `yaml:"interval_alpha" json:"intervalAlpha"`

	// Observations outside these limits are treated as data entry mistakes
	MaxIntervalDays     float64 `yaml:"max_interval_days" json:"maxIntervalDays"`
	MaxDurationDays     float64 `yaml:"max_duration_days" json:"maxDurationDays"`
	MaxPhaseDays        float64 `yaml:"max_phase_days" json:"maxPhaseDays"`
	MaxFemaleToMaleDays float64 `yaml:"max_female_to_male_days" json:"maxFemaleToMaleDays"`
	MaxDaysToFemale     float64 `yaml:"max_days_to_female" json:"maxDaysToFemale"`

	DefaultDaysToFemale     float64 `yaml:"default_days_to_female" json:"defaultDaysToFemale"`
	DefaultFemaleToMaleDays float64 `yaml:"default_female_to_male_days" json:"defaultFemaleToMaleDays"`

	// MinCompletedForNext completed cycles are needed before a next cycle is projected
	MinCompletedForNext      int     `yaml:"min_completed_for_next" json:"minCompletedForNext"`
	PollinationToleranceDays float64 `yaml:"pollination_tolerance_days" json:"pollinationToleranceDays"`

	MinConsistencyIntervals int     `yaml:"min_consistency_intervals" json:"minConsistencyIntervals"`
	HighConsistencyCV       float64 `yaml:"high_consistency_cv" json:"highConsistencyCV"`
	MediumConsistencyCV     float64 `yaml:"medium_consistency_cv" json:"mediumConsistencyCV"`

	FrequentDays   float64 `yaml:"frequent_days" json:"frequentDays"`
	InfrequentDays float64 `yaml:"infrequent_days" json:"infrequentDays"`

	Seasonality timeseries.SeasonalityParams `yaml:"seasonality" json:"seasonality"`
}

// DefaultParams returns the stock flowering model
func DefaultParams() Params {
	return Params{
		IntervalAlpha:            0.3,
		MaxIntervalDays:          365,
		MaxDurationDays:          120,
		MaxPhaseDays:             30,
		MaxFemaleToMaleDays:      20,
		MaxDaysToFemale:          60,
		DefaultDaysToFemale:      7,
		DefaultFemaleToMaleDays:  2,
		MinCompletedForNext:      2,
		PollinationToleranceDays: 1,
		MinConsistencyIntervals:  3,
		HighConsistencyCV:        0.2,
		MediumConsistencyCV:      0.4,
		FrequentDays:             90,
		InfrequentDays:           180,
		Seasonality: timeseries.SeasonalityParams{
			MinPoints:    6,
			MinMonths:    4,
			MinAmplitude: 0.5,
		},
	}
}

// Validate checks that the parameters describe a usable model
func (p Params) Validate() error {
	if p.IntervalAlpha <= 0 || p.IntervalAlpha > 1 {
		return fmt.Errorf("%w: flowering interval_alpha %v outside (0, 1]", care.ErrInvalidParams, p.IntervalAlpha)
	}
	limits := []struct {
		name string
		v    float64
	}{
		{"max_interval_days", p.MaxIntervalDays},
		{"max_duration_days", p.MaxDurationDays},
		{"max_phase_days", p.MaxPhaseDays},
		{"max_female_to_male_days", p.MaxFemaleToMaleDays},
		{"max_days_to_female", p.MaxDaysToFemale},
	}
	for _, l := range limits {
		if l.v <= 0 {
			return fmt.Errorf("%w: flowering %s must be positive", care.ErrInvalidParams, l.name)
		}
	}
	if p.DefaultDaysToFemale < 0 || p.DefaultFemaleToMaleDays < 0 || p.PollinationToleranceDays < 0 {
		return fmt.Errorf("%w: flowering default durations must not be negative", care.ErrInvalidParams)
	}
	if p.MinCompletedForNext < 1 {
		return fmt.Errorf("%w: flowering min_completed_for_next must be at least 1", care.ErrInvalidParams)
	}
	if p.HighConsistencyCV > p.MediumConsistencyCV {
		return fmt.Errorf("%w: flowering consistency thresholds out of order", care.ErrInvalidParams)
	}
	if p.FrequentDays > p.InfrequentDays {
		return fmt.Errorf("%w: flowering frequent_days exceeds infrequent_days", care.ErrInvalidParams)
	}
	return nil
}
