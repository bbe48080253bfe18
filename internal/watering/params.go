package watering

import (
	"fmt"
	"sort"

	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// Params holds every tunable of the watering model
type Params struct {
	// Vocabulary lists the action substrings that count as a watering
	Vocabulary []string `yaml:"vocabulary" json:"vocabulary"`

	DefaultIntervalDays float64 `yaml:"default_interval_days" json:"defaultIntervalDays"`
	MinIntervalDays     int     `yaml:"min_interval_days" json:"minIntervalDays"`
	MaxIntervalDays     int     `yaml:"max_interval_days" json:"maxIntervalDays"`

	// Gaps longer than MaxIntervalDays+OutlierSlackDays are discarded
	OutlierSlackDays float64 `yaml:"outlier_slack_days" json:"outlierSlackDays"`

	EWMAAlpha float64 `yaml:"ewma_alpha" json:"ewmaAlpha"`

	// DefaultSpreadDays is used for min/max when fewer than MinSpreadSamples gaps exist
	DefaultSpreadDays float64 `yaml:"default_spread_days" json:"defaultSpreadDays"`
	MinSpreadSamples  int     `yaml:"min_spread_samples" json:"minSpreadSamples"`

	MinTrendPoints int `yaml:"min_trend_points" json:"minTrendPoints"`

	Environment EnvironmentParams  `yaml:"environment" json:"environment"`
	Substrate   SubstrateParams    `yaml:"substrate" json:"substrate"`
	Health      map[string]float64 `yaml:"health" json:"health"`
	Seasonal    SeasonalParams     `yaml:"seasonal" json:"seasonal"`
	Rain        RainParams         `yaml:"rain" json:"rain"`
	History     HistoryParams      `yaml:"history" json:"history"`
}

// Ramp is a comfort band with linear adjustments outside it. Above High the
// adjustment is HighDays*(x-High)/HighWidth; below Low it is
// LowDays*(Low-x)/LowWidth.
type Ramp struct {
	High      float64 `yaml:"high" json:"high"`
	HighDays  float64 `yaml:"high_days" json:"highDays"`
	HighWidth float64 `yaml:"high_width" json:"highWidth"`
	Low       float64 `yaml:"low" json:"low"`
	LowDays   float64 `yaml:"low_days" json:"lowDays"`
	LowWidth  float64 `yaml:"low_width" json:"lowWidth"`
}

// Adjust returns the adjustment for x and which side of the band it fell on
// (+1 above, -1 below, 0 inside)
func (r Ramp) Adjust(x float64) (float64, int) {
	switch {
	case x > r.High:
		return r.HighDays * (x - r.High) / r.HighWidth, 1
	case x < r.Low:
		return r.LowDays * (r.Low - x) / r.LowWidth, -1
	}
	return 0, 0
}

func (r Ramp) validate(name string) error {
	if r.Low > r.High {
		return fmt.Errorf("%w: %s band low %v above high %v", care.ErrInvalidParams, name, r.Low, r.High)
	}
	if r.HighWidth <= 0 || r.LowWidth <= 0 {
		return fmt.Errorf("%w: %s band widths must be positive", care.ErrInvalidParams, name)
	}
	return nil
}

// EnvironmentParams are the climate comfort bands
type EnvironmentParams struct {
	Temperature Ramp `yaml:"temperature" json:"temperature"`
	Humidity    Ramp `yaml:"humidity" json:"humidity"`
	VPD         Ramp `yaml:"vpd" json:"vpd"`
	DLI         Ramp `yaml:"dli" json:"dli"`
}

// SubstrateParams adjusts for time since the last repot. Both old and very
// fresh substrate lengthen the interval; the fresh-substrate bonus is a
// heuristic and can be zeroed.
type SubstrateParams struct {
	DaysPerMonth    float64 `yaml:"days_per_month" json:"daysPerMonth"`
	CompactedMonths float64 `yaml:"compacted_months" json:"compactedMonths"`
	CompactedDays   float64 `yaml:"compacted_days" json:"compactedDays"`
	AgingMonths     float64 `yaml:"aging_months" json:"agingMonths"`
	AgingDays       float64 `yaml:"aging_days" json:"agingDays"`
	FreshMonths     float64 `yaml:"fresh_months" json:"freshMonths"`
	FreshDays       float64 `yaml:"fresh_days" json:"freshDays"`
}

// SeasonalParams gates and scales the seasonal adjustment
type SeasonalParams struct {
	MinEvents       int                          `yaml:"min_events" json:"minEvents"`
	AmplitudeDays   float64                      `yaml:"amplitude_days" json:"amplitudeDays"`
	ProximityMonths int                          `yaml:"proximity_months" json:"proximityMonths"`
	Detection       timeseries.SeasonalityParams `yaml:"detection" json:"detection"`
}

// RainParams are the precipitation thresholds for outdoor plants. They are
// not calibrated against measured substrate moisture.
type RainParams struct {
	MinimumMM     float64 `yaml:"minimum_mm" json:"minimumMm"`
	LightDays     float64 `yaml:"light_days" json:"lightDays"`
	ModerateMM    float64 `yaml:"moderate_mm" json:"moderateMm"`
	ModerateDays  float64 `yaml:"moderate_days" json:"moderateDays"`
	HeavyMM       float64 `yaml:"heavy_mm" json:"heavyMm"`
	HeavyDays     float64 `yaml:"heavy_days" json:"heavyDays"`
	SustainedMM   float64 `yaml:"sustained_mm" json:"sustainedMm"`
	SustainedDays float64 `yaml:"sustained_days" json:"sustainedDays"`
}

// HistoryParams tune AnalyzeHistory
type HistoryParams struct {
	MinGapDays          float64 `yaml:"min_gap_days" json:"minGapDays"`
	MaxGapDays          float64 `yaml:"max_gap_days" json:"maxGapDays"`
	RecentWindow        int     `yaml:"recent_window" json:"recentWindow"`
	RecentAlpha         float64 `yaml:"recent_alpha" json:"recentAlpha"`
	TrendDeadZoneDays   float64 `yaml:"trend_dead_zone_days" json:"trendDeadZoneDays"`
	HighConsistencyCV   float64 `yaml:"high_consistency_cv" json:"highConsistencyCv"`
	MediumConsistencyCV float64 `yaml:"medium_consistency_cv" json:"mediumConsistencyCv"`
}

// DefaultParams returns the stock watering model
func DefaultParams() Params {
	return Params{
		Vocabulary:          []string{"water", "fertil"},
		DefaultIntervalDays: 7,
		MinIntervalDays:     2,
		MaxIntervalDays:     21,
		OutlierSlackDays:    7,
		EWMAAlpha:           0.35,
		DefaultSpreadDays:   1.5,
		MinSpreadSamples:    3,
		MinTrendPoints:      timeseries.DefaultMinTrendPoints,
		Environment: EnvironmentParams{
			// -1 day per 5°C above 27, +0.5 day per 5°C below 20
			Temperature: Ramp{High: 27, HighDays: -1.0, HighWidth: 5, Low: 20, LowDays: 0.5, LowWidth: 5},
			Humidity:    Ramp{High: 70, HighDays: 0.5, HighWidth: 20, Low: 40, LowDays: -0.5, LowWidth: 20},
			VPD:         Ramp{High: 1.4, HighDays: -0.7, HighWidth: 0.5, Low: 0.6, LowDays: 0.5, LowWidth: 0.3},
			DLI:         Ramp{High: 16, HighDays: -0.3, HighWidth: 4, Low: 8, LowDays: 0.3, LowWidth: 4},
		},
		Substrate: SubstrateParams{
			DaysPerMonth:    30,
			CompactedMonths: 18,
			CompactedDays:   1.0,
			AgingMonths:     12,
			AgingDays:       0.5,
			FreshMonths:     1,
			FreshDays:       0.5,
		},
		Health: map[string]float64{
			string(care.HealthExcellent): 0.5,
			string(care.HealthGood):      0,
			string(care.HealthFair):      -0.5,
			string(care.HealthPoor):      -1.0,
			string(care.HealthCritical):  -1.5,
		},
		Seasonal: SeasonalParams{
			MinEvents:       12,
			AmplitudeDays:   2,
			ProximityMonths: 1,
			Detection:       timeseries.DefaultSeasonalityParams(),
		},
		Rain: RainParams{
			MinimumMM:     5,
			LightDays:     0.5,
			ModerateMM:    10,
			ModerateDays:  1.0,
			HeavyMM:       20,
			HeavyDays:     1.5,
			SustainedMM:   25,
			SustainedDays: 0.5,
		},
		History: HistoryParams{
			MinGapDays:          1,
			MaxGapDays:          30,
			RecentWindow:        5,
			RecentAlpha:         0.4,
			TrendDeadZoneDays:   1,
			HighConsistencyCV:   0.15,
			MediumConsistencyCV: 0.3,
		},
	}
}

// Validate checks that the parameters describe a usable model
func (p Params) Validate() error {
	if len(p.Vocabulary) == 0 {
		return fmt.Errorf("%w: watering vocabulary is empty", care.ErrInvalidParams)
	}
	if p.MinIntervalDays < 1 || p.MinIntervalDays > p.MaxIntervalDays {
		return fmt.Errorf("%w: watering interval bounds [%d, %d]", care.ErrInvalidParams, p.MinIntervalDays, p.MaxIntervalDays)
	}
	if p.DefaultIntervalDays < float64(p.MinIntervalDays) || p.DefaultIntervalDays > float64(p.MaxIntervalDays) {
		return fmt.Errorf("%w: watering default interval %v outside [%d, %d]",
			care.ErrInvalidParams, p.DefaultIntervalDays, p.MinIntervalDays, p.MaxIntervalDays)
	}
	if p.EWMAAlpha <= 0 || p.EWMAAlpha > 1 {
		return fmt.Errorf("%w: watering ewma_alpha %v outside (0, 1]", care.ErrInvalidParams, p.EWMAAlpha)
	}
	if p.History.RecentAlpha <= 0 || p.History.RecentAlpha > 1 {
		return fmt.Errorf("%w: watering history recent_alpha %v outside (0, 1]", care.ErrInvalidParams, p.History.RecentAlpha)
	}
	if p.DefaultSpreadDays < 0 || p.OutlierSlackDays < 0 {
		return fmt.Errorf("%w: watering spread and outlier slack must be non-negative", care.ErrInvalidParams)
	}
	if p.Substrate.DaysPerMonth <= 0 {
		return fmt.Errorf("%w: watering substrate days_per_month must be positive", care.ErrInvalidParams)
	}
	if p.Rain.MinimumMM > p.Rain.ModerateMM || p.Rain.ModerateMM > p.Rain.HeavyMM {
		return fmt.Errorf("%w: watering rain thresholds must be ascending", care.ErrInvalidParams)
	}
	if p.MinTrendPoints < 2 {
		return fmt.Errorf("%w: watering min_trend_points %d below 2", care.ErrInvalidParams, p.MinTrendPoints)
	}
	if p.History.RecentWindow < 1 {
		return fmt.Errorf("%w: watering history recent_window must be positive", care.ErrInvalidParams)
	}
	if err := validateHealth(p.Health); err != nil {
		return err
	}
	if err := p.Seasonal.validate(); err != nil {
		return err
	}

	ramps := []struct {
		name string
		ramp Ramp
	}{
		{"temperature", p.Environment.Temperature},
		{"humidity", p.Environment.Humidity},
		{"vpd", p.Environment.VPD},
		{"dli", p.Environment.DLI},
	}
	for _, r := range ramps {
		if err := r.ramp.validate(r.name); err != nil {
			return err
		}
	}

	return nil
}

// validateHealth rejects adjustments for statuses a grower cannot report
func validateHealth(adjust map[string]float64) error {
	known := map[care.HealthStatus]bool{
		care.HealthExcellent: true,
		care.HealthGood:      true,
		care.HealthFair:      true,
		care.HealthPoor:      true,
		care.HealthCritical:  true,
	}

	keys := make([]string, 0, len(adjust))
	for k := range adjust {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !known[care.HealthStatus(k)] {
			return fmt.Errorf("%w: watering health status %q is not one of excellent, good, fair, poor or critical", care.ErrInvalidParams, k)
		}
	}
	return nil
}

func (s SeasonalParams) validate() error {
	if s.MinEvents < 1 {
		return fmt.Errorf("%w: watering seasonal min_events must be positive", care.ErrInvalidParams)
	}
	if s.AmplitudeDays < 0 {
		return fmt.Errorf("%w: watering seasonal amplitude_days must be non-negative", care.ErrInvalidParams)
	}
	// six months away matches both peak and trough
	if s.ProximityMonths < 0 || s.ProximityMonths > 5 {
		return fmt.Errorf("%w: watering seasonal proximity_months %d outside [0, 5]", care.ErrInvalidParams, s.ProximityMonths)
	}
	d := s.Detection
	if d.MinPoints < 1 || d.MinMonths < 1 || d.MinMonths > 12 {
		return fmt.Errorf("%w: watering seasonal detection needs min_points >= 1 and min_months in [1, 12]", care.ErrInvalidParams)
	}
	if d.MinAmplitude < 0 {
		return fmt.Errorf("%w: watering seasonal detection min_amplitude must be non-negative", care.ErrInvalidParams)
	}
	return nil
}
