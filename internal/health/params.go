package health

import (
	"fmt"

	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// Tier deducts Points when a measured value exceeds Above
type Tier struct {
	Above  float64 `yaml:"above" json:"above"`
	Points float64 `yaml:"points" json:"points"`
}

// BandTier deducts Points when a measured value leaves [Low, High]
type BandTier struct {
	Low    float64 `yaml:"low" json:"low"`
	High   float64 `yaml:"high" json:"high"`
	Points float64 `yaml:"points" json:"points"`
}

// ScoringParams define how a single reading is scored. Tier lists are checked
// in order and the first match applies, so the harshest tier goes first.
type ScoringParams struct {
	ECInOptimal   float64    `yaml:"ec_in_optimal" json:"ecInOptimal"`
	ECInDeviation []Tier     `yaml:"ec_in_deviation" json:"ecInDeviation"`
	ECOut         []Tier     `yaml:"ec_out" json:"ecOut"`
	ECDelta       []Tier     `yaml:"ec_delta" json:"ecDelta"`
	PHOut         []BandTier `yaml:"ph_out" json:"phOut"`
	PHDrift       []Tier     `yaml:"ph_drift" json:"phDrift"`

	// SubstrateAge tiers are in months between the repot and the reading
	SubstrateAge []Tier `yaml:"substrate_age" json:"substrateAge"`

	// Decay scales the i-th largest deduction by Decay^i
	Decay float64 `yaml:"decay" json:"decay"`
}

// LockoutParams flag nutrient lockout from the recent mean output pH
type LockoutParams struct {
	Window      int     `yaml:"window" json:"window"`
	MinReadings int     `yaml:"min_readings" json:"minReadings"`
	HighAbove   float64 `yaml:"high_above" json:"highAbove"`
	MediumAbove float64 `yaml:"medium_above" json:"mediumAbove"`
	HighBelow   float64 `yaml:"high_below" json:"highBelow"`
	MediumBelow float64 `yaml:"medium_below" json:"mediumBelow"`
}

// Params holds every tunable of the health model
type Params struct {
	MinReadings    int     `yaml:"min_readings" json:"minReadings"`
	MinTrendPoints int     `yaml:"min_trend_points" json:"minTrendPoints"`
	DefaultScore   float64 `yaml:"default_score" json:"defaultScore"`
	CriticalScore  float64 `yaml:"critical_score" json:"criticalScore"`

	// SlopeThreshold is in score points per day
	SlopeThreshold float64 `yaml:"slope_threshold" json:"slopeThreshold"`
	DeclineFloor   float64 `yaml:"decline_floor" json:"declineFloor"`

	// IntervalLevel is the coverage of the forecast prediction intervals
	IntervalLevel float64 `yaml:"interval_level" json:"intervalLevel"`

	ECDeltaMax  float64 `yaml:"ec_delta_max" json:"ecDeltaMax"`
	ECDeltaHigh float64 `yaml:"ec_delta_high" json:"ecDeltaHigh"`
	PHDriftMax  float64 `yaml:"ph_drift_max" json:"phDriftMax"`
	PHDriftHigh float64 `yaml:"ph_drift_high" json:"phDriftHigh"`
	PHOutLow    float64 `yaml:"ph_out_low" json:"phOutLow"`
	PHOutHigh   float64 `yaml:"ph_out_high" json:"phOutHigh"`

	OldSubstrateMonths float64 `yaml:"old_substrate_months" json:"oldSubstrateMonths"`
	DaysPerMonth       float64 `yaml:"days_per_month" json:"daysPerMonth"`

	ScoreWindow      int     `yaml:"score_window" json:"scoreWindow"`
	ScoreAlpha       float64 `yaml:"score_alpha" json:"scoreAlpha"`
	AnomalyThreshold float64 `yaml:"anomaly_threshold" json:"anomalyThreshold"`

	// ScoreStepDays is the reading cadence ScoreAlpha applies to; readings
	// further apart decay by more than one step
	ScoreStepDays float64 `yaml:"score_step_days" json:"scoreStepDays"`

	Lockout LockoutParams `yaml:"lockout" json:"lockout"`
	Scoring ScoringParams `yaml:"scoring" json:"scoring"`
}

// DefaultParams returns the stock health model, tuned for aroids in a chunky
// mix fed around EC 1.15
func DefaultParams() Params {
	return Params{
		MinReadings:        3,
		MinTrendPoints:     timeseries.DefaultMinTrendPoints,
		DefaultScore:       80,
		CriticalScore:      30,
		SlopeThreshold:     0.3,
		DeclineFloor:       40,
		IntervalLevel:      0.8,
		ECDeltaMax:         0.5,
		ECDeltaHigh:        1.0,
		PHDriftMax:         0.3,
		PHDriftHigh:        0.6,
		PHOutLow:           5.5,
		PHOutHigh:          6.5,
		OldSubstrateMonths: 18,
		DaysPerMonth:       30,
		ScoreWindow:        5,
		ScoreAlpha:         0.4,
		ScoreStepDays:      7,
		AnomalyThreshold:   timeseries.DefaultAnomalyThreshold,
		Lockout: LockoutParams{
			Window:      5,
			MinReadings: 2,
			HighAbove:   6.8,
			MediumAbove: 6.5,
			HighBelow:   5.0,
			MediumBelow: 5.5,
		},
		Scoring: ScoringParams{
			ECInOptimal:   1.15,
			ECInDeviation: []Tier{{0.5, 15}, {0.3, 8}, {0.15, 3}},
			ECOut:         []Tier{{2.5, 25}, {2.0, 15}, {1.8, 8}},
			ECDelta:       []Tier{{1.0, 20}, {0.7, 12}, {0.5, 6}},
			PHOut:         []BandTier{{5.2, 6.8, 25}, {5.5, 6.5, 12}, {5.6, 6.2, 5}},
			PHDrift:       []Tier{{0.8, 15}, {0.5, 8}, {0.3, 3}},
			SubstrateAge:  []Tier{{24, 10}, {18, 5}},
			Decay:         0.8,
		},
	}
}

// Validate checks that the parameters describe a usable model
func (p Params) Validate() error {
	if p.MinReadings < 1 {
		return fmt.Errorf("%w: health min_readings must be at least 1", care.ErrInvalidParams)
	}
	if p.MinTrendPoints < 2 {
		return fmt.Errorf("%w: health min_trend_points must be at least 2", care.ErrInvalidParams)
	}
	if p.DefaultScore < 0 || p.DefaultScore > 100 || p.CriticalScore < 0 || p.CriticalScore > 100 {
		return fmt.Errorf("%w: health scores must lie in [0, 100]", care.ErrInvalidParams)
	}
	if p.IntervalLevel <= 0 || p.IntervalLevel >= 1 {
		return fmt.Errorf("%w: health interval_level %v outside (0, 1)", care.ErrInvalidParams, p.IntervalLevel)
	}
	if p.ScoreAlpha <= 0 || p.ScoreAlpha > 1 {
		return fmt.Errorf("%w: health score_alpha %v outside (0, 1]", care.ErrInvalidParams, p.ScoreAlpha)
	}
	if p.ScoreStepDays <= 0 {
		return fmt.Errorf("%w: health score_step_days must be positive", care.ErrInvalidParams)
	}
	if p.ScoreWindow < 1 || p.Lockout.Window < 1 {
		return fmt.Errorf("%w: health windows must be at least 1", care.ErrInvalidParams)
	}
	if p.DaysPerMonth <= 0 {
		return fmt.Errorf("%w: health days_per_month must be positive", care.ErrInvalidParams)
	}
	if p.PHOutLow >= p.PHOutHigh {
		return fmt.Errorf("%w: health pH band [%v, %v] is empty", care.ErrInvalidParams, p.PHOutLow, p.PHOutHigh)
	}
	if p.Scoring.Decay <= 0 || p.Scoring.Decay > 1 {
		return fmt.Errorf("%w: health scoring decay %v outside (0, 1]", care.ErrInvalidParams, p.Scoring.Decay)
	}
	return nil
}
