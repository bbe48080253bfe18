// Package health projects substrate health from EC and pH measurements of the
// feed going in and the runoff coming out. Salt buildup shows up as runoff EC
// above input EC and buffering loss as runoff pH drifting from input pH.
package health

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// Direction is the overall course of substrate health
type Direction string

const (
	Improving Direction = "improving"
	Stable    Direction = "stable"
	Declining Direction = "declining"
	Critical  Direction = "critical"
)

// Severity ranks risk factors
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskType names the category of a risk factor
type RiskType string

const (
	RiskECBuildup            RiskType = "ec_buildup"
	RiskPHDrift              RiskType = "ph_drift"
	RiskSubstrateDegradation RiskType = "substrate_degradation"
	RiskNutrientLockout      RiskType = "nutrient_lockout"
	RiskRootStress           RiskType = "root_stress"
)

// AlertLevel ranks alerts
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// RiskFactor is one violated rule
type RiskFactor struct {
	Type        RiskType `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Value       *float64 `json:"value,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty"`
}

// Alert is a risk worth surfacing outside the detail view
type Alert struct {
	Level          AlertLevel `json:"level"`
	Type           string     `json:"type"`
	Message        string     `json:"message"`
	ActionRequired string     `json:"actionRequired,omitempty"`
}

// Trends holds the fitted trend of each tracked signal
type Trends struct {
	ECDelta         *timeseries.TrendResult `json:"ecDelta"`
	PHDrift         *timeseries.TrendResult `json:"phDrift"`
	SubstrateHealth *timeseries.TrendResult `json:"substrateHealth"`
}

// ScoreForecast is a projected score with its prediction interval
type ScoreForecast struct {
	HorizonDays int `json:"horizonDays"`
	Score       int `json:"score"`
	Lower       int `json:"lower"`
	Upper       int `json:"upper"`
}

// Trajectory is the outcome of Predict
type Trajectory struct {
	Trajectory        Direction             `json:"trajectory"`
	CurrentScore      int                   `json:"currentScore"`
	PredictedScore7d  int                   `json:"predictedScore7d"`
	PredictedScore14d int                   `json:"predictedScore14d"`
	PredictedScore30d int                   `json:"predictedScore30d"`
	Forecast          []ScoreForecast       `json:"forecast"`
	Confidence        timeseries.Confidence `json:"confidence"`
	RiskFactors       []RiskFactor          `json:"riskFactors"`
	Interventions     []string              `json:"interventions"`
	Trends            Trends                `json:"trends"`
	Alerts            []Alert               `json:"alerts"`
	DataPoints        int                   `json:"dataPoints"`
}

var horizons = []int{7, 14, 30}

// Predictor computes health trajectories from a fixed set of Params
type Predictor struct {
	params Params
	logger *zap.SugaredLogger
}

// New validates params and returns a Predictor. A nil logger discards output.
func New(params Params, logger *zap.SugaredLogger) (*Predictor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Predictor{params: params, logger: logger}, nil
}

// findings accumulates risks, alerts and one intervention per risk category
type findings struct {
	risks         []RiskFactor
	alerts        []Alert
	interventions []string
	seen          map[RiskType]bool
}

func (f *findings) risk(r RiskFactor, intervention string) {
	f.risks = append(f.risks, r)
	if intervention == "" || f.seen[r.Type] {
		return
	}
	if f.seen == nil {
		f.seen = make(map[RiskType]bool)
	}
	f.seen[r.Type] = true
	f.interventions = append(f.interventions, intervention)
}

func (f *findings) alert(a Alert) {
	f.alerts = append(f.alerts, a)
}

// Predict projects substrate health from readings as of now. Readings may be
// in any order. With fewer than MinReadings readings the default score is
// reported with low confidence, though substrate age is still checked.
func (p *Predictor) Predict(readings []care.Reading, lastRepot *time.Time, now time.Time) Trajectory {
	sorted := sortedCopy(readings)
	var f findings

	if len(sorted) < p.params.MinReadings {
		f.interventions = append(f.interventions, "Continue monitoring, more EC/pH readings are needed for a projection")
		p.checkSubstrateAge(&f, lastRepot, now)

		score := int(math.Round(p.params.DefaultScore))
		return Trajectory{
			Trajectory:        Stable,
			CurrentScore:      score,
			PredictedScore7d:  score,
			PredictedScore14d: score,
			PredictedScore30d: score,
			Forecast:          flatForecast(score),
			Confidence:        timeseries.ConfidenceLow,
			RiskFactors:       nonNilRisks(f.risks),
			Interventions:     f.interventions,
			Alerts:            nonNilAlerts(f.alerts),
			DataPoints:        len(readings),
		}
	}

	ecTrend := p.checkECDelta(&f, sorted)
	phTrend := p.checkPHDrift(&f, sorted)

	scores := p.scoreSeries(sorted, lastRepot)
	var healthTrend *timeseries.TrendResult
	if len(scores) >= p.params.MinTrendPoints {
		healthTrend = timeseries.DetectTrend(scores, p.params.MinTrendPoints)
	}

	current := p.params.DefaultScore
	if len(scores) > 0 {
		current = scores[0].Value
	}

	forecast := make([]ScoreForecast, len(horizons))
	for i, h := range horizons {
		fc := ScoreForecast{HorizonDays: h, Score: roundScore(current), Lower: roundScore(current), Upper: roundScore(current)}
		if len(scores) >= p.params.MinReadings {
			iv := timeseries.PredictionInterval(scores, float64(h), p.params.IntervalLevel)
			fc.Score = roundScore(iv.Predicted)
			fc.Lower = roundScore(iv.Lower)
			fc.Upper = roundScore(iv.Upper)
		}
		forecast[i] = fc
	}
	predicted30 := float64(forecast[2].Score)

	direction := Stable
	slope := (predicted30 - current) / 30
	switch {
	case current < p.params.CriticalScore:
		direction = Critical
		f.risk(RiskFactor{
			Type:        RiskRootStress,
			Severity:    SeverityCritical,
			Description: fmt.Sprintf("Substrate health score %.0f is below %.0f", current, p.params.CriticalScore),
			Value:       care.Float(current),
			Threshold:   care.Float(p.params.CriticalScore),
		}, "Repot with fresh substrate immediately")
		f.alert(Alert{
			Level:          AlertCritical,
			Type:           "substrate_failure",
			Message:        "Substrate health critically low",
			ActionRequired: "Immediate repotting recommended",
		})
	case slope > p.params.SlopeThreshold:
		direction = Improving
	case slope < -p.params.SlopeThreshold:
		direction = Declining
		if predicted30 < p.params.DeclineFloor {
			f.risk(RiskFactor{
				Type:        RiskSubstrateDegradation,
				Severity:    SeverityHigh,
				Description: "Substrate health projected to fall below a safe level within 30 days",
				Value:       care.Float(predicted30),
				Threshold:   care.Float(p.params.DeclineFloor),
			}, "Plan a substrate refresh within 2-4 weeks")
		}
	}

	p.checkLockout(&f, sorted)
	p.checkSubstrateAge(&f, lastRepot, now)

	r2 := 0.0
	if healthTrend != nil {
		r2 = healthTrend.RSquared
	}
	anomalyRate := p.anomalyRate(sorted)

	p.logger.Debugw("health trajectory",
		"readings", len(sorted),
		"scored", len(scores),
		"current", current,
		"predicted_30d", predicted30,
		"direction", direction,
		"anomaly_rate", anomalyRate,
	)

	return Trajectory{
		Trajectory:        direction,
		CurrentScore:      roundScore(current),
		PredictedScore7d:  forecast[0].Score,
		PredictedScore14d: forecast[1].Score,
		PredictedScore30d: forecast[2].Score,
		Forecast:          forecast,
		Confidence:        timeseries.ModelConfidence(len(readings), r2, anomalyRate),
		RiskFactors:       nonNilRisks(f.risks),
		Interventions:     nonNilStrings(f.interventions),
		Trends: Trends{
			ECDelta:         ecTrend,
			PHDrift:         phTrend,
			SubstrateHealth: healthTrend,
		},
		Alerts:     nonNilAlerts(f.alerts),
		DataPoints: len(readings),
	}
}

func (p *Predictor) checkECDelta(f *findings, sorted []care.Reading) *timeseries.TrendResult {
	var deltas []timeseries.DataPoint
	for _, r := range sorted {
		if d, ok := r.ECDelta(); ok && timeseries.Finite(d) {
			deltas = append(deltas, timeseries.DataPoint{Time: r.Date, Value: d})
		}
	}
	if len(deltas) < p.params.MinReadings {
		return nil
	}

	trend := timeseries.DetectTrend(deltas, p.params.MinTrendPoints)
	current := deltas[0].Value
	if current <= p.params.ECDeltaMax {
		return trend
	}

	severity := SeverityMedium
	if current > p.params.ECDeltaHigh {
		severity = SeverityHigh
	}
	f.risk(RiskFactor{
		Type:        RiskECBuildup,
		Severity:    severity,
		Description: fmt.Sprintf("Runoff EC %.2f above input", current),
		Value:       care.Float(current),
		Threshold:   care.Float(p.params.ECDeltaMax),
	}, "Flush substrate with pH 5.7 water at half strength")

	rising := trend != nil && trend.Direction == timeseries.DirectionIncreasing
	if rising || severity == SeverityHigh {
		level := AlertWarning
		if severity == SeverityHigh {
			level = AlertCritical
		}
		f.alert(Alert{
			Level:          level,
			Type:           string(RiskECBuildup),
			Message:        fmt.Sprintf("EC buildup at %.2f", current),
			ActionRequired: "Flush with pH-adjusted water",
		})
	}
	return trend
}

func (p *Predictor) checkPHDrift(f *findings, sorted []care.Reading) *timeseries.TrendResult {
	var drifts []timeseries.DataPoint
	var phOuts []float64
	for _, r := range sorted {
		if d, ok := r.PHDrift(); ok && timeseries.Finite(d) {
			drifts = append(drifts, timeseries.DataPoint{Time: r.Date, Value: d})
		}
		if r.PHOut != nil && timeseries.Finite(*r.PHOut) {
			phOuts = append(phOuts, *r.PHOut)
		}
	}
	if len(drifts) < p.params.MinReadings {
		return nil
	}

	trend := timeseries.DetectTrend(drifts, p.params.MinTrendPoints)
	current := drifts[0].Value
	if current <= p.params.PHDriftMax {
		return trend
	}

	severity := SeverityMedium
	if current > p.params.PHDriftHigh {
		severity = SeverityHigh
	}

	avgOut := timeseries.Mean(phOuts)
	intervention := "Add a buffering agent to stabilize substrate pH"
	switch {
	case avgOut > p.params.PHOutHigh:
		intervention = "Lower input pH to 5.5-5.7"
		f.alert(Alert{
			Level:          AlertWarning,
			Type:           "ph_high",
			Message:        fmt.Sprintf("Runoff pH trending high (%.2f)", avgOut),
			ActionRequired: "Acidify input water to avoid micronutrient lockout",
		})
	case avgOut < p.params.PHOutLow:
		intervention = "Raise input pH to 5.8-6.0"
		f.alert(Alert{
			Level:          AlertWarning,
			Type:           "ph_low",
			Message:        fmt.Sprintf("Runoff pH trending low (%.2f)", avgOut),
			ActionRequired: "Raise input pH to avoid macronutrient lockout",
		})
	}

	f.risk(RiskFactor{
		Type:        RiskPHDrift,
		Severity:    severity,
		Description: fmt.Sprintf("Runoff pH %.2f away from input", current),
		Value:       care.Float(current),
		Threshold:   care.Float(p.params.PHDriftMax),
	}, intervention)
	return trend
}

func (p *Predictor) checkLockout(f *findings, sorted []care.Reading) {
	l := p.params.Lockout
	window := sorted
	if len(window) > l.Window {
		window = window[:l.Window]
	}

	var phOuts []float64
	for _, r := range window {
		if r.PHOut != nil && timeseries.Finite(*r.PHOut) {
			phOuts = append(phOuts, *r.PHOut)
		}
	}
	if len(phOuts) < l.MinReadings {
		return
	}

	avg := timeseries.Mean(phOuts)
	var severity Severity
	var description, intervention string
	switch {
	case avg > l.HighAbove:
		severity = SeverityHigh
		description = fmt.Sprintf("Runoff pH %.2f, high risk of micronutrient lockout (Fe, Mn, Zn)", avg)
		intervention = "Add an iron chelate supplement and lower input pH"
	case avg > l.MediumAbove:
		severity = SeverityMedium
		description = fmt.Sprintf("Runoff pH %.2f, micronutrient availability may suffer", avg)
		intervention = "Watch new leaves for chlorosis and correct input pH"
	case avg < l.HighBelow:
		severity = SeverityHigh
		description = fmt.Sprintf("Runoff pH %.2f, high risk of calcium and magnesium lockout", avg)
		intervention = "Raise input pH and consider a lime amendment"
	case avg < l.MediumBelow:
		severity = SeverityMedium
		description = fmt.Sprintf("Runoff pH %.2f, macronutrient availability may suffer", avg)
		intervention = "Raise input pH slightly"
	default:
		return
	}

	f.risk(RiskFactor{Type: RiskNutrientLockout, Severity: severity, Description: description, Value: care.Float(avg)}, intervention)
	if severity == SeverityHigh {
		f.alert(Alert{
			Level:          AlertWarning,
			Type:           string(RiskNutrientLockout),
			Message:        description,
			ActionRequired: intervention,
		})
	}
}

func (p *Predictor) checkSubstrateAge(f *findings, lastRepot *time.Time, now time.Time) {
	if lastRepot == nil || lastRepot.IsZero() || lastRepot.After(now) {
		return
	}
	months := timeseries.DaysBetween(*lastRepot, now) / p.params.DaysPerMonth
	if months <= p.params.OldSubstrateMonths {
		return
	}
	f.risk(RiskFactor{
		Type:        RiskSubstrateDegradation,
		Severity:    SeverityMedium,
		Description: fmt.Sprintf("%.0f months since last repot", math.Round(months)),
		Value:       care.Float(months),
		Threshold:   care.Float(p.params.OldSubstrateMonths),
	}, "Consider a substrate refresh based on age")
}

func roundScore(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func flatForecast(score int) []ScoreForecast {
	out := make([]ScoreForecast, len(horizons))
	for i, h := range horizons {
		out[i] = ScoreForecast{HorizonDays: h, Score: score, Lower: score, Upper: score}
	}
	return out
}

func nonNilRisks(r []RiskFactor) []RiskFactor {
	if r == nil {
		return []RiskFactor{}
	}
	return r
}

func nonNilAlerts(a []Alert) []Alert {
	if a == nil {
		return []Alert{}
	}
	return a
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
