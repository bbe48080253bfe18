// Package watering estimates when a plant next needs water from its care log,
// then shifts that estimate for climate, substrate age, plant health, season
// and recent rain.
package watering

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// Input is everything the predictor looks at. Only Events is required; a nil
// or empty optional field skips the matching adjustment.
type Input struct {
	Events        []care.Event
	Environment   *care.Environment
	LastRepot     *time.Time
	HealthStatus  string
	Precipitation *care.Precipitation
}

// Interval is the predicted watering interval in whole days
type Interval struct {
	Optimal int `json:"optimal"`
	Min     int `json:"min"`
	Max     int `json:"max"`
}

// Prediction is the outcome of Predict
type Prediction struct {
	NextWaterDate  time.Time               `json:"nextWaterDate"`
	DaysUntilWater int                     `json:"daysUntilWater"`
	Confidence     timeseries.Confidence   `json:"confidence"`
	Interval       Interval                `json:"interval"`
	Factors        []care.Factor           `json:"factors"`
	Trend          *timeseries.TrendResult `json:"trend"`
	DataPoints     int                     `json:"dataPoints"`
}

// Predictor computes watering predictions from a fixed set of Params
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

// Params returns the parameters the predictor was built with
func (p *Predictor) Params() Params {
	return p.params
}

// Predict estimates the next watering. It never fails on missing optional
// inputs; each absent signal simply contributes nothing.
func (p *Predictor) Predict(in Input, now time.Time) Prediction {
	events := p.wateringEvents(in.Events)
	gaps := p.gaps(events)
	factors := []care.Factor{}

	base := p.params.DefaultIntervalDays
	if len(gaps) > 0 {
		base = timeseries.EWMA(values(gaps), p.params.EWMAAlpha)
	}

	var trend *timeseries.TrendResult
	if len(gaps) >= p.params.MinTrendPoints {
		trend = timeseries.DetectTrend(gaps, p.params.MinTrendPoints)
	}

	optimal := base
	add := func(fs ...care.Factor) {
		for _, f := range fs {
			optimal += f.AdjustmentDays
			factors = append(factors, f)
		}
	}

	if in.Environment != nil {
		add(p.environmentFactors(*in.Environment)...)
	}
	if f, ok := p.substrateFactor(in.LastRepot, now); ok {
		add(f)
	}
	if f, ok := p.healthFactor(in.HealthStatus); ok {
		add(f)
	}
	if len(events) >= p.params.Seasonal.MinEvents {
		if f, ok := p.seasonalFactor(gaps, now); ok {
			add(f)
		}
	}
	if in.Precipitation != nil && in.Precipitation.IsOutdoor {
		if f, ok := p.rainFactor(*in.Precipitation); ok {
			add(f)
		}
	}

	minDays, maxDays := float64(p.params.MinIntervalDays), float64(p.params.MaxIntervalDays)
	bounded := int(math.Max(minDays, math.Min(maxDays, math.Round(optimal))))

	spread := p.params.DefaultSpreadDays
	if len(gaps) >= p.params.MinSpreadSamples {
		spread = timeseries.StandardDeviation(values(gaps))
	}
	lo := int(math.Max(minDays, math.Round(float64(bounded)-spread)))
	hi := int(math.Min(maxDays, math.Round(float64(bounded)+spread)))

	last := now
	if len(events) > 0 {
		last = events[0].Date
	}
	next := last.AddDate(0, 0, bounded)

	r2 := 0.0
	if trend != nil {
		r2 = trend.RSquared
	}

	p.logger.Debugw("watering prediction",
		"events", len(events),
		"usable_gaps", len(gaps),
		"base_days", base,
		"adjusted_days", optimal,
		"optimal_days", bounded,
		"factors", len(factors),
	)

	return Prediction{
		NextWaterDate:  next,
		DaysUntilWater: int(math.Round(timeseries.DaysBetween(now, next))),
		Confidence:     timeseries.ModelConfidence(len(events), r2, 0),
		Interval:       Interval{Optimal: bounded, Min: lo, Max: hi},
		Factors:        factors,
		Trend:          trend,
		DataPoints:     len(events),
	}
}

// wateringEvents keeps the events matching the vocabulary, most recent first
func (p *Predictor) wateringEvents(events []care.Event) []care.Event {
	var out []care.Event
	for _, e := range events {
		if care.MatchesAny(e.Action, p.params.Vocabulary) {
			out = append(out, e)
		}
	}
	care.SortEvents(out)
	return out
}

// gaps returns the day gaps between consecutive events that fall inside the
// plausible range, most recent first. Each gap is dated by its later event.
func (p *Predictor) gaps(events []care.Event) []timeseries.DataPoint {
	lo := float64(p.params.MinIntervalDays)
	hi := float64(p.params.MaxIntervalDays) + p.params.OutlierSlackDays
	return intervals(events, lo, hi)
}

func intervals(events []care.Event, lo, hi float64) []timeseries.DataPoint {
	var out []timeseries.DataPoint
	for i := 0; i+1 < len(events); i++ {
		days := timeseries.DaysBetween(events[i+1].Date, events[i].Date)
		if days < lo || days > hi {
			continue
		}
		out = append(out, timeseries.DataPoint{Time: events[i].Date, Value: days})
	}
	return out
}

func values(points []timeseries.DataPoint) []float64 {
	v := make([]float64, len(points))
	for i, pt := range points {
		v[i] = pt.Value
	}
	return v
}

func (p *Predictor) environmentFactors(env care.Environment) []care.Factor {
	var factors []care.Factor
	e := p.params.Environment

	if v, ok := finite(env.TemperatureC); ok {
		switch days, side := e.Temperature.Adjust(v); side {
		case 1:
			factors = append(factors, care.NewFactor("High Temperature", days, fmt.Sprintf("%.1f°C increases water demand", v)))
		case -1:
			factors = append(factors, care.NewFactor("Low Temperature", days, fmt.Sprintf("%.1f°C reduces water demand", v)))
		}
	}

	if v, ok := finite(env.HumidityPct); ok {
		switch days, side := e.Humidity.Adjust(v); side {
		case 1:
			factors = append(factors, care.NewFactor("High Humidity", days, fmt.Sprintf("%.0f%% humidity slows evaporation", v)))
		case -1:
			factors = append(factors, care.NewFactor("Low Humidity", days, fmt.Sprintf("%.0f%% humidity speeds evaporation", v)))
		}
	}

	if v, ok := finite(env.VPDKPa); ok {
		switch days, side := e.VPD.Adjust(v); side {
		case 1:
			factors = append(factors, care.NewFactor("High VPD", days, fmt.Sprintf("VPD %.2f kPa drives high transpiration", v)))
		case -1:
			factors = append(factors, care.NewFactor("Low VPD", days, fmt.Sprintf("VPD %.2f kPa limits transpiration", v)))
		}
	}

	if v, ok := finite(env.DLI); ok {
		switch days, side := e.DLI.Adjust(v); side {
		case 1:
			factors = append(factors, care.NewFactor("High Light", days, fmt.Sprintf("DLI %.1f mol/m²/day raises water use", v)))
		case -1:
			factors = append(factors, care.NewFactor("Low Light", days, fmt.Sprintf("DLI %.1f mol/m²/day lowers water uptake", v)))
		}
	}

	return factors
}

func (p *Predictor) substrateFactor(lastRepot *time.Time, now time.Time) (care.Factor, bool) {
	if lastRepot == nil || lastRepot.IsZero() {
		return care.Factor{}, false
	}
	if lastRepot.After(now) {
		p.logger.Debugw("ignoring repot date in the future", "repot", *lastRepot, "now", now)
		return care.Factor{}, false
	}

	s := p.params.Substrate
	months := timeseries.DaysBetween(*lastRepot, now) / s.DaysPerMonth

	var days float64
	var description string
	switch {
	case months > s.CompactedMonths:
		days = s.CompactedDays
		description = fmt.Sprintf("%.0f months since repot, substrate may be compacted", math.Round(months))
	case months > s.AgingMonths:
		days = s.AgingDays
		description = fmt.Sprintf("%.0f months since repot, monitor drainage", math.Round(months))
	case months < s.FreshMonths:
		days = s.FreshDays
		description = "Recently repotted, fresh substrate (heuristic)"
	}

	if days == 0 {
		return care.Factor{}, false
	}
	return care.NewFactor("Substrate Age", days, description), true
}

func (p *Predictor) healthFactor(status string) (care.Factor, bool) {
	if status == "" {
		return care.Factor{}, false
	}
	hs := care.ParseHealthStatus(status)
	days, ok := p.params.Health[string(hs)]
	if !ok {
		p.logger.Debugw("unknown health status", "status", status)
		return care.Factor{}, false
	}
	if days == 0 {
		return care.Factor{}, false
	}
	return care.NewFactor("Plant Health", days, fmt.Sprintf("Plant health is %s", hs)), true
}

func (p *Predictor) seasonalFactor(gaps []timeseries.DataPoint, now time.Time) (care.Factor, bool) {
	s := p.params.Seasonal
	season := timeseries.CalculateSeasonalityWith(gaps, s.Detection)
	if !season.HasSeason {
		return care.Factor{}, false
	}

	month := int(now.Month())
	switch {
	case season.PeakMonth != nil && timeseries.MonthDistance(month, *season.PeakMonth) <= s.ProximityMonths:
		return care.NewFactor("Seasonal Pattern", season.Amplitude*s.AmplitudeDays,
			fmt.Sprintf("Near seasonal peak (month %d), intervals run longer", *season.PeakMonth)), true
	case season.TroughMonth != nil && timeseries.MonthDistance(month, *season.TroughMonth) <= s.ProximityMonths:
		return care.NewFactor("Seasonal Pattern", -season.Amplitude*s.AmplitudeDays,
			fmt.Sprintf("Near seasonal trough (month %d), intervals run shorter", *season.TroughMonth)), true
	}
	return care.Factor{}, false
}

func (p *Predictor) rainFactor(precip care.Precipitation) (care.Factor, bool) {
	r := p.params.Rain
	if !timeseries.Finite(precip.Last24hMM) || precip.Last24hMM < r.MinimumMM {
		return care.Factor{}, false
	}

	var days float64
	var description string
	switch {
	case precip.Last24hMM >= r.HeavyMM:
		days = r.HeavyDays
		description = fmt.Sprintf("Heavy rain: %.1fmm (24h)", precip.Last24hMM)
	case precip.Last24hMM >= r.ModerateMM:
		days = r.ModerateDays
		description = fmt.Sprintf("Moderate rain: %.1fmm (24h)", precip.Last24hMM)
	default:
		days = r.LightDays
		description = fmt.Sprintf("Light rain: %.1fmm (24h)", precip.Last24hMM)
	}

	if timeseries.Finite(precip.Last48hMM) && precip.Last48hMM >= r.SustainedMM {
		days += r.SustainedDays
		description += fmt.Sprintf(" + sustained (%.1fmm 48h)", precip.Last48hMM)
	}

	return care.NewFactor("Recent Rain", days, description+" (heuristic)"), true
}

func finite(v *float64) (float64, bool) {
	if v == nil || !timeseries.Finite(*v) {
		return 0, false
	}
	return *v, true
}
