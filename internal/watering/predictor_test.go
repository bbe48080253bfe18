package watering

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

var now = time.Date(2024, 8, 15, 12, 0, 0, 0, time.UTC)

// everyNDays returns count watering events spaced n days apart, the newest
// lastAgo days before now
func everyNDays(count, n, lastAgo int) []care.Event {
	events := make([]care.Event, count)
	last := now.AddDate(0, 0, -lastAgo)
	for i := range events {
		events[i] = care.Event{Date: last.AddDate(0, 0, -i*n), Action: "Watered"}
	}
	return events
}

func newPredictor(t *testing.T) *Predictor {
	t.Helper()
	p, err := New(DefaultParams(), nil)
	require.NoError(t, err)
	return p
}

func TestScenarioRegularHistory(t *testing.T) {
	p := newPredictor(t)

	pred := p.Predict(Input{Events: everyNDays(10, 5, 1)}, now)

	assert.Equal(t, 5, pred.Interval.Optimal)
	assert.GreaterOrEqual(t, pred.Confidence.Score(), timeseries.ConfidenceMedium.Score())
	assert.Empty(t, pred.Factors)
	assert.Equal(t, 10, pred.DataPoints)
	assert.Equal(t, now.AddDate(0, 0, -1).AddDate(0, 0, 5), pred.NextWaterDate)
	assert.Equal(t, 4, pred.DaysUntilWater)
	require.NotNil(t, pred.Trend)
	assert.Equal(t, timeseries.DirectionStable, pred.Trend.Direction)
}

func TestScenarioHeatSpike(t *testing.T) {
	p := newPredictor(t)
	events := everyNDays(20, 5, 0)

	baseline := p.Predict(Input{Events: events}, now)
	hot := p.Predict(Input{
		Events:      events,
		Environment: &care.Environment{TemperatureC: care.Float(33)},
	}, now)

	assert.Equal(t, 5, baseline.Interval.Optimal)
	assert.Equal(t, 4, hot.Interval.Optimal)

	require.Len(t, hot.Factors, 1)
	assert.Equal(t, "High Temperature", hot.Factors[0].Name)
	assert.Equal(t, care.ImpactDecrease, hot.Factors[0].Impact)
	assert.InDelta(t, -1.2, hot.Factors[0].AdjustmentDays, 1e-9)
}

func TestScenarioRain(t *testing.T) {
	p := newPredictor(t)
	events := everyNDays(10, 5, 0)

	tests := []struct {
		name       string
		precip     *care.Precipitation
		expectDays float64
		expectNone bool
	}{
		{name: "moderate", precip: &care.Precipitation{Last24hMM: 15, Last48hMM: 15, IsOutdoor: true}, expectDays: 1.0},
		{name: "drizzle", precip: &care.Precipitation{Last24hMM: 3, Last48hMM: 3, IsOutdoor: true}, expectNone: true},
		{name: "light", precip: &care.Precipitation{Last24hMM: 6, Last48hMM: 6, IsOutdoor: true}, expectDays: 0.5},
		{name: "heavy", precip: &care.Precipitation{Last24hMM: 22, Last48hMM: 22, IsOutdoor: true}, expectDays: 1.5},
		{name: "heavy and sustained", precip: &care.Precipitation{Last24hMM: 22, Last48hMM: 30, IsOutdoor: true}, expectDays: 2.0},
		{name: "indoor", precip: &care.Precipitation{Last24hMM: 40, Last48hMM: 60, IsOutdoor: false}, expectNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := p.Predict(Input{Events: events, Precipitation: tt.precip}, now)

			var rain []care.Factor
			for _, f := range pred.Factors {
				if f.Name == "Recent Rain" {
					rain = append(rain, f)
				}
			}

			if tt.expectNone {
				assert.Empty(t, rain)
				return
			}
			require.Len(t, rain, 1)
			assert.InDelta(t, tt.expectDays, rain[0].AdjustmentDays, 1e-9)
			assert.Equal(t, care.ImpactIncrease, rain[0].Impact)
		})
	}
}

func TestPredictNoHistory(t *testing.T) {
	p := newPredictor(t)

	pred := p.Predict(Input{Events: []care.Event{{Date: now, Action: "repotted"}}}, now)

	assert.Equal(t, 7, pred.Interval.Optimal)
	assert.Equal(t, timeseries.ConfidenceLow, pred.Confidence)
	assert.Nil(t, pred.Trend)
	assert.Equal(t, 0, pred.DataPoints)
	assert.Equal(t, now.AddDate(0, 0, 7), pred.NextWaterDate)
	assert.NotNil(t, pred.Factors)
}

func TestPredictBounds(t *testing.T) {
	p := newPredictor(t)

	hostile := &care.Environment{
		TemperatureC: care.Float(45),
		HumidityPct:  care.Float(10),
		VPDKPa:       care.Float(3.5),
		DLI:          care.Float(40),
	}
	gentle := &care.Environment{
		TemperatureC: care.Float(5),
		HumidityPct:  care.Float(100),
		VPDKPa:       care.Float(0.1),
		DLI:          care.Float(1),
	}

	tests := []struct {
		name   string
		input  Input
		expect int
	}{
		{
			name:   "floor",
			input:  Input{Events: everyNDays(6, 2, 0), Environment: hostile, HealthStatus: "critical"},
			expect: 2,
		},
		{
			name: "ceiling",
			input: Input{
				Events:        everyNDays(6, 20, 0),
				Environment:   gentle,
				HealthStatus:  "Excellent",
				Precipitation: &care.Precipitation{Last24hMM: 50, Last48hMM: 80, IsOutdoor: true},
			},
			expect: 21,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := p.Predict(tt.input, now)
			assert.Equal(t, tt.expect, pred.Interval.Optimal)
			assert.LessOrEqual(t, pred.Interval.Min, pred.Interval.Optimal)
			assert.GreaterOrEqual(t, pred.Interval.Max, pred.Interval.Optimal)
			assert.GreaterOrEqual(t, pred.Interval.Min, 2)
			assert.LessOrEqual(t, pred.Interval.Max, 21)
		})
	}
}

func TestPredictOutlierGapsDiscarded(t *testing.T) {
	p := newPredictor(t)

	// a 60 day vacation gap and a same-day duplicate are both ignored
	events := everyNDays(6, 6, 0)
	events = append(events,
		care.Event{Date: events[5].Date.AddDate(0, 0, -60), Action: "water"},
		care.Event{Date: events[0].Date, Action: "fertilize"},
	)

	pred := p.Predict(Input{Events: events}, now)
	assert.Equal(t, 6, pred.Interval.Optimal)
	assert.Equal(t, 8, pred.DataPoints)
}

func TestSubstrateAge(t *testing.T) {
	p := newPredictor(t)
	events := everyNDays(10, 7, 0)

	tests := []struct {
		name     string
		repot    *time.Time
		expected float64
		none     bool
	}{
		{name: "fresh", repot: ptr(now.AddDate(0, 0, -10)), expected: 0.5},
		{name: "settled", repot: ptr(now.AddDate(0, 0, -200)), none: true},
		{name: "aging", repot: ptr(now.AddDate(0, 0, -420)), expected: 0.5},
		{name: "compacted", repot: ptr(now.AddDate(0, 0, -600)), expected: 1.0},
		{name: "future date", repot: ptr(now.AddDate(0, 0, 30)), none: true},
		{name: "unknown", repot: nil, none: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := p.Predict(Input{Events: events, LastRepot: tt.repot}, now)
			f := findFactor(pred.Factors, "Substrate Age")
			if tt.none {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.expected, f.AdjustmentDays)
		})
	}
}

func TestHealthStatusAdjustment(t *testing.T) {
	p := newPredictor(t)
	events := everyNDays(10, 7, 0)

	tests := []struct {
		status   string
		expected float64
	}{
		{"excellent", 0.5},
		{"Good", 0},
		{"FAIR", -0.5},
		{"poor", -1.0},
		{"critical", -1.5},
		{"thriving", 0},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			pred := p.Predict(Input{Events: events, HealthStatus: tt.status}, now)
			f := findFactor(pred.Factors, "Plant Health")
			if tt.expected == 0 {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.expected, f.AdjustmentDays)
		})
	}
}

func TestEnvironmentIgnoresNaN(t *testing.T) {
	p := newPredictor(t)
	nan := math.NaN()

	pred := p.Predict(Input{
		Events:      everyNDays(10, 7, 0),
		Environment: &care.Environment{TemperatureC: &nan, HumidityPct: care.Float(80)},
	}, now)

	require.Len(t, pred.Factors, 1)
	assert.Equal(t, "High Humidity", pred.Factors[0].Name)
	assert.InDelta(t, 0.25, pred.Factors[0].AdjustmentDays, 1e-9)
}

func TestSeasonalAdjustment(t *testing.T) {
	p := newPredictor(t)

	// two years of watering: every 4 days in winter, every 10 in summer
	var events []care.Event
	day := time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC)
	for day.Before(now) {
		events = append(events, care.Event{Date: day, Action: "water"})
		switch day.Month() {
		case time.June, time.July, time.August:
			day = day.AddDate(0, 0, 10)
		default:
			day = day.AddDate(0, 0, 4)
		}
	}

	pred := p.Predict(Input{Events: events}, now)
	f := findFactor(pred.Factors, "Seasonal Pattern")
	require.NotNil(t, f)
	assert.Equal(t, care.ImpactIncrease, f.Impact)
	assert.Greater(t, f.AdjustmentDays, 0.0)
	assert.LessOrEqual(t, f.AdjustmentDays, 2.0)

	// too few events to consider seasonality
	short := p.Predict(Input{Events: events[len(events)-11:]}, now)
	assert.Nil(t, findFactor(short.Factors, "Seasonal Pattern"))
}

func TestDeterministic(t *testing.T) {
	p := newPredictor(t)
	in := Input{
		Events:       everyNDays(15, 6, 2),
		Environment:  &care.Environment{TemperatureC: care.Float(29), VPDKPa: care.Float(1.6)},
		HealthStatus: "fair",
	}
	assert.Equal(t, p.Predict(in, now), p.Predict(in, now))
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"alpha zero", func(p *Params) { p.EWMAAlpha = 0 }},
		{"inverted bounds", func(p *Params) { p.MinIntervalDays = 30 }},
		{"default outside bounds", func(p *Params) { p.DefaultIntervalDays = 40 }},
		{"empty vocabulary", func(p *Params) { p.Vocabulary = nil }},
		{"zero band width", func(p *Params) { p.Environment.VPD.HighWidth = 0 }},
		{"rain thresholds", func(p *Params) { p.Rain.HeavyMM = 1 }},
		{"trend points", func(p *Params) { p.MinTrendPoints = 1 }},
		{"recent window", func(p *Params) { p.History.RecentWindow = 0 }},
		{"unknown health status", func(p *Params) { p.Health["wilting"] = -1 }},
		{"seasonal min events", func(p *Params) { p.Seasonal.MinEvents = 0 }},
		{"seasonal amplitude", func(p *Params) { p.Seasonal.AmplitudeDays = -2 }},
		{"seasonal proximity", func(p *Params) { p.Seasonal.ProximityMonths = 6 }},
		{"seasonal min months", func(p *Params) { p.Seasonal.Detection.MinMonths = 13 }},
		{"seasonal min points", func(p *Params) { p.Seasonal.Detection.MinPoints = 0 }},
		{"seasonal min amplitude", func(p *Params) { p.Seasonal.Detection.MinAmplitude = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			tt.mutate(&params)
			err := params.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, care.ErrInvalidParams))

			_, err = New(params, nil)
			assert.Error(t, err)
		})
	}
}

func findFactor(factors []care.Factor, name string) *care.Factor {
	for i := range factors {
		if factors[i].Name == name {
			return &factors[i]
		}
	}
	return nil
}

func ptr(t time.Time) *time.Time {
	return &t
}
