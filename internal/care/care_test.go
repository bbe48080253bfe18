package care

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		action   string
		expected Category
	}{
		{"Watered", CategoryWatering},
		{"Deep water + flush", CategoryWatering},
		{"Fertilized 1/2 strength", CategoryFertilizing},
		{"Repotted into chunky mix", CategoryRepotting},
		{"repot and water in", CategoryRepotting},
		{"Sprayed for thrips", CategoryPestDisease},
		{"Pruned old leaf", CategoryPruning},
		{"Moved to tent", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.action))
		})
	}
}

func TestMatchesAny(t *testing.T) {
	vocab := []string{"water", "fertil"}
	assert.True(t, MatchesAny("WATERED", vocab))
	assert.True(t, MatchesAny("fertilizer", vocab))
	assert.False(t, MatchesAny("repot", vocab))
	assert.False(t, MatchesAny("anything", nil))
}

func TestReadingsFromEvents(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{Date: base, Action: "water", ECIn: Float(1.2), ECOut: Float(1.6)},
		{Date: base.AddDate(0, 0, 3), Action: "water"},
		{Date: base.AddDate(0, 0, 6), Action: "fertilize", PHOut: Float(6.1)},
	}

	readings := ReadingsFromEvents(events)
	require.Len(t, readings, 2)
	assert.Equal(t, base.AddDate(0, 0, 6), readings[0].Date)

	delta, ok := readings[1].ECDelta()
	require.True(t, ok)
	assert.InDelta(t, 0.4, delta, 1e-9)

	_, ok = readings[0].PHDrift()
	assert.False(t, ok)
}

func TestLastRepotDate(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{Date: base, Action: "Repotted"},
		{Date: base.AddDate(0, 8, 0), Action: "repot into bigger pot"},
		{Date: base.AddDate(0, 9, 0), Action: "watered"},
	}

	last := LastRepotDate(events)
	require.NotNil(t, last)
	assert.Equal(t, base.AddDate(0, 8, 0), *last)

	assert.Nil(t, LastRepotDate(events[2:]))
}

func TestPrecipitationFromWeather(t *testing.T) {
	var w Weather
	w.Current.PrecipitationMM = 2
	w.Daily = []DailyWeather{{PrecipitationSumMM: 8}, {PrecipitationSumMM: 16}}

	p := PrecipitationFromWeather(w, true)
	require.NotNil(t, p)
	assert.Equal(t, 10.0, p.Last24hMM)
	assert.Equal(t, 26.0, p.Last48hMM)
	assert.True(t, p.IsOutdoor)

	assert.Nil(t, PrecipitationFromWeather(w, false))

	w.Daily = nil
	p = PrecipitationFromWeather(w, true)
	assert.Equal(t, 2.0, p.Last24hMM)
	assert.Equal(t, 2.0, p.Last48hMM)
}

func TestNewFactor(t *testing.T) {
	assert.Equal(t, ImpactIncrease, NewFactor("x", 0.5, "").Impact)
	assert.Equal(t, ImpactDecrease, NewFactor("x", -1, "").Impact)
	assert.Equal(t, ImpactNeutral, NewFactor("x", 0, "").Impact)
}

func TestFahrenheitToCelsius(t *testing.T) {
	assert.InDelta(t, 27.0, FahrenheitToCelsius(80.6), 1e-9)
	assert.InDelta(t, 0.0, FahrenheitToCelsius(32), 1e-9)
}

func TestVPD(t *testing.T) {
	tests := []struct {
		name     string
		tempC    float64
		humidity float64
		expected float64
	}{
		{"saturated", 25, 100, 0},
		{"oversaturated sensor", 25, 104, 0},
		{"dry air at 25C", 25, 0, 3.1677},
		{"typical tent", 25, 60, 1.2671},
		{"cool and humid", 15, 80, 0.3410},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, VPD(tt.tempC, tt.humidity), 0.001)
		})
	}
}
