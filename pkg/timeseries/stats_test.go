package timeseries

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/stat"
)

func TestStandardDeviation(t *testing.T) {
	tests := []struct {
		name     string
		series   []float64
		expected float64
	}{
		{name: "textbook population", series: []float64{2, 4, 4, 4, 5, 5, 7, 9}, expected: 2},
		{name: "single", series: []float64{3}, expected: 0},
		{name: "constant", series: []float64{5, 5, 5}, expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StandardDeviation(tt.series); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("StandardDeviation = %.6f, expected %.6f", got, tt.expected)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name     string
		series   []float64
		p        float64
		expected float64
	}{
		{name: "median even", series: []float64{4, 1, 3, 2}, p: 50, expected: 2.5},
		{name: "median odd", series: []float64{9, 1, 5}, p: 50, expected: 5},
		{name: "min", series: []float64{9, 1, 5}, p: 0, expected: 1},
		{name: "max", series: []float64{9, 1, 5}, p: 100, expected: 9},
		{name: "interpolated", series: []float64{10, 20, 30, 40, 50}, p: 90, expected: 46},
		{name: "empty", series: nil, p: 50, expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(tt.series, tt.p); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Percentile(%v, %.0f) = %.4f, expected %.4f", tt.series, tt.p, got, tt.expected)
			}
		})
	}
}

// stat.Quantile places sample i at cumulative weight i+1, so its LinInterp
// median of four values lands on the second one. Percentile interpolates by
// rank and splits the middle pair.
func TestPercentileRankInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	ours := Percentile(sorted, 50)
	theirs := stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	if ours != 2.5 {
		t.Errorf("Percentile median = %.2f, expected 2.5", ours)
	}
	if ours == theirs {
		t.Errorf("stat.Quantile LinInterp median = %.2f, expected it to differ from rank interpolation", theirs)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	expected := []float64{2, 3, 4}
	if len(got) != len(expected) {
		t.Fatalf("MovingAverage length = %d, expected %d", len(got), len(expected))
	}
	for i := range expected {
		if math.Abs(got[i]-expected[i]) > 1e-9 {
			t.Errorf("MovingAverage[%d] = %.3f, expected %.3f", i, got[i], expected[i])
		}
	}
}

func TestCalculateSeasonality(t *testing.T) {
	start := time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC)

	monthly := func(fn func(m time.Month) float64) []DataPoint {
		var points []DataPoint
		for i := 0; i < 24; i++ {
			at := start.AddDate(0, i, 0)
			points = append(points, DataPoint{Time: at, Value: fn(at.Month())})
		}
		return points
	}

	summerPeak := monthly(func(m time.Month) float64 {
		switch m {
		case time.July:
			return 12
		case time.January:
			return 4
		}
		return 7
	})

	result := CalculateSeasonality(summerPeak)
	if !result.HasSeason {
		t.Fatalf("expected a season, got %+v", result)
	}
	if *result.PeakMonth != 7 || *result.TroughMonth != 1 {
		t.Errorf("peak/trough = %d/%d, expected 7/1", *result.PeakMonth, *result.TroughMonth)
	}
	if result.Amplitude <= 0 || result.Amplitude > 1 {
		t.Errorf("Amplitude = %.3f, expected within (0,1]", result.Amplitude)
	}

	flat := CalculateSeasonality(monthly(func(time.Month) float64 { return 7 }))
	if flat.HasSeason || flat.PeakMonth != nil {
		t.Errorf("flat series reported a season: %+v", flat)
	}

	short := CalculateSeasonality(summerPeak[:8])
	if short.HasSeason {
		t.Errorf("eight points reported a season: %+v", short)
	}
}

func TestMonthDistance(t *testing.T) {
	tests := []struct{ a, b, expected int }{
		{1, 12, 1},
		{12, 1, 1},
		{3, 3, 0},
		{2, 8, 6},
		{6, 9, 3},
	}
	for _, tt := range tests {
		if got := MonthDistance(tt.a, tt.b); got != tt.expected {
			t.Errorf("MonthDistance(%d, %d) = %d, expected %d", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestClassifyConsistency(t *testing.T) {
	tests := []struct {
		name     string
		series   []float64
		expected Consistency
	}{
		{name: "metronome", series: []float64{7, 7, 7, 7}, expected: ConsistencyHigh},
		{name: "some wobble", series: []float64{5, 7, 6, 8}, expected: ConsistencyMedium},
		{name: "erratic", series: []float64{2, 14, 3, 20}, expected: ConsistencyLow},
		{name: "empty", series: nil, expected: ConsistencyLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyConsistency(tt.series, 0.15, 0.3); got != tt.expected {
				t.Errorf("ClassifyConsistency(%v) = %s, expected %s", tt.series, got, tt.expected)
			}
		})
	}
}
