package timeseries

import (
	"math"
	"time"
)

// SeasonalityParams tunes monthly seasonality detection
type SeasonalityParams struct {
	// MinPoints is the smallest sample considered at all
	MinPoints int `yaml:"min_points" json:"minPoints"`

	// MinMonths is the number of distinct calendar months that must carry data
	MinMonths int `yaml:"min_months" json:"minMonths"`

	// MinAmplitude is the normalized peak-to-trough spread required to report a season
	MinAmplitude float64 `yaml:"min_amplitude" json:"minAmplitude"`
}

// DefaultSeasonalityParams returns the thresholds used by CalculateSeasonality
func DefaultSeasonalityParams() SeasonalityParams {
	return SeasonalityParams{
		MinPoints:    12,
		MinMonths:    6,
		MinAmplitude: 0.2,
	}
}

// SeasonalityResult describes a monthly pattern. PeakMonth and TroughMonth
// are 1..12 and only set when HasSeason is true.
type SeasonalityResult struct {
	HasSeason   bool    `json:"hasSeason"`
	PeakMonth   *int    `json:"peakMonth"`
	TroughMonth *int    `json:"troughMonth"`
	Amplitude   float64 `json:"amplitude"`
}

// CalculateSeasonality runs CalculateSeasonalityWith using the default thresholds
func CalculateSeasonality(points []DataPoint) SeasonalityResult {
	return CalculateSeasonalityWith(points, DefaultSeasonalityParams())
}

// CalculateSeasonalityWith buckets points by calendar month and compares the
// monthly means to their overall mean. The peak is the month with the largest
// positive deviation and the trough the one with the largest negative
// deviation; amplitude is their spread relative to the overall mean, clamped
// into [0,1].
func CalculateSeasonalityWith(points []DataPoint, params SeasonalityParams) SeasonalityResult {
	if len(points) < params.MinPoints {
		return SeasonalityResult{}
	}

	var sums [12]float64
	var counts [12]int
	for _, p := range points {
		m := p.Time.Month() - time.January
		sums[m] += p.Value
		counts[m]++
	}

	type monthMean struct {
		month int
		mean  float64
	}
	var months []monthMean
	for i := range sums {
		if counts[i] > 0 {
			months = append(months, monthMean{month: i + 1, mean: sums[i] / float64(counts[i])})
		}
	}

	if len(months) < params.MinMonths || len(months) == 0 {
		return SeasonalityResult{}
	}

	var overall float64
	peak, trough := months[0], months[0]
	for _, m := range months {
		overall += m.mean
		if m.mean > peak.mean {
			peak = m
		}
		if m.mean < trough.mean {
			trough = m
		}
	}
	overall /= float64(len(months))

	var amplitude float64
	if overall != 0 {
		amplitude = clamp((peak.mean-trough.mean)/math.Abs(overall), 0, 1)
	}

	if amplitude <= params.MinAmplitude {
		return SeasonalityResult{Amplitude: amplitude}
	}

	return SeasonalityResult{
		HasSeason:   true,
		PeakMonth:   &peak.month,
		TroughMonth: &trough.month,
		Amplitude:   amplitude,
	}
}

// MonthDistance is the circular distance between two calendar months (0..6)
func MonthDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	d %= 12
	if d > 6 {
		d = 12 - d
	}
	return d
}
