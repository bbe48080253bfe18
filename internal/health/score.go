package health

import (
	"math"
	"sort"
	"time"

	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// ReadingScore scores one reading from 0 to 100. Each out-of-range signal
// produces a deduction; deductions are applied largest first with diminishing
// weight so several moderate problems do not zero the score.
func (p *Predictor) ReadingScore(r care.Reading, lastRepot *time.Time) float64 {
	s := p.params.Scoring
	var deductions []float64

	if r.ECIn != nil {
		deductions = appendTier(deductions, s.ECInDeviation, math.Abs(*r.ECIn-s.ECInOptimal))
	}
	if r.ECOut != nil {
		deductions = appendTier(deductions, s.ECOut, *r.ECOut)
	}
	if delta, ok := r.ECDelta(); ok {
		deductions = appendTier(deductions, s.ECDelta, delta)
	}
	if r.PHOut != nil {
		for _, band := range s.PHOut {
			if *r.PHOut < band.Low || *r.PHOut > band.High {
				deductions = append(deductions, band.Points)
				break
			}
		}
	}
	if drift, ok := r.PHDrift(); ok {
		deductions = appendTier(deductions, s.PHDrift, drift)
	}
	if lastRepot != nil && !r.Date.Before(*lastRepot) {
		months := timeseries.DaysBetween(*lastRepot, r.Date) / p.params.DaysPerMonth
		deductions = appendTier(deductions, s.SubstrateAge, months)
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(deductions)))

	score := 100.0
	weight := 1.0
	for _, d := range deductions {
		score -= d * weight
		weight *= s.Decay
	}

	return math.Max(0, math.Min(100, score))
}

func appendTier(deductions []float64, tiers []Tier, v float64) []float64 {
	if !timeseries.Finite(v) {
		return deductions
	}
	for _, t := range tiers {
		if v > t.Above {
			return append(deductions, t.Points)
		}
	}
	return deductions
}

// scoreSeries scores every reading that carries at least one measurement.
// readings must be sorted most recent first; so is the result.
func (p *Predictor) scoreSeries(readings []care.Reading, lastRepot *time.Time) []timeseries.DataPoint {
	var points []timeseries.DataPoint
	for _, r := range readings {
		if !r.HasAny() {
			continue
		}
		points = append(points, timeseries.DataPoint{Time: r.Date, Value: p.ReadingScore(r, lastRepot)})
	}
	return points
}

// SubstrateHealthScore smooths the newest ScoreWindow reading scores by
// calendar time, so a reading taken months before the rest carries little
// weight. Without readings it returns DefaultScore.
func (p *Predictor) SubstrateHealthScore(readings []care.Reading, lastRepot *time.Time) int {
	sorted := sortedCopy(readings)
	points := p.scoreSeries(sorted, lastRepot)
	if len(points) == 0 {
		return int(math.Round(p.params.DefaultScore))
	}
	if len(points) > p.params.ScoreWindow {
		points = points[:p.params.ScoreWindow]
	}

	return int(math.Round(timeseries.TimeWeightedEWMA(points, p.params.ScoreAlpha, p.params.ScoreStepDays)))
}

func sortedCopy(readings []care.Reading) []care.Reading {
	out := make([]care.Reading, len(readings))
	copy(out, readings)
	care.SortReadings(out)
	return out
}
