package timeseries

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// EWMA returns the exponentially weighted moving average of series, which must
// be ordered most-recent-first. Element i carries weight alpha*(1-alpha)^i and
// the weights are normalized, so the result always lies within the range of
// the series. A single element is returned unchanged. An empty series yields 0;
// callers are expected to guard against it.
//
// alpha <= 0 degrades to the arithmetic mean and alpha >= 1 returns the most
// recent element.
func EWMA(series []float64, alpha float64) float64 {
	switch len(series) {
	case 0:
		return 0
	case 1:
		return series[0]
	}

	if alpha <= 0 {
		return stat.Mean(series, nil)
	}
	if alpha >= 1 {
		return series[0]
	}

	weights := make([]float64, len(series))
	w := alpha
	for i := range weights {
		weights[i] = w
		w *= 1 - alpha
	}

	return stat.Mean(series, weights)
}

// TimeWeightedEWMA is the calendar-time variant of EWMA for irregularly spaced
// observations. Each point is weighted by (1-alpha)^(age/stepDays), where age is
// the number of days between the point and the newest point in the set. Points
// may be supplied in any order.
func TimeWeightedEWMA(points []DataPoint, alpha, stepDays float64) float64 {
	switch len(points) {
	case 0:
		return 0
	case 1:
		return points[0].Value
	}

	if stepDays <= 0 {
		stepDays = 1
	}

	sorted := make([]DataPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.After(sorted[j].Time)
	})

	if alpha <= 0 {
		return stat.Mean(values(sorted), nil)
	}
	alpha = math.Min(alpha, 1)

	newest := sorted[0].Time
	weights := make([]float64, len(sorted))
	for i, p := range sorted {
		age := DaysBetween(p.Time, newest)
		weights[i] = math.Pow(1-alpha, age/stepDays)
	}

	return stat.Mean(values(sorted), weights)
}
