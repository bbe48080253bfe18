package timeseries

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean is the arithmetic mean of series, 0 when empty
func Mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return stat.Mean(series, nil)
}

// StandardDeviation is the population standard deviation of series. Fewer than
// two values yield 0.
func StandardDeviation(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	return math.Sqrt(stat.PopVariance(series, nil))
}

// CoefficientOfVariation is the population standard deviation divided by the
// mean. A zero mean yields 0.
func CoefficientOfVariation(series []float64) float64 {
	mean := Mean(series)
	if mean == 0 {
		return 0
	}
	return StandardDeviation(series) / mean
}

// Percentile returns the p-th percentile (0..100) of series, interpolating
// linearly between the two nearest order statistics. An empty series yields 0.
func Percentile(series []float64, p float64) float64 {
	if len(series) == 0 {
		return 0
	}

	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)

	index := clamp(p, 0, 100) / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	fraction := index - float64(lower)
	return sorted[lower]*(1-fraction) + sorted[upper]*fraction
}

// MovingAverage returns the simple moving averages of every full window of
// values. Series shorter than the window are returned unchanged.
func MovingAverage(series []float64, window int) []float64 {
	if window <= 0 || len(series) < window {
		return series
	}

	out := make([]float64, 0, len(series)-window+1)
	var sum float64
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}

// Consistency labels how regular a series of intervals is
type Consistency string

const (
	ConsistencyHigh   Consistency = "high"
	ConsistencyMedium Consistency = "medium"
	ConsistencyLow    Consistency = "low"
)

// ClassifyConsistency buckets the coefficient of variation of series: below
// highCV is high, below mediumCV is medium, anything else (including an empty
// series) is low.
func ClassifyConsistency(series []float64, highCV, mediumCV float64) Consistency {
	if len(series) == 0 || Mean(series) <= 0 {
		return ConsistencyLow
	}
	cv := CoefficientOfVariation(series)
	switch {
	case cv < highCV:
		return ConsistencyHigh
	case cv < mediumCV:
		return ConsistencyMedium
	}
	return ConsistencyLow
}
