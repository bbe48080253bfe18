package timeseries

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Direction is the sign of a fitted trend
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
)

// Significance buckets the goodness of fit of a trend
type Significance string

const (
	SignificanceHigh   Significance = "high"
	SignificanceMedium Significance = "medium"
	SignificanceLow    Significance = "low"
)

const (
	// DefaultMinTrendPoints is the smallest sample DetectTrend fits by default
	DefaultMinTrendPoints = 5

	// StableSlopePerDay is the dead zone below which a slope reads as stable
	StableSlopePerDay = 0.01

	highSignificanceR2   = 0.5
	mediumSignificanceR2 = 0.25

	// variances below this are treated as a constant series
	flatVariance = 1e-12
)

// RegressionStats holds an ordinary least squares fit of value against days
// elapsed since the oldest point
type RegressionStats struct {
	Slope         float64 `json:"slope"`
	Intercept     float64 `json:"intercept"`
	RSquared      float64 `json:"rSquared"`
	StandardError float64 `json:"standardError"`
}

// TrendResult describes the direction and strength of a linear trend
type TrendResult struct {
	Slope        float64      `json:"slope"`
	Intercept    float64      `json:"intercept"`
	RSquared     float64      `json:"rSquared"`
	Direction    Direction    `json:"direction"`
	Significance Significance `json:"significance"`
}

// Interval is a point prediction bracketed by a prediction interval
type Interval struct {
	Predicted float64 `json:"predicted"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
}

// dayOffsets converts time-sorted points into x = days since the first point
func dayOffsets(sorted []DataPoint) (xs, ys []float64) {
	xs = make([]float64, len(sorted))
	ys = make([]float64, len(sorted))
	origin := sorted[0].Time
	for i, p := range sorted {
		xs[i] = DaysBetween(origin, p.Time)
		ys[i] = p.Value
	}
	return xs, ys
}

// LinearRegression fits value against time in days. Fewer than two points, or
// points that all share one timestamp, produce a flat fit with zero R².
func LinearRegression(points []DataPoint) RegressionStats {
	if len(points) < 2 {
		return RegressionStats{}
	}

	sorted := sortedOldestFirst(points)
	xs, ys := dayOffsets(sorted)

	if floats.Max(xs) == floats.Min(xs) {
		return RegressionStats{Intercept: stat.Mean(ys, nil)}
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	var rSquared float64
	if stat.PopVariance(ys, nil) > flatVariance {
		rSquared = clamp(stat.RSquared(xs, ys, nil, intercept, slope), 0, 1)
	}

	var ssResidual float64
	for i := range xs {
		r := ys[i] - (intercept + slope*xs[i])
		ssResidual += r * r
	}

	var standardError float64
	n := len(xs)
	if n > 2 {
		standardError = math.Sqrt(ssResidual / float64(n-2))
	}

	return RegressionStats{
		Slope:         slope,
		Intercept:     intercept,
		RSquared:      rSquared,
		StandardError: standardError,
	}
}

// DetectTrend fits a linear trend over points and classifies it. It returns nil
// when fewer than minPoints points are available; minPoints <= 0 selects
// DefaultMinTrendPoints.
func DetectTrend(points []DataPoint, minPoints int) *TrendResult {
	if minPoints <= 0 {
		minPoints = DefaultMinTrendPoints
	}
	if len(points) < minPoints || len(points) < 2 {
		return nil
	}

	fit := LinearRegression(points)

	direction := DirectionStable
	switch {
	case math.Abs(fit.Slope) < StableSlopePerDay:
	case fit.Slope > 0:
		direction = DirectionIncreasing
	default:
		direction = DirectionDecreasing
	}

	significance := SignificanceLow
	switch {
	case fit.RSquared >= highSignificanceR2:
		significance = SignificanceHigh
	case fit.RSquared >= mediumSignificanceR2:
		significance = SignificanceMedium
	}

	return &TrendResult{
		Slope:        fit.Slope,
		Intercept:    fit.Intercept,
		RSquared:     fit.RSquared,
		Direction:    direction,
		Significance: significance,
	}
}

// PredictValue extrapolates the fitted trend daysAhead days past the newest point
func PredictValue(points []DataPoint, daysAhead float64) float64 {
	switch len(points) {
	case 0:
		return 0
	case 1:
		return points[0].Value
	}

	sorted := sortedOldestFirst(points)
	fit := LinearRegression(sorted)
	x := DaysBetween(sorted[0].Time, sorted[len(sorted)-1].Time) + daysAhead

	return fit.Slope*x + fit.Intercept
}

// PredictionInterval brackets PredictValue with a two-sided Student-t
// prediction interval at the given level (0.95 when level is outside (0,1)).
// Fewer than three points, or a perfect fit, collapse the interval onto the
// prediction.
func PredictionInterval(points []DataPoint, daysAhead, level float64) Interval {
	predicted := PredictValue(points, daysAhead)
	out := Interval{Predicted: predicted, Lower: predicted, Upper: predicted}

	n := len(points)
	if n < 3 {
		return out
	}

	fit := LinearRegression(points)
	if fit.StandardError == 0 {
		return out
	}

	if level <= 0 || level >= 1 {
		level = 0.95
	}

	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}.Quantile(1 - (1-level)/2)
	margin := t * fit.StandardError * math.Sqrt(1+1/float64(n))

	out.Lower = predicted - margin
	out.Upper = predicted + margin
	return out
}
