// Package timeseries provides the statistical building blocks shared by the
// care predictors: weighted averaging, dispersion, trend, seasonality and
// anomaly scoring over sparse, irregularly spaced observations.
package timeseries

import (
	"math"
	"sort"
	"time"
)

// DataPoint is a single dated observation
type DataPoint struct {
	Time  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// DaysBetween returns the signed number of days elapsed from a to b
func DaysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}

// RoundTo rounds x to the given number of decimal places
func RoundTo(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

// sortedOldestFirst returns a copy of points ordered by ascending time
func sortedOldestFirst(points []DataPoint) []DataPoint {
	sorted := make([]DataPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return sorted
}

// values extracts the value column of points
func values(points []DataPoint) []float64 {
	v := make([]float64, len(points))
	for i, p := range points {
		v[i] = p.Value
	}
	return v
}

// Finite reports whether x is neither NaN nor infinite
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
