package timeseries

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultAnomalyThreshold is the z-score beyond which a value is anomalous
const DefaultAnomalyThreshold = 2.0

// AnomalyDirection reports which side of the mean an anomaly falls on
type AnomalyDirection string

const (
	AnomalyAbove  AnomalyDirection = "above"
	AnomalyBelow  AnomalyDirection = "below"
	AnomalyNormal AnomalyDirection = "normal"
)

// AnomalyResult scores a single value against a reference series
type AnomalyResult struct {
	IsAnomaly bool             `json:"isAnomaly"`
	ZScore    float64          `json:"zScore"`
	Deviation float64          `json:"deviation"`
	Direction AnomalyDirection `json:"direction"`
}

// AnomalousPoint is a data point flagged by DetectAnomalies
type AnomalousPoint struct {
	DataPoint
	AnomalyResult
}

// DetectAnomaly flags value when it deviates from the mean of series by more
// than threshold population standard deviations. Series shorter than three
// values never flag. Against a constant series any differing value is
// anomalous; its z-score is reported as 0 because it is unbounded.
func DetectAnomaly(value float64, series []float64, threshold float64) AnomalyResult {
	if len(series) < 3 {
		return AnomalyResult{Direction: AnomalyNormal}
	}
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}

	mean := stat.Mean(series, nil)
	stdDev := math.Sqrt(stat.PopVariance(series, nil))
	deviation := value - mean

	if stdDev == 0 {
		direction := AnomalyNormal
		switch {
		case deviation > 0:
			direction = AnomalyAbove
		case deviation < 0:
			direction = AnomalyBelow
		}
		return AnomalyResult{
			IsAnomaly: deviation != 0,
			Deviation: deviation,
			Direction: direction,
		}
	}

	z := deviation / stdDev
	return AnomalyResult{
		IsAnomaly: math.Abs(z) > threshold,
		ZScore:    z,
		Deviation: deviation,
		Direction: zDirection(z, threshold),
	}
}

// DetectAnomalies returns the points of a series whose z-score against the
// whole series exceeds threshold. At least five points are required.
func DetectAnomalies(points []DataPoint, threshold float64) []AnomalousPoint {
	if len(points) < 5 {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}

	v := values(points)
	mean := stat.Mean(v, nil)
	stdDev := math.Sqrt(stat.PopVariance(v, nil))
	if stdDev == 0 {
		return nil
	}

	var anomalies []AnomalousPoint
	for _, p := range points {
		z := (p.Value - mean) / stdDev
		if math.Abs(z) <= threshold {
			continue
		}
		anomalies = append(anomalies, AnomalousPoint{
			DataPoint: p,
			AnomalyResult: AnomalyResult{
				IsAnomaly: true,
				ZScore:    z,
				Deviation: p.Value - mean,
				Direction: zDirection(z, threshold),
			},
		})
	}
	return anomalies
}

// AnomalyRate is the fraction of series flagged by DetectAnomalies, in [0,1]
func AnomalyRate(series []float64, threshold float64) float64 {
	if len(series) == 0 {
		return 0
	}
	points := make([]DataPoint, len(series))
	for i, v := range series {
		points[i].Value = v
	}
	return float64(len(DetectAnomalies(points, threshold))) / float64(len(series))
}

func zDirection(z, threshold float64) AnomalyDirection {
	switch {
	case z > threshold:
		return AnomalyAbove
	case z < -threshold:
		return AnomalyBelow
	}
	return AnomalyNormal
}
