package timeseries

import (
	"testing"
	"time"
)

func TestDetectAnomaly(t *testing.T) {
	history := []float64{5, 5.2, 4.8, 5.1, 4.9, 5.0}

	tests := []struct {
		name      string
		value     float64
		series    []float64
		isAnomaly bool
		direction AnomalyDirection
	}{
		{name: "normal value", value: 5.05, series: history, isAnomaly: false, direction: AnomalyNormal},
		{name: "high outlier", value: 9, series: history, isAnomaly: true, direction: AnomalyAbove},
		{name: "low outlier", value: 1, series: history, isAnomaly: true, direction: AnomalyBelow},
		{name: "too little history", value: 100, series: []float64{1, 2}, isAnomaly: false, direction: AnomalyNormal},
		{name: "constant history differs", value: 6, series: []float64{5, 5, 5}, isAnomaly: true, direction: AnomalyAbove},
		{name: "constant history equal", value: 5, series: []float64{5, 5, 5}, isAnomaly: false, direction: AnomalyNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectAnomaly(tt.value, tt.series, DefaultAnomalyThreshold)
			if result.IsAnomaly != tt.isAnomaly {
				t.Errorf("IsAnomaly = %v, expected %v (z=%.2f)", result.IsAnomaly, tt.isAnomaly, result.ZScore)
			}
			if result.Direction != tt.direction {
				t.Errorf("Direction = %s, expected %s", result.Direction, tt.direction)
			}
		})
	}
}

func TestDetectAnomalies(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := series(start, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 10)

	anomalies := DetectAnomalies(points, 2)
	if len(anomalies) != 1 {
		t.Fatalf("found %d anomalies, expected 1", len(anomalies))
	}
	if anomalies[0].Value != 10 || anomalies[0].Direction != AnomalyAbove {
		t.Errorf("anomaly = %+v, expected the 10 above the mean", anomalies[0])
	}

	if got := DetectAnomalies(points[:4], 2); got != nil {
		t.Errorf("four points produced %d anomalies, expected none", len(got))
	}

	rate := AnomalyRate(values(points), 2)
	if rate != 0.1 {
		t.Errorf("AnomalyRate = %.3f, expected 0.1", rate)
	}
}
