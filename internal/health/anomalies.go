package health

import (
	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// ReadingAnomaly is a reading whose runoff value is an outlier
type ReadingAnomaly struct {
	care.Reading
	timeseries.AnomalyResult
}

// ReadingAnomalies splits outliers by signal
type ReadingAnomalies struct {
	EC []ReadingAnomaly `json:"ecAnomalies"`
	PH []ReadingAnomaly `json:"phAnomalies"`
}

// Count is the total number of flagged readings
func (a ReadingAnomalies) Count() int {
	return len(a.EC) + len(a.PH)
}

// DetectReadingAnomalies flags runoff EC and runoff pH readings that sit more
// than AnomalyThreshold standard deviations from their series mean. Each
// series needs at least five readings to be scored.
func (p *Predictor) DetectReadingAnomalies(readings []care.Reading) ReadingAnomalies {
	return ReadingAnomalies{
		EC: p.anomalies(readings, func(r care.Reading) *float64 { return r.ECOut }),
		PH: p.anomalies(readings, func(r care.Reading) *float64 { return r.PHOut }),
	}
}

func (p *Predictor) anomalies(readings []care.Reading, field func(care.Reading) *float64) []ReadingAnomaly {
	var source []care.Reading
	var points []timeseries.DataPoint
	for _, r := range readings {
		v := field(r)
		if v == nil || !timeseries.Finite(*v) {
			continue
		}
		source = append(source, r)
		points = append(points, timeseries.DataPoint{Time: r.Date, Value: *v})
	}

	flagged := timeseries.DetectAnomalies(points, p.params.AnomalyThreshold)
	if len(flagged) == 0 {
		return nil
	}

	// DetectAnomalies preserves input order, so walk both lists together
	var out []ReadingAnomaly
	j := 0
	for i, pt := range points {
		if j >= len(flagged) {
			break
		}
		if pt == flagged[j].DataPoint {
			out = append(out, ReadingAnomaly{Reading: source[i], AnomalyResult: flagged[j].AnomalyResult})
			j++
		}
	}
	return out
}

// anomalyRate is the share of runoff measurements flagged as outliers
func (p *Predictor) anomalyRate(readings []care.Reading) float64 {
	var measured int
	for _, r := range readings {
		if r.ECOut != nil {
			measured++
		}
		if r.PHOut != nil {
			measured++
		}
	}
	if measured == 0 {
		return 0
	}
	return float64(p.DetectReadingAnomalies(readings).Count()) / float64(measured)
}
