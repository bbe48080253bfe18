package watering

import (
	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// HistoryTrend describes how recent intervals compare to the oldest ones
type HistoryTrend string

const (
	HistoryShortening  HistoryTrend = "shortening"
	HistoryLengthening HistoryTrend = "lengthening"
	HistoryStable      HistoryTrend = "stable"
)

// History summarizes observed watering intervals. Day values are rounded to
// one decimal.
type History struct {
	TotalEvents    int                    `json:"totalEvents"`
	AvgInterval    float64                `json:"avgInterval"`
	MedianInterval float64                `json:"medianInterval"`
	MinInterval    float64                `json:"minInterval"`
	MaxInterval    float64                `json:"maxInterval"`
	RecentInterval float64                `json:"recentInterval"`
	Trend          HistoryTrend           `json:"trend"`
	Consistency    timeseries.Consistency `json:"consistency"`

	// RollingAverage is the RecentWindow-gap moving average, oldest first.
	// It is empty until there are RecentWindow gaps.
	RollingAverage []float64 `json:"rollingAverage"`
}

// AnalyzeHistory recomputes interval statistics over the watering events in
// events. The recent interval is an EWMA of the newest RecentWindow gaps and
// the trend compares the newest and oldest RecentWindow gaps.
func (p *Predictor) AnalyzeHistory(events []care.Event) History {
	h := p.params.History
	watering := p.wateringEvents(events)
	gaps := values(intervals(watering, h.MinGapDays, h.MaxGapDays))

	if len(gaps) == 0 {
		d := p.params.DefaultIntervalDays
		return History{
			TotalEvents:    len(watering),
			AvgInterval:    d,
			MedianInterval: d,
			MinInterval:    d,
			MaxInterval:    d,
			RecentInterval: d,
			Trend:          HistoryStable,
			Consistency:    timeseries.ConsistencyLow,
			RollingAverage: []float64{},
		}
	}

	avg := timeseries.Mean(gaps)
	lo, hi := gaps[0], gaps[0]
	for _, g := range gaps {
		if g < lo {
			lo = g
		}
		if g > hi {
			hi = g
		}
	}

	window := h.RecentWindow
	recent := avg
	trend := HistoryStable
	if window > 0 && len(gaps) >= window {
		recent = timeseries.EWMA(gaps[:window], h.RecentAlpha)

		diff := timeseries.Mean(gaps[:window]) - timeseries.Mean(gaps[len(gaps)-window:])
		switch {
		case diff < -h.TrendDeadZoneDays:
			trend = HistoryShortening
		case diff > h.TrendDeadZoneDays:
			trend = HistoryLengthening
		}
	}

	return History{
		TotalEvents:    len(watering),
		AvgInterval:    timeseries.RoundTo(avg, 1),
		MedianInterval: timeseries.RoundTo(timeseries.Percentile(gaps, 50), 1),
		MinInterval:    timeseries.RoundTo(lo, 1),
		MaxInterval:    timeseries.RoundTo(hi, 1),
		RecentInterval: timeseries.RoundTo(recent, 1),
		Trend:          trend,
		Consistency:    timeseries.ClassifyConsistency(gaps, h.HighConsistencyCV, h.MediumConsistencyCV),
		RollingAverage: rollingAverage(gaps, window),
	}
}

// rollingAverage runs the moving average over gaps, which arrive newest first
func rollingAverage(gaps []float64, window int) []float64 {
	if window < 1 || len(gaps) < window {
		return []float64{}
	}

	chronological := make([]float64, len(gaps))
	for i, g := range gaps {
		chronological[len(gaps)-1-i] = g
	}

	avg := timeseries.MovingAverage(chronological, window)
	for i := range avg {
		avg[i] = timeseries.RoundTo(avg[i], 1)
	}
	return avg
}
