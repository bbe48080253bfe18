package watering

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

func TestAnalyzeHistory(t *testing.T) {
	p := newPredictor(t)

	t.Run("regular", func(t *testing.T) {
		h := p.AnalyzeHistory(everyNDays(10, 5, 0))
		assert.Equal(t, 10, h.TotalEvents)
		assert.Equal(t, 5.0, h.AvgInterval)
		assert.Equal(t, 5.0, h.MedianInterval)
		assert.Equal(t, 5.0, h.RecentInterval)
		assert.Equal(t, HistoryStable, h.Trend)
		assert.Equal(t, timeseries.ConsistencyHigh, h.Consistency)
		assert.Equal(t, []float64{5, 5, 5, 5, 5}, h.RollingAverage)
	})

	t.Run("too few events", func(t *testing.T) {
		h := p.AnalyzeHistory(everyNDays(1, 5, 0))
		assert.Equal(t, 1, h.TotalEvents)
		assert.Equal(t, 7.0, h.AvgInterval)
		assert.Equal(t, timeseries.ConsistencyLow, h.Consistency)
		assert.NotNil(t, h.RollingAverage)
		assert.Empty(t, h.RollingAverage)
	})

	t.Run("shortening", func(t *testing.T) {
		// newest gaps are 3 days, oldest are 9
		var events []care.Event
		day := now
		for i := 0; i < 11; i++ {
			events = append(events, care.Event{Date: day, Action: "water"})
			if i < 5 {
				day = day.AddDate(0, 0, -3)
			} else {
				day = day.AddDate(0, 0, -9)
			}
		}

		h := p.AnalyzeHistory(events)
		assert.Equal(t, HistoryShortening, h.Trend)
		assert.Equal(t, 3.0, h.MinInterval)
		assert.Equal(t, 9.0, h.MaxInterval)
		assert.Equal(t, 3.0, h.RecentInterval)
		assert.Equal(t, timeseries.ConsistencyLow, h.Consistency)
		assert.Equal(t, []float64{9, 7.8, 6.6, 5.4, 4.2, 3}, h.RollingAverage)
	})
}
