package flowering

import (
	"encoding/json"
	"errors"
	"math/bits"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

var now = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

func newPredictor(t *testing.T) *Predictor {
	t.Helper()
	p, err := New(DefaultParams(), nil)
	require.NoError(t, err)
	return p
}

func at(base time.Time, days int) *time.Time {
	t := base.AddDate(0, 0, days)
	return &t
}

// closedCycle is a finished cycle: female phase on days 10-14, male phase on
// days 16-20, pollinated on day 11 and closed on day 25
func closedCycle(id string, start time.Time) Cycle {
	return Cycle{
		ID:               id,
		StartDate:        start,
		EndDate:          at(start, 25),
		Status:           StatusClosed,
		FemalePhaseStart: at(start, 10),
		FemalePhaseEnd:   at(start, 14),
		MalePhaseStart:   at(start, 16),
		MalePhaseEnd:     at(start, 20),
		PollinationDate:  at(start, 11),
	}
}

// regularHistory is four closed cycles 100 days apart, the newest starting
// 60 days before base
func regularHistory(base time.Time) []Cycle {
	newest := base.AddDate(0, 0, -60)
	return []Cycle{
		closedCycle("c1", newest),
		closedCycle("c2", newest.AddDate(0, 0, -100)),
		closedCycle("c3", newest.AddDate(0, 0, -200)),
		closedCycle("c4", newest.AddDate(0, 0, -300)),
	}
}

func TestCycleCompleted(t *testing.T) {
	start := now.AddDate(0, 0, -30)
	tests := []struct {
		name     string
		cycle    Cycle
		expected bool
	}{
		{"closed", closedCycle("a", start), true},
		{"closed without end date", Cycle{ID: "b", StartDate: start, Status: StatusClosed}, true},
		{"end date but female phase", Cycle{ID: "c", StartDate: start, EndDate: at(start, 25), Status: StatusFemalePhase}, false},
		{"developing", Cycle{ID: "d", StartDate: start, Status: StatusDeveloping}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cycle.Completed())
		})
	}

	// a seeding cycle with a stray end date is still the active one
	p := newPredictor(t)
	history := regularHistory(now)
	history[0].Status = StatusSeeding
	pred := p.Predict(history, now)
	assert.Equal(t, 3, pred.Statistics.CompletedCycles)
	assert.Equal(t, 4, pred.Statistics.TotalCycles)
}

func TestDeriveStatusAllCombinations(t *testing.T) {
	// indexed by the position of the most significant marker bit
	byRank := []Status{
		StatusDeveloping,
		StatusPollinated,
		StatusFemalePhase,
		StatusMalePhase,
		StatusSeeding,
		StatusClosed,
	}

	stamp := now
	for mask := 0; mask < 32; mask++ {
		marks := PhaseMarks{PollenCollected: mask&1 != 0}
		if mask&2 != 0 {
			marks.FemaleStart = &stamp
		}
		if mask&4 != 0 {
			marks.MaleStart = &stamp
		}
		if mask&8 != 0 {
			marks.MaleEnd = &stamp
		}
		if mask&16 != 0 {
			marks.SpatheClose = &stamp
		}

		want := byRank[bits.Len(uint(mask))]
		got := DeriveStatus(marks)
		assert.Equal(t, want, got, "mask %05b", mask)
		assert.Equal(t, got, DeriveStatus(marks), "mask %05b not deterministic", mask)
	}
}

func TestCycleFromRecord(t *testing.T) {
	emerged := now.AddDate(0, 0, -30)

	tests := []struct {
		name      string
		record    Record
		start     time.Time
		status    Status
		completed bool
	}{
		{
			name:   "nothing logged",
			record: Record{ID: "r1"},
			start:  now,
			status: StatusDeveloping,
		},
		{
			name:      "emerged and closed",
			record:    Record{ID: "r2", SpatheEmergence: &emerged, SpatheClose: at(emerged, 24)},
			start:     emerged,
			status:    StatusClosed,
			completed: true,
		},
		{
			name:   "no emergence falls back to earliest marker",
			record: Record{ID: "r3", FemaleStart: at(emerged, 9), MaleStart: at(emerged, 15)},
			start:  *at(emerged, 9),
			status: StatusMalePhase,
		},
		{
			name:   "pollen collected only",
			record: Record{ID: "r4", SpatheEmergence: &emerged, PollenCollected: true},
			start:  emerged,
			status: StatusPollinated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CycleFromRecord(tt.record, now)
			assert.Equal(t, tt.record.ID, c.ID)
			assert.Equal(t, tt.start, c.StartDate)
			assert.Equal(t, tt.status, c.Status)
			assert.Equal(t, tt.completed, c.Completed())
		})
	}
}

func TestPredictNoCycles(t *testing.T) {
	p := newPredictor(t)
	pred := p.Predict(nil, now)

	assert.Nil(t, pred.LikelyNextCycle)
	assert.Nil(t, pred.DaysUntilNextCycle)
	assert.Equal(t, timeseries.ConfidenceLow, pred.Confidence)
	assert.Nil(t, pred.PredictedPhases.FemalePhase)
	assert.Nil(t, pred.PollinationWindow.Optimal)
	assert.False(t, pred.Seasonality.HasSeason)
	assert.Equal(t, 0, pred.Statistics.TotalCycles)
	require.Len(t, pred.Insights, 1)

	raw, err := json.Marshal(pred)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"likelyNextCycle":null`)
	assert.Contains(t, string(raw), `"daysUntilNextCycle":null`)
	assert.Contains(t, string(raw), `"confidence":"low"`)
}

func TestPredictOnlyActiveCycle(t *testing.T) {
	p := newPredictor(t)
	pred := p.Predict([]Cycle{{ID: "a", StartDate: now.AddDate(0, 0, -3), Status: StatusFemalePhase}}, now)

	assert.Nil(t, pred.LikelyNextCycle)
	assert.Equal(t, timeseries.ConfidenceLow, pred.Confidence)
	assert.Equal(t, 1, pred.Statistics.TotalCycles)
	require.Len(t, pred.Insights, 2)
	assert.Contains(t, pred.Insights[0], "female phase")
}

func TestPredictSingleCompletedCycle(t *testing.T) {
	p := newPredictor(t)
	pred := p.Predict([]Cycle{closedCycle("c1", now.AddDate(0, 0, -60))}, now)

	assert.Nil(t, pred.LikelyNextCycle)
	assert.Nil(t, pred.PredictedPhases.SpatheEmergence)
	assert.Equal(t, timeseries.ConfidenceLow, pred.Confidence)
	require.NotNil(t, pred.Statistics.AvgCycleDuration)
	assert.Equal(t, 25, *pred.Statistics.AvgCycleDuration)
	assert.Nil(t, pred.Statistics.AvgCycleInterval)
}

func TestPredictRegularHistory(t *testing.T) {
	p := newPredictor(t)
	pred := p.Predict(regularHistory(now), now)

	stats := pred.Statistics
	assert.Equal(t, 4, stats.TotalCycles)
	assert.Equal(t, 4, stats.CompletedCycles)
	require.NotNil(t, stats.AvgCycleInterval)
	assert.Equal(t, 100, *stats.AvgCycleInterval)
	assert.Equal(t, 25, *stats.AvgCycleDuration)
	assert.Equal(t, 4, *stats.AvgFemalePhase)
	assert.Equal(t, 4, *stats.AvgMalePhase)
	assert.Equal(t, 2, *stats.AvgFemaleToMale)
	assert.Equal(t, timeseries.ConsistencyHigh, stats.CycleConsistency)
	assert.Equal(t, 3, *stats.MostActiveMonth)
	require.NotNil(t, stats.CyclesPerYear)
	assert.InDelta(t, 3.65, *stats.CyclesPerYear, 0.051)

	next := time.Date(2024, 10, 11, 0, 0, 0, 0, time.UTC)
	require.NotNil(t, pred.LikelyNextCycle)
	assert.Equal(t, next, *pred.LikelyNextCycle)
	assert.Equal(t, 40, *pred.DaysUntilNextCycle)

	ph := pred.PredictedPhases
	require.NotNil(t, ph.SpatheEmergence)
	assert.Equal(t, 10, ph.SpatheEmergence.DurationDays)
	require.NotNil(t, ph.FemalePhase)
	assert.Equal(t, *at(next, 10), ph.FemalePhase.Start)
	assert.Equal(t, *at(next, 14), ph.FemalePhase.End)
	require.NotNil(t, ph.MalePhase)
	assert.Equal(t, *at(next, 16), ph.MalePhase.Start)
	assert.Equal(t, *at(next, 20), ph.MalePhase.End)
	assert.Equal(t, 25, *ph.TotalDuration)

	w := pred.PollinationWindow
	require.NotNil(t, w.Optimal)
	assert.Equal(t, *at(next, 11), *w.Optimal)
	assert.Equal(t, *at(next, 10), *w.RangeStart)
	assert.Equal(t, *at(next, 12), *w.RangeEnd)
	assert.Equal(t, 51, *w.DaysFromNow)

	assert.Equal(t, timeseries.ConfidenceHigh, pred.Confidence)
	assert.False(t, pred.Seasonality.HasSeason)
	assert.Equal(t, []string{"Flowering pattern is highly predictable"}, pred.Insights)

	summary := Summary(pred)
	assert.Contains(t, summary, "~40 days")
	assert.Contains(t, summary, "51 days from now")
	assert.Contains(t, summary, "cycles per year")
}

func TestPredictOrderIndependent(t *testing.T) {
	p := newPredictor(t)
	history := regularHistory(now)
	shuffled := []Cycle{history[2], history[0], history[3], history[1]}
	assert.Equal(t, p.Predict(history, now), p.Predict(shuffled, now))
}

func TestPollinationWindowMidpointFallback(t *testing.T) {
	p := newPredictor(t)
	history := regularHistory(now)
	for i := range history {
		history[i].PollinationDate = nil
	}

	pred := p.Predict(history, now)
	next := *pred.LikelyNextCycle
	w := pred.PollinationWindow
	assert.Equal(t, *at(next, 12), *w.Optimal)
	assert.Equal(t, *at(next, 11), *w.RangeStart)
	assert.Equal(t, *at(next, 13), *w.RangeEnd)
}

func TestPollinationWindowStaysInFemalePhase(t *testing.T) {
	params := DefaultParams()
	params.PollinationToleranceDays = 5
	p, err := New(params, nil)
	require.NoError(t, err)

	pred := p.Predict(regularHistory(now), now)
	f := pred.PredictedPhases.FemalePhase
	require.NotNil(t, f)
	assert.Equal(t, f.Start, *pred.PollinationWindow.RangeStart)
	assert.Equal(t, f.End, *pred.PollinationWindow.RangeEnd)
}

func TestPredictActiveCycle(t *testing.T) {
	p := newPredictor(t)
	active := Cycle{ID: "a", StartDate: now.AddDate(0, 0, -5), Status: StatusDeveloping}
	cycles := append(regularHistory(now), active)

	pred := p.Predict(cycles, now)
	require.NotEmpty(t, pred.Insights)
	assert.Equal(t, "Spathe developing (day 5)", pred.Insights[0])
	assert.Equal(t, 82, *pred.Statistics.AvgCycleInterval)
	assert.Contains(t, pred.Insights, "Flowers frequently, every 82 days on average")
	assert.Equal(t, *at(active.StartDate, 82), *pred.LikelyNextCycle)
}

func TestPredictSeasonality(t *testing.T) {
	p := newPredictor(t)
	var cycles []Cycle
	for i, d := range []string{"2019-05-10", "2020-03-10", "2020-05-10", "2021-05-10", "2021-07-10", "2022-05-10", "2022-09-10"} {
		start, err := time.Parse(time.DateOnly, d)
		require.NoError(t, err)
		c := closedCycle(string(rune('a'+i)), start)
		cycles = append(cycles, c)
	}

	pred := p.Predict(cycles, now)
	require.True(t, pred.Seasonality.HasSeason)
	assert.Equal(t, 5, *pred.Seasonality.PeakMonth)
	assert.Equal(t, 3, *pred.Seasonality.TroughMonth)
	assert.Contains(t, pred.Insights, "Peak flowering typically starts in May")
	assert.Equal(t, 5, *pred.Statistics.MostActiveMonth)
}

func shifted(cycles []Cycle, days int) []Cycle {
	out := make([]Cycle, len(cycles))
	for i, c := range cycles {
		s := c.StartDate.AddDate(0, 0, days)
		out[i] = closedCycle(c.ID, s)
	}
	return out
}

func TestFindPollinationPartners(t *testing.T) {
	p := newPredictor(t)
	base := regularHistory(now)
	plants := []Plant{
		{ID: "a", Name: "Anthurium A", Cycles: base},
		{ID: "b", Name: "Anthurium B", Cycles: shifted(base, 1)},
		{ID: "c", Name: "Anthurium C", Cycles: shifted(base, 2)},
		{ID: "d", Name: "No history"},
	}

	partners := p.FindPollinationPartners(plants, now)
	require.Len(t, partners, 3)

	got := make([][3]any, len(partners))
	for i, pr := range partners {
		got[i] = [3]any{pr.PlantAID, pr.PlantBID, pr.OverlapDays}
	}
	assert.Equal(t, [][3]any{{"a", "b", 3}, {"b", "c", 3}, {"a", "c", 2}}, got)
	assert.True(t, partners[0].OverlapStart.Before(partners[0].OverlapEnd))
}

func TestFindPollinationPartnersNone(t *testing.T) {
	p := newPredictor(t)
	partners := p.FindPollinationPartners([]Plant{{ID: "a"}}, now)
	assert.NotNil(t, partners)
	assert.Empty(t, partners)
}

func TestSummaryInsufficientData(t *testing.T) {
	p := newPredictor(t)
	assert.Equal(t, "Insufficient data to predict the next flowering cycle.", Summary(p.Predict(nil, now)))
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"alpha", func(p *Params) { p.IntervalAlpha = 0 }},
		{"interval limit", func(p *Params) { p.MaxIntervalDays = 0 }},
		{"negative tolerance", func(p *Params) { p.PollinationToleranceDays = -1 }},
		{"min completed", func(p *Params) { p.MinCompletedForNext = 0 }},
		{"consistency order", func(p *Params) { p.HighConsistencyCV = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			tt.mutate(&params)
			assert.True(t, errors.Is(params.Validate(), care.ErrInvalidParams))
		})
	}
}
