// Package flowering forecasts the next inflorescence of a plant from its logged
// flowering cycles: when the next spathe should emerge, how long the female and
// male phases will last and when pollination is most likely to take.
package flowering

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// SpatheWindow is the projected emergence of the next spathe
type SpatheWindow struct {
	Start        time.Time `json:"start"`
	DurationDays int       `json:"duration"`
}

// PhaseWindow is a projected female or male phase
type PhaseWindow struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DurationDays int       `json:"duration"`
}

// Phases projects the stages of the next cycle
type Phases struct {
	SpatheEmergence *SpatheWindow `json:"spatheEmergence"`
	FemalePhase     *PhaseWindow  `json:"femalePhase"`
	MalePhase       *PhaseWindow  `json:"malePhase"`
	TotalDuration   *int          `json:"totalDuration"`
}

// PollinationWindow is the best time to pollinate the next cycle.
// DaysFromNow is negative when the optimal day has passed.
type PollinationWindow struct {
	Optimal     *time.Time `json:"optimal"`
	RangeStart  *time.Time `json:"rangeStart"`
	RangeEnd    *time.Time `json:"rangeEnd"`
	DaysFromNow *int       `json:"daysFromNow"`
}

// Statistics summarizes the logged cycles. Day counts are rounded.
type Statistics struct {
	TotalCycles      int                    `json:"totalCycles"`
	CompletedCycles  int                    `json:"completedCycles"`
	AvgCycleInterval *int                   `json:"avgCycleInterval"`
	AvgCycleDuration *int                   `json:"avgCycleDuration"`
	AvgFemalePhase   *int                   `json:"avgFemalePhase"`
	AvgMalePhase     *int                   `json:"avgMalePhase"`
	AvgFemaleToMale  *int                   `json:"avgFemaleToMale"`
	CycleConsistency timeseries.Consistency `json:"cycleConsistency"`
	MostActiveMonth  *int                   `json:"mostActiveMonth"`
	CyclesPerYear    *float64               `json:"cyclesPerYear"`
}

// Prediction is the outcome of Predict
type Prediction struct {
	LikelyNextCycle    *time.Time                   `json:"likelyNextCycle"`
	DaysUntilNextCycle *int                         `json:"daysUntilNextCycle"`
	Confidence         timeseries.Confidence        `json:"confidence"`
	PredictedPhases    Phases                       `json:"predictedPhases"`
	PollinationWindow  PollinationWindow            `json:"pollinationWindow"`
	Seasonality        timeseries.SeasonalityResult `json:"seasonality"`
	Statistics         Statistics                   `json:"statistics"`
	Insights           []string                     `json:"insights"`
}

// Predictor computes flowering predictions from a fixed set of Params
type Predictor struct {
	params Params
	logger *zap.SugaredLogger
}

// New validates params and returns a Predictor. A nil logger discards output.
func New(params Params, logger *zap.SugaredLogger) (*Predictor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Predictor{params: params, logger: logger}, nil
}

// Params returns the parameters the predictor was built with
func (p *Predictor) Params() Params {
	return p.params
}

// Predict forecasts the next flowering cycle as of now. Cycles may be in any
// order. Without a completed cycle nothing is projected and confidence is low.
func (p *Predictor) Predict(cycles []Cycle, now time.Time) Prediction {
	sorted := sortCycles(cycles)
	stats, intervals := p.statistics(sorted)

	pred := Prediction{
		Confidence: timeseries.ConfidenceLow,
		Statistics: stats,
		Insights:   []string{},
	}

	if stats.CompletedCycles == 0 {
		if active := activeCycle(sorted); active != nil {
			if s := describeActive(*active, now); s != "" {
				pred.Insights = append(pred.Insights, s)
			}
		}
		pred.Insights = append(pred.Insights, "No completed flowering cycles yet, predictions will improve with data")
		return pred
	}

	next := p.nextCycle(sorted, stats)
	if next != nil {
		pred.LikelyNextCycle = next
		pred.DaysUntilNextCycle = intPtr(daysFrom(now, *next))
	}
	pred.PredictedPhases = p.phases(sorted, stats, next)
	pred.PollinationWindow = p.pollinationWindow(sorted, pred.PredictedPhases, now)
	pred.Seasonality = p.seasonality(sorted)
	pred.Insights = p.insights(sorted, stats, len(intervals), pred, now)
	pred.Confidence = p.confidence(stats)

	p.logger.Debugw("flowering prediction",
		"cycles", stats.TotalCycles,
		"completed", stats.CompletedCycles,
		"intervals", len(intervals),
		"next_cycle", next,
		"confidence", pred.Confidence,
	)

	return pred
}

// statistics also returns the filtered start-to-start intervals, newest first
func (p *Predictor) statistics(sorted []Cycle) (Statistics, []float64) {
	stats := Statistics{
		TotalCycles:      len(sorted),
		CycleConsistency: timeseries.ConsistencyLow,
	}

	var completed []Cycle
	for _, c := range sorted {
		if c.Completed() {
			completed = append(completed, c)
		}
	}
	stats.CompletedCycles = len(completed)
	if len(completed) == 0 {
		return stats, nil
	}

	var intervals []float64
	for i := 0; i+1 < len(sorted); i++ {
		d := timeseries.DaysBetween(sorted[i+1].StartDate, sorted[i].StartDate)
		if d > 0 && d < p.params.MaxIntervalDays {
			intervals = append(intervals, d)
		}
	}
	if len(intervals) > 0 {
		avg := timeseries.EWMA(intervals, p.params.IntervalAlpha)
		stats.AvgCycleInterval = intPtr(int(math.Round(avg)))
		perYear := timeseries.RoundTo(365/avg, 1)
		stats.CyclesPerYear = &perYear
	}
	if len(intervals) >= p.params.MinConsistencyIntervals {
		stats.CycleConsistency = timeseries.ClassifyConsistency(intervals, p.params.HighConsistencyCV, p.params.MediumConsistencyCV)
	}

	endDate := func(c Cycle) *time.Time { return c.EndDate }
	stats.AvgCycleDuration = meanDays(spans(completed, startDate, endDate, openRange(p.params.MaxDurationDays)))
	stats.AvgFemalePhase = meanDays(spans(sorted, femaleStart, femaleEnd, openRange(p.params.MaxPhaseDays)))
	stats.AvgMalePhase = meanDays(spans(sorted, maleStart, maleEnd, openRange(p.params.MaxPhaseDays)))
	stats.AvgFemaleToMale = meanDays(spans(sorted, femaleEnd, maleStart, halfOpenRange(p.params.MaxFemaleToMaleDays)))

	var months [12]int
	for _, c := range sorted {
		months[c.StartDate.Month()-time.January]++
	}
	best := 0
	for i, n := range months {
		if n > months[best] {
			best = i
		}
	}
	stats.MostActiveMonth = intPtr(best + 1)

	return stats, intervals
}

func (p *Predictor) nextCycle(sorted []Cycle, stats Statistics) *time.Time {
	if stats.CompletedCycles < p.params.MinCompletedForNext || stats.AvgCycleInterval == nil {
		return nil
	}
	next := sorted[0].StartDate.AddDate(0, 0, *stats.AvgCycleInterval)
	return &next
}

func (p *Predictor) phases(sorted []Cycle, stats Statistics, next *time.Time) Phases {
	if next == nil {
		return Phases{}
	}

	daysToFemale := int(math.Round(p.params.DefaultDaysToFemale))
	if d := meanDays(spans(sorted, startDate, femaleStart, halfOpenRange(p.params.MaxDaysToFemale))); d != nil {
		daysToFemale = *d
	}

	ph := Phases{
		SpatheEmergence: &SpatheWindow{Start: *next, DurationDays: daysToFemale},
		TotalDuration:   stats.AvgCycleDuration,
	}

	if stats.AvgFemalePhase != nil {
		start := next.AddDate(0, 0, daysToFemale)
		ph.FemalePhase = &PhaseWindow{
			Start:        start,
			End:          start.AddDate(0, 0, *stats.AvgFemalePhase),
			DurationDays: *stats.AvgFemalePhase,
		}
	}

	if stats.AvgMalePhase != nil && ph.FemalePhase != nil {
		gap := int(math.Round(p.params.DefaultFemaleToMaleDays))
		if stats.AvgFemaleToMale != nil {
			gap = *stats.AvgFemaleToMale
		}
		start := ph.FemalePhase.End.AddDate(0, 0, gap)
		ph.MalePhase = &PhaseWindow{
			Start:        start,
			End:          start.AddDate(0, 0, *stats.AvgMalePhase),
			DurationDays: *stats.AvgMalePhase,
		}
	}

	return ph
}

// pollinationWindow centers on the historical offset from female phase start to
// pollination, or on the middle of the female phase when no pollination was
// logged. The window never leaves the projected female phase.
func (p *Predictor) pollinationWindow(sorted []Cycle, ph Phases, now time.Time) PollinationWindow {
	f := ph.FemalePhase
	if f == nil {
		return PollinationWindow{}
	}

	center := f.Start.Add(f.End.Sub(f.Start) / 2)
	pollination := func(c Cycle) *time.Time { return c.PollinationDate }
	if offsets := spans(sorted, femaleStart, pollination, halfOpenRange(p.params.MaxPhaseDays)); len(offsets) > 0 {
		center = f.Start.Add(days(timeseries.Mean(offsets)))
	}
	center = clampTime(center, f.Start, f.End)

	tolerance := days(p.params.PollinationToleranceDays)
	lo := clampTime(center.Add(-tolerance), f.Start, f.End)
	hi := clampTime(center.Add(tolerance), f.Start, f.End)

	return PollinationWindow{
		Optimal:     &center,
		RangeStart:  &lo,
		RangeEnd:    &hi,
		DaysFromNow: intPtr(daysFrom(now, center)),
	}
}

// seasonality scores each cycle by how many cycles started in its calendar
// month, so the monthly means compared by the shared primitive are start counts
func (p *Predictor) seasonality(sorted []Cycle) timeseries.SeasonalityResult {
	var counts [12]float64
	for _, c := range sorted {
		counts[c.StartDate.Month()-time.January]++
	}

	points := make([]timeseries.DataPoint, len(sorted))
	for i, c := range sorted {
		points[i] = timeseries.DataPoint{Time: c.StartDate, Value: counts[c.StartDate.Month()-time.January]}
	}
	return timeseries.CalculateSeasonalityWith(points, p.params.Seasonality)
}

func (p *Predictor) insights(sorted []Cycle, stats Statistics, intervals int, pred Prediction, now time.Time) []string {
	out := []string{}

	if active := activeCycle(sorted); active != nil {
		if s := describeActive(*active, now); s != "" {
			out = append(out, s)
		}
	}

	if s := pred.Seasonality; s.HasSeason && s.PeakMonth != nil {
		out = append(out, fmt.Sprintf("Peak flowering typically starts in %s", time.Month(*s.PeakMonth)))
	}

	if avg := stats.AvgCycleInterval; avg != nil {
		switch {
		case float64(*avg) < p.params.FrequentDays:
			out = append(out, fmt.Sprintf("Flowers frequently, every %d days on average", *avg))
		case float64(*avg) > p.params.InfrequentDays:
			out = append(out, fmt.Sprintf("Flowers infrequently, every %d days on average", *avg))
		}
	}

	switch {
	case stats.CycleConsistency == timeseries.ConsistencyHigh:
		out = append(out, "Flowering pattern is highly predictable")
	case stats.CycleConsistency == timeseries.ConsistencyLow && intervals >= p.params.MinConsistencyIntervals:
		out = append(out, "Flowering pattern varies significantly, predictions are less certain")
	}

	f, m := pred.PredictedPhases.FemalePhase, pred.PredictedPhases.MalePhase
	if f != nil && m != nil && !m.Start.After(f.End) {
		out = append(out, "Female and male phases may overlap, self-pollination is possible")
	}

	return out
}

func (p *Predictor) confidence(stats Statistics) timeseries.Confidence {
	if stats.CompletedCycles < 2 {
		return timeseries.ConfidenceLow
	}

	score := 1
	switch {
	case stats.CompletedCycles >= 5:
		score = 3
	case stats.CompletedCycles >= 3:
		score = 2
	}

	switch stats.CycleConsistency {
	case timeseries.ConsistencyHigh:
		score += 2
	case timeseries.ConsistencyMedium:
		score++
	}

	if stats.AvgFemalePhase != nil {
		score++
	}
	if stats.AvgMalePhase != nil {
		score++
	}

	switch {
	case score >= 5:
		return timeseries.ConfidenceHigh
	case score >= 3:
		return timeseries.ConfidenceMedium
	}
	return timeseries.ConfidenceLow
}

func activeCycle(sorted []Cycle) *Cycle {
	for i := range sorted {
		if !sorted[i].Completed() {
			return &sorted[i]
		}
	}
	return nil
}

func describeActive(c Cycle, now time.Time) string {
	switch c.Status {
	case StatusDeveloping:
		return fmt.Sprintf("Spathe developing (day %d)", daysFrom(c.StartDate, now))
	case StatusFemalePhase:
		return "Currently in female phase, the pollination window is open"
	case StatusMalePhase:
		return "Currently in male phase, pollen is available"
	case StatusPollinated:
		return "Pollinated, seeds developing"
	case StatusSeeding:
		return "Seeds maturing"
	}
	return ""
}

// sortCycles returns a copy ordered by start date, most recent first
func sortCycles(cycles []Cycle) []Cycle {
	sorted := make([]Cycle, len(cycles))
	copy(sorted, cycles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.After(sorted[j].StartDate)
	})
	return sorted
}

func startDate(c Cycle) *time.Time   { return &c.StartDate }
func femaleStart(c Cycle) *time.Time { return c.FemalePhaseStart }
func femaleEnd(c Cycle) *time.Time   { return c.FemalePhaseEnd }
func maleStart(c Cycle) *time.Time   { return c.MalePhaseStart }
func maleEnd(c Cycle) *time.Time     { return c.MalePhaseEnd }

// spans collects the days from one marker to another for every cycle that
// carries both, keeping only spans accepted by keep
func spans(cycles []Cycle, from, to func(Cycle) *time.Time, keep func(float64) bool) []float64 {
	var out []float64
	for _, c := range cycles {
		a, b := from(c), to(c)
		if a == nil || b == nil {
			continue
		}
		if d := timeseries.DaysBetween(*a, *b); keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func openRange(max float64) func(float64) bool {
	return func(d float64) bool { return d > 0 && d < max }
}

func halfOpenRange(max float64) func(float64) bool {
	return func(d float64) bool { return d >= 0 && d < max }
}

func meanDays(xs []float64) *int {
	if len(xs) == 0 {
		return nil
	}
	return intPtr(int(math.Round(timeseries.Mean(xs))))
}

func daysFrom(from, to time.Time) int {
	return int(math.Round(timeseries.DaysBetween(from, to)))
}

func days(d float64) time.Duration {
	return time.Duration(d * float64(24*time.Hour))
}

func clampTime(t, lo, hi time.Time) time.Time {
	switch {
	case t.Before(lo):
		return lo
	case t.After(hi):
		return hi
	}
	return t
}

func intPtr(v int) *int {
	return &v
}
