// Package forecast runs the watering, health and flowering predictors over one
// plant and bundles their results. A predictor that fails only blanks its own
// domain.
package forecast

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/internal/flowering"
	"github.com/chrissnell/careforecast/internal/health"
	"github.com/chrissnell/careforecast/internal/watering"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// Snapshot is everything known about one plant at prediction time. When
// Readings is nil the EC/pH readings are taken from Events, and when
// LastRepot is nil it is the newest repotting event.
type Snapshot struct {
	PlantID       string
	PlantName     string
	Events        []care.Event
	Readings      []care.Reading
	Environment   *care.Environment
	LastRepot     *time.Time
	HealthStatus  string
	Precipitation *care.Precipitation
	Cycles        []flowering.Cycle
}

// WateringResult is the watering prediction plus the interval history behind it
type WateringResult struct {
	watering.Prediction
	History watering.History `json:"history"`
}

// HealthResult is the health trajectory plus the smoothed current score
type HealthResult struct {
	health.Trajectory
	SubstrateHealthScore int    `json:"substrateHealthScore"`
	Summary              string `json:"summary"`
}

// FloweringResult is the flowering prediction plus its summary
type FloweringResult struct {
	flowering.Prediction
	Summary string `json:"summary"`
}

// DataPoints counts the inputs each domain saw
type DataPoints struct {
	CareEvents      int `json:"careEvents"`
	Readings        int `json:"readings"`
	FloweringCycles int `json:"floweringCycles"`
}

// PredictorStatus reports which domains produced a value
type PredictorStatus struct {
	Watering  Status `json:"watering"`
	Health    Status `json:"health"`
	Flowering Status `json:"flowering"`
}

// Metadata describes how a bundle was produced
type Metadata struct {
	DataPoints      DataPoints            `json:"dataPoints"`
	ModelConfidence timeseries.Confidence `json:"modelConfidence"`
	PredictorStatus PredictorStatus       `json:"predictorStatus"`
	GeneratedAt     time.Time             `json:"generatedAt"`
}

// Bundle is the combined prediction for one plant
type Bundle struct {
	PlantID   string                  `json:"plantId,omitempty"`
	Watering  Result[WateringResult]  `json:"watering"`
	Health    Result[HealthResult]    `json:"health"`
	Flowering Result[FloweringResult] `json:"flowering"`
	Metadata  Metadata                `json:"metadata"`
}

type wateringModel interface {
	Predict(in watering.Input, now time.Time) watering.Prediction
	AnalyzeHistory(events []care.Event) watering.History
}

type healthModel interface {
	Predict(readings []care.Reading, lastRepot *time.Time, now time.Time) health.Trajectory
	SubstrateHealthScore(readings []care.Reading, lastRepot *time.Time) int
}

type floweringModel interface {
	Predict(cycles []flowering.Cycle, now time.Time) flowering.Prediction
	FindPollinationPartners(plants []flowering.Plant, now time.Time) []flowering.Partner
}

// Orchestrator owns one predictor per domain. It holds no per-plant state and
// is safe for concurrent use.
type Orchestrator struct {
	watering  wateringModel
	health    healthModel
	flowering floweringModel
	logger    *zap.SugaredLogger

	// readingsFrom derives EC/pH readings when a snapshot carries none
	readingsFrom func([]care.Event) []care.Reading
}

// New validates cfg and builds the three predictors. A nil logger discards
// output.
func New(cfg Config, logger *zap.SugaredLogger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	w, err := watering.New(cfg.Watering, logger.Named("watering"))
	if err != nil {
		return nil, fmt.Errorf("watering: %w", err)
	}
	h, err := health.New(cfg.Health, logger.Named("health"))
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	f, err := flowering.New(cfg.Flowering, logger.Named("flowering"))
	if err != nil {
		return nil, fmt.Errorf("flowering: %w", err)
	}

	return &Orchestrator{
		watering:     w,
		health:       h,
		flowering:    f,
		logger:       logger,
		readingsFrom: care.ReadingsFromEvents,
	}, nil
}

// Predict runs all three predictors concurrently over s as of now and waits
// for them to finish. It never panics: a predictor that does is logged and
// reported as a failed domain.
func (o *Orchestrator) Predict(s Snapshot, now time.Time) Bundle {
	b := Bundle{PlantID: s.PlantID}
	readingCount := len(s.Readings)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		b.Watering = run(o, DomainWatering, func() WateringResult {
			pred := o.watering.Predict(watering.Input{
				Events:        s.Events,
				Environment:   s.Environment,
				LastRepot:     lastRepot(s),
				HealthStatus:  s.HealthStatus,
				Precipitation: s.Precipitation,
			}, now)
			return WateringResult{Prediction: pred, History: o.watering.AnalyzeHistory(s.Events)}
		})
	}()

	go func() {
		defer wg.Done()
		b.Health = run(o, DomainHealth, func() HealthResult {
			readings := s.Readings
			if readings == nil {
				readings = o.readingsFrom(s.Events)
			}
			readingCount = len(readings)
			repot := lastRepot(s)

			traj := o.health.Predict(readings, repot, now)
			return HealthResult{
				Trajectory:           traj,
				SubstrateHealthScore: o.health.SubstrateHealthScore(readings, repot),
				Summary:              health.Summary(traj),
			}
		})
	}()

	go func() {
		defer wg.Done()
		b.Flowering = run(o, DomainFlowering, func() FloweringResult {
			pred := o.flowering.Predict(s.Cycles, now)
			return FloweringResult{Prediction: pred, Summary: flowering.Summary(pred)}
		})
	}()

	wg.Wait()

	b.Metadata = Metadata{
		DataPoints: DataPoints{
			CareEvents:      len(s.Events),
			Readings:        readingCount,
			FloweringCycles: len(s.Cycles),
		},
		ModelConfidence: overallConfidence(b),
		PredictorStatus: PredictorStatus{
			Watering:  b.Watering.Status(),
			Health:    b.Health.Status(),
			Flowering: b.Flowering.Status(),
		},
		GeneratedAt: now,
	}

	o.logger.Debugw("prediction bundle",
		"plant", s.PlantID,
		"events", len(s.Events),
		"readings", readingCount,
		"cycles", len(s.Cycles),
		"confidence", b.Metadata.ModelConfidence,
		"status", b.Metadata.PredictorStatus,
	)

	return b
}

// lastRepot is the snapshot's repot date, or the newest repotting event
func lastRepot(s Snapshot) *time.Time {
	if s.LastRepot != nil {
		return s.LastRepot
	}
	return care.LastRepotDate(s.Events)
}

// run calls fn and turns a panic into a failed Result
func run[T any](o *Orchestrator, d Domain, fn func() T) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Errorw("predictor failed",
				"domain", d,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			res = Result[T]{Err: fmt.Errorf("%s predictor: %v", d, r), Domain: d}
		}
	}()

	v := fn()
	return Result[T]{Value: &v, Domain: d}
}

// overallConfidence averages the three domain confidences; a failed domain
// counts as low
func overallConfidence(b Bundle) timeseries.Confidence {
	cs := []timeseries.Confidence{timeseries.ConfidenceLow, timeseries.ConfidenceLow, timeseries.ConfidenceLow}
	if b.Watering.OK() {
		cs[0] = b.Watering.Value.Confidence
	}
	if b.Health.OK() {
		cs[1] = b.Health.Value.Confidence
	}
	if b.Flowering.OK() {
		cs[2] = b.Flowering.Value.Confidence
	}
	return timeseries.OverallConfidence(cs...)
}
