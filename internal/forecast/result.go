package forecast

import (
	"encoding/json"

	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// Domain names one of the three predictors
type Domain string

const (
	DomainWatering  Domain = "watering"
	DomainHealth    Domain = "health"
	DomainFlowering Domain = "flowering"
)

// Label is the capitalized domain name used in failure messages
func (d Domain) Label() string {
	switch d {
	case DomainWatering:
		return "Watering"
	case DomainHealth:
		return "Health"
	case DomainFlowering:
		return "Flowering"
	}
	return string(d)
}

// Status reports whether a domain produced a value
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Result holds either a domain's prediction or the reason it failed
type Result[T any] struct {
	Value  *T
	Err    error
	Domain Domain
}

type failure struct {
	Error      string                `json:"error"`
	Confidence timeseries.Confidence `json:"confidence"`
}

// OK reports whether the predictor produced a value
func (r Result[T]) OK() bool {
	return r.Err == nil && r.Value != nil
}

// Status maps OK onto ok/failed
func (r Result[T]) Status() Status {
	if r.OK() {
		return StatusOK
	}
	return StatusFailed
}

// MarshalJSON emits the value itself, or a low-confidence failure record
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if !r.OK() {
		return json.Marshal(failure{
			Error:      r.Domain.Label() + " prediction unavailable",
			Confidence: timeseries.ConfidenceLow,
		})
	}
	return json.Marshal(r.Value)
}
