// Package care holds the plant care records the predictors consume: care log
// events, EC/pH readings, the environment at the plant's location and recent
// precipitation.
package care

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrInvalidParams is returned when predictor tunables fail validation
var ErrInvalidParams = errors.New("invalid parameters")

// Event is a single care log entry. Action is free text; the EC/pH columns are
// only populated when the grower measured input and runoff.
type Event struct {
	Date   time.Time `json:"date"`
	Action string    `json:"action"`
	ECIn   *float64  `json:"ecIn,omitempty"`
	ECOut  *float64  `json:"ecOut,omitempty"`
	PHIn   *float64  `json:"phIn,omitempty"`
	PHOut  *float64  `json:"phOut,omitempty"`
}

// Reading is an EC/pH measurement set taken at one point in time
type Reading struct {
	Date  time.Time `json:"date"`
	ECIn  *float64  `json:"ecIn,omitempty"`
	ECOut *float64  `json:"ecOut,omitempty"`
	PHIn  *float64  `json:"phIn,omitempty"`
	PHOut *float64  `json:"phOut,omitempty"`
}

// HasAny reports whether at least one of the four columns is set
func (r Reading) HasAny() bool {
	return r.ECIn != nil || r.ECOut != nil || r.PHIn != nil || r.PHOut != nil
}

// ECDelta returns ecOut - ecIn when both are present
func (r Reading) ECDelta() (float64, bool) {
	if r.ECIn == nil || r.ECOut == nil {
		return 0, false
	}
	return *r.ECOut - *r.ECIn, true
}

// PHDrift returns |phOut - phIn| when both are present
func (r Reading) PHDrift() (float64, bool) {
	if r.PHIn == nil || r.PHOut == nil {
		return 0, false
	}
	d := *r.PHOut - *r.PHIn
	if d < 0 {
		d = -d
	}
	return d, true
}

// ReadingsFromEvents extracts the EC/pH readings carried by care events,
// most recent first
func ReadingsFromEvents(events []Event) []Reading {
	var readings []Reading
	for _, e := range events {
		r := Reading{Date: e.Date, ECIn: e.ECIn, ECOut: e.ECOut, PHIn: e.PHIn, PHOut: e.PHOut}
		if r.HasAny() {
			readings = append(readings, r)
		}
	}
	SortReadings(readings)
	return readings
}

// SortReadings orders readings most recent first
func SortReadings(readings []Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Date.After(readings[j].Date)
	})
}

// SortEvents orders events most recent first
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.After(events[j].Date)
	})
}

// LastRepotDate returns the date of the most recent repotting event, or nil
func LastRepotDate(events []Event) *time.Time {
	var last *time.Time
	for _, e := range events {
		if Classify(e.Action) != CategoryRepotting {
			continue
		}
		if last == nil || e.Date.After(*last) {
			d := e.Date
			last = &d
		}
	}
	return last
}

// MatchesAny reports whether action contains any of the given words, ignoring case
func MatchesAny(action string, vocabulary []string) bool {
	action = strings.ToLower(action)
	for _, word := range vocabulary {
		if word != "" && strings.Contains(action, strings.ToLower(word)) {
			return true
		}
	}
	return false
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
