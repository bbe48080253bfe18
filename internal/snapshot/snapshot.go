// Package snapshot reads plant snapshot documents, JSON or YAML, into the
// input of the forecast orchestrator. Malformed optional values are skipped
// with a warning rather than failing the document.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/chrissnell/careforecast/internal/care"
	"github.com/chrissnell/careforecast/internal/flowering"
	"github.com/chrissnell/careforecast/internal/forecast"
	"github.com/chrissnell/careforecast/pkg/solar"
	"github.com/chrissnell/careforecast/pkg/timeseries"
)

// ErrUnknownFormat is returned for a document format other than JSON or YAML
var ErrUnknownFormat = errors.New("unknown snapshot format")

// Format is a snapshot document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension; anything that is
// not .yaml or .yml is read as JSON
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Params tune how snapshot documents are completed
type Params struct {
	// EstimateOutdoorDLI fills a missing DLI for outdoor plants with a clear-sky estimate
	EstimateOutdoorDLI bool `yaml:"estimate_outdoor_dli" json:"estimateOutdoorDli"`

	// LightTransmission scales the clear-sky estimate for shade cloth or canopy
	LightTransmission float64 `yaml:"light_transmission" json:"lightTransmission"`
}

// DefaultParams returns the stock decoding parameters
func DefaultParams() Params {
	return Params{
		EstimateOutdoorDLI: true,
		LightTransmission:  0.7,
	}
}

// Validate checks the parameters
func (p Params) Validate() error {
	if p.LightTransmission < 0 || p.LightTransmission > 1 {
		return fmt.Errorf("%w: snapshot light_transmission %v outside [0, 1]", care.ErrInvalidParams, p.LightTransmission)
	}
	return nil
}

// Decoder turns snapshot documents into forecast.Snapshot values
type Decoder struct {
	params Params
	logger *zap.SugaredLogger
}

// NewDecoder validates params and returns a Decoder. A nil logger discards
// output.
func NewDecoder(params Params, logger *zap.SugaredLogger) (*Decoder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Decoder{params: params, logger: logger}, nil
}

// DecodeFile reads and decodes the snapshot at path
func (d *Decoder) DecodeFile(path string, now time.Time) (forecast.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return forecast.Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}
	return d.Decode(data, FormatFromPath(path), now)
}

// Decode parses one snapshot document. now anchors cycles with no recorded
// start and the solar DLI estimate.
func (d *Decoder) Decode(data []byte, format Format, now time.Time) (forecast.Snapshot, error) {
	var doc document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return forecast.Snapshot{}, fmt.Errorf("parsing JSON snapshot: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return forecast.Snapshot{}, fmt.Errorf("parsing YAML snapshot: %w", err)
		}
	default:
		return forecast.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	s := forecast.Snapshot{
		PlantID:      doc.PlantID,
		PlantName:    doc.PlantName,
		HealthStatus: doc.HealthStatus,
		Events:       d.events(doc.Events),
		LastRepot:    d.optionalDate("last_repot", doc.LastRepot),
	}

	// an explicit empty list still overrides readings derived from events
	if doc.Readings != nil {
		s.Readings = d.readings(doc.Readings)
	}

	outdoor := doc.Location != nil && doc.Location.Outdoor
	s.Environment = d.environment(doc.Environment, doc.Location, now)

	switch {
	case doc.Rain != nil:
		s.Precipitation = &care.Precipitation{Last24hMM: doc.Rain.Last24hMM, Last48hMM: doc.Rain.Last48hMM, IsOutdoor: outdoor}
	case doc.Weather != nil:
		s.Precipitation = care.PrecipitationFromWeather(*doc.Weather, outdoor)
	}

	records := make([]flowering.Record, 0, len(doc.Flowering))
	for _, c := range doc.Flowering {
		records = append(records, d.record(c))
	}
	s.Cycles = flowering.CyclesFromRecords(records, now)

	d.logger.Debugw("decoded snapshot",
		"plant", s.PlantID,
		"events", len(s.Events),
		"readings", len(s.Readings),
		"cycles", len(s.Cycles),
		"outdoor", outdoor,
	)

	return s, nil
}

func (d *Decoder) events(docs []eventDoc) []care.Event {
	events := make([]care.Event, 0, len(docs))
	for i, e := range docs {
		date, err := ParseDate(e.Date)
		if err != nil {
			d.logger.Warnw("skipping care event with unreadable date", "index", i, "action", e.Action, "error", err)
			continue
		}
		events = append(events, care.Event{
			Date:   date,
			Action: e.Action,
			ECIn:   e.ECIn,
			ECOut:  e.ECOut,
			PHIn:   e.PHIn,
			PHOut:  e.PHOut,
		})
	}
	return events
}

func (d *Decoder) readings(docs []readingDoc) []care.Reading {
	readings := make([]care.Reading, 0, len(docs))
	for i, r := range docs {
		date, err := ParseDate(r.Date)
		if err != nil {
			d.logger.Warnw("skipping reading with unreadable date", "index", i, "error", err)
			continue
		}
		readings = append(readings, care.Reading{Date: date, ECIn: r.ECIn, ECOut: r.ECOut, PHIn: r.PHIn, PHOut: r.PHOut})
	}
	return readings
}

func (d *Decoder) environment(env *environmentDoc, loc *locationDoc, now time.Time) *care.Environment {
	out := care.Environment{}
	if env != nil {
		out.HumidityPct = env.Humidity
		out.VPDKPa = env.VPD
		out.DLI = env.DLI
		out.CO2PPM = env.CO2

		if env.Temperature != nil {
			switch strings.ToLower(strings.TrimSpace(env.TemperatureUnit)) {
			case "", "c", "celsius":
				out.TemperatureC = env.Temperature
			case "f", "fahrenheit":
				out.TemperatureC = care.Float(care.FahrenheitToCelsius(*env.Temperature))
			default:
				d.logger.Warnw("skipping temperature with unknown unit", "unit", env.TemperatureUnit)
			}
		}
	}

	if out.VPDKPa == nil && out.TemperatureC != nil && out.HumidityPct != nil {
		out.VPDKPa = care.Float(timeseries.RoundTo(care.VPD(*out.TemperatureC, *out.HumidityPct), 2))
	}

	if out.DLI == nil && d.params.EstimateOutdoorDLI && loc != nil && loc.Outdoor && loc.Latitude != nil && loc.Longitude != nil {
		dli := solar.DailyLightIntegral(now, *loc.Latitude, *loc.Longitude, d.params.LightTransmission)
		out.DLI = &dli
		d.logger.Debugw("estimated outdoor DLI", "lat", *loc.Latitude, "lon", *loc.Longitude, "dli", dli)
	}

	if out == (care.Environment{}) {
		return nil
	}
	return &out
}

func (d *Decoder) record(c cycleDoc) flowering.Record {
	field := func(name, value string) *time.Time {
		return d.optionalDate("flowering."+c.ID+"."+name, value)
	}
	return flowering.Record{
		ID:              c.ID,
		SpatheEmergence: field("spathe_emergence", c.SpatheEmergence),
		SpatheClose:     field("spathe_close", c.SpatheClose),
		FemaleStart:     field("female_start", c.FemaleStart),
		FemaleEnd:       field("female_end", c.FemaleEnd),
		MaleStart:       field("male_start", c.MaleStart),
		MaleEnd:         field("male_end", c.MaleEnd),
		PollenCollected: c.PollenCollected,
		PollinationDate: field("pollination_date", c.PollinationDate),
		Notes:           c.Notes,
	}
}

// optionalDate parses value, returning nil for an empty or unreadable date
func (d *Decoder) optionalDate(name, value string) *time.Time {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	t, err := ParseDate(value)
	if err != nil {
		d.logger.Warnw("ignoring unreadable date", "field", name, "value", value, "error", err)
		return nil
	}
	return &t
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseDate accepts RFC 3339 timestamps and bare dates. Values without a zone
// are taken as UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
