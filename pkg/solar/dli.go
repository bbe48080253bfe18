package solar

import (
	"math"
	"time"
)

const (
	// ShortwaveToPPFD converts global shortwave W/m² into photosynthetic
	// photon flux in µmol/m²/s
	ShortwaveToPPFD = 2.02

	integrationStep = 10 * time.Minute
)

// DailyLightIntegral estimates the clear-sky DLI in mol/m²/day for the solar
// day containing date. transmission scales the result for shade cloth,
// glazing or canopy and is clamped into [0, 1].
func DailyLightIntegral(date time.Time, lat, lon, transmission float64) float64 {
	transmission = math.Max(0, math.Min(1, transmission))

	// the solar day runs from local solar midnight, offset from UTC by longitude
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	start := day.Add(-time.Duration(lon / 15 * float64(time.Hour)))

	var joules float64
	for t := start; t.Before(start.Add(24 * time.Hour)); t = t.Add(integrationStep) {
		mid := t.Add(integrationStep / 2)
		joules += ClearSkyIrradiance(mid, lat, lon, DefaultTurbidity) * integrationStep.Seconds()
	}

	return joules * ShortwaveToPPFD / 1e6 * transmission
}

// DayLength is the number of hours between sunrise and sunset on date at
// latitude lat: 24 during polar day and 0 during polar night
func DayLength(date time.Time, lat float64) float64 {
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
	decl := degToRad(SunPosition(noon, lat, 0).DeclinationDeg)

	cosH := -math.Tan(degToRad(lat)) * math.Tan(decl)
	switch {
	case cosH <= -1:
		return 24
	case cosH >= 1:
		return 0
	}
	return 2 * radToDeg(math.Acos(cosH)) / 15
}
