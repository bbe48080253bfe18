package care

import "math"

// Environment is the climate at the plant's location. A nil field means the
// signal is unavailable.
type Environment struct {
	TemperatureC *float64 `json:"temperatureC,omitempty"`
	HumidityPct  *float64 `json:"humidityPct,omitempty"`
	VPDKPa       *float64 `json:"vpdKPa,omitempty"`
	DLI          *float64 `json:"dliMolM2Day,omitempty"`
	CO2PPM       *float64 `json:"co2Ppm,omitempty"`
}

// Precipitation is recent rainfall at an outdoor location
type Precipitation struct {
	Last24hMM float64 `json:"last24hMm"`
	Last48hMM float64 `json:"last48hMm"`
	IsOutdoor bool    `json:"isOutdoor"`
}

// Weather is the subset of a weather report used for rain adjustments.
// Daily[0] is today and Daily[1] the following day.
type Weather struct {
	Current struct {
		PrecipitationMM float64 `json:"precipitation" yaml:"precipitation"`
	} `json:"current" yaml:"current"`
	Daily []DailyWeather `json:"daily" yaml:"daily"`
}

// DailyWeather is one day of a weather report
type DailyWeather struct {
	PrecipitationSumMM float64 `json:"precipitationSum" yaml:"precipitationSum"`
}

// PrecipitationFromWeather derives the 24h and 48h totals from a weather
// report. Indoor locations get nil.
func PrecipitationFromWeather(w Weather, outdoor bool) *Precipitation {
	if !outdoor {
		return nil
	}

	last24h := w.Current.PrecipitationMM
	if len(w.Daily) > 0 {
		last24h += w.Daily[0].PrecipitationSumMM
	}
	last48h := last24h
	if len(w.Daily) > 1 {
		last48h += w.Daily[1].PrecipitationSumMM
	}

	return &Precipitation{
		Last24hMM: last24h,
		Last48hMM: last48h,
		IsOutdoor: true,
	}
}

// FahrenheitToCelsius converts a sensor temperature in °F
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// VPD is the vapour pressure deficit in kPa for an air temperature in °C and
// relative humidity in percent, using the Tetens saturation curve
func VPD(tempC, humidityPct float64) float64 {
	svp := 0.61078 * math.Exp(17.27*tempC/(tempC+237.3))

	// Humidity readings occasionally overshoot 100% on saturated sensors
	rh := math.Max(0, math.Min(humidityPct, 100))
	return svp * (1 - rh/100)
}
