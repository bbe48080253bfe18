package solar

import (
	"math"
	"testing"
	"time"
)

func TestClearSkyIrradiance(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		lat, lon float64
		min, max float64
	}{
		{
			name: "equator at equinox noon",
			time: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
			min:  900,
			max:  1200,
		},
		{
			name: "equator at midnight",
			time: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
			min:  0,
			max:  0,
		},
		{
			name: "Seattle summer afternoon",
			time: time.Date(2024, 6, 21, 20, 0, 0, 0, time.UTC),
			lat:  47.6,
			lon:  -122.3,
			min:  700,
			max:  1100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClearSkyIrradiance(tt.time, tt.lat, tt.lon, DefaultTurbidity)
			if got < tt.min || got > tt.max {
				t.Errorf("ClearSkyIrradiance() = %.1f, want within [%.0f, %.0f]", got, tt.min, tt.max)
			}
		})
	}
}

func TestDailyLightIntegral(t *testing.T) {
	summer := DailyLightIntegral(time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), 40, -105, 1)
	winter := DailyLightIntegral(time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC), 40, -105, 1)

	if summer < 40 || summer > 80 {
		t.Errorf("summer DLI = %.1f, want a clear-sky value between 40 and 80", summer)
	}
	if winter >= summer {
		t.Errorf("winter DLI %.1f should be below summer DLI %.1f", winter, summer)
	}

	half := DailyLightIntegral(time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), 40, -105, 0.5)
	if math.Abs(half-summer/2) > 1e-9 {
		t.Errorf("transmission 0.5 gave %.3f, want %.3f", half, summer/2)
	}

	if polar := DailyLightIntegral(time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC), 85, 0, 1); polar != 0 {
		t.Errorf("polar night DLI = %.3f, want 0", polar)
	}
}

func TestDayLength(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		lat      float64
		expected float64
		delta    float64
	}{
		{"equator", time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), 0, 12, 0.1},
		{"mid latitude summer", time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), 47.6, 15.9, 0.3},
		{"mid latitude winter", time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC), 47.6, 8.1, 0.3},
		{"polar day", time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), 75, 24, 0},
		{"polar night", time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC), 75, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayLength(tt.date, tt.lat); math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("DayLength() = %.2f, want %.2f ± %.2f", got, tt.expected, tt.delta)
			}
		})
	}
}
