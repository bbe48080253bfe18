// Package solar estimates clear-sky sunlight at a location: the sun's position,
// shortwave irradiance and the daily light integral a plant outdoors receives.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	solarConstant = 1367.0
	auToKm        = 149597870.7

	// DefaultTurbidity is the Linke-style turbidity factor of the Bras model
	// for clear air; 2 is clear, 4-5 is hazy or smoggy.
	DefaultTurbidity = 2.0
)

// Position is the sun as seen by an observer at one instant
type Position struct {
	ElevationDeg   float64
	AzimuthDeg     float64
	DeclinationDeg float64
	EqOfTimeMin    float64
	CosZenith      float64
	SunEarthDistAU float64
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// SunPosition computes the sun's position at t for an observer at lat/lon
// (degrees, east positive)
func SunPosition(t time.Time, lat, lon float64) Position {
	t = t.UTC()
	jd := julian.TimeToJD(t)
	T := (jd - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	omega := 125.04 - 1934.136*T
	lambda := L0 + C - 0.00569 - 0.00478*math.Sin(degToRad(omega))
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	decl := math.Asin(math.Sin(degToRad(eps0)) * math.Sin(degToRad(lambda)))

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	eqTime := radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4

	utcMin := float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60.0
	hourAngle := (utcMin+4*lon+eqTime)/4 - 180

	latRad := degToRad(lat)
	cosZen := math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Cos(degToRad(hourAngle))
	cosZen = math.Max(-1, math.Min(1, cosZen))
	zen := math.Acos(cosZen)

	// Sun-Earth distance from the true anomaly
	mRad := degToRad(M)
	e = 0.016708617 - T*(0.000042037+T*0.0000001236)
	E := mRad + e*math.Sin(mRad)*(1+e*math.Cos(mRad))
	v := 2 * math.Atan(math.Sqrt((1+e)/(1-e))*math.Tan(E/2))
	r := (1 - e*e) / (1 + e*math.Cos(v))

	pos := Position{
		ElevationDeg:   90 - radToDeg(zen) + 0.5667,
		DeclinationDeg: radToDeg(decl),
		EqOfTimeMin:    eqTime,
		CosZenith:      cosZen,
		SunEarthDistAU: r,
	}

	if den := math.Cos(latRad) * math.Sin(zen); den != 0 {
		az := radToDeg(math.Acos(math.Max(-1, math.Min(1, (math.Sin(decl)-math.Sin(latRad)*cosZen)/den))))
		if hourAngle > 0 {
			az = 360 - az
		}
		pos.AzimuthDeg = az
	}

	return pos
}

// ClearSkyIrradiance is the Bras clear-sky global shortwave irradiance in
// W/m² at t. It is zero while the sun is below the horizon.
func ClearSkyIrradiance(t time.Time, lat, lon, turbidity float64) float64 {
	pos := SunPosition(t, lat, lon)
	if pos.ElevationDeg <= 0 || pos.CosZenith <= 0 {
		return 0
	}

	r := pos.SunEarthDistAU
	extraterrestrial := pos.CosZenith * solarConstant / (r * r)
	airMass := 1.0 / (pos.CosZenith + 0.15*math.Pow(pos.ElevationDeg+3.885, -1.253))
	a1 := 0.128 - 0.054*math.Log10(airMass)

	return math.Max(0, extraterrestrial*math.Exp(-turbidity*a1*airMass))
}
