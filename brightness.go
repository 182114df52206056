package infoboard

import (
	"math"
	"time"
)

// Civil twilight, degrees of solar elevation.
const twilight = -6.0

// Dimmer maps the sun's elevation at the display's location onto a contrast
// level: Day above the horizon, Night below civil twilight, and a linear
// ramp in between so the panel never jumps in brightness.
type Dimmer struct {
	// Lat and Lon locate the display, in degrees north and east.
	Lat, Lon float64

	// Day and Night are the contrast levels in full daylight and full
	// darkness.
	Day, Night uint8
}

// Level returns the contrast level at time t.
func (d *Dimmer) Level(t time.Time) uint8 {
	elev := sunElevation(t, d.Lat, d.Lon)
	switch {
	case elev >= 0:
		return d.Day
	case elev <= twilight:
		return d.Night
	}
	f := (elev - twilight) / -twilight
	return uint8(float64(d.Night) + f*(float64(d.Day)-float64(d.Night)))
}

// sunElevation returns the solar elevation angle in degrees at the given
// location, from the angular distance to the subsolar point.
func sunElevation(t time.Time, latDeg, lonDeg float64) float64 {
	sLat, sLon := subsolarPoint(t)
	lat := degToRad(latDeg)
	sinElev := math.Sin(lat)*math.Sin(degToRad(sLat)) +
		math.Cos(lat)*math.Cos(degToRad(sLat))*math.Cos(degToRad(lonDeg-sLon))
	return radToDeg(math.Asin(sinElev))
}

// subsolarPoint returns the latitude/longitude where the sun is overhead at
// time t, using the NOAA low-accuracy solar position series.
func subsolarPoint(t time.Time) (latDeg, lonDeg float64) {
	utc := t.UTC()
	jd := julianDay(utc)
	T := (jd - 2451545.0) / 36525.0

	L0 := math.Mod(280.46646+T*(36000.76983+T*0.0003032), 360.0)
	M := 357.52911 + T*(35999.05029-0.0001537*T)
	e := 0.016708634 - T*(0.000042037+0.0000001267*T)

	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+0.000014*T)) +
		math.Sin(degToRad(2*M))*(0.019993-0.000101*T) +
		math.Sin(degToRad(3*M))*0.000289

	omega := 125.04 - 1934.136*T
	lambda := L0 + C - 0.00569 - 0.00478*math.Sin(degToRad(omega))

	eps0 := 23.0 + (26.0+(21.448-T*(46.815+T*(0.00059-0.001813*T)))/60.0)/60.0
	eps := eps0 + 0.00256*math.Cos(degToRad(omega))

	decl := math.Asin(math.Sin(degToRad(eps)) * math.Sin(degToRad(lambda)))

	y := math.Tan(degToRad(eps) / 2.0)
	y *= y

	eqTime := 4 * radToDeg(
		y*math.Sin(2*degToRad(L0))-
			2*e*math.Sin(degToRad(M))+
			4*e*y*math.Sin(degToRad(M))*math.Cos(2*degToRad(L0))-
			0.5*y*y*math.Sin(4*degToRad(L0))-
			1.25*e*e*math.Sin(2*degToRad(M)),
	)

	minutes := float64(utc.Hour()*60+utc.Minute()) + float64(utc.Second())/60.0
	lonDeg = wrapLongitude((720 - (minutes + eqTime)) / 4)
	latDeg = radToDeg(decl)
	return latDeg, lonDeg
}

func wrapLongitude(lonDeg float64) float64 {
	lon := math.Mod(lonDeg+180.0, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	return lon - 180.0
}

func julianDay(t time.Time) float64 {
	y, m, d := t.Date()
	if m <= 2 {
		y--
		m += 12
	}
	A := y / 100
	B := 2 - A + A/4
	day := float64(d) + float64(t.Hour())/24.0 + float64(t.Minute())/1440.0 + float64(t.Second())/86400.0
	return float64(int(365.25*float64(y+4716))) + float64(int(30.6001*float64(m+1))) + day + float64(B) - 1524.5
}

func degToRad(d float64) float64 { return d * math.Pi / 180.0 }
func radToDeg(r float64) float64 { return r * 180.0 / math.Pi }
