package infoboard

import (
	"testing"
	"time"
)

func TestJulianDay(t *testing.T) {
	// J2000.0 epoch.
	epoch := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := julianDay(epoch); got != 2451545.0 {
		t.Errorf("expected JD 2451545.0, got %f", got)
	}
}

func TestSunElevation(t *testing.T) {
	// Around the June solstice the subsolar point sits near the tropic of
	// Cancer; at solar noon the sun is close to overhead there and as low
	// as it gets at the antipode.
	noon := time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)
	sLat, sLon := subsolarPoint(noon)
	if sLat < 23.0 || sLat > 23.8 {
		t.Errorf("expected subsolar latitude near 23.4, got %f", sLat)
	}

	if elev := sunElevation(noon, sLat, sLon); elev < 85 {
		t.Errorf("expected near-zenith elevation, got %f", elev)
	}
	if elev := sunElevation(noon, -sLat, wrapLongitude(sLon+180)); elev > -85 {
		t.Errorf("expected near-nadir elevation, got %f", elev)
	}
}

func TestDimmerLevel(t *testing.T) {
	d := &Dimmer{Lat: 52.37, Lon: 4.9, Day: 200, Night: 100}

	noon := time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)
	if got := d.Level(noon); got != 200 {
		t.Errorf("expected day level 200, got %d", got)
	}

	midnight := time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC)
	if got := d.Level(midnight); got != 100 {
		t.Errorf("expected night level 100, got %d", got)
	}
}

func TestDimmerRamp(t *testing.T) {
	d := &Dimmer{Lat: 52.37, Lon: 4.9, Day: 200, Night: 100}

	// Scan an autumn evening: levels go from day to night without ever
	// increasing, passing through the twilight ramp.
	start := time.Date(2025, 10, 1, 15, 0, 0, 0, time.UTC)
	last := d.Level(start)
	if last != 200 {
		t.Fatalf("expected day level at scan start, got %d", last)
	}

	var ramped bool
	for i := 1; i <= 8*60; i++ {
		got := d.Level(start.Add(time.Duration(i) * time.Minute))
		if got > last {
			t.Fatalf("expected dimming to be monotonic, got %d after %d", got, last)
		}
		if got > 100 && got < 200 {
			ramped = true
		}
		last = got
	}
	if last != 100 {
		t.Errorf("expected night level at scan end, got %d", last)
	}
	if !ramped {
		t.Error("expected intermediate levels during twilight")
	}
}
