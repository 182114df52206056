package weather

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BeatGlow/infoboard"
	"github.com/BeatGlow/infoboard/pixel"
)

var quiet = log.New(io.Discard, "", 0)

func forecastBody(now time.Time) string {
	stamp := func(t time.Time) string { return t.Format("2006-01-02T15:04") }
	return fmt.Sprintf(`{
		"hourly": {
			"time": [%q, %q, %q],
			"temperature_2m": [10.0, 20.0, 21.5],
			"precipitation_probability": [5, 60, 80],
			"rain": [0.0, 1.2, 2.0]
		},
		"daily": {"uv_index_max": [6.4]}
	}`, stamp(now.Add(-time.Hour)), stamp(now), stamp(now.Add(time.Hour)))
}

func TestRefresh(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Hour)
	var hourly string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hourly = r.URL.Query().Get("hourly")
		io.WriteString(w, forecastBody(now))
	}))
	defer server.Close()

	m := New(Config{
		Latitude:  37.7749,
		Longitude: -122.4194,
		Location:  time.UTC,
		URL:       server.URL,
	}, server.Client(), quiet)

	state, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("expected refresh, got error: %v", err)
	}
	if hourly != "temperature_2m,precipitation_probability,rain" {
		t.Errorf("expected hourly variables requested, got %q", hourly)
	}

	s, ok := state.(*State)
	if !ok {
		t.Fatalf("expected *State, got %T", state)
	}
	if s.TempF != 68 {
		t.Errorf("expected current 68F from 20C, got %d", s.TempF)
	}
	if s.PrecipPct != 60 {
		t.Errorf("expected 60%% rain, got %d", s.PrecipPct)
	}
	if s.RainMM != 1.2 {
		t.Errorf("expected 1.2mm rain, got %v", s.RainMM)
	}
	if s.UVIndex != 6 {
		t.Errorf("expected UV 6, got %d", s.UVIndex)
	}
	if !s.HasNext || s.NextTempF != 71 {
		t.Errorf("expected next 71F from 21.5C, got hasNext=%v %d", s.HasNext, s.NextTempF)
	}
	if want := now.Add(time.Hour).Hour(); s.NextHour != want {
		t.Errorf("expected next hour %d, got %d", want, s.NextHour)
	}
}

func TestRefreshUnchangedKeepsForecast(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Hour)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"f1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"f1"`)
		io.WriteString(w, forecastBody(now))
	}))
	defer server.Close()

	m := New(Config{Location: time.UTC, URL: server.URL}, server.Client(), quiet)
	first, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("expected first refresh, got error: %v", err)
	}
	second, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("expected cached refresh, got error: %v", err)
	}
	if first != second {
		t.Error("expected unchanged response to return the cached state")
	}
}

func TestRefreshEmptyForecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"hourly":{"time":[],"temperature_2m":[]}}`)
	}))
	defer server.Close()

	m := New(Config{Location: time.UTC, URL: server.URL}, server.Client(), quiet)
	if _, err := m.Refresh(context.Background()); err == nil {
		t.Fatal("expected error for forecast without hourly data")
	}
}

func TestFahrenheit(t *testing.T) {
	tests := []struct {
		celsius float64
		want    int
	}{
		{0, 32},
		{100, 212},
		{20.5, 69},
		{-10, 14},
	}
	for _, test := range tests {
		if v := fahrenheit(test.celsius); v != test.want {
			t.Errorf("expected %vC = %dF, got %d", test.celsius, test.want, v)
		}
	}
}

func TestConditionIcon(t *testing.T) {
	tests := []struct {
		name   string
		precip int
		hour   int
		want   *pixel.MonoImage
	}{
		{"clear day", 10, 12, sunIcon},
		{"overcast", 30, 12, cloudIcon},
		{"rainy day", 80, 12, rainIcon},
		{"clear night", 10, 23, moonIcon},
		{"early morning", 0, 5, moonIcon},
		{"rainy night", 80, 23, rainIcon},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			icon, _ := conditionIcon(test.precip, test.hour)
			if icon != test.want {
				t.Error("expected a different condition icon")
			}
		})
	}
}

func TestRender(t *testing.T) {
	m := New(Config{Location: time.UTC}, nil, quiet)
	s := &State{TempF: 68, PrecipPct: 80, UVIndex: 5, NextTempF: 66, NextHour: 13, HasNext: true}

	frame := pixel.NewRGBImage(64, 32)
	tick := infoboard.Tick{Now: time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)}
	if err := m.Render(frame, s, tick); err != nil {
		t.Fatalf("expected render, got error: %v", err)
	}

	var white, rainBlue bool
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			switch frame.RGBAt(x, y) {
			case pixel.White:
				white = true
			case pixel.RGB{R: 0x64, G: 0x96, B: 0xff}:
				rainBlue = true
			}
		}
	}
	if !white {
		t.Error("expected temperature pixels on the frame")
	}
	if !rainBlue {
		t.Error("expected rain icon pixels on the frame")
	}
}

func TestDuration(t *testing.T) {
	m := New(Config{}, nil, quiet)
	if v := m.Duration(nil); v != 0 {
		t.Errorf("expected no slot without data, got %v", v)
	}
	if v := m.Duration(&State{}); v != 15*time.Second {
		t.Errorf("expected default 15s slot, got %v", v)
	}
}
