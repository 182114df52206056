// Package weather is a board module showing current conditions from the
// Open-Meteo forecast API.
package weather

import (
	"context"
	"fmt"
	"image"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	xfont "golang.org/x/image/font"

	"github.com/BeatGlow/infoboard"
	"github.com/BeatGlow/infoboard/draw"
	"github.com/BeatGlow/infoboard/font"
	"github.com/BeatGlow/infoboard/internal/fetch"
	"github.com/BeatGlow/infoboard/pixel"
)

// DefaultURL is the Open-Meteo forecast endpoint.
const DefaultURL = "https://api.open-meteo.com/v1/forecast"

// Config holds the weather module settings.
type Config struct {
	// Name identifies the module on the board, "weather" if empty.
	Name string

	// Latitude and Longitude of the forecast point.
	Latitude  float64
	Longitude float64

	// Location resolves the hourly series and the day/night icon. Nil
	// means the process local time and server side timezone detection.
	Location *time.Location

	// Slot is how long the module holds the board, 15s if empty.
	Slot time.Duration

	// URL overrides the forecast endpoint.
	URL string
}

// State is one decoded forecast snapshot.
type State struct {
	TempF     int
	PrecipPct int
	RainMM    float64
	UVIndex   int
	NextTempF int
	NextHour  int
	HasNext   bool
	FetchedAt time.Time
}

// Module fetches and renders the forecast.
type Module struct {
	cfg    Config
	client *fetch.Client
	log    *log.Logger
	loc    *time.Location

	mu   sync.Mutex
	prev *State
}

var _ infoboard.Module = (*Module)(nil)

// New returns a weather module for the given coordinates.
func New(cfg Config, client *http.Client, logger *log.Logger) *Module {
	if cfg.Name == "" {
		cfg.Name = "weather"
	}
	if cfg.Slot == 0 {
		cfg.Slot = 15 * time.Second
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	loc := cfg.Location
	tz := "auto"
	if loc == nil {
		loc = time.Local
	} else {
		tz = loc.String()
	}

	query := url.Values{
		"latitude":      {formatCoord(cfg.Latitude)},
		"longitude":     {formatCoord(cfg.Longitude)},
		"hourly":        {"temperature_2m,precipitation_probability,rain"},
		"daily":         {"uv_index_max"},
		"timezone":      {tz},
		"forecast_days": {"1"},
	}
	return &Module{
		cfg:    cfg,
		client: &fetch.Client{URL: cfg.URL + "?" + query.Encode(), HTTP: client},
		log:    logger,
		loc:    loc,
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Name implements infoboard.Module.
func (m *Module) Name() string {
	return m.cfg.Name
}

type forecast struct {
	Hourly struct {
		Time        []string  `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
		PrecipProb  []float64 `json:"precipitation_probability"`
		Rain        []float64 `json:"rain"`
	} `json:"hourly"`
	Daily struct {
		UVIndexMax []float64 `json:"uv_index_max"`
	} `json:"daily"`
}

// Refresh implements infoboard.Module.
func (m *Module) Refresh(ctx context.Context) (infoboard.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var payload forecast
	changed, err := m.client.GetJSON(ctx, &payload)
	if err != nil {
		return nil, err
	}
	if !changed {
		if m.prev == nil {
			return nil, fmt.Errorf("weather: unchanged response without cached forecast")
		}
		return m.prev, nil
	}

	state, err := decode(&payload, time.Now().In(m.loc))
	if err != nil {
		return nil, err
	}
	m.prev = state
	m.log.Printf("updated forecast: %dF, %d%% rain, UV %d", state.TempF, state.PrecipPct, state.UVIndex)
	return state, nil
}

// decode reduces the hourly series to the reading covering now plus the one
// after it.
func decode(f *forecast, now time.Time) (*State, error) {
	h := &f.Hourly
	if len(h.Time) == 0 || len(h.Temperature) == 0 {
		return nil, fmt.Errorf("weather: forecast has no hourly temperatures")
	}

	idx := 0
	for i, stamp := range h.Time {
		t, err := time.ParseInLocation("2006-01-02T15:04", stamp, now.Location())
		if err != nil {
			return nil, fmt.Errorf("weather: bad hourly timestamp %q: %w", stamp, err)
		}
		if t.After(now) {
			break
		}
		idx = i
	}
	if idx >= len(h.Temperature) {
		idx = len(h.Temperature) - 1
	}

	state := &State{
		TempF:     fahrenheit(h.Temperature[idx]),
		FetchedAt: now,
	}
	if idx < len(h.PrecipProb) {
		state.PrecipPct = int(h.PrecipProb[idx])
	}
	if idx < len(h.Rain) {
		state.RainMM = h.Rain[idx]
	}
	if len(f.Daily.UVIndexMax) > 0 {
		state.UVIndex = int(math.Round(f.Daily.UVIndexMax[0]))
	}
	if next := idx + 1; next < len(h.Temperature) && next < len(h.Time) {
		t, err := time.ParseInLocation("2006-01-02T15:04", h.Time[next], now.Location())
		if err == nil {
			state.NextTempF = fahrenheit(h.Temperature[next])
			state.NextHour = t.Hour()
			state.HasNext = true
		}
	}
	return state, nil
}

func fahrenheit(celsius float64) int {
	return int(math.Round(celsius*9/5 + 32))
}

// Render implements infoboard.Module.
func (m *Module) Render(frame draw.Image, state infoboard.State, tick infoboard.Tick) error {
	s, ok := state.(*State)
	if !ok {
		return nil
	}
	b := frame.Bounds()
	now := tick.Now.In(m.loc)

	icon, color := conditionIcon(s.PrecipPct, now.Hour())
	draw.Icon(frame, image.Pt(b.Max.X-9, b.Min.Y+1), icon, color)

	draw.TextTop(frame, image.Pt(b.Min.X+1, b.Min.Y), font.Tiny, pixel.RGB{R: 0xff, G: 0xff}, "WEATHER")

	drawTempF(frame, b.Min.X+1, b.Min.Y+7, font.Small, pixel.White, s.TempF)

	rain := fmt.Sprintf("RAIN %d%%", s.PrecipPct)
	draw.TextTop(frame, image.Pt(b.Min.X+1, b.Min.Y+20), font.Tiny, pixel.RGB{R: 0x64, G: 0x96, B: 0xff}, rain)
	draw.TextRight(frame, b.Max.X-1, b.Min.Y+20, font.Tiny, pixel.RGB{G: 0xff}, fmt.Sprintf("UV %d", s.UVIndex))

	if s.HasNext {
		next := fmt.Sprintf("NEXT %dF %s", s.NextTempF, hourLabel(s.NextHour))
		draw.TextTop(frame, image.Pt(b.Min.X+1, b.Max.Y-6), font.Tiny, pixel.RGB{R: 0x80, G: 0x80, B: 0x80}, next)
	}
	return nil
}

// drawTempF draws the temperature with a pixel degree mark, which the
// bitmap faces lack.
func drawTempF(dst draw.Image, x, y int, face xfont.Face, c pixel.RGB, temp int) {
	text := strconv.Itoa(temp)
	draw.TextTop(dst, image.Pt(x, y), face, c, text)
	w := draw.TextWidth(face, text)
	draw.Rectangle(dst, image.Rect(x+w+1, y+1, x+w+4, y+4), c)
	draw.TextTop(dst, image.Pt(x+w+5, y), face, c, "F")
}

func hourLabel(hour int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d%s", display, period)
}

// Duration implements infoboard.Module.
func (m *Module) Duration(state infoboard.State) time.Duration {
	if _, ok := state.(*State); !ok {
		return 0
	}
	return m.cfg.Slot
}

// Condition icons, 8x8.
var (
	sunIcon = pixel.NewBitmap(
		"...##...",
		".#.##.#.",
		"..####..",
		"########",
		"########",
		"..####..",
		".#.##.#.",
		"...##...",
	)
	cloudIcon = pixel.NewBitmap(
		"........",
		"..###...",
		".#####..",
		"#######.",
		"########",
		"########",
		".######.",
		"........",
	)
	rainIcon = pixel.NewBitmap(
		"..###...",
		".#####..",
		"#######.",
		"########",
		".#.#.#.#",
		"#.#.#.#.",
		".#.#.#.#",
		"#.#.#.#.",
	)
	moonIcon = pixel.NewBitmap(
		"...###..",
		"..#####.",
		".######.",
		"######..",
		"#####..#",
		"####....",
		".##.....",
		".....#..",
	)
)

// conditionIcon picks the icon and its color from the precipitation
// probability and the hour of day.
func conditionIcon(precipPct, hour int) (*pixel.MonoImage, pixel.RGB) {
	if (hour >= 20 || hour < 6) && precipPct < 30 {
		return moonIcon, pixel.RGB{R: 0xc8, G: 0xc8, B: 0xff}
	}
	switch {
	case precipPct > 50:
		return rainIcon, pixel.RGB{R: 0x64, G: 0x96, B: 0xff}
	case precipPct > 20:
		return cloudIcon, pixel.RGB{R: 0xb4, G: 0xb4, B: 0xb4}
	default:
		return sunIcon, pixel.RGB{R: 0xff, G: 0xff}
	}
}
