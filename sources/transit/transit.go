// Package transit is a board module showing the next arrivals at configured
// transit stops, one stop per page.
package transit

import (
	"context"
	"fmt"
	"image"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BeatGlow/infoboard"
	"github.com/BeatGlow/infoboard/draw"
	"github.com/BeatGlow/infoboard/font"
	"github.com/BeatGlow/infoboard/internal/fetch"
	"github.com/BeatGlow/infoboard/pixel"
)

// DefaultBaseURL is the root of the UmoIQ prediction API.
const DefaultBaseURL = "https://webservices.umoiq.com/api/pub/v1"

// DefaultKey is the public API key the UmoIQ web client ships with.
const DefaultKey = "0be8ebd0284ce712a63f29dcaf7798c4"

// maxRoutes caps the routes shown per stop; four rows fit under the stop
// name on a 32 pixel panel.
const maxRoutes = 4

// Stop is one configured stop to watch.
type Stop struct {
	// Code is the agency's stop code.
	Code string

	// Name is the label shown above the arrivals, Code if empty.
	Name string
}

// Config holds the transit module settings.
type Config struct {
	// Name identifies the module on the board, "transit" if empty.
	Name string

	// Agency is the UmoIQ agency tag. Default "sfmta-cis".
	Agency string

	// Key is the API key. Default DefaultKey.
	Key string

	// BaseURL overrides the API root, mainly for tests.
	BaseURL string

	// Stops to watch, in page order.
	Stops []Stop

	// Dwell is how long each stop page shows. Default 5s.
	Dwell time.Duration

	// Slot overrides the slot duration. 0 means one dwell per stop.
	Slot time.Duration
}

// Route is one route's next arrivals at a stop.
type Route struct {
	Title   string
	Color   pixel.RGB
	Minutes []int
}

// Arrivals is one stop's prediction page.
type Arrivals struct {
	Stop   string
	Routes []Route
}

// State is one prediction snapshot across all configured stops.
type State struct {
	Stops     []Arrivals
	FetchedAt time.Time
}

// Module fetches and pages through the stop predictions.
type Module struct {
	cfg     Config
	log     *log.Logger
	clients []*fetch.Client

	car *infoboard.Carousel
	gen time.Time

	mu    sync.Mutex
	cache [][]Route
}

var (
	_ infoboard.Module    = (*Module)(nil)
	_ infoboard.Activator = (*Module)(nil)
)

// New returns a transit module watching the configured stops.
func New(cfg Config, client *http.Client, logger *log.Logger) *Module {
	if cfg.Name == "" {
		cfg.Name = "transit"
	}
	if cfg.Agency == "" {
		cfg.Agency = "sfmta-cis"
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Dwell == 0 {
		cfg.Dwell = 5 * time.Second
	}

	m := &Module{
		cfg:   cfg,
		log:   logger,
		car:   infoboard.NewCarousel(cfg.Dwell),
		cache: make([][]Route, len(cfg.Stops)),
	}
	for _, stop := range cfg.Stops {
		m.clients = append(m.clients, &fetch.Client{
			URL: fmt.Sprintf("%s/agencies/%s/stopcodes/%s/predictions?key=%s",
				cfg.BaseURL, cfg.Agency, stop.Code, cfg.Key),
			HTTP: client,
		})
	}
	return m
}

// Name implements infoboard.Module.
func (m *Module) Name() string {
	return m.cfg.Name
}

// prediction is one route's prediction entry in the API reply.
type prediction struct {
	Route struct {
		Title string `json:"title"`
		Color string `json:"color"`
	} `json:"route"`
	Values []struct {
		Minutes *int `json:"minutes"`
	} `json:"values"`
}

// Refresh implements infoboard.Module. Stops that fail or report no change
// keep their cached routes; a stop with no predictions still gets a page.
func (m *Module) Refresh(ctx context.Context) (infoboard.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	fetched := 0
	for i := range m.cfg.Stops {
		routes, changed, err := m.fetchStop(ctx, i)
		if err != nil {
			m.log.Printf("stop %s: %v", m.cfg.Stops[i].Code, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fetched++
		if changed {
			m.cache[i] = routes
		}
	}
	if fetched == 0 {
		return nil, firstErr
	}

	stops := make([]Arrivals, len(m.cfg.Stops))
	for i, stop := range m.cfg.Stops {
		name := stop.Name
		if name == "" {
			name = stop.Code
		}
		stops[i] = Arrivals{Stop: name, Routes: m.cache[i]}
	}
	return &State{Stops: stops, FetchedAt: time.Now()}, nil
}

func (m *Module) fetchStop(ctx context.Context, i int) ([]Route, bool, error) {
	var preds []prediction
	changed, err := m.clients[i].GetJSON(ctx, &preds)
	if err != nil || !changed {
		return nil, changed, err
	}

	routes := make([]Route, 0, len(preds))
	for _, p := range preds {
		var minutes []int
		for _, v := range p.Values {
			if v.Minutes == nil {
				continue
			}
			minutes = append(minutes, *v.Minutes)
			if len(minutes) == 2 {
				break
			}
		}
		if len(minutes) == 0 {
			continue
		}
		color, err := pixel.ParseRGB(p.Route.Color)
		if err != nil {
			color = pixel.RGB{R: 0x80, G: 0x80, B: 0x80}
		}
		routes = append(routes, Route{Title: p.Route.Title, Color: color, Minutes: minutes})
	}
	sort.SliceStable(routes, func(a, b int) bool {
		return routes[a].Minutes[0] < routes[b].Minutes[0]
	})
	if len(routes) > maxRoutes {
		routes = routes[:maxRoutes]
	}
	return routes, true, nil
}

// Activate implements infoboard.Activator: every slot opens on the first
// stop page with a full dwell.
func (m *Module) Activate() {
	m.car.Reset()
}

// Render implements infoboard.Module.
func (m *Module) Render(frame draw.Image, state infoboard.State, tick infoboard.Tick) error {
	s, ok := state.(*State)
	if !ok || len(s.Stops) == 0 {
		return nil
	}

	if !s.FetchedAt.Equal(m.gen) {
		m.gen = s.FetchedAt
		m.car.SetPages(len(s.Stops))
	}
	m.car.Advance(tick.DT)
	stop := s.Stops[m.car.Index()]

	b := frame.Bounds()
	name := draw.Fit(font.Tiny, strings.ToUpper(stop.Stop), b.Dx()-2)
	draw.TextTop(frame, image.Pt(b.Min.X+1, b.Min.Y), font.Tiny, pixel.RGB{R: 0xff, G: 0xff}, name)

	if len(stop.Routes) == 0 {
		draw.TextCenter(frame, b.Min.X, b.Max.X, b.Min.Y+13, font.Tiny,
			pixel.RGB{R: 0x80, G: 0x80, B: 0x80}, "NO ARRIVALS")
		return nil
	}

	y := b.Min.Y + 7
	for _, route := range stop.Routes {
		if y+5 > b.Max.Y {
			break
		}
		draw.Box(frame, image.Rect(b.Min.X+1, y, b.Min.X+4, y+5), route.Color)

		eta := minutesLabel(route.Minutes)
		etaX := b.Max.X - 1 - draw.TextWidth(font.Tiny, eta)
		draw.TextTop(frame, image.Pt(etaX, y), font.Tiny, pixel.RGB{G: 0xff}, eta)

		title := draw.Fit(font.Tiny, strings.ToUpper(route.Title), etaX-(b.Min.X+6)-2)
		draw.TextTop(frame, image.Pt(b.Min.X+6, y), font.Tiny, pixel.White, title)
		y += 6
	}
	return nil
}

// minutesLabel formats arrival minutes as "5m 12m"; an arrival due now
// shows as "0m".
func minutesLabel(minutes []int) string {
	parts := make([]string, len(minutes))
	for i, min := range minutes {
		parts[i] = fmt.Sprintf("%dm", min)
	}
	return strings.Join(parts, " ")
}

// Duration implements infoboard.Module: one dwell per stop page unless a
// fixed slot is configured.
func (m *Module) Duration(state infoboard.State) time.Duration {
	s, ok := state.(*State)
	if !ok || len(s.Stops) == 0 {
		return 0
	}
	if m.cfg.Slot > 0 {
		return m.cfg.Slot
	}
	return time.Duration(len(s.Stops)) * m.cfg.Dwell
}
