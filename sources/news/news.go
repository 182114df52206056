// Package news is a board module scrolling headlines from RSS and Atom
// feeds, one headline at a time.
package news

import (
	"context"
	"fmt"
	"image"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/zeebo/xxh3"

	"github.com/BeatGlow/infoboard"
	"github.com/BeatGlow/infoboard/draw"
	"github.com/BeatGlow/infoboard/font"
	"github.com/BeatGlow/infoboard/internal/fetch"
	"github.com/BeatGlow/infoboard/pixel"
)

// Feed is one configured headline source.
type Feed struct {
	Name string
	URL  string
}

// Config holds the news module settings.
type Config struct {
	// Name identifies the module on the board, "news" if empty.
	Name string

	// Feeds to poll, in order.
	Feeds []Feed

	// Speed is the scroll speed in pixels per second. Default 24.
	Speed float64

	// Settle is how long a headline holds before scrolling. Default 2s.
	Settle time.Duration

	// PerFeed limits the headlines taken from each feed. Default 10.
	PerFeed int

	// Slot is how long the module holds the board. Default 30s.
	Slot time.Duration

	// Face renders the headline text, font.Small if nil.
	Face font.Face
}

// Headline is one deduplicated feed item.
type Headline struct {
	Title string
	Feed  string
	ID    uint64
}

// State is one combined headline snapshot across all feeds.
type State struct {
	Headlines []Headline
	FetchedAt time.Time
}

// Module fetches and scrolls the headlines.
type Module struct {
	cfg     Config
	log     *log.Logger
	parser  *gofeed.Parser
	clients []*fetch.Client

	ticker *infoboard.Ticker
	index  int
	gen    time.Time

	mu    sync.Mutex
	cache [][]Headline
}

var (
	_ infoboard.Module    = (*Module)(nil)
	_ infoboard.Activator = (*Module)(nil)
)

// New returns a news module polling the configured feeds.
func New(cfg Config, client *http.Client, logger *log.Logger) *Module {
	if cfg.Name == "" {
		cfg.Name = "news"
	}
	if cfg.Speed == 0 {
		cfg.Speed = 24
	}
	if cfg.Settle == 0 {
		cfg.Settle = 2 * time.Second
	}
	if cfg.PerFeed == 0 {
		cfg.PerFeed = 10
	}
	if cfg.Slot == 0 {
		cfg.Slot = 30 * time.Second
	}
	if cfg.Face == nil {
		cfg.Face = font.Small
	}

	m := &Module{
		cfg:    cfg,
		log:    logger,
		parser: gofeed.NewParser(),
		ticker: infoboard.NewTicker(cfg.Speed, cfg.Settle),
		cache:  make([][]Headline, len(cfg.Feeds)),
	}
	for _, feed := range cfg.Feeds {
		m.clients = append(m.clients, &fetch.Client{URL: feed.URL, HTTP: client})
	}
	return m
}

// Name implements infoboard.Module.
func (m *Module) Name() string {
	return m.cfg.Name
}

// Refresh implements infoboard.Module. Feeds that fail or report no change
// keep their cached headlines; titles are deduplicated across feeds by
// hash.
func (m *Module) Refresh(ctx context.Context) (infoboard.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	fetched := 0
	for i := range m.cfg.Feeds {
		items, changed, err := m.fetchFeed(ctx, i)
		if err != nil {
			m.log.Printf("%s: %v", m.cfg.Feeds[i].Name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fetched++
		if changed {
			m.cache[i] = items
		}
	}
	if fetched == 0 {
		return nil, firstErr
	}

	seen := make(map[uint64]bool)
	var headlines []Headline
	for _, items := range m.cache {
		for _, h := range items {
			if seen[h.ID] {
				continue
			}
			seen[h.ID] = true
			headlines = append(headlines, h)
		}
	}
	return &State{Headlines: headlines, FetchedAt: time.Now()}, nil
}

func (m *Module) fetchFeed(ctx context.Context, i int) ([]Headline, bool, error) {
	body, changed, err := m.clients[i].Get(ctx)
	if err != nil || !changed {
		return nil, false, err
	}
	parsed, err := m.parser.ParseString(string(body))
	if err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", m.cfg.Feeds[i].URL, err)
	}

	name := m.cfg.Feeds[i].Name
	if name == "" {
		name = parsed.Title
	}
	items := make([]Headline, 0, m.cfg.PerFeed)
	for _, item := range parsed.Items {
		if len(items) == m.cfg.PerFeed {
			break
		}
		title := strings.Join(strings.Fields(item.Title), " ")
		if title == "" {
			continue
		}
		items = append(items, Headline{
			Title: title,
			Feed:  name,
			ID:    xxh3.HashString(title),
		})
	}
	return items, true, nil
}

// Activate implements infoboard.Activator: the current headline re-anchors
// so every slot starts with readable text. The headline cycle itself keeps
// its position across slots.
func (m *Module) Activate() {
	m.ticker.Reset()
}

// Render implements infoboard.Module.
func (m *Module) Render(frame draw.Image, state infoboard.State, tick infoboard.Tick) error {
	s, ok := state.(*State)
	if !ok || len(s.Headlines) == 0 {
		return nil
	}

	if !s.FetchedAt.Equal(m.gen) {
		m.gen = s.FetchedAt
		m.index = 0
	}
	if m.index >= len(s.Headlines) {
		m.index = 0
	}

	h := s.Headlines[m.index]
	if m.ticker.Text() != h.Title {
		m.ticker.SetText(h.Title, draw.TextWidth(m.cfg.Face, h.Title))
	}
	if m.ticker.Advance(tick.DT) == infoboard.ScrollDone {
		m.index = (m.index + 1) % len(s.Headlines)
		h = s.Headlines[m.index]
		m.ticker.SetText(h.Title, draw.TextWidth(m.cfg.Face, h.Title))
	}

	b := frame.Bounds()
	tag := draw.Fit(font.Tiny, strings.ToUpper(h.Feed), b.Dx()-2)
	draw.TextTop(frame, image.Pt(b.Min.X+1, b.Min.Y), font.Tiny, pixel.RGB{R: 0xff, G: 0xff}, tag)
	draw.TextTop(frame, image.Pt(b.Min.X+1-m.ticker.Offset(), b.Min.Y+10), m.cfg.Face, pixel.White, h.Title)
	return nil
}

// Duration implements infoboard.Module.
func (m *Module) Duration(state infoboard.State) time.Duration {
	s, ok := state.(*State)
	if !ok || len(s.Headlines) == 0 {
		return 0
	}
	return m.cfg.Slot
}
