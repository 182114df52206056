// Package infoboard rotates a pixel matrix display between independently
// refreshing information modules.
//
// A Board owns the render loop. Each tick it applies finished refresh
// results, dispatches due refreshes to background workers, draws the active
// module into the back buffer, presents the frame, and advances the
// rotation once the module's display duration has elapsed. Modules only
// fetch and draw; all scheduling lives here.
package infoboard

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/BeatGlow/infoboard/display"
	"github.com/BeatGlow/infoboard/draw"
	"github.com/BeatGlow/infoboard/font"
	"github.com/BeatGlow/infoboard/pixel"
)

// Defaults used by New for zero Config fields.
const (
	DefaultTickRate  = time.Second / 30
	DefaultStaleSlot = 5 * time.Second
	DefaultWorkers   = 3

	defaultRefreshInterval = time.Minute
)

// Config is the board configuration.
type Config struct {
	// TickRate is the render loop interval.
	TickRate time.Duration

	// Workers bounds the number of concurrently running refreshes.
	Workers int

	// StaleSlot is how long a stale module's placeholder holds the board
	// before the rotation moves on.
	StaleSlot time.Duration

	// Dimmer, if set, drives the display contrast from the sun's position.
	Dimmer *Dimmer

	// Logger receives refresh and render warnings, log.Default() if nil.
	Logger *log.Logger
}

type entry struct {
	module Module
	cfg    ModuleConfig

	state       State
	version     uint64 // version of the applied state
	seq         uint64 // version handed to the most recent dispatch
	lastAttempt time.Time
	lastSuccess time.Time
	hasData     bool
}

func (e *entry) staleAfter() time.Duration {
	if e.cfg.StaleAfter > 0 {
		return e.cfg.StaleAfter
	}
	return 3 * e.cfg.RefreshInterval
}

// stale reports whether the entry's content is too old to show.
func (e *entry) stale(now time.Time) bool {
	return e.hasData && now.Sub(e.lastSuccess) > e.staleAfter()
}

type refreshResult struct {
	idx     int
	version uint64
	state   State
	err     error
	at      time.Time
}

// Board rotates registered modules on a display.
type Board struct {
	cfg  Config
	disp display.Display
	surf *pixel.Surface
	log  *log.Logger

	entries []*entry
	names   map[string]bool

	cursor    int
	elapsed   time.Duration
	activated bool
	active    atomic.Value // string, name of the active module

	results chan refreshResult
	sem     chan struct{}

	contrast int // last level written to the display, -1 before the first
}

// New returns a Board drawing to d.
func New(d display.Display, cfg Config) *Board {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.StaleSlot <= 0 {
		cfg.StaleSlot = DefaultStaleSlot
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	size := d.Bounds().Size()
	b := &Board{
		cfg:      cfg,
		disp:     d,
		surf:     pixel.NewSurface(size.X, size.Y),
		log:      cfg.Logger,
		names:    make(map[string]bool),
		results:  make(chan refreshResult, 16),
		sem:      make(chan struct{}, cfg.Workers),
		contrast: -1,
	}
	b.active.Store("")
	return b
}

// Register appends m to the rotation. Module names must be unique.
func (b *Board) Register(m Module, cfg ModuleConfig) error {
	name := m.Name()
	if b.names[name] {
		return fmt.Errorf("%w: %q", ErrDuplicateModule, name)
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}
	b.names[name] = true
	b.entries = append(b.entries, &entry{module: m, cfg: cfg})
	return nil
}

// CurrentModule returns the name of the module owning the display, or the
// empty string when none does. Safe to call concurrently with Run.
func (b *Board) CurrentModule() string {
	name, _ := b.active.Load().(string)
	return name
}

// Run drives the tick loop until ctx is cancelled.
func (b *Board) Run(ctx context.Context) error {
	if len(b.entries) == 0 {
		return ErrNoModules
	}

	ticker := time.NewTicker(b.cfg.TickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			b.step(ctx, now, now.Sub(last))
			last = now
		}
	}
}

// step runs a single tick: apply refresh results, dispatch due refreshes,
// draw the active module, present, and advance the rotation.
func (b *Board) step(ctx context.Context, now time.Time, dt time.Duration) {
	b.applyResults()
	b.dispatchRefreshes(ctx, now)

	frame := b.surf.Back()
	frame.Fill(pixel.Black)

	e := b.ensureActive(now)
	switch {
	case e == nil:
		b.renderIdle(frame, now)
	case e.stale(now):
		b.renderPlaceholder(frame, e, now)
	default:
		tick := Tick{Now: now, DT: dt, Elapsed: b.elapsed}
		if err := safeRender(e.module, frame, e.state, tick); err != nil {
			b.log.Print(&RenderError{Module: e.module.Name(), Err: err})
			frame.Fill(pixel.Black)
		}
	}

	front := b.surf.Present()
	draw.Draw(b.disp, b.disp.Bounds(), front, image.Point{}, draw.Src)
	if err := b.disp.Refresh(); err != nil {
		b.log.Printf("display refresh: %v", err)
	}
	b.dim(now)

	if e == nil {
		return
	}
	b.elapsed += dt
	if b.elapsed >= b.slotDuration(e, now) {
		b.advanceCursor()
	}
}

// applyResults drains finished refreshes into their entries. Results older
// than the entry's current version lost the race to a later refresh and are
// discarded; failures keep whatever content is there.
func (b *Board) applyResults() {
	for {
		select {
		case res := <-b.results:
			e := b.entries[res.idx]
			if res.err != nil {
				b.log.Print(&FetchError{Module: e.module.Name(), Err: res.err})
				continue
			}
			if res.version <= e.version {
				continue
			}
			e.state = res.state
			e.version = res.version
			e.lastSuccess = res.at
			e.hasData = true
		default:
			return
		}
	}
}

// dispatchRefreshes starts a background refresh for every module whose
// interval has passed, active or not, so caches are warm when the rotation
// reaches them. When the worker pool is full the module retries next tick.
func (b *Board) dispatchRefreshes(ctx context.Context, now time.Time) {
	for i, e := range b.entries {
		if now.Sub(e.lastAttempt) < e.cfg.RefreshInterval {
			continue
		}
		select {
		case b.sem <- struct{}{}:
		default:
			continue
		}
		e.lastAttempt = now
		e.seq++
		go b.refresh(ctx, i, e.module, e.seq)
	}
}

func (b *Board) refresh(ctx context.Context, idx int, m Module, version uint64) {
	state, err := safeRefresh(ctx, m)
	<-b.sem
	select {
	case b.results <- refreshResult{idx: idx, version: version, state: state, err: err, at: time.Now()}:
	case <-ctx.Done():
	}
}

// slotDuration is the time e may hold the board right now. Zero means the
// module has nothing to show and the rotation skips it.
func (b *Board) slotDuration(e *entry, now time.Time) time.Duration {
	d := e.module.Duration(e.state)
	if d <= 0 {
		return 0
	}
	if e.stale(now) {
		return b.cfg.StaleSlot
	}
	return d
}

// ensureActive returns the entry owning the display this tick, advancing
// the cursor past modules with nothing to show. Landing on a new module
// triggers its Activator hook so slots start from a deterministic frame.
// Returns nil when no module is displayable.
func (b *Board) ensureActive(now time.Time) *entry {
	for range b.entries {
		e := b.entries[b.cursor]
		if b.slotDuration(e, now) <= 0 {
			b.advanceCursor()
			continue
		}
		if !b.activated {
			if a, ok := e.module.(Activator); ok {
				a.Activate()
			}
			b.activated = true
			b.active.Store(e.module.Name())
		}
		return e
	}
	b.active.Store("")
	return nil
}

func (b *Board) advanceCursor() {
	b.cursor = (b.cursor + 1) % len(b.entries)
	b.elapsed = 0
	b.activated = false
}

func (b *Board) renderModuleName(frame *pixel.RGBImage, name string) {
	bounds := frame.Bounds()
	draw.TextCenter(frame, bounds.Min.X, bounds.Max.X, bounds.Min.Y+1,
		font.Tiny, pixel.RGB{R: 0x80, G: 0x80, B: 0x80}, strings.ToUpper(name))
}

// renderPlaceholder draws the degraded frame for a module whose content is
// past its staleness window.
func (b *Board) renderPlaceholder(frame *pixel.RGBImage, e *entry, now time.Time) {
	bounds := frame.Bounds()
	b.renderModuleName(frame, e.module.Name())
	draw.TextCenter(frame, bounds.Min.X, bounds.Max.X, bounds.Min.Y+(bounds.Dy()-font.Small.Height)/2,
		font.Small, pixel.RGB{R: 0xff, G: 0xa5, B: 0x00}, "NO DATA")
	age := humanize.RelTime(e.lastSuccess, now, "ago", "")
	draw.TextCenter(frame, bounds.Min.X, bounds.Max.X, bounds.Max.Y-7,
		font.Tiny, pixel.RGB{R: 0x60, G: 0x60, B: 0x60}, age)
}

// renderIdle draws a clock when no module has content, so the display never
// sits on an unexplained blank frame.
func (b *Board) renderIdle(frame *pixel.RGBImage, now time.Time) {
	bounds := frame.Bounds()
	draw.TextCenter(frame, bounds.Min.X, bounds.Max.X, bounds.Min.Y+(bounds.Dy()-font.Small.Height)/2,
		font.Small, pixel.White, now.Format("15:04"))
	draw.TextCenter(frame, bounds.Min.X, bounds.Max.X, bounds.Max.Y-7,
		font.Tiny, pixel.RGB{R: 0x60, G: 0x60, B: 0x60}, now.Format("Mon Jan 2"))
}

func (b *Board) dim(now time.Time) {
	if b.cfg.Dimmer == nil {
		return
	}
	level := b.cfg.Dimmer.Level(now)
	if int(level) == b.contrast {
		return
	}
	if err := b.disp.SetContrast(level); err != nil {
		b.log.Printf("set contrast: %v", err)
		return
	}
	b.contrast = int(level)
}

// safeRefresh shields the worker pool from a panicking module.
func safeRefresh(ctx context.Context, m Module) (state State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.Refresh(ctx)
}

// safeRender shields the tick loop from a panicking module.
func safeRender(m Module, frame *pixel.RGBImage, state State, tick Tick) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.Render(frame, state, tick)
}
