package infoboard

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BeatGlow/infoboard/display"
	"github.com/BeatGlow/infoboard/draw"
	"github.com/BeatGlow/infoboard/pixel"
)

// marker is what testModule draws at (0, 0), distinct from anything the
// board's own frames contain.
var marker = pixel.RGB{R: 0x12, G: 0x34, B: 0x56}

type testModule struct {
	name      string
	duration  time.Duration
	dynamic   func(State) time.Duration
	failOn    int
	renders   int
	refreshes atomic.Int32
	state     State
	err       error
}

func (m *testModule) Name() string { return m.name }

func (m *testModule) Refresh(ctx context.Context) (State, error) {
	m.refreshes.Add(1)
	return m.state, m.err
}

func (m *testModule) Render(frame draw.Image, state State, tick Tick) error {
	m.renders++
	if m.failOn > 0 && m.renders == m.failOn {
		return errors.New("draw fault")
	}
	frame.Set(0, 0, marker)
	return nil
}

func (m *testModule) Duration(state State) time.Duration {
	if m.dynamic != nil {
		return m.dynamic(state)
	}
	return m.duration
}

type activatorModule struct {
	*testModule
	activations int
}

func (m *activatorModule) Activate() { m.activations++ }

type blockingModule struct {
	*testModule
	release chan struct{}
}

func (m *blockingModule) Refresh(ctx context.Context) (State, error) {
	<-m.release
	return "done", nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestBoard(t *testing.T, modules ...Module) (*Board, *display.Memory) {
	t.Helper()

	mem := display.NewMemory(64, 32)
	b := New(mem, Config{Logger: quietLogger()})
	for _, m := range modules {
		if err := b.Register(m, ModuleConfig{RefreshInterval: time.Minute}); err != nil {
			t.Fatalf("expected register %s, got error: %v", m.Name(), err)
		}
	}
	return b, mem
}

// seed marks every entry as freshly refreshed at now, so steps play out
// deterministically with no background refresh firing mid-test.
func seed(b *Board, now time.Time) {
	for _, e := range b.entries {
		e.state = struct{}{}
		e.version = 1
		e.seq = 1
		e.hasData = true
		e.lastSuccess = now
		e.lastAttempt = now
	}
}

func isBlank(img *pixel.RGBImage) bool {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.RGBAt(x, y) != pixel.Black {
				return false
			}
		}
	}
	return true
}

func TestBoardRotation(t *testing.T) {
	a := &testModule{name: "a", duration: 3 * time.Second}
	bm := &testModule{name: "b", duration: 5 * time.Second}
	b, _ := newTestBoard(t, a, bm)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(b, base)

	ctx := context.Background()
	var got []string
	for i := 1; i <= 9; i++ {
		b.step(ctx, base.Add(time.Duration(i)*time.Second), time.Second)
		got = append(got, b.CurrentModule())
	}

	want := []string{"a", "a", "a", "b", "b", "b", "b", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tick %d: expected %s active, got %s", i+1, want[i], got[i])
		}
	}
	if a.renders != 4 || bm.renders != 5 {
		t.Errorf("expected renders a=4 b=5, got a=%d b=%d", a.renders, bm.renders)
	}
}

func TestBoardSkipsEmpty(t *testing.T) {
	a := &testModule{name: "a", duration: 2 * time.Second}
	empty := &testModule{name: "empty", dynamic: func(State) time.Duration { return 0 }}
	c := &testModule{name: "c", duration: 2 * time.Second}
	b, _ := newTestBoard(t, a, empty, c)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(b, base)

	ctx := context.Background()
	var got []string
	for i := 1; i <= 6; i++ {
		b.step(ctx, base.Add(time.Duration(i)*time.Second), time.Second)
		got = append(got, b.CurrentModule())
	}

	want := []string{"a", "a", "c", "c", "a", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tick %d: expected %s active, got %s", i+1, want[i], got[i])
		}
	}
	if empty.renders != 0 {
		t.Errorf("expected empty module to never render, got %d renders", empty.renders)
	}
}

func TestBoardStalePlaceholder(t *testing.T) {
	m := &testModule{name: "scores", duration: 10 * time.Second, err: errors.New("upstream down")}
	mem := display.NewMemory(64, 32)
	b := New(mem, Config{Logger: quietLogger()})
	if err := b.Register(m, ModuleConfig{
		RefreshInterval: 30 * time.Second,
		StaleAfter:      90 * time.Second,
	}); err != nil {
		t.Fatalf("expected register, got error: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(b, base)

	ctx := context.Background()
	for i := 1; i <= 91; i++ {
		b.step(ctx, base.Add(time.Duration(i)*time.Second), time.Second)
	}

	if m.renders != 90 {
		t.Errorf("expected 90 renders before staleness, got %d", m.renders)
	}
	if got := mem.Frame().RGBAt(0, 0); got == marker {
		t.Error("expected placeholder frame at t=91s, got module content")
	}
	if isBlank(mem.Frame()) {
		t.Error("expected placeholder frame to draw something")
	}

	// Refreshes went out at 30s, 60s and 90s; all failed, content stayed.
	deadline := time.Now().Add(2 * time.Second)
	for m.refreshes.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 refresh attempts, got %d", m.refreshes.Load())
		}
		time.Sleep(time.Millisecond)
	}
	if got := m.refreshes.Load(); got != 3 {
		t.Errorf("expected 3 refresh attempts, got %d", got)
	}
}

func TestBoardRenderError(t *testing.T) {
	m := &testModule{name: "a", duration: 10 * time.Second, failOn: 2}
	b, mem := newTestBoard(t, m)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(b, base)
	ctx := context.Background()

	b.step(ctx, base.Add(1*time.Second), time.Second)
	if got := mem.Frame().RGBAt(0, 0); got != marker {
		t.Fatalf("expected module content, got %v", got)
	}

	b.step(ctx, base.Add(2*time.Second), time.Second)
	if !isBlank(mem.Frame()) {
		t.Error("expected blank frame after render failure")
	}

	b.step(ctx, base.Add(3*time.Second), time.Second)
	if got := mem.Frame().RGBAt(0, 0); got != marker {
		t.Errorf("expected module content after recovery, got %v", got)
	}
}

func TestBoardVersioning(t *testing.T) {
	m := &testModule{name: "a", duration: time.Second}
	b, _ := newTestBoard(t, m)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(b, base)
	e := b.entries[0]
	e.version = 2
	e.seq = 3
	e.state = "current"

	// A slow refresh dispatched before the current one completes late.
	b.results <- refreshResult{idx: 0, version: 1, state: "older", at: base.Add(time.Second)}
	b.applyResults()
	if e.state != "current" {
		t.Errorf("expected older result discarded, got state %v", e.state)
	}

	// Failures leave content and version alone.
	b.results <- refreshResult{idx: 0, version: 3, err: errors.New("timeout"), at: base.Add(2 * time.Second)}
	b.applyResults()
	if e.state != "current" || e.version != 2 {
		t.Errorf("expected failure to keep state, got %v version %d", e.state, e.version)
	}

	// A newer success replaces the content wholesale.
	at := base.Add(3 * time.Second)
	b.results <- refreshResult{idx: 0, version: 3, state: "newest", at: at}
	b.applyResults()
	if e.state != "newest" || e.version != 3 {
		t.Errorf("expected newest state applied, got %v version %d", e.state, e.version)
	}
	if !e.lastSuccess.Equal(at) {
		t.Errorf("expected last success %s, got %s", at, e.lastSuccess)
	}
}

func TestBoardRegister(t *testing.T) {
	b := New(display.NewMemory(8, 8), Config{Logger: quietLogger()})

	if err := b.Register(&testModule{name: "a"}, ModuleConfig{}); err != nil {
		t.Fatalf("expected register, got error: %v", err)
	}
	if got := b.entries[0].cfg.RefreshInterval; got != defaultRefreshInterval {
		t.Errorf("expected default refresh interval, got %s", got)
	}

	err := b.Register(&testModule{name: "a"}, ModuleConfig{})
	if !errors.Is(err, ErrDuplicateModule) {
		t.Errorf("expected ErrDuplicateModule, got %v", err)
	}
}

func TestBoardRunNoModules(t *testing.T) {
	b := New(display.NewMemory(8, 8), Config{Logger: quietLogger()})
	if err := b.Run(context.Background()); !errors.Is(err, ErrNoModules) {
		t.Errorf("expected ErrNoModules, got %v", err)
	}
}

func TestBoardActivation(t *testing.T) {
	a := &activatorModule{testModule: &testModule{name: "a", duration: 2 * time.Second}}
	bm := &testModule{name: "b", duration: 2 * time.Second}
	b, _ := newTestBoard(t, a, bm)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(b, base)

	ctx := context.Background()
	for i := 1; i <= 8; i++ {
		b.step(ctx, base.Add(time.Duration(i)*time.Second), time.Second)
	}

	// Slots: a on ticks 1-2 and 5-6, so two activations.
	if a.activations != 2 {
		t.Errorf("expected 2 activations, got %d", a.activations)
	}
}

func TestBoardIdleFrame(t *testing.T) {
	empty := &testModule{name: "empty", dynamic: func(State) time.Duration { return 0 }}
	b, mem := newTestBoard(t, empty)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(b, base)
	b.step(context.Background(), base.Add(time.Second), time.Second)

	if got := b.CurrentModule(); got != "" {
		t.Errorf("expected no active module, got %q", got)
	}
	if isBlank(mem.Frame()) {
		t.Error("expected idle clock frame")
	}
	if empty.renders != 0 {
		t.Errorf("expected no renders, got %d", empty.renders)
	}
}

func TestBoardWorkerPool(t *testing.T) {
	release := make(chan struct{})
	slow := &blockingModule{testModule: &testModule{name: "slow", duration: time.Second}, release: release}
	fast := &testModule{name: "fast", duration: time.Second}

	b := New(display.NewMemory(8, 8), Config{Workers: 1, Logger: quietLogger()})
	for _, m := range []Module{slow, fast} {
		if err := b.Register(m, ModuleConfig{RefreshInterval: time.Minute}); err != nil {
			t.Fatalf("expected register, got error: %v", err)
		}
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	b.dispatchRefreshes(ctx, base)

	if b.entries[0].seq != 1 {
		t.Errorf("expected slow module dispatched, got seq %d", b.entries[0].seq)
	}
	if b.entries[1].seq != 0 {
		t.Errorf("expected fast module deferred while pool is full, got seq %d", b.entries[1].seq)
	}

	close(release)

	// The freed slot lets the deferred module through on a later tick.
	deadline := time.Now().Add(2 * time.Second)
	for b.entries[1].seq == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected deferred module to dispatch")
		}
		b.dispatchRefreshes(ctx, base.Add(time.Second))
		time.Sleep(time.Millisecond)
	}
}

func TestBoardRun(t *testing.T) {
	m := &testModule{name: "a", duration: time.Second, state: "data"}
	mem := display.NewMemory(16, 16)
	b := New(mem, Config{TickRate: 5 * time.Millisecond, Logger: quietLogger()})
	if err := b.Register(m, ModuleConfig{RefreshInterval: time.Minute}); err != nil {
		t.Fatalf("expected register, got error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := b.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	if mem.Refreshes() == 0 {
		t.Error("expected display refreshes")
	}
	if m.refreshes.Load() == 0 {
		t.Error("expected module refresh")
	}
	if got := b.CurrentModule(); got != "a" {
		t.Errorf("expected module a active, got %q", got)
	}
}

func TestBoardCurrentModuleConcurrent(t *testing.T) {
	a := &testModule{name: "a", duration: time.Second}
	bm := &testModule{name: "b", duration: time.Second}
	b, _ := newTestBoard(t, a, bm)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(b, base)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			if name := b.CurrentModule(); name != "" && name != "a" && name != "b" {
				t.Errorf("expected a, b or idle, got %q", name)
				return
			}
		}
	}()

	ctx := context.Background()
	for i := 1; i <= 100; i++ {
		b.step(ctx, base.Add(time.Duration(i)*100*time.Millisecond), 100*time.Millisecond)
	}
	<-done
}

func TestBoardDim(t *testing.T) {
	m := &testModule{name: "a", duration: time.Second}
	mem := display.NewMemory(8, 8)
	b := New(mem, Config{
		Logger: quietLogger(),
		Dimmer: &Dimmer{Lat: 52.37, Lon: 4.9, Day: 0xee, Night: 0x10},
	})
	if err := b.Register(m, ModuleConfig{RefreshInterval: time.Hour}); err != nil {
		t.Fatalf("expected register, got error: %v", err)
	}

	noon := time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)
	seed(b, noon)
	ctx := context.Background()

	b.step(ctx, noon, time.Second)
	if got := mem.Contrast(); got != 0xee {
		t.Errorf("expected day contrast 0xee, got %#02x", got)
	}

	midnight := time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC)
	b.step(ctx, midnight, time.Second)
	if got := mem.Contrast(); got != 0x10 {
		t.Errorf("expected night contrast 0x10, got %#02x", got)
	}
}
