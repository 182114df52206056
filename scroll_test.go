package infoboard

import (
	"testing"
	"time"
)

func TestTickerScroll(t *testing.T) {
	const dt = time.Second / 30

	tk := NewTicker(20, 2*time.Second)
	tk.SetText("BREAKING NEWS", 120)

	if tk.Phase() != HoldLeft {
		t.Fatalf("expected phase %s, got %s", HoldLeft, tk.Phase())
	}
	if tk.Offset() != 0 {
		t.Fatalf("expected offset 0, got %d", tk.Offset())
	}

	var held time.Duration
	for tk.Phase() == HoldLeft {
		tk.Advance(dt)
		held += dt
		if held > 3*time.Second {
			t.Fatal("expected scrolling to start after the hold")
		}
	}
	if held < 2*time.Second {
		t.Errorf("expected at least 2s of hold, got %s", held)
	}
	if tk.Offset() != 0 {
		t.Errorf("expected offset 0 when scrolling starts, got %d", tk.Offset())
	}

	var scrolled time.Duration
	last := tk.Offset()
	for !tk.Done() {
		tk.Advance(dt)
		scrolled += dt
		if off := tk.Offset(); off < last {
			t.Fatalf("expected monotonic offset, got %d after %d", off, last)
		} else {
			last = off
		}
		if scrolled > 7*time.Second {
			t.Fatal("expected scroll to finish within 7s")
		}
	}

	if tk.Offset() < 120 {
		t.Errorf("expected offset >= 120 when done, got %d", tk.Offset())
	}
	// 120px at 20px/s is six seconds, give or take a tick of rounding.
	if min, max := 6*time.Second-dt, 6*time.Second+2*dt; scrolled < min || scrolled > max {
		t.Errorf("expected ~6s of scrolling, got %s", scrolled)
	}
}

func TestTickerSetTextResets(t *testing.T) {
	tk := NewTicker(30, time.Second)
	tk.SetText("first headline", 90)

	for tk.Phase() != Scrolling {
		tk.Advance(100 * time.Millisecond)
	}
	for i := 0; i < 10; i++ {
		tk.Advance(100 * time.Millisecond)
	}
	if tk.Offset() <= 0 {
		t.Fatalf("expected mid-scroll offset, got %d", tk.Offset())
	}

	tk.SetText("second headline", 110)
	if tk.Phase() != HoldLeft {
		t.Errorf("expected phase %s after new text, got %s", HoldLeft, tk.Phase())
	}
	if tk.Offset() != 0 {
		t.Errorf("expected offset 0 after new text, got %d", tk.Offset())
	}
	if tk.Text() != "second headline" {
		t.Errorf("expected new text, got %q", tk.Text())
	}
}

func TestTickerDoneHolds(t *testing.T) {
	tk := NewTicker(1000, 0)
	tk.SetText("x", 5)

	tk.Advance(time.Millisecond) // leaves hold
	for i := 0; i < 100 && !tk.Done(); i++ {
		tk.Advance(100 * time.Millisecond)
	}
	if !tk.Done() {
		t.Fatal("expected done")
	}

	// Done is a pull signal, the ticker stays parked until new text.
	off := tk.Offset()
	tk.Advance(time.Second)
	if tk.Phase() != ScrollDone {
		t.Errorf("expected phase %s to hold, got %s", ScrollDone, tk.Phase())
	}
	if tk.Offset() != off {
		t.Errorf("expected offset to hold at %d, got %d", off, tk.Offset())
	}
}

func TestTickerFractionalAccumulation(t *testing.T) {
	// 1.5px/s sampled at 10Hz moves 0.15px per tick; whole pixels must
	// come from the accumulator, not per-tick rounding.
	tk := NewTicker(1.5, 0)
	tk.SetText("slow", 30)
	tk.Advance(time.Millisecond)

	for i := 0; i < 100; i++ {
		tk.Advance(100 * time.Millisecond)
	}
	// 10 seconds at 1.5px/s.
	if off := tk.Offset(); off != 15 {
		t.Errorf("expected offset 15 after 10s, got %d", off)
	}
}

func TestScrollPhaseString(t *testing.T) {
	for _, test := range []struct {
		phase ScrollPhase
		want  string
	}{
		{HoldLeft, "hold"},
		{Scrolling, "scrolling"},
		{ScrollDone, "done"},
		{ScrollPhase(9), "invalid"},
	} {
		if got := test.phase.String(); got != test.want {
			t.Errorf("expected %q, got %q", test.want, got)
		}
	}
}
