package infoboard

import (
	"math"
	"time"
)

// ScrollPhase is the animation state of a Ticker.
type ScrollPhase uint8

const (
	// HoldLeft shows the text left-anchored while the hold timer runs.
	HoldLeft ScrollPhase = iota

	// Scrolling moves the text left at Speed pixels per second.
	Scrolling

	// ScrollDone means the text has fully left the view. It is a pull
	// signal: the owner decides when to supply the next item.
	ScrollDone
)

func (p ScrollPhase) String() string {
	switch p {
	case HoldLeft:
		return "hold"
	case Scrolling:
		return "scrolling"
	case ScrollDone:
		return "done"
	default:
		return "invalid"
	}
}

// Ticker scrolls one text item out of the left edge of a viewport. Every
// new item starts fully visible and left-anchored, holds there so the first
// frame is readable, then scrolls until the text has completely exited.
//
// The offset accumulates sub-pixel movement in a float; rounding to whole
// pixels happens only in Offset, so the scroll speed does not drift with
// the tick rate.
//
// A Ticker belongs to a single module's render path and is not safe for
// concurrent use.
type Ticker struct {
	// Speed is the scroll speed in pixels per second.
	Speed float64

	// Hold is the settle time before scrolling starts.
	Hold time.Duration

	text   string
	width  int
	phase  ScrollPhase
	offset float64
	held   time.Duration
}

// NewTicker returns a Ticker scrolling at speed pixels per second after
// holding each new item for the given settle duration.
func NewTicker(speed float64, hold time.Duration) *Ticker {
	return &Ticker{Speed: speed, Hold: hold}
}

// SetText assigns a new item with the given pixel width and re-anchors it
// at the left edge.
func (t *Ticker) SetText(text string, width int) {
	t.text = text
	t.width = width
	t.Reset()
}

// Reset re-anchors the current item at the left edge, as on assignment.
func (t *Ticker) Reset() {
	t.phase = HoldLeft
	t.offset = 0
	t.held = 0
}

// Advance moves the animation forward by dt and returns the new phase.
func (t *Ticker) Advance(dt time.Duration) ScrollPhase {
	switch t.phase {
	case HoldLeft:
		t.held += dt
		if t.held >= t.Hold {
			t.phase = Scrolling
		}
	case Scrolling:
		t.offset += t.Speed * dt.Seconds()
		if t.offset >= float64(t.width) {
			t.phase = ScrollDone
		}
	}
	return t.phase
}

// Text returns the current item.
func (t *Ticker) Text() string {
	return t.text
}

// Phase returns the current animation state.
func (t *Ticker) Phase() ScrollPhase {
	return t.phase
}

// Done reports whether the current item has scrolled out.
func (t *Ticker) Done() bool {
	return t.phase == ScrollDone
}

// Offset returns the draw offset in whole pixels; the text is drawn at
// x = origin - Offset.
func (t *Ticker) Offset() int {
	return int(math.Round(t.offset))
}
