package infoboard

import (
	"context"
	"time"

	"github.com/BeatGlow/infoboard/draw"
)

// State is a complete, immutable snapshot of a module's content, produced
// by Refresh and handed to Render and Duration. The board replaces a
// module's state wholesale on a successful refresh and never mutates it.
type State interface{}

// Tick carries the timing of one render pass.
type Tick struct {
	// Now is the wall clock time of this tick.
	Now time.Time

	// DT is the time since the previous tick.
	DT time.Duration

	// Elapsed is the time since this module became active.
	Elapsed time.Duration
}

// Module is one rotating content source on a Board.
//
// Refresh runs on a background worker; Render and Duration run on the
// render loop and must not block.
type Module interface {
	// Name identifies the module; it must be unique on a board.
	Name() string

	// Refresh fetches fresh content and returns a complete new state.
	// On error the board keeps showing the previous state.
	Refresh(ctx context.Context) (State, error)

	// Render draws state into the frame.
	Render(frame draw.Image, state State, tick Tick) error

	// Duration reports how long the module should hold the board given
	// state. Non-positive means the module has nothing to show and the
	// rotation skips it.
	Duration(state State) time.Duration
}

// Activator is implemented by modules that keep per-slot animation state.
// Activate is called when the module becomes the active one, so every slot
// starts from the same first frame.
type Activator interface {
	Activate()
}

// ModuleConfig carries the per-module scheduling settings.
type ModuleConfig struct {
	// RefreshInterval is the time between background refreshes.
	RefreshInterval time.Duration

	// StaleAfter bounds how long previously fetched content may still be
	// shown once refreshes keep failing. Past it the board renders a
	// placeholder instead. Defaults to three refresh intervals.
	StaleAfter time.Duration
}
