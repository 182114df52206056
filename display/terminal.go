package display

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/BeatGlow/infoboard/pixel"
)

// Terminal emulates a pixel matrix inside a terminal, drawing two vertically
// stacked pixels per character cell with the upper half block glyph. It is
// the development stand-in for the TFT panel.
type Terminal struct {
	*pixel.RGBImage

	screen   tcell.Screen
	width    int
	height   int
	contrast uint8
	shown    bool

	done     chan struct{}
	stopOnce sync.Once
}

var _ Display = (*Terminal)(nil)

// OpenTerminal opens an emulated display in the current terminal.
func OpenTerminal(config *Config) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminal(screen, config)
}

// NewTerminal opens an emulated display on the given screen, which also
// accepts a tcell simulation screen.
func NewTerminal(screen tcell.Screen, config *Config) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.SetStyle(tcell.StyleDefault)
	screen.HideCursor()

	width, height := config.Width, config.Height
	if width == 0 || height == 0 {
		cols, rows := screen.Size()
		if width == 0 {
			width = cols
		}
		if height == 0 {
			height = rows * 2
		}
	}

	t := &Terminal{
		RGBImage: pixel.NewRGBImage(width, height),
		screen:   screen,
		width:    width,
		height:   height,
		contrast: 0xFF,
		shown:    true,
		done:     make(chan struct{}),
	}
	go t.events()
	return t, nil
}

func (t *Terminal) String() string {
	return fmt.Sprintf("Terminal %dx%d", t.width, t.height)
}

// Done is closed when the user asks to quit with q, escape or control-C.
func (t *Terminal) Done() <-chan struct{} {
	return t.done
}

func (t *Terminal) events() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
				t.stop()
			case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
				t.stop()
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func (t *Terminal) stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

func (t *Terminal) Close() error {
	t.stop()
	t.screen.Fini()
	return nil
}

func (t *Terminal) Show(show bool) error {
	t.shown = show
	if !show {
		t.screen.Clear()
		t.screen.Show()
	}
	return nil
}

func (t *Terminal) SetContrast(level uint8) error {
	t.contrast = level
	return nil
}

// SetRotation is a no-op, the emulator has no native orientation.
func (t *Terminal) SetRotation(Rotation) error {
	return nil
}

// Refresh redraws the screen from the internal frame buffer.
func (t *Terminal) Refresh() error {
	if !t.shown {
		return nil
	}
	for y := 0; y < t.height; y += 2 {
		for x := 0; x < t.width; x++ {
			upper := t.RGBAt(x, y).Scale(t.contrast)
			var lower pixel.RGB
			if y+1 < t.height {
				lower = t.RGBAt(x, y+1).Scale(t.contrast)
			}
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(upper.R), int32(upper.G), int32(upper.B))).
				Background(tcell.NewRGBColor(int32(lower.R), int32(lower.G), int32(lower.B)))
			t.screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
	t.screen.Show()
	return nil
}
