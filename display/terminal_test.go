package display

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/BeatGlow/infoboard/pixel"
)

func newTestTerminal(t *testing.T, w, h int) (*Terminal, tcell.SimulationScreen) {
	t.Helper()

	screen := tcell.NewSimulationScreen("UTF-8")
	term, err := NewTerminal(screen, &Config{Width: w, Height: h})
	if err != nil {
		t.Fatalf("expected terminal, got error: %v", err)
	}
	t.Cleanup(func() {
		_ = term.Close()
	})
	return term, screen
}

func cellColors(t *testing.T, screen tcell.SimulationScreen, x, y int) (ch rune, fg, bg tcell.Color) {
	t.Helper()

	ch, _, style, _ := screen.GetContent(x, y)
	fg, bg, _ = style.Decompose()
	return ch, fg, bg
}

func TestTerminalHalfBlocks(t *testing.T) {
	term, screen := newTestTerminal(t, 4, 4)

	term.SetRGB(1, 0, pixel.RGB{R: 0xff})
	term.SetRGB(1, 1, pixel.RGB{B: 0xff})
	if err := term.Refresh(); err != nil {
		t.Fatalf("expected refresh, got error: %v", err)
	}

	ch, fg, bg := cellColors(t, screen, 1, 0)
	if ch != '▀' {
		t.Errorf("expected half block, got %q", ch)
	}
	if expect := tcell.NewRGBColor(0xff, 0, 0); fg != expect {
		t.Errorf("expected foreground %06x, got %06x", expect.Hex(), fg.Hex())
	}
	if expect := tcell.NewRGBColor(0, 0, 0xff); bg != expect {
		t.Errorf("expected background %06x, got %06x", expect.Hex(), bg.Hex())
	}
}

func TestTerminalContrast(t *testing.T) {
	term, screen := newTestTerminal(t, 2, 2)

	term.SetRGB(0, 0, pixel.White)
	if err := term.SetContrast(0x80); err != nil {
		t.Fatalf("expected contrast, got error: %v", err)
	}
	if err := term.Refresh(); err != nil {
		t.Fatalf("expected refresh, got error: %v", err)
	}

	_, fg, _ := cellColors(t, screen, 0, 0)
	if expect := tcell.NewRGBColor(0x80, 0x80, 0x80); fg != expect {
		t.Errorf("expected dimmed foreground %06x, got %06x", expect.Hex(), fg.Hex())
	}
}

func TestTerminalOddHeight(t *testing.T) {
	term, screen := newTestTerminal(t, 2, 3)

	term.Fill(pixel.White)
	if err := term.Refresh(); err != nil {
		t.Fatalf("expected refresh, got error: %v", err)
	}

	// The last cell row has no lower pixel, its background stays black.
	_, _, bg := cellColors(t, screen, 0, 1)
	if expect := tcell.NewRGBColor(0, 0, 0); bg != expect {
		t.Errorf("expected black background, got %06x", bg.Hex())
	}
}

func TestTerminalDone(t *testing.T) {
	term, screen := newTestTerminal(t, 2, 2)

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case <-term.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Done to close after q")
	}
}
