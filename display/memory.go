package display

import (
	"fmt"
	"sync"

	"github.com/BeatGlow/infoboard/pixel"
)

// Memory is a display without output, for tests and headless runs. It keeps
// a copy of the frame as of the last Refresh, observable with Frame.
type Memory struct {
	*pixel.RGBImage

	mu        sync.Mutex
	frame     *pixel.RGBImage
	refreshes int
	contrast  uint8
	shown     bool
	rotation  Rotation
}

var _ Display = (*Memory)(nil)

func NewMemory(width, height int) *Memory {
	return &Memory{
		RGBImage: pixel.NewRGBImage(width, height),
		frame:    pixel.NewRGBImage(width, height),
		contrast: 0xFF,
		shown:    true,
	}
}

func (m *Memory) String() string {
	bounds := m.Bounds()
	return fmt.Sprintf("Memory %dx%d", bounds.Dx(), bounds.Dy())
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) Show(show bool) error {
	m.mu.Lock()
	m.shown = show
	m.mu.Unlock()
	return nil
}

func (m *Memory) SetContrast(level uint8) error {
	m.mu.Lock()
	m.contrast = level
	m.mu.Unlock()
	return nil
}

// Contrast returns the level set by the last SetContrast.
func (m *Memory) Contrast() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contrast
}

func (m *Memory) SetRotation(rotation Rotation) error {
	m.rotation = rotation
	return nil
}

func (m *Memory) Refresh() error {
	m.mu.Lock()
	m.frame.CopyFrom(m.RGBImage)
	m.refreshes++
	m.mu.Unlock()
	return nil
}

// Refreshes returns how many times the display was refreshed.
func (m *Memory) Refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

// Frame returns a copy of the frame as of the last Refresh.
func (m *Memory) Frame() *pixel.RGBImage {
	bounds := m.Bounds()
	frame := pixel.NewRGBImage(bounds.Dx(), bounds.Dy())
	m.mu.Lock()
	frame.CopyFrom(m.frame)
	m.mu.Unlock()
	return frame
}
