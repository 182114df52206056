package pixel

import (
	"image"
	"sync"
)

// Surface is a double-buffered render target. All drawing happens on the
// back image; Present publishes it as the front image in one atomic swap,
// so a concurrent observer never sees a partially drawn frame.
//
// The back image is owned by a single render loop and must not be touched
// by other goroutines. Snapshot is safe to call from any goroutine.
type Surface struct {
	mu    sync.Mutex
	back  *RGBImage
	front *RGBImage
}

func NewSurface(w, h int) *Surface {
	return &Surface{
		back:  NewRGBImage(w, h),
		front: NewRGBImage(w, h),
	}
}

func (s *Surface) Bounds() image.Rectangle {
	return s.back.Bounds()
}

// Back returns the drawing target for the current frame.
func (s *Surface) Back() *RGBImage {
	return s.back
}

// Present swaps the back and front images and returns the new front. The
// returned image holds the presented frame until the next Present call and
// must not be written to. The new back image starts out as a copy of the
// presented frame, so incremental draws carry over.
func (s *Surface) Present() *RGBImage {
	s.mu.Lock()
	s.back, s.front = s.front, s.back
	s.back.CopyFrom(s.front)
	front := s.front
	s.mu.Unlock()
	return front
}

// Snapshot copies the front image into dst, which must have identical
// bounds.
func (s *Surface) Snapshot(dst *RGBImage) {
	s.mu.Lock()
	dst.CopyFrom(s.front)
	s.mu.Unlock()
}
