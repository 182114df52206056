//go:build !linux

package framebuffer

import (
	"errors"

	"github.com/BeatGlow/infoboard/display"
)

// ErrNotSupported is returned on platforms without a framebuffer device.
var ErrNotSupported = errors.New("framebuffer: not supported")

func Open(_ string) (display.Display, error) {
	return nil, ErrNotSupported
}
