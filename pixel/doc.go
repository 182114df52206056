// Package pixel implements a color and image library suitable for small RGB
// matrix and TFT pixel displays.
//
// This module provides additional color models, compatible with Go's native [color.Color] and
// [image.Image] / [draw.Image] interfaces, and a double-buffered [Surface] with
// atomic present semantics.
package pixel
