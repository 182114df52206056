package draw

import (
	"image"
	"image/color"
)

// Icon draws the lit pixels of mask in color c, with the mask origin at p.
// Unlit mask pixels leave dst untouched, so icons can be stamped over
// existing content.
func Icon(dst Image, p image.Point, mask image.Image, c color.Color) {
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := mask.At(x, y).RGBA()
			if r|g|bl != 0 {
				dst.Set(p.X+x-b.Min.X, p.Y+y-b.Min.Y, c)
			}
		}
	}
}
