// Package font provides the pixel faces used on the board: a 4x6 bitmap
// face for dense data rows, the 7x13 face from x/image for larger text, and
// a TrueType loader for user supplied fonts.
package font

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Face is the interface all board faces satisfy.
type Face = font.Face

// Small is the 7x13 face from x/image.
var Small = basicfont.Face7x13

// Tiny is a 3x5 pixel face on a 4x6 advance, covering printable ASCII.
// At 64 pixels it fits 16 columns, enough for a score line or a clock.
var Tiny = &basicfont.Face{
	Advance: 4,
	Width:   3,
	Height:  6,
	Ascent:  5,
	Descent: 1,
	Ranges: []basicfont.Range{
		{Low: ' ', High: '\u007f', Offset: 0},
	},
}

func init() {
	mask := image.NewAlpha(image.Rect(0, 0, 3, len(tinyData)))
	for i, row := range tinyData {
		for x := 0; x < 3; x++ {
			if row&(4>>uint(x)) != 0 {
				mask.SetAlpha(x, i, color.Alpha{A: 0xff})
			}
		}
	}
	Tiny.Mask = mask
}

// LoadTTF loads a TrueType font face at the given pixel size.
func LoadTTF(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("font: read %s: %w", path, err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("font: parse %s: %w", path, err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
