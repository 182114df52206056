package draw

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Text draws s with the baseline starting at p.
func Text(dst Image, p image.Point, face font.Face, c color.Color, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(p.X, p.Y),
	}
	d.DrawString(s)
}

// TextTop draws s with the top left corner of its ascent box at p. Small
// matrix layouts are easier to reason about from the top left than from the
// baseline.
func TextTop(dst Image, p image.Point, face font.Face, c color.Color, s string) {
	Text(dst, image.Pt(p.X, p.Y+face.Metrics().Ascent.Ceil()), face, c, s)
}

// TextRight draws s with the ascent box ending at the right edge x.
func TextRight(dst Image, x, y int, face font.Face, c color.Color, s string) {
	TextTop(dst, image.Pt(x-TextWidth(face, s), y), face, c, s)
}

// TextCenter draws s horizontally centered in the span [x0, x1).
func TextCenter(dst Image, x0, x1, y int, face font.Face, c color.Color, s string) {
	w := TextWidth(face, s)
	TextTop(dst, image.Pt(x0+(x1-x0-w)/2, y), face, c, s)
}

// TextWidth returns the horizontal advance of s in whole pixels.
func TextWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// Fit truncates s rune by rune from the right until it fits in w pixels.
func Fit(face font.Face, s string, w int) string {
	if TextWidth(face, s) <= w {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && TextWidth(face, string(runes)) > w {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
