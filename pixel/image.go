package pixel

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/BeatGlow/infoboard/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Buffer holds the pixel values and is a container that is used by most image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	for i := range p.Pix {
		p.Pix[i] = 0x00
	}
}

func makeBuffer(w, h, stride, size int) Buffer {
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]byte, size),
		Stride: stride,
	}
}

// RGBImage is a 24-bits per pixel 8-8-8-bit RGB image. It is the render
// surface handed to board modules.
type RGBImage struct {
	Buffer
}

func NewRGBImage(w, h int) *RGBImage {
	return &RGBImage{
		Buffer: makeBuffer(w, h, w*3, w*3*h),
	}
}

func (p *RGBImage) ColorModel() color.Model {
	return RGBModel
}

func (p *RGBImage) PixOffset(x, y int) int {
	return y*p.Stride + x*3
}

func (p *RGBImage) At(x, y int) color.Color {
	if !(image.Point{x, y}).In(p.Rect) {
		return color.Transparent
	}

	index := y*p.Stride + x*3
	return RGB{p.Pix[index], p.Pix[index+1], p.Pix[index+2]}
}

func (p *RGBImage) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}).In(p.Rect) {
		return
	}

	index := y*p.Stride + x*3
	color := rgbModel(c).(RGB)
	p.Pix[index+0] = color.R
	p.Pix[index+1] = color.G
	p.Pix[index+2] = color.B
}

// SetRGB is the allocation-free fast path for callers that already hold an
// RGB value.
func (p *RGBImage) SetRGB(x, y int, c RGB) {
	if !(image.Point{x, y}).In(p.Rect) {
		return
	}

	index := y*p.Stride + x*3
	p.Pix[index+0] = c.R
	p.Pix[index+1] = c.G
	p.Pix[index+2] = c.B
}

// RGBAt is the allocation-free counterpart of At. Out of bounds reads
// return black.
func (p *RGBImage) RGBAt(x, y int) RGB {
	if !(image.Point{x, y}).In(p.Rect) {
		return RGB{}
	}

	index := y*p.Stride + x*3
	return RGB{p.Pix[index], p.Pix[index+1], p.Pix[index+2]}
}

func (p *RGBImage) Fill(c color.Color) {
	color := rgbModel(c).(RGB)
	for i, l := 0, len(p.Pix); i < l; i += 3 {
		p.Pix[i+0] = color.R
		p.Pix[i+1] = color.G
		p.Pix[i+2] = color.B
	}
}

// CopyFrom copies the pixels of src, which must have identical bounds.
func (p *RGBImage) CopyFrom(src *RGBImage) {
	if !p.Rect.Eq(src.Rect) {
		return
	}
	copy(p.Pix, src.Pix)
}

// MonoImage is a 1-bit per pixel monochrome image, used as stencil format
// for icons and glyph masks.
type MonoImage struct {
	Buffer
}

func NewMonoImage(w, h int) *MonoImage {
	stride := ((w + 7) & ^7) / 8 // round up to whole bytes
	return &MonoImage{
		Buffer: makeBuffer(w, h, stride, stride*h),
	}
}

func (p *MonoImage) ColorModel() color.Model {
	return MonoModel
}

func (p *MonoImage) PixOffset(x, y int) int {
	return y*p.Stride + x/8
}

func (p *MonoImage) At(x, y int) color.Color {
	if !(image.Point{x, y}).In(p.Rect) {
		return color.Transparent
	}

	index := y*p.Stride + x/8
	pixel := p.Pix[index] & (1 << uint(x%8))

	if pixel != 0 {
		return On
	}
	return Off
}

func (p *MonoImage) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}).In(p.Rect) {
		return
	}

	index := y*p.Stride + x/8
	color := monoModel(c).(Mono)

	if color.On {
		p.Pix[index] |= (1 << uint(x%8))
	} else {
		p.Pix[index] &^= (1 << uint(x%8))
	}
}

func (p *MonoImage) Fill(c color.Color) {
	var value byte
	if monoModel(c).(Mono).On {
		value = 0xff
	}
	for i := range p.Pix {
		p.Pix[i] = value
	}
}

// CRGB16Image is a 16-bits per pixel 5-6-5-bit RGB image. This is the wire
// format of the SPI TFT panels.
type CRGB16Image struct {
	Buffer
	Order binary.ByteOrder
}

func NewCRGB16Image(w, h int) *CRGB16Image {
	return &CRGB16Image{
		Buffer: makeBuffer(w, h, w*2, w*2*h),
		Order:  binary.BigEndian,
	}
}

func (p *CRGB16Image) ColorModel() color.Model {
	return CRGB16Model
}

func (p *CRGB16Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	v := p.Order.Uint16(p.Pix[x*2+y*p.Stride:])
	return CRGB16{v}
}

func (p *CRGB16Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	v := crgb16Model(c).(CRGB16).V
	p.Order.PutUint16(p.Pix[x*2+y*p.Stride:], v)
}

func (p *CRGB16Image) Fill(c color.Color) {
	value := crgb16Model(c).(CRGB16).V
	bytes := make([]byte, 2)
	p.Order.PutUint16(bytes, value)
	for i, l := 0, len(p.Pix); i < l; i += 2 {
		copy(p.Pix[i:], bytes)
	}
}

// Interface checks.
var (
	_ Image = (*RGBImage)(nil)
	_ Image = (*MonoImage)(nil)
	_ Image = (*CRGB16Image)(nil)
)
