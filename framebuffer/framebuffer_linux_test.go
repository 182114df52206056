package framebuffer

import (
	"image"
	"image/color"
	"testing"

	"github.com/BeatGlow/infoboard/pixel"
)

func rgb565Info() *varScreenInfo {
	return &varScreenInfo{
		Xres:         160,
		Yres:         128,
		BitsPerPixel: 16,
		Red:          bitField{Offset: 11, Length: 5},
		Green:        bitField{Offset: 5, Length: 6},
		Blue:         bitField{Offset: 0, Length: 5},
	}
}

func xrgbInfo() *varScreenInfo {
	return &varScreenInfo{
		Xres:         640,
		Yres:         480,
		BitsPerPixel: 32,
		Red:          bitField{Offset: 16, Length: 8},
		Green:        bitField{Offset: 8, Length: 8},
		Blue:         bitField{Offset: 0, Length: 8},
	}
}

func TestNewImage(t *testing.T) {
	buf := pixel.Buffer{
		Rect:   image.Rect(0, 0, 160, 128),
		Pix:    make([]byte, 160*2*128),
		Stride: 160 * 2,
	}

	img, err := newImage(buf, rgb565Info())
	if err != nil {
		t.Fatalf("expected RGB565 image, got error: %v", err)
	}
	if _, ok := img.(*pixel.CRGB16Image); !ok {
		t.Errorf("expected *pixel.CRGB16Image, got %T", img)
	}

	buf.Pix = make([]byte, 640*4*480)
	buf.Rect = image.Rect(0, 0, 640, 480)
	buf.Stride = 640 * 4

	img, err = newImage(buf, xrgbInfo())
	if err != nil {
		t.Fatalf("expected XRGB image, got error: %v", err)
	}
	if _, ok := img.(*xrgbImage); !ok {
		t.Errorf("expected *xrgbImage, got %T", img)
	}
}

func TestNewImageUnsupported(t *testing.T) {
	tests := []struct {
		name string
		info *varScreenInfo
	}{
		{"bgr565", &varScreenInfo{
			Xres: 160, Yres: 128, BitsPerPixel: 16,
			Red:   bitField{Offset: 0, Length: 5},
			Green: bitField{Offset: 5, Length: 6},
			Blue:  bitField{Offset: 11, Length: 5},
		}},
		{"8bpp", &varScreenInfo{
			Xres: 320, Yres: 240, BitsPerPixel: 8,
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := newImage(pixel.Buffer{}, test.info); err == nil {
				t.Error("expected an error for unsupported pixel format")
			}
		})
	}
}

func TestXRGBImage(t *testing.T) {
	const stride = 4*4 + 8 // padded lines
	p := &xrgbImage{
		Buffer: pixel.Buffer{
			Rect:   image.Rect(0, 0, 4, 4),
			Pix:    make([]byte, stride*4),
			Stride: stride,
		},
	}

	p.Set(2, 1, pixel.RGB{R: 0x11, G: 0x22, B: 0x33})

	index := 1*stride + 2*4
	if got := p.Pix[index]; got != 0x33 {
		t.Errorf("expected blue 0x33 at byte 0, got %#02x", got)
	}
	if got := p.Pix[index+2]; got != 0x11 {
		t.Errorf("expected red 0x11 at byte 2, got %#02x", got)
	}
	if got := p.At(2, 1); got != (pixel.RGB{R: 0x11, G: 0x22, B: 0x33}) {
		t.Errorf("expected color to round trip, got %v", got)
	}

	// Out of bounds access must not touch the buffer.
	p.Set(-1, 0, pixel.White)
	p.Set(4, 4, pixel.White)
	if got := p.At(4, 4); got != color.Transparent {
		t.Errorf("expected transparent out of bounds, got %v", got)
	}

	p.Fill(pixel.RGB{R: 0xff})
	if got := p.At(3, 3); got != (pixel.RGB{R: 0xff}) {
		t.Errorf("expected fill to cover the last pixel, got %v", got)
	}
}
