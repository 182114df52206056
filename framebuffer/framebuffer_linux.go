package framebuffer

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"os"
	"syscall"

	"github.com/BeatGlow/infoboard/display"
	"github.com/BeatGlow/infoboard/internal/ioctl"
	"github.com/BeatGlow/infoboard/pixel"
)

// From <linux/fb.h>
const (
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
	fbioBlank          = 0x4611

	fbBlankUnblank   = 0
	fbBlankPowerdown = 4
)

type frameBuffer struct {
	pixel.Image
	f   *os.File
	mem []byte
}

// Open a Linux framebuffer device (fbdev) by name, typically /dev/fb[0..x].
// The pixels drawn on the returned display land directly in the mapped
// device memory, so Refresh is free.
func Open(name string) (display.Display, error) {
	f, err := os.OpenFile(name, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, err
	}

	var (
		fd    = f.Fd()
		fixed fixScreenInfo
		info  varScreenInfo
	)
	if err = ioctl.Do(fd, fbioGetFScreenInfo, &fixed); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("framebuffer: %s: %w", name, err)
	}
	if err = ioctl.Do(fd, fbioGetVScreenInfo, &info); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("framebuffer: %s: %w", name, err)
	}

	mem, err := syscall.Mmap(int(fd), 0, int(fixed.SmemLen), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("framebuffer: %s: mmap: %w", name, err)
	}

	// Lines may be padded, the fixed info holds the true stride.
	buf := pixel.Buffer{
		Rect:   image.Rect(0, 0, int(info.Xres), int(info.Yres)),
		Pix:    mem,
		Stride: int(fixed.LineLength),
	}

	img, err := newImage(buf, &info)
	if err != nil {
		_ = syscall.Munmap(mem)
		_ = f.Close()
		return nil, err
	}

	return &frameBuffer{
		Image: img,
		f:     f,
		mem:   mem,
	}, nil
}

// newImage wraps the mapped pixels in the image format matching the mode's
// pixel layout.
func newImage(buf pixel.Buffer, info *varScreenInfo) (pixel.Image, error) {
	switch {
	case info.BitsPerPixel == 16 &&
		info.Red.Offset == 11 && info.Red.Length == 5 &&
		info.Green.Offset == 5 && info.Green.Length == 6 &&
		info.Blue.Offset == 0 && info.Blue.Length == 5:
		// RGB565, the mode the fbtft drivers expose.
		return &pixel.CRGB16Image{
			Buffer: buf,
			Order:  binary.NativeEndian,
		}, nil

	case info.BitsPerPixel == 32 &&
		info.Red.Offset == 16 && info.Red.Length == 8 &&
		info.Green.Offset == 8 && info.Green.Length == 8 &&
		info.Blue.Offset == 0 && info.Blue.Length == 8:
		return &xrgbImage{Buffer: buf}, nil
	}

	return nil, fmt.Errorf("framebuffer: unsupported pixel format: %d bpp, red %d:%d green %d:%d blue %d:%d",
		info.BitsPerPixel,
		info.Red.Offset, info.Red.Length,
		info.Green.Offset, info.Green.Length,
		info.Blue.Offset, info.Blue.Length)
}

// Close unmaps the pixel buffer and closes the device.
func (fb *frameBuffer) Close() error {
	if err := syscall.Munmap(fb.mem); err != nil {
		_ = fb.f.Close()
		return err
	}
	return fb.f.Close()
}

// Show blanks or unblanks the display. Not all kernel drivers implement
// blanking.
func (fb *frameBuffer) Show(show bool) error {
	arg := uintptr(fbBlankPowerdown)
	if show {
		arg = fbBlankUnblank
	}
	return ioctl.Call(fb.f.Fd(), fbioBlank, arg)
}

// SetContrast is a no-op, fbdev has no contrast control.
func (fb *frameBuffer) SetContrast(level uint8) error {
	return nil
}

// SetRotation is a no-op, rotation is owned by the kernel driver.
func (fb *frameBuffer) SetRotation(_ display.Rotation) error {
	return nil
}

// Refresh is a no-op, pixels are written straight to device memory.
func (fb *frameBuffer) Refresh() error {
	return nil
}

// xrgbImage is a 32 bits per pixel XRGB8888 image over the mapped device
// memory. Pixels are stored in little endian byte order: B, G, R, X.
type xrgbImage struct {
	pixel.Buffer
}

func (p *xrgbImage) ColorModel() color.Model {
	return pixel.RGBModel
}

func (p *xrgbImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	index := y*p.Stride + x*4
	return pixel.RGB{R: p.Pix[index+2], G: p.Pix[index+1], B: p.Pix[index]}
}

func (p *xrgbImage) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	color := pixel.RGBModel.Convert(c).(pixel.RGB)
	index := y*p.Stride + x*4
	p.Pix[index+0] = color.B
	p.Pix[index+1] = color.G
	p.Pix[index+2] = color.R
	p.Pix[index+3] = 0xff
}

func (p *xrgbImage) Fill(c color.Color) {
	color := pixel.RGBModel.Convert(c).(pixel.RGB)
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		for x := p.Rect.Min.X; x < p.Rect.Max.X; x++ {
			index := y*p.Stride + x*4
			p.Pix[index+0] = color.B
			p.Pix[index+1] = color.G
			p.Pix[index+2] = color.R
			p.Pix[index+3] = 0xff
		}
	}
}

var _ pixel.Image = (*xrgbImage)(nil)

// Structures from <linux/fb.h>, field layout must match the kernel ABI.

type fixScreenInfo struct {
	ID           [16]byte // Identification string, eg "fb_st7735r"
	SmemStart    uintptr  // Start of frame buffer mem
	SmemLen      uint32   // Length of frame buffer mem
	Type         uint32   // FB_TYPE_
	TypeAux      uint32   // Interleave for interleaved Planes
	Visual       uint32   // FB_VISUAL_
	Xpanstep     uint16   // Zero if no hardware panning
	Ypanstep     uint16   // Zero if no hardware panning
	Ywrapstep    uint16   // Zero if no hardware ywrap
	LineLength   uint32   // Length of a line in bytes
	MmioStart    uintptr  // Start of Memory Mapped I/O (physical address)
	MmioLen      uint32   // Length of Memory Mapped I/O
	Accel        uint32   // Type of acceleration available
	Capabilities uint16   // FB_CAP_
	Reserved     [2]uint16
}

// bitField describes the position of one color channel inside a pixel.
type bitField struct {
	Offset   uint32 // Beginning of bitfield
	Length   uint32 // Length of bitfield
	MsbRight uint32 // != 0: most significant bit is right
}

// varScreenInfo describes the active video mode of a frame buffer device.
type varScreenInfo struct {
	Xres                     uint32
	Yres                     uint32
	XresVirtual              uint32
	YresVirtual              uint32
	Xoffset                  uint32
	Yoffset                  uint32
	BitsPerPixel             uint32
	Grayscale                uint32
	Red, Green, Blue, Transp bitField
	Nonstd                   uint32
	Activate                 uint32
	Height                   uint32
	Width                    uint32
	AccelFlags               uint32
	Pixclock                 uint32
	LeftMargin               uint32
	RightMargin              uint32
	UpperMargin              uint32
	LowerMargin              uint32
	HsyncLen                 uint32
	VsyncLen                 uint32
	Sync                     uint32
	Vmode                    uint32
	Rotate                   uint32
	Colorspace               uint32
	Reserved                 [4]uint32
}
