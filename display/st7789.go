package display

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/infoboard/pixel"
)

const (
	st7789DefaultWidth  = 240
	st7789DefaultHeight = 240
)

// Registers (from st7789.pdf).
const (
	st7789NOP       = 0x00
	st7789SWRESET   = 0x01
	st7789RDDID     = 0x04
	st7789RDDST     = 0x09
	st7789SLPIN     = 0x10
	st7789SLPOUT    = 0x11
	st7789PTLON     = 0x12
	st7789NORON     = 0x13
	st7789INVOFF    = 0x20
	st7789INVON     = 0x21
	st7789GAMSET    = 0x26
	st7789DISPOFF   = 0x28
	st7789DISPON    = 0x29
	st7789CASET     = 0x2A
	st7789RASET     = 0x2B
	st7789RAMWR     = 0x2C
	st7789RAMRD     = 0x2E
	st7789PTLAR     = 0x30
	st7789VSCRDEF   = 0x33
	st7789MADCTL    = 0x36
	st7789VSCRSADD  = 0x37
	st7789COLMOD    = 0x3A
	st7789WRDISBV   = 0x51
	st7789WRCTRLD   = 0x53
	st7789RAMCTRL   = 0xB0
	st7789RGBCTRL   = 0xB1
	st7789PORCTRL   = 0xB2
	st7789FRCTRL1   = 0xB3
	st7789GCTRL     = 0xB7
	st7789VCOMS     = 0xBB
	st7789LCMCTRL   = 0xC0
	st7789VDVVRHEN  = 0xC2
	st7789VRHS      = 0xC3
	st7789VDVSET    = 0xC4
	st7789VCMOFSET  = 0xC5
	st7789FRCTR2    = 0xC6
	st7789PWCTRL1   = 0xD0
	st7789PVGAMCTRL = 0xE0
	st7789NVGAMCTRL = 0xE1
	st7789GATECTRL  = 0xE4
	st7789PWCTRL2   = 0xE8
)

// Memory Data Access Control (MADCTL) bit fields.
const (
	_                           byte = 1 << iota // D0: reserved
	_                                            // D1: reserved
	st7789DisplayDataLatchOrder                  // D2: MH
	st7789RGBOrder                               // D3: RGB
	st7789LineAddressOrder                       // D4: ML
	st7789PageColumnOrder                        // D5: MV
	st7789ColumnAddressOrder                     // D6: MX
	st7789PageAddressOrder                       // D7: MY
)

type st7789 struct {
	baseDisplay
	backlight gpio.PinOut
}

// ST7789 opens a ST7789 TFT panel on the given connection. Like the ST7735
// the panel wants SPI mode 3 and runs reliably at up to 40MHz.
func ST7789(c Conn, config *Config) (Display, error) {
	d := &st7789{
		baseDisplay: baseDisplay{c: c},
		backlight:   config.Backlight,
	}

	if err := d.init(config); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *st7789) String() string {
	bounds := d.Bounds()
	return fmt.Sprintf("ST7789 %dx%d", bounds.Dx(), bounds.Dy())
}

func (d *st7789) init(config *Config) (err error) {
	if config.Width == 0 {
		config.Width = st7789DefaultWidth
	}
	d.width = config.Width

	if config.Height == 0 {
		config.Height = st7789DefaultHeight
	}
	d.height = config.Height

	if (config.Rotation == NoRotation || config.Rotation == Rotate180) && (config.Width > 240 || config.Height > 320) {
		return fmt.Errorf("st7789: invalid size %dx%d, maximum size is 240x320 at %s rotation", config.Width, config.Height, config.Rotation)
	} else if (config.Rotation == Rotate90 || config.Rotation == Rotate270) && (config.Width > 320 || config.Height > 240) {
		return fmt.Errorf("st7789: invalid size %dx%d, maximum size is 320x240 at %s rotation", config.Width, config.Height, config.Rotation)
	}

	d.Image = pixel.NewCRGB16Image(config.Width, config.Height)

	if d.backlight != nil {
		if err = d.backlight.PWM(gpio.DutyMax, 2*physic.KiloHertz); err != nil {
			return
		}
	} else {
		log.Println("st7789: no backlight control")
	}

	// reset the device.
	if err = d.c.Reset(gpio.High); err != nil {
		return
	}
	time.Sleep(100 * time.Millisecond)
	if err = d.c.Reset(gpio.Low); err != nil {
		return
	}
	time.Sleep(100 * time.Millisecond)
	if err = d.c.Reset(gpio.High); err != nil {
		return
	}

	// init display
	time.Sleep(10 * time.Millisecond)
	if err = d.command(st7789SLPOUT); err != nil { // Sleep Out
		return
	}
	time.Sleep(150 * time.Millisecond)

	if err = d.commands([][]byte{
		{st7789COLMOD, 0x05},        // Interface Pixel Format: 16-bit/pixel (RGB 5-6-5-bit input)
		{st7789PORCTRL, 0x0C, 0x0C}, // Porch Setting: default
		{st7789GCTRL, 0x35},         // Gate Control: 13.26V / -10.43V (default)
		{st7789VCOMS, 0x1A},         // VCOM Setting: 0.75V (default is 0x20 / 0.9V)
		{st7789LCMCTRL, 0x2C},       // LCM Control: default
		{st7789VDVVRHEN, 0x01},      // VDV and VRH Command Enable: default
		{st7789VRHS, 0x0B},          // VRH Set: default (4.1V+(vcom+vcom offset+vdv))
		{st7789VDVSET, 0x20},        // VDV Set: default (0V)
		{st7789VCMOFSET, 0x20},      // VCOM Offset Set: default (0V)
		{st7789FRCTR2, 0x0F},        // Frame Rate Control in Normal Mode: 60Hz (default)
		{st7789PWCTRL1, 0xA4, 0xA1}, // Power Control 1: default
		{st7789INVON},               // Display Inversion On: IPS panels show inverted colors otherwise
		{st7789PVGAMCTRL, 0x00, 0x19, 0x1E, 0x0A, 0x09, 0x15, 0x3D, 0x44, 0x51, 0x12, 0x03, 0x00, 0x3F, 0x3F}, // Positive Voltage Gamma Control: default
		{st7789NVGAMCTRL, 0x00, 0x18, 0x1E, 0x0A, 0x09, 0x25, 0x3F, 0x43, 0x52, 0x33, 0x03, 0x00, 0x3F, 0x3F}, // Negative Voltage Gamma Control: default
		{st7789NORON},
		{st7789DISPON},
	}); err != nil {
		return
	}
	time.Sleep(100 * time.Millisecond)

	if err = d.SetRotation(config.Rotation); err != nil {
		return
	}
	if err = d.SetContrast(0xFF); err != nil {
		return
	}

	return
}

func (d *st7789) Close() error {
	if err := d.Show(false); err != nil {
		_ = d.c.Close()
		return err
	}
	return d.c.Close()
}

func (d *st7789) Show(show bool) error {
	var command = byte(st7789DISPOFF)
	if show {
		command = byte(st7789DISPON)
	}
	return d.command(command)
}

func (d *st7789) SetContrast(level uint8) error {
	if d.backlight == nil {
		return nil
	}
	const (
		step = gpio.DutyMax / 0xFF
		rate = 2 * physic.KiloHertz
	)
	if debug {
		log.Printf("st7789: backlight duty cycle to %s at %s", step*gpio.Duty(level), rate)
	}
	return d.backlight.PWM(step*gpio.Duty(level), rate)
}

func (d *st7789) SetRotation(rotation Rotation) error {
	rotation &= 3

	var madctl byte
	switch rotation {
	case NoRotation:
		madctl = 0
	case Rotate90:
		madctl = st7789ColumnAddressOrder | st7789PageColumnOrder
	case Rotate180:
		madctl = st7789ColumnAddressOrder | st7789PageAddressOrder
	case Rotate270:
		madctl = st7789PageAddressOrder | st7789PageColumnOrder
	}

	d.rotation = rotation
	if debug {
		log.Printf("st7789: madctl %s -> %#02x", rotation, madctl)
	}
	return d.command(st7789MADCTL, madctl)
}

func (d *st7789) SetWindow(x0, y0, x1, y1 int) error {
	if x1 == 0 {
		x1 = d.width - 1
	}
	if y1 == 0 {
		y1 = d.height - 1
	}
	if d.rotation == Rotate90 || d.rotation == Rotate270 {
		x0 += d.rowOffset
		y0 += d.colOffset
		x1 += d.rowOffset
		y1 += d.colOffset
	} else {
		x0 += d.colOffset
		y0 += d.rowOffset
		x1 += d.colOffset
		y1 += d.rowOffset
	}
	return d.commands([][]byte{
		{st7789CASET, byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)}, // Column address
		{st7789RASET, byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)}, // Row address
		{st7789RAMWR}, // Write to RAM
	})
}

// Refresh sets the window to full screen and redraws using the internal
// frame buffer.
func (d *st7789) Refresh() error {
	if err := d.SetWindow(0, 0, 0, 0); err != nil {
		return err
	}
	const batchSize = 4096

	pix := d.Image.(*pixel.CRGB16Image).Pix
	for i, l := 0, len(pix); i < l; i += batchSize {
		j := i + batchSize
		if j > l {
			j = l
		}
		if err := d.data(pix[i:j]...); err != nil {
			return err
		}
	}
	return nil
}
