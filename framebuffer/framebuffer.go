// Package framebuffer drives the board through the operating system's native
// framebuffer device.
//
// This covers panels whose controller is handled by a kernel driver, like the
// fbtft family of SPI TFT modules, without any userspace bus setup. The
// device is opened with [Open] and otherwise functions like a regular
// display.
//
// Rotation and contrast are owned by the kernel driver, so these calls are a
// no-op here.
package framebuffer
