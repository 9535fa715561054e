package model

import "image/color"

// Color is a packed 0xAARRGGBB value, the form templates persist.
type Color uint32

// RGBA packs the four channels into a Color.
func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

const (
	Black       Color = 0xFF000000
	White       Color = 0xFFFFFFFF
	Transparent Color = 0x00000000
)

func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }
func (c Color) A() uint8 { return uint8(c >> 24) }

// NRGBA converts to the stdlib color type renderers consume.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}
}

// IsOpaque reports whether the alpha channel is fully opaque.
func (c Color) IsOpaque() bool { return c.A() == 0xFF }
