package model

import (
	"image/color"
)

const (
	WHITE_OFFSET uint8 = 0x18
	RED_OFFSET   uint8 = 0x10
	GREEN_OFFSET uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x0
)

// Color is a packed 0xWWRRGGBB channel tuple. Values are immutable; the With*
// helpers return modified copies.
type Color struct {
	val uint32
}

func NewColor(c uint32) Color {
	return Color{val: c}
}

// RGB returns a color for 3-channel chips. The white channel is zero.
func RGB(r, g, b uint8) Color {
	return Color{}.WithR(r).WithG(g).WithB(b)
}

// RGBW returns a color for 4-channel (SK6812-W class) chips.
func RGBW(r, g, b, w uint8) Color {
	return RGB(r, g, b).WithW(w)
}

// FromColor converts any color.Color, dropping alpha premultiplication the
// same way the image package does.
func FromColor(c color.Color) Color {
	if v, ok := c.(Color); ok {
		return v
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB(n.R, n.G, n.B)
}

func setcolor(c uint32, n uint8, off uint8) uint32 {
	var val uint32 = uint32(n) << off
	var mask uint32 = 0xFF << off
	return (c & (^mask)) | val
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & (mask)) >> off)
}

func (c Color) Value() uint32 { return c.val }

func (c Color) R() uint8 { return getcolor(c.val, RED_OFFSET) }
func (c Color) G() uint8 { return getcolor(c.val, GREEN_OFFSET) }
func (c Color) B() uint8 { return getcolor(c.val, BLUE_OFFSET) }
func (c Color) W() uint8 { return getcolor(c.val, WHITE_OFFSET) }

func (c Color) WithR(r uint8) Color { return Color{setcolor(c.val, r, RED_OFFSET)} }
func (c Color) WithG(g uint8) Color { return Color{setcolor(c.val, g, GREEN_OFFSET)} }
func (c Color) WithB(b uint8) Color { return Color{setcolor(c.val, b, BLUE_OFFSET)} }
func (c Color) WithW(w uint8) Color { return Color{setcolor(c.val, w, WHITE_OFFSET)} }

// RGBA implements color.Color. White is not representable and is ignored.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R(), G: c.G(), B: c.B(), A: 0xFF}.RGBA()
}

// Scale multiplies every channel by s, clamped to [0,1].
func (c Color) Scale(s float64) Color {
	if s >= 1.0 {
		return c
	}
	if s <= 0.0 {
		return Color{}
	}
	f := func(v uint8) uint8 { return uint8(float64(v) * s) }
	return RGBW(f(c.R()), f(c.G()), f(c.B()), f(c.W()))
}

// ColorModel converts arbitrary colors to Color.
var ColorModel = color.ModelFunc(func(c color.Color) color.Color { return FromColor(c) })
