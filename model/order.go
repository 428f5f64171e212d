package model

import (
	"fmt"
	"strings"
)

// Order is the sequence in which a chip expects its channels on the wire.
type Order string

const (
	OrderGRB  Order = "GRB" // WS2812, WS2812B, SK6812 (RGB)
	OrderRGB  Order = "RGB"
	OrderBRG  Order = "BRG"
	OrderBGR  Order = "BGR"
	OrderRBG  Order = "RBG"
	OrderGBR  Order = "GBR"
	OrderGRBW Order = "GRBW" // SK6812-W always expects GRBW
)

// ParseOrder accepts a case-insensitive channel order such as "grb" or "GRBW".
func ParseOrder(s string) (Order, error) {
	o := Order(strings.ToUpper(strings.TrimSpace(s)))
	if o == "" {
		return OrderGRB, nil
	}
	if err := o.Validate(); err != nil {
		return "", err
	}
	return o, nil
}

// Validate reports whether o names each of R, G and B exactly once, plus W
// for 4-channel chips.
func (o Order) Validate() error {
	if n := len(o); n != 3 && n != 4 {
		return fmt.Errorf("model: invalid color order %q: want 3 or 4 channels", string(o))
	}
	var seen [4]bool
	for i := 0; i < len(o); i++ {
		idx := strings.IndexByte("RGBW", o[i])
		if idx < 0 || seen[idx] {
			return fmt.Errorf("model: invalid color order %q", string(o))
		}
		seen[idx] = true
	}
	if !seen[0] || !seen[1] || !seen[2] {
		return fmt.Errorf("model: invalid color order %q: missing channel", string(o))
	}
	return nil
}

// Channels returns the arity, 3 or 4.
func (o Order) Channels() int {
	if o == "" {
		return 3
	}
	return len(o)
}

// Put writes the channels of c into dst in wire order and returns the number
// of bytes written. dst must hold at least Channels() bytes.
func (o Order) Put(dst []byte, c Color) int {
	if o == "" {
		o = OrderGRB
	}
	for i := 0; i < len(o); i++ {
		switch o[i] {
		case 'R':
			dst[i] = c.R()
		case 'G':
			dst[i] = c.G()
		case 'B':
			dst[i] = c.B()
		case 'W':
			dst[i] = c.W()
		}
	}
	return len(o)
}

// Get is the inverse of Put.
func (o Order) Get(src []byte) Color {
	if o == "" {
		o = OrderGRB
	}
	var c Color
	for i := 0; i < len(o); i++ {
		switch o[i] {
		case 'R':
			c = c.WithR(src[i])
		case 'G':
			c = c.WithG(src[i])
		case 'B':
			c = c.WithB(src[i])
		case 'W':
			c = c.WithW(src[i])
		}
	}
	return c
}

func (o Order) String() string { return string(o) }
