package model

import (
	"image"
	"image/color"
	"sort"
)

// Led is one addressable pixel. index is its logical position in the strip.
type Led struct {
	index uint16
	Color Color
}

func (l *Led) Index() int { return int(l.index) }

// LedStrip is a run of pixels wired in one direction. A reversed strip is fed
// from its logical end, as happens on serpentine panels.
type LedStrip struct {
	index   uint16
	Reverse bool
	Strip   []*Led
}

func NewStrip(i int, size int, reverse bool, c Color) *LedStrip {
	s := &LedStrip{
		index:   uint16(i),
		Reverse: reverse,
		Strip:   make([]*Led, 0, size),
	}
	for n := 0; n < size; n++ {
		s.Strip = append(s.Strip, &Led{index: uint16(n), Color: c})
	}
	return s
}

func (s *LedStrip) Index() int { return int(s.index) }

func (s *LedStrip) Len() int { return len(s.Strip) }

// Leds returns the pixels in wire order.
func (s *LedStrip) Leds() []*Led {
	return s.sorted()
}

func (s *LedStrip) sorted() []*Led {
	ss := make([]*Led, 0, len(s.Strip))
	ss = append(ss, s.Strip...)

	sort.Slice(ss, func(i, j int) bool {
		if s.Reverse {
			return ss[j].index < ss[i].index
		}
		return ss[i].index < ss[j].index
	})

	return ss
}

// Chain is a daisy chain of strips driven from a single data line.
type Chain struct {
	strips    []*LedStrip
	perStrip  int
	baseColor Color
}

// NewChain builds count strips of perStrip pixels each. When serpentine is
// set every odd strip is reversed.
func NewChain(count, perStrip int, serpentine bool, base Color) *Chain {
	c := &Chain{
		strips:    make([]*LedStrip, 0, count),
		perStrip:  perStrip,
		baseColor: base,
	}
	for i := 0; i < count; i++ {
		c.strips = append(c.strips, NewStrip(i, perStrip, serpentine && i%2 == 1, base))
	}
	return c
}

func (c *Chain) Strip(i int) *LedStrip { return c.strips[i] }

func (c *Chain) Strips() int { return len(c.strips) }

// Len is the total pixel count.
func (c *Chain) Len() int { return len(c.strips) * c.perStrip }

// At returns the color at logical index i (strip-major, left to right).
func (c *Chain) At(i int) Color {
	return c.strips[i/c.perStrip].Strip[i%c.perStrip].Color
}

// Set changes the color at logical index i.
func (c *Chain) Set(i int, col Color) {
	c.strips[i/c.perStrip].Strip[i%c.perStrip].Color = col
}

func (c *Chain) Fill(col Color) {
	for _, s := range c.strips {
		for _, l := range s.Strip {
			l.Color = col
		}
	}
}

func (c *Chain) Clear() {
	c.Fill(Color{})
}

func (c *Chain) Reset() {
	c.Fill(c.baseColor)
}

func (c *Chain) Scale(s float64) {
	if s > 1.0 || s < 0.0 {
		return
	}
	for _, st := range c.strips {
		for _, l := range st.Strip {
			l.Color = l.Color.Scale(s)
		}
	}
}

// Source returns the colors in wire order. It snapshots nothing; mutating the
// chain while the source is consumed changes what is produced.
func (c *Chain) Source() Source {
	si, li := 0, 0
	var cur []*Led
	return SourceFunc(func() (Color, bool) {
		for {
			if si >= len(c.strips) {
				return Color{}, false
			}
			if cur == nil {
				cur = c.strips[si].sorted()
			}
			if li < len(cur) {
				l := cur[li]
				li++
				return l.Color, true
			}
			si++
			li = 0
			cur = nil
		}
	})
}

// Image renders the chain in logical order, one strip per row.
func (c *Chain) Image() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, c.perStrip, len(c.strips)))
	for y, s := range c.strips {
		for x, l := range s.Strip {
			im.SetNRGBA(x, y, color.NRGBA{R: l.Color.R(), G: l.Color.G(), B: l.Color.B(), A: 255})
		}
	}
	return im
}

// Line renders the chain in wire order as a single row, the shape periph's
// one dimensional drawers expect.
func (c *Chain) Line() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, c.Len(), 1))
	src := c.Source()
	for x := 0; ; x++ {
		col, ok := src.Next()
		if !ok {
			break
		}
		im.SetNRGBA(x, 0, color.NRGBA{R: col.R(), G: col.G(), B: col.B(), A: 255})
	}
	return im
}
