package main

import (
	"image/color"
	"math"
	"time"

	"github.com/coreman2200/ws2812spi/model"
)

// rainbow paints a wheel that rotates once per period, offset along each
// strip and between strips.
type rainbow struct {
	chain      *model.Chain
	period     time.Duration
	brightness float64
}

func (r *rainbow) frame(elapsed time.Duration) model.Source {
	n := r.chain.Len()
	strips := r.chain.Strips()
	per := n / max(1, strips)
	phase := math.Mod(float64(elapsed)/float64(r.period), 1.0)
	for i := 0; i < n; i++ {
		u := float64(i%max(1, per)) / float64(max(1, per))
		v := float64(i/max(1, per)) / float64(max(1, strips))
		h := math.Mod(u+v/4+phase, 1.0)
		r.chain.Set(i, model.FromColor(colorWheel(h)).Scale(r.brightness))
	}
	return r.chain.Source()
}

func colorWheel(h float64) color.NRGBA {
	h *= 6
	switch {
	case h < 1.:
		return color.NRGBA{R: 255, G: byte(255 * h), A: 255}
	case h < 2.:
		return color.NRGBA{R: byte(255 * (2 - h)), G: 255, A: 255}
	case h < 3.:
		return color.NRGBA{G: 255, B: byte(255 * (h - 2)), A: 255}
	case h < 4.:
		return color.NRGBA{G: byte(255 * (4 - h)), B: 255, A: 255}
	case h < 5.:
		return color.NRGBA{R: byte(255 * (h - 4)), B: 255, A: 255}
	default:
		return color.NRGBA{R: 255, B: byte(255 * (6 - h)), A: 255}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
