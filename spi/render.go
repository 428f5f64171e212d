package spi

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/ws2812spi/model"
	"github.com/coreman2200/ws2812spi/ws2812"
)

// Renderer is a ws2812.Writer drawing each frame on a periph display.Drawer.
// It serves the reference nrzled driver and the ANSI console preview.
type Renderer struct {
	Drawer display.Drawer
	colors []model.Color
	img    *image.NRGBA
}

// NewRenderer wraps d.
func NewRenderer(d display.Drawer) *Renderer {
	return &Renderer{Drawer: d}
}

// NewNRZ drives n pixels through periph's own nrzled encoder on p.
func NewNRZ(p spi.Port, n int, order model.Order) (*Renderer, error) {
	o := nrzled.DefaultOpts
	o.NumPixels = n
	o.Channels = order.Channels()
	d, err := nrzled.NewSPI(p, &o)
	if err != nil {
		return nil, fmt.Errorf("spi: nrzled: %w", err)
	}
	if err := d.Halt(); err != nil {
		return nil, fmt.Errorf("spi: nrzled: %w", err)
	}
	return NewRenderer(d), nil
}

// NewConsole prints n pixels as colored blocks on the terminal.
func NewConsole(n int) *Renderer {
	return NewRenderer(screen.New(n))
}

// Write draws the colors of src as one row starting at the left edge.
func (r *Renderer) Write(src model.Source) error {
	r.colors = model.Collect(r.colors[:0], src)
	w := len(r.colors)
	if r.img == nil || r.img.Rect.Dx() != w {
		r.img = image.NewNRGBA(image.Rect(0, 0, w, 1))
	}
	for x, c := range r.colors {
		r.img.Set(x, 0, c)
	}
	if err := r.Drawer.Draw(r.Drawer.Bounds(), r.img, image.Point{}); err != nil {
		return fmt.Errorf("%w: draw: %w", ws2812.ErrTransferFailed, err)
	}
	return nil
}

// Halt turns the pixels off.
func (r *Renderer) Halt() error {
	return r.Drawer.Halt()
}

var _ ws2812.Writer = &Renderer{}
