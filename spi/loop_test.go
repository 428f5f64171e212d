package spi

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/ws2812spi/model"
	"github.com/coreman2200/ws2812spi/ws2812"
	"github.com/coreman2200/ws2812spi/ws2812test"
)

func TestLooperRefreshesAndBlanks(t *testing.T) {
	rec := &ws2812test.Recorder{}
	o := ws2812.DefaultOpts()
	chain := model.NewChain(2, 3, true, model.RGB(10, 20, 30))
	l := &Looper{
		Writer: ws2812.NewHosted(rec, nil, &o),
		Frame:  func(time.Duration) model.Source { return chain.Source() },
		FPS:    200,
		Pixels: chain.Len(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, l.Start(ctx))

	n, failed := l.Frames()
	assert.Positive(t, n)
	assert.Zero(t, failed)
	require.Len(t, rec.Calls, n+1)

	first, err := ws2812.Decode(rec.Calls[0], &o)
	require.NoError(t, err)
	assert.Len(t, first, 6)
	assert.Equal(t, model.RGB(10, 20, 30), first[0])

	last, err := ws2812.Decode(rec.Calls[n], &o)
	require.NoError(t, err)
	assert.Equal(t, make([]model.Color, 6), last, "blank frame on exit")
}

func TestLooperReportsErrors(t *testing.T) {
	boom := errors.New("boom")
	rec := &ws2812test.Recorder{FailAt: 1, Err: boom}
	l := &Looper{
		Writer: ws2812.NewHosted(rec, nil, nil),
		Frame:  func(time.Duration) model.Source { return model.Repeat(model.RGB(1, 1, 1), 4) },
		FPS:    100,
		Pixels: 4,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := l.Start(ctx)
	assert.ErrorIs(t, err, boom)
	_, failed := l.Frames()
	assert.Equal(t, 1, failed)
}

type canvas struct {
	img    *image.NRGBA
	halted bool
}

func (c *canvas) String() string { return "canvas" }
func (c *canvas) Halt() error { c.halted = true; return nil }
func (c *canvas) ColorModel() color.Model { return color.NRGBAModel }
func (c *canvas) Bounds() image.Rectangle { return c.img.Bounds() }
func (c *canvas) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(c.img, r, src, sp, draw.Src)
	return nil
}

func TestRendererDrawsRow(t *testing.T) {
	c := &canvas{img: image.NewNRGBA(image.Rect(0, 0, 3, 1))}
	r := NewRenderer(c)
	require.NoError(t, r.Write(model.Slice(model.RGB(255, 0, 0), model.RGB(0, 255, 0), model.RGB(0, 0, 255))))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, c.img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, c.img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, c.img.NRGBAAt(2, 0))
	require.NoError(t, r.Halt())
	assert.True(t, c.halted)
}
