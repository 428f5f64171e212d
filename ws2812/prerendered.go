package ws2812

import (
	"github.com/coreman2200/ws2812spi/model"
)

// Prerendered encodes the complete frame into a caller owned buffer before
// sending anything. It trades memory for immunity to slow encoders.
//
// Prerendered is not safe for concurrent use.
type Prerendered struct {
	t      Transferer
	buf    []byte
	opts   Opts
	reset  []byte
	colors []model.Color
	err    error
}

// NewPrerendered returns a writer rendering into buf. Size buf with
// Opts.RequiredLen. o may be nil for defaults. Invalid options make every
// Write fail with ErrInvalidOpts.
func NewPrerendered(t Transferer, buf []byte, o *Opts) *Prerendered {
	p := &Prerendered{t: t, buf: buf, opts: o.withDefaults()}
	p.err = p.opts.Validate()
	if p.err == nil && !p.opts.ResetSingleTransaction {
		p.reset = resetRegion(&p.opts)
	}
	return p
}

// Buffer returns the caller buffer.
func (p *Prerendered) Buffer() []byte { return p.buf }

// Write drains src, validates the buffer length, renders the frame and sends
// it. If the buffer is too short a *BufferTooShortError is returned and
// neither the buffer nor the peripheral is touched.
func (p *Prerendered) Write(src model.Source) error {
	p.colors = model.Collect(p.colors[:0], src)
	frame, err := p.Render(p.colors)
	if err != nil {
		p.opts.Logger.Warn().Err(err).Int("pixels", len(p.colors)).Msg("ws2812: frame rejected")
		return err
	}
	if err := p.send(frame); err != nil {
		p.opts.Logger.Error().Err(err).Int("pixels", len(p.colors)).Msg("ws2812: prerendered frame aborted")
		return err
	}
	p.opts.Logger.Debug().Int("pixels", len(p.colors)).Int("bytes", p.opts.FrameLen(len(p.colors))).Msg("ws2812: frame sent")
	return nil
}

// WriteColors sends colors as one frame.
func (p *Prerendered) WriteColors(colors ...model.Color) error {
	return p.Write(model.Slice(colors...))
}

// Render encodes colors into the buffer without sending and returns the
// region that Write would send (data only, or the whole frame when resets are
// folded in).
func (p *Prerendered) Render(colors []model.Color) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	need := p.opts.RequiredLen(len(colors))
	if len(p.buf) < need {
		return nil, &BufferTooShortError{Need: need, Have: len(p.buf)}
	}
	frame := p.buf[:need]
	render(frame, colors, &p.opts)
	return frame, nil
}

func (p *Prerendered) send(frame []byte) error {
	if p.opts.ResetSingleTransaction {
		return transfer(p.t, "frame", frame)
	}
	if p.opts.leading() {
		if err := transfer(p.t, "leading reset", p.reset); err != nil {
			return err
		}
	}
	if len(frame) > 0 {
		if err := transfer(p.t, "data", frame); err != nil {
			return err
		}
	}
	return transfer(p.t, "trailing reset", p.reset)
}

func transfer(t Transferer, op string, w []byte) error {
	if err := t.Transfer(w); err != nil {
		return transferErr(op, err)
	}
	return nil
}
