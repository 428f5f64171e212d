package ws2812

import (
	"github.com/coreman2200/ws2812spi/model"
)

// Hosted sends each frame, both reset regions included, in exactly one
// Transfer call. It suits Linux spidev and similar hosts that cannot time
// separate phases.
//
// Hosted is not safe for concurrent use.
type Hosted struct {
	t      Transferer
	buf    []byte
	owned  bool
	opts   Opts
	colors []model.Color
	err    error
}

// NewHosted returns a single transfer writer. With a nil buf the writer
// allocates and grows its own buffer; otherwise buf is validated on every
// write like Prerendered. o may be nil for defaults; ResetSingleTransaction is
// always forced on. Invalid options make every Write fail with
// ErrInvalidOpts.
func NewHosted(t Transferer, buf []byte, o *Opts) *Hosted {
	v := o.withDefaults()
	v.ResetSingleTransaction = true
	return &Hosted{t: t, buf: buf, owned: buf == nil, opts: v, err: v.Validate()}
}

// RequiredLen is the buffer length Hosted needs for n pixels.
func (h *Hosted) RequiredLen(n int) int {
	return h.opts.RequiredLen(n)
}

// Write drains src and sends the frame in one transfer.
func (h *Hosted) Write(src model.Source) error {
	if h.err != nil {
		h.opts.Logger.Warn().Err(h.err).Msg("ws2812: frame rejected")
		return h.err
	}
	h.colors = model.Collect(h.colors[:0], src)
	need := h.opts.RequiredLen(len(h.colors))
	if h.owned && len(h.buf) < need {
		h.buf = make([]byte, need)
	}
	if len(h.buf) < need {
		err := &BufferTooShortError{Need: need, Have: len(h.buf)}
		h.opts.Logger.Warn().Err(err).Int("pixels", len(h.colors)).Msg("ws2812: frame rejected")
		return err
	}
	frame := h.buf[:need]
	render(frame, h.colors, &h.opts)
	if err := transfer(h.t, "frame", frame); err != nil {
		h.opts.Logger.Error().Err(err).Int("pixels", len(h.colors)).Msg("ws2812: hosted frame aborted")
		return err
	}
	h.opts.Logger.Debug().Int("pixels", len(h.colors)).Int("bytes", len(frame)).Msg("ws2812: frame sent")
	return nil
}

// WriteColors sends colors as one frame.
func (h *Hosted) WriteColors(colors ...model.Color) error {
	return h.Write(model.Slice(colors...))
}
