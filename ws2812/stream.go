package ws2812

import (
	"errors"

	"github.com/coreman2200/ws2812spi/model"
)

// Stream encodes colors while they are being transmitted. It holds no frame
// buffer; the caller's Source and the CPU must keep up with the SPI clock.
//
// Stream is not safe for concurrent use.
type Stream struct {
	d    Duplex
	opts Opts
	err  error
}

// NewStream returns a streaming writer over d. o may be nil for defaults.
// Invalid options make every Write fail with ErrInvalidOpts.
func NewStream(d Duplex, o *Opts) *Stream {
	s := &Stream{d: d, opts: o.withDefaults()}
	s.err = s.opts.Validate()
	return s
}

// writeContext tracks one Write call. sent-acked is the number of bytes the
// peripheral holds, and it never exceeds depth.
type writeContext struct {
	d     Duplex
	depth int
	sent  int
	acked int
}

// push places b into the transmit queue, polling while it is full, and
// drains at most one received byte.
func (w *writeContext) push(b byte) error {
	for w.sent-w.acked >= w.depth {
		if err := w.drain(); err != nil {
			return err
		}
	}
	for {
		err := w.d.Send(b)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrWouldBlock) {
			return transferErr("send", err)
		}
		if err := w.drain(); err != nil {
			return err
		}
	}
	w.sent++
	return w.drain()
}

// drain reads one byte if one is available.
func (w *writeContext) drain() error {
	if w.acked >= w.sent {
		return nil
	}
	_, err := w.d.Read()
	switch {
	case err == nil:
		w.acked++
		return nil
	case errors.Is(err, ErrWouldBlock):
		return nil
	default:
		return transferErr("read", err)
	}
}

// finish waits until every byte sent was acknowledged.
func (w *writeContext) finish() error {
	for w.acked < w.sent {
		if err := w.drain(); err != nil {
			return err
		}
	}
	return nil
}

func (w *writeContext) pushN(b byte, n int) error {
	for i := 0; i < n; i++ {
		if err := w.push(b); err != nil {
			return err
		}
	}
	return nil
}

// Write transmits one frame: the leading reset when the line needs one, every
// color of src, then the trailing reset. It returns once the peripheral
// acknowledged the last byte. On error the frame is abandoned mid-way and the
// chain needs a complete new frame.
func (s *Stream) Write(src model.Source) error {
	if s.err != nil {
		s.opts.Logger.Warn().Err(s.err).Msg("ws2812: frame rejected")
		return s.err
	}
	w := writeContext{d: s.d, depth: s.opts.QueueDepth}
	level := s.opts.ResetLevel()
	reset := s.opts.ResetLen()
	mask := s.opts.dataMask()
	order := s.opts.Order

	pixels := 0
	err := func() error {
		if s.opts.leading() {
			if err := w.pushN(level, reset); err != nil {
				return err
			}
		}
		var ch [4]byte
		var enc [BytesPerChannel]byte
		for {
			c, ok := src.Next()
			if !ok {
				break
			}
			n := order.Put(ch[:], c)
			for _, v := range ch[:n] {
				encodeTo(enc[:], v, mask)
				for _, b := range enc {
					if err := w.push(b); err != nil {
						return err
					}
				}
			}
			pixels++
		}
		if err := w.pushN(level, reset); err != nil {
			return err
		}
		return w.finish()
	}()
	if err != nil {
		s.opts.Logger.Error().Err(err).Int("pixels", pixels).Int("sent", w.sent).Msg("ws2812: stream aborted")
		return err
	}
	s.opts.Logger.Debug().Int("pixels", pixels).Int("bytes", w.sent).Msg("ws2812: frame streamed")
	return nil
}

// WriteColors streams colors as one frame.
func (s *Stream) WriteColors(colors ...model.Color) error {
	return s.Write(model.Slice(colors...))
}
