package ws2812

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/ws2812spi/model"
)

const (
	// MinFreq and MaxFreq bound the SPI clocks for which the 4 cell patterns
	// stay within WS2812 and SK6812 timing.
	MinFreq = 2 * physic.MegaHertz
	MaxFreq = 3800 * physic.KiloHertz
	// DefaultFreq is used for reset sizing when Opts.Freq is zero.
	DefaultFreq = MaxFreq
	// DefaultQueueDepth keeps one byte in the shift register and one queued,
	// which suits the smallest (single byte) hardware FIFOs.
	DefaultQueueDepth = 2
)

// Opts is the configuration shared by all writers.
type Opts struct {
	// Order selects the channel order and arity. Empty means GRB.
	Order model.Order
	// MOSIIdleHigh is set for controllers whose MOSI line idles high.
	MOSIIdleHigh bool
	// ResetSingleTransaction folds the leading and trailing reset into the
	// same transfer as the data.
	ResetSingleTransaction bool
	// Reset is the latch hold time. Zero means DefaultReset.
	Reset time.Duration
	// Freq is the SPI clock. It only sizes the reset regions.
	Freq physic.Frequency
	// QueueDepth bounds the bytes in flight in Stream.
	QueueDepth int
	// Logger receives one event per frame. Nil discards.
	Logger *zerolog.Logger
}

// DefaultOpts returns the WS2812 defaults: GRB, idle low, separate resets.
func DefaultOpts() Opts {
	return Opts{
		Order:      model.OrderGRB,
		Reset:      DefaultReset,
		Freq:       DefaultFreq,
		QueueDepth: DefaultQueueDepth,
	}
}

// withDefaults returns a copy of o with zero fields filled in.
func (o *Opts) withDefaults() Opts {
	var v Opts
	if o != nil {
		v = *o
	}
	if v.Order == "" {
		v.Order = model.OrderGRB
	}
	if v.Reset == 0 {
		v.Reset = DefaultReset
	}
	if v.Freq == 0 {
		v.Freq = DefaultFreq
	}
	if v.QueueDepth == 0 {
		v.QueueDepth = DefaultQueueDepth
	}
	if v.Logger == nil {
		l := zerolog.Nop()
		v.Logger = &l
	}
	return v
}

// Validate checks o after defaults are applied.
func (o *Opts) Validate() error {
	v := o.withDefaults()
	if err := v.Order.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOpts, err)
	}
	if v.Freq < MinFreq || v.Freq > MaxFreq {
		return fmt.Errorf("%w: frequency %s outside %s..%s", ErrInvalidOpts, v.Freq, MinFreq, MaxFreq)
	}
	if v.Reset < 0 {
		return fmt.Errorf("%w: negative reset %s", ErrInvalidOpts, v.Reset)
	}
	if v.QueueDepth < 1 {
		return fmt.Errorf("%w: queue depth %d", ErrInvalidOpts, v.QueueDepth)
	}
	return nil
}

// Channels returns the arity selected by Order.
func (o *Opts) Channels() int {
	v := o.withDefaults()
	return v.Order.Channels()
}

// ResetLen is the length of one reset region in bytes.
func (o *Opts) ResetLen() int {
	v := o.withDefaults()
	return ResetLen(v.Freq, v.Reset)
}

// ResetLevel is the byte that holds the line at the non signaling level.
func (o *Opts) ResetLevel() byte {
	if o != nil && o.MOSIIdleHigh {
		return 0xFF
	}
	return 0x00
}

// dataMask is XORed into every data byte. Data is only inverted when it
// shares a transfer with an inverted reset.
func (o *Opts) dataMask() byte {
	if o != nil && o.MOSIIdleHigh && o.ResetSingleTransaction {
		return 0xFF
	}
	return 0x00
}

// leading reports whether a frame starts with a reset region.
func (o *Opts) leading() bool {
	return o != nil && (o.MOSIIdleHigh || o.ResetSingleTransaction)
}

// RequiredLen is the caller buffer length Prerendered needs for n pixels.
func (o *Opts) RequiredLen(n int) int {
	l := DataLen(n, o.Channels())
	if o != nil && o.ResetSingleTransaction {
		l += 2 * o.ResetLen()
	}
	return l
}

// FrameLen is the number of bytes put on the wire for n pixels, resets
// included.
func (o *Opts) FrameLen(n int) int {
	l := DataLen(n, o.Channels()) + o.ResetLen()
	if o.leading() {
		l += o.ResetLen()
	}
	return l
}
