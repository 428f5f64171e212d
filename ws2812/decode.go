package ws2812

import (
	"fmt"

	"github.com/coreman2200/ws2812spi/model"
)

// Writer is implemented by Stream, Prerendered and Hosted.
type Writer interface {
	Write(src model.Source) error
}

var (
	_ Writer = (*Stream)(nil)
	_ Writer = (*Prerendered)(nil)
	_ Writer = (*Hosted)(nil)
)

// patternBits is the inverse of patterns; -1 marks an invalid byte.
var patternBits = func() (t [256]int8) {
	for i := range t {
		t[i] = -1
	}
	for bits, p := range patterns {
		t[p] = int8(bits)
	}
	return t
}()

// Decode recovers the colors carried by frame, the bytes as they appear on
// the wire under o. Reset level bytes before and after the data are skipped.
// It is meant for monitors and tests, not for the transmit path.
func Decode(frame []byte, o *Opts) ([]model.Color, error) {
	v := o.withDefaults()
	if err := v.Validate(); err != nil {
		return nil, err
	}
	level := v.ResetLevel()
	start, end := 0, len(frame)
	for start < end && frame[start] == level {
		start++
	}
	for end > start && frame[end-1] == level {
		end--
	}
	data := frame[start:end]
	per := v.Order.Channels() * BytesPerChannel
	// Pattern bytes never equal a reset level, so trimming is exact.
	if len(data)%per != 0 {
		return nil, fmt.Errorf("%w: %d data bytes is not a multiple of %d", ErrInvalidPattern, len(data), per)
	}
	mask := v.dataMask()
	out := make([]model.Color, 0, len(data)/per)
	var ch [4]byte
	for i := 0; i < len(data); i += per {
		for c := 0; c < v.Order.Channels(); c++ {
			var b byte
			for k := 0; k < BytesPerChannel; k++ {
				off := i + c*BytesPerChannel + k
				bits := patternBits[data[off]^mask]
				if bits < 0 {
					return nil, fmt.Errorf("%w: 0x%02X at offset %d", ErrInvalidPattern, data[off], start+off)
				}
				b = b<<2 | byte(bits)
			}
			ch[c] = b
		}
		out = append(out, v.Order.Get(ch[:v.Order.Channels()]))
	}
	return out, nil
}
