package ws2812

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// DefaultReset is the latch hold time. Older chips latch after 50µs, newer
// WS2812B revisions need 280µs.
const DefaultReset = 300 * time.Microsecond

// ResetLen returns the number of output bytes needed to hold the line for
// hold at clock f, rounded up.
func ResetLen(f physic.Frequency, hold time.Duration) int {
	if f <= 0 || hold <= 0 {
		return 0
	}
	hz := int64(f / physic.Hertz)
	bits := (hold.Nanoseconds()*hz + int64(time.Second) - 1) / int64(time.Second)
	return int((bits + 7) / 8)
}

// FillReset sets every byte of dst to level.
func FillReset(dst []byte, level byte) {
	for i := range dst {
		dst[i] = level
	}
}
