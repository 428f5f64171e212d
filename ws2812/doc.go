// Package ws2812 drives WS2812/SK6812 class LEDs from a plain SPI peripheral.
//
// The single wire protocol of these chips is self clocked: every bit is a
// pulse whose high time tells a 0 from a 1. A SPI controller clocked in the
// 2 MHz to 3.8 MHz range can reproduce it on MOSI by sending 4 cells per
// protocol bit:
//
//	protocol 0 -> 1000 (short high, long low)
//	protocol 1 -> 1110 (long high, short low)
//
// so each output byte carries two protocol bits and each color channel
// becomes 4 output bytes. A frame is latched by holding the line at its
// reset level for about 300µs.
//
// # Write strategies
//
// Stream encodes while transmitting and needs no frame buffer, but the caller
// must keep the peripheral's transmit queue filled: any pause longer than
// the chip's reset threshold latches a partial frame. Nothing can detect this.
//
// Prerendered encodes the whole frame into a caller supplied buffer first and
// then transmits it, so the encoder speed does not matter. Size the buffer
// with Opts.RequiredLen.
//
// Hosted is Prerendered with both reset regions folded into the buffer and a
// single transfer call, for hosts like Linux spidev where the only primitive
// is "send this whole buffer".
//
// # Polarity
//
// Some controllers idle MOSI high. With Opts.MOSIIdleHigh the reset regions
// are sent at the inverted level and a leading reset is always emitted. When
// the reset is also folded into the data transfer (ResetSingleTransaction)
// the data cells are inverted as well.
package ws2812
