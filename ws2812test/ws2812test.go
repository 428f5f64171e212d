// Package ws2812test implements fakes for the peripheral interfaces of
// package ws2812.
package ws2812test

import (
	"bytes"
	"errors"
	"sync"

	"github.com/coreman2200/ws2812spi/ws2812"
)

// ErrOverrun is returned by FIFO.Read once a received byte was dropped
// because the receive queue was full, like the OVR flag of most SPI blocks.
var ErrOverrun = errors.New("ws2812test: receive overrun")

// FIFO simulates a full duplex SPI data register with bounded transmit and
// receive queues.
//
// Time only advances when the FIFO is called: every Period calls to Send or
// Read, one queued byte is shifted out to Wire and one byte (MISO) is shifted
// in.
type FIFO struct {
	sync.Mutex
	// Depth is the transmit queue depth. Zero means 1.
	Depth int
	// RxDepth is the receive queue depth. Zero means Depth.
	RxDepth int
	// Period is the number of calls per shifted byte. Zero means 1.
	Period int
	// MISO is the byte shifted in for every byte shifted out.
	MISO byte
	// FailAfter makes Send fail with Err once this many bytes were accepted.
	// Zero disables fault injection.
	FailAfter int
	Err       error

	// Wire holds every byte shifted out, in order.
	Wire []byte
	// Blocked counts Send calls that returned ErrWouldBlock.
	Blocked int
	// MaxQueued is the highest transmit queue occupancy seen.
	MaxQueued int

	tx       []byte
	rx       []byte
	calls    int
	accepted int
	overrun  bool
}

func (f *FIFO) String() string {
	return "fifo"
}

func (f *FIFO) depth() int {
	if f.Depth <= 0 {
		return 1
	}
	return f.Depth
}

func (f *FIFO) rxDepth() int {
	if f.RxDepth <= 0 {
		return f.depth()
	}
	return f.RxDepth
}

func (f *FIFO) tick() {
	f.calls++
	p := f.Period
	if p <= 0 {
		p = 1
	}
	if f.calls%p != 0 || len(f.tx) == 0 {
		return
	}
	f.Wire = append(f.Wire, f.tx[0])
	f.tx = f.tx[1:]
	if len(f.rx) >= f.rxDepth() {
		f.overrun = true
		return
	}
	f.rx = append(f.rx, f.MISO)
}

// Send implements ws2812.Duplex.
func (f *FIFO) Send(b byte) error {
	f.Lock()
	defer f.Unlock()
	if f.FailAfter > 0 && f.accepted >= f.FailAfter {
		return f.Err
	}
	f.tick()
	if len(f.tx) >= f.depth() {
		f.Blocked++
		return ws2812.ErrWouldBlock
	}
	f.tx = append(f.tx, b)
	f.accepted++
	if len(f.tx) > f.MaxQueued {
		f.MaxQueued = len(f.tx)
	}
	return nil
}

// Read implements ws2812.Duplex.
func (f *FIFO) Read() (byte, error) {
	f.Lock()
	defer f.Unlock()
	if f.overrun {
		f.overrun = false
		return 0, ErrOverrun
	}
	if len(f.rx) == 0 {
		f.tick()
	}
	if len(f.rx) == 0 {
		return 0, ws2812.ErrWouldBlock
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b, nil
}

// Pending is the number of bytes still queued for transmission.
func (f *FIFO) Pending() int {
	f.Lock()
	defer f.Unlock()
	return len(f.tx)
}

// Recorder implements ws2812.Transferer and records every call.
type Recorder struct {
	sync.Mutex
	// Calls holds a copy of every transferred buffer.
	Calls [][]byte
	// FailAt makes the n-th call (1 based) fail with Err.
	FailAt int
	Err    error
}

func (r *Recorder) String() string {
	return "recorder"
}

// Transfer implements ws2812.Transferer.
func (r *Recorder) Transfer(w []byte) error {
	r.Lock()
	defer r.Unlock()
	if r.FailAt > 0 && len(r.Calls)+1 == r.FailAt {
		r.Calls = append(r.Calls, nil)
		return r.Err
	}
	r.Calls = append(r.Calls, append([]byte(nil), w...))
	return nil
}

// Bytes concatenates every successful transfer in order.
func (r *Recorder) Bytes() []byte {
	r.Lock()
	defer r.Unlock()
	return bytes.Join(r.Calls, nil)
}

var (
	_ ws2812.Duplex     = &FIFO{}
	_ ws2812.Transferer = &Recorder{}
)
