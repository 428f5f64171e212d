// Package spi connects the ws2812 writers to a periph.io SPI port.
//
// Bus implements both peripheral capabilities of package ws2812. As a
// Transferer it hands each buffer to the kernel in one transaction, split in
// packets that keep CS asserted when the driver limits the transfer size. As
// a Duplex it emulates a transmit FIFO of a configurable depth on top of
// Conn.Tx. Gaps between two Tx calls are visible on the wire, so on hosted
// platforms the Hosted writer is the one to use; the Duplex side exists for
// parity and for testing the streaming writer against periph fakes.
package spi

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/ws2812spi/ws2812"
)

// DefaultDepth is the emulated FIFO depth used by Open.
const DefaultDepth = 64

// Bus adapts a spi.Conn to ws2812.Transferer and ws2812.Duplex.
type Bus struct {
	mu    sync.Mutex
	c     spi.Conn
	port  spi.PortCloser
	depth int
	max   int

	tx    []byte
	rx    []byte
	idle  bool
	flush int
}

// New wraps an already connected spi.Conn. depth is the emulated FIFO depth
// of the Duplex side; values below 1 mean 1.
func New(c spi.Conn, depth int) *Bus {
	if depth < 1 {
		depth = 1
	}
	b := &Bus{c: c, depth: depth}
	if l, ok := c.(conn.Limits); ok {
		b.max = l.MaxTxSize()
	}
	return b
}

// Connect connects p in mode 0 with 8 bits words at f. The returned Bus owns
// p and closes it in Close.
func Connect(p spi.PortCloser, f physic.Frequency, depth int) (*Bus, error) {
	if err := p.LimitSpeed(f); err != nil {
		return nil, fmt.Errorf("spi: limit speed to %s: %w", f, err)
	}
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("spi: connect %s: %w", p, err)
	}
	b := New(c, depth)
	b.port = p
	return b, nil
}

// Open initializes the host drivers and opens the named SPI port ("" for
// the first one registered) at f.
func Open(name string, f physic.Frequency) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("spi: host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("spi: open %q: %w", name, err)
	}
	b, err := Connect(p, f, DefaultDepth)
	if err != nil {
		p.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bus) String() string {
	return fmt.Sprintf("ws2812spi{%s}", b.c)
}

// MaxTxSize is the per transaction limit reported by the driver, 0 if none.
func (b *Bus) MaxTxSize() int {
	return b.max
}

// Transfer implements ws2812.Transferer.
func (b *Bus) Transfer(w []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max <= 0 || len(w) <= b.max {
		return b.c.Tx(w, nil)
	}
	pkts := make([]spi.Packet, 0, (len(w)+b.max-1)/b.max)
	for off := 0; off < len(w); off += b.max {
		end := off + b.max
		if end > len(w) {
			end = len(w)
		}
		pkts = append(pkts, spi.Packet{W: w[off:end], KeepCS: end < len(w)})
	}
	return b.c.TxPackets(pkts)
}

// Send implements ws2812.Duplex. The queued bytes are clocked out in one Tx
// once the queue is full.
func (b *Bus) Send(v byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.idle = false
	if len(b.tx) >= b.depth {
		if len(b.rx) > 0 {
			return ws2812.ErrWouldBlock
		}
		if err := b.clock(); err != nil {
			return err
		}
	}
	b.tx = append(b.tx, v)
	return nil
}

// Read implements ws2812.Duplex. A Read that finds nothing to return right
// after another empty Read clocks out a partially filled queue, which lets a
// writer finish a frame shorter than the queue.
func (b *Bus) Read() (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.rx) == 0 && len(b.tx) > 0 && b.idle {
		if err := b.clock(); err != nil {
			return 0, err
		}
	}
	if len(b.rx) == 0 {
		b.idle = true
		return 0, ws2812.ErrWouldBlock
	}
	v := b.rx[0]
	b.rx = b.rx[1:]
	return v, nil
}

// clock sends the queued bytes and makes the received bytes readable. MISO is
// only sampled on full duplex connections; otherwise zeros are read back.
func (b *Bus) clock() error {
	b.flush++
	r := make([]byte, len(b.tx))
	var rd []byte
	if b.c.Duplex() == conn.Full {
		rd = r
	}
	err := b.c.Tx(b.tx, rd)
	b.tx = b.tx[:0]
	if err != nil {
		return err
	}
	b.rx = r
	return nil
}

// Flushes is the number of Tx calls issued by the Duplex side.
func (b *Bus) Flushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flush
}

// Close releases the port when the Bus was created by Open or Connect.
func (b *Bus) Close() error {
	if b.port == nil {
		return nil
	}
	return b.port.Close()
}

var (
	_ ws2812.Transferer = &Bus{}
	_ ws2812.Duplex     = &Bus{}
)
