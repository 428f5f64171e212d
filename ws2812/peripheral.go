package ws2812

// Duplex is a byte oriented full duplex peripheral with a small hardware
// queue, the shape of a microcontroller SPI data register.
//
// Every byte sent shifts one byte in, which must be read back before the
// receive side overflows.
type Duplex interface {
	// Send queues b for transmission. It returns ErrWouldBlock while the
	// transmit queue is full.
	Send(b byte) error
	// Read returns the next received byte. It returns ErrWouldBlock when
	// nothing was received yet.
	Read() (byte, error)
}

// Transferer sends a whole buffer in one blocking call.
type Transferer interface {
	Transfer(w []byte) error
}

// TransferFunc adapts a function to Transferer.
type TransferFunc func(w []byte) error

func (f TransferFunc) Transfer(w []byte) error { return f(w) }
