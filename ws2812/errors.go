package ws2812

import (
	"errors"
	"fmt"
)

var (
	// ErrWouldBlock is returned by a Duplex when the operation cannot complete
	// yet. Writers poll until it clears.
	ErrWouldBlock = errors.New("ws2812: would block")
	// ErrBufferTooShort is matched by *BufferTooShortError.
	ErrBufferTooShort = errors.New("ws2812: buffer too short")
	// ErrTransferFailed wraps every error reported by the peripheral.
	ErrTransferFailed = errors.New("ws2812: transfer failed")
	// ErrInvalidOpts is returned by Opts.Validate.
	ErrInvalidOpts = errors.New("ws2812: invalid options")
	// ErrInvalidPattern is returned by Decode on cells that are not a valid
	// protocol bit.
	ErrInvalidPattern = errors.New("ws2812: invalid bit pattern")
)

// BufferTooShortError reports the length a prerendered frame needs.
type BufferTooShortError struct {
	Need int
	Have int
}

func (e *BufferTooShortError) Error() string {
	return fmt.Sprintf("ws2812: buffer too short: need %d bytes, have %d", e.Need, e.Have)
}

func (e *BufferTooShortError) Is(target error) bool {
	return target == ErrBufferTooShort
}

func transferErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransferFailed, op, err)
}
