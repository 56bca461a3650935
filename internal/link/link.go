// Package link provides the frame transports the protocol runs over: an
// in-process simulated radio, UDP datagrams, a transparent serial radio and
// a WebRTC DataChannel.
//
// Every Link is unreliable. Send is best effort and never retried; Receive
// is a non-blocking poll.
package link

import (
	"errors"
	"fmt"
)

var (
	ErrClosed        = errors.New("link: closed")
	ErrFrameTooLarge = errors.New("link: frame exceeds maximum size")
	ErrBusy          = errors.New("link: channel busy")
	ErrNotOpen       = errors.New("link: channel not open")
)

// Link is a frame-oriented, unreliable transport with a fixed maximum frame size.
type Link interface {
	// Send transmits one frame. A non-nil error means the frame was not sent;
	// callers log it and move on.
	Send(frame []byte) error
	// Receive returns the next available frame, or false if none is waiting.
	// It never blocks.
	Receive() ([]byte, bool)
	// MaxFrameSize is the gross frame size the link carries.
	MaxFrameSize() int
	// Close releases the link. Later sends return ErrClosed.
	Close() error
}

// DefaultQueueSize bounds every receive queue.
const DefaultQueueSize = 64

func checkFrame(frame []byte, max int) error {
	if len(frame) > max {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, len(frame), max)
	}
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
