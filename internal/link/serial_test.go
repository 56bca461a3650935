package link

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"
)

func TestSerialStreamRoundTrip(t *testing.T) {
	c1, c2 := net.Pipe()
	a := NewSerialStream(c1, 32)
	b := NewSerialStream(c2, 32)
	defer a.Close()
	defer b.Close()

	frames := [][]byte{
		bytes.Repeat([]byte{0x11}, 32),
		{0xA5, 0x5A, 0xA5}, // marker bytes inside a frame are fine
		{},
	}
	go func() {
		for _, f := range frames {
			a.Send(f)
		}
	}()

	for i, want := range frames {
		got := waitReceive(t, b, 2*time.Second)
		if !bytes.Equal(got, want) {
			t.Fatalf("frame %d: got % X, want % X", i, got, want)
		}
	}
}

func TestSerialResyncsOnGarbage(t *testing.T) {
	raw, c2 := net.Pipe()
	b := NewSerialStream(c2, 32)
	defer b.Close()
	defer raw.Close()

	go func() {
		raw.Write([]byte{0x00, 0xA5, 0x13, 0x5A}) // noise, no marker
		raw.Write([]byte{0xA5, 0x5A, 200})        // length beyond the frame size
		raw.Write([]byte{0xA5, 0x5A, 3, 1, 2, 3})
	}()

	got := waitReceive(t, b, 2*time.Second)
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("got % X, want 01 02 03", got)
	}
}

func TestSerialSendErrors(t *testing.T) {
	c1, c2 := net.Pipe()
	a := NewSerialStream(c1, 8)
	defer c2.Close()

	if err := a.Send(make([]byte, 9)); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("got %v, want ErrFrameTooLarge", err)
	}
	a.Close()
	if err := a.Send([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("got %v, want ErrClosed", err)
	}
}
