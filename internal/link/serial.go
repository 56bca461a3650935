package link

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goburrow/serial"

	"github.com/1ureka/padlink/internal/util"
)

// Serial framing: sync marker, length byte, frame bytes. The reader hunts
// for the marker, so a corrupted or truncated frame costs at most one frame.
const (
	syncByte0 = 0xA5
	syncByte1 = 0x5A
)

// SerialOptions opens a transparent serial radio (HC-12, USB nRF24 bridge).
type SerialOptions struct {
	Address      string
	BaudRate     int
	Timeout      time.Duration
	MaxFrameSize int
}

// Serial carries frames over a byte stream.
type Serial struct {
	port     io.ReadWriteCloser
	maxFrame int
	inbox    *queue

	wmu    sync.Mutex
	closed atomic.Bool
	done   chan struct{}
}

// DefaultSerialTimeout bounds each port read so Close can stop the reader.
const DefaultSerialTimeout = 50 * time.Millisecond

// OpenSerial opens the port 8N1 and starts the reader.
func OpenSerial(opts SerialOptions) (*Serial, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSerialTimeout
	}
	port, err := serial.Open(&serial.Config{
		Address:  opts.Address,
		BaudRate: opts.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  opts.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", opts.Address, err)
	}
	util.LogDebug("serial link open on %s at %d baud", opts.Address, opts.BaudRate)
	return NewSerialStream(port, opts.MaxFrameSize), nil
}

// NewSerialStream frames an already open stream.
func NewSerialStream(rw io.ReadWriteCloser, maxFrameSize int) *Serial {
	s := &Serial{
		port:     rw,
		maxFrame: maxFrameSize,
		inbox:    newQueue(DefaultQueueSize),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Serial) readLoop() {
	defer close(s.done)

	r := bufio.NewReader(timeoutReader{s.port})
	for {
		frame, err := s.readFrame(r)
		if err != nil {
			if !s.closed.Load() && !errors.Is(err, io.EOF) {
				util.LogWarning("serial read failed: %v", err)
			}
			return
		}
		if frame != nil {
			s.inbox.push(frame)
		}
	}
}

// readFrame returns nil, nil for a frame that failed the length check.
func (s *Serial) readFrame(r *bufio.Reader) ([]byte, error) {
	if err := hunt(r); err != nil {
		return nil, err
	}

	n, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if int(n) > s.maxFrame {
		util.LogDebug("serial frame length %d exceeds %d, resyncing", n, s.maxFrame)
		return nil, nil
	}

	frame := make([]byte, n)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// hunt consumes bytes until the sync marker has been read.
func hunt(r *bufio.Reader) error {
	prev := -1
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if prev == syncByte0 && b == syncByte1 {
			return nil
		}
		prev = int(b)
	}
}

func (s *Serial) Send(frame []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := checkFrame(frame, s.maxFrame); err != nil {
		return err
	}

	buf := make([]byte, 0, len(frame)+3)
	buf = append(buf, syncByte0, syncByte1, byte(len(frame)))
	buf = append(buf, frame...)

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := s.port.Write(buf); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (s *Serial) Receive() ([]byte, bool) {
	if s.closed.Load() {
		return nil, false
	}
	return s.inbox.pop()
}

func (s *Serial) MaxFrameSize() int { return s.maxFrame }

func (s *Serial) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	err := s.port.Close()
	<-s.done
	return err
}

// timeoutReader turns port read timeouts into empty reads so the reader
// keeps polling instead of giving up.
type timeoutReader struct{ r io.Reader }

func (t timeoutReader) Read(p []byte) (int, error) {
	for {
		n, err := t.r.Read(p)
		if errors.Is(err, serial.ErrTimeout) {
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}
