package link

import (
	"math/rand"
	"sync"
	"sync/atomic"
)

// SimOptions shapes the behaviour of a simulated radio. Probabilities are
// in [0, 1] and applied per frame.
type SimOptions struct {
	MaxFrameSize int     // default 32
	QueueSize    int     // default DefaultQueueSize
	Loss         float64 // frame silently vanishes
	Duplicate    float64 // frame is delivered twice
	Reorder      float64 // frame is held back and delivered after the next one
	Busy         float64 // Send fails with ErrBusy
	Seed         int64
}

// simChannel is the shared medium between the two ends of a pair.
type simChannel struct {
	mu   sync.Mutex
	rng  *rand.Rand
	opts SimOptions
}

func (c *simChannel) roll(p float64) bool {
	if p <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64() < p
}

// Sim is one end of an in-process lossy radio.
type Sim struct {
	ch     *simChannel
	inbox  *queue
	peer   *Sim
	closed atomic.Bool

	heldMu sync.Mutex
	held   []byte // frame waiting to be delivered out of order
}

// NewSimPair returns two connected ends. Frames sent on one arrive on the other.
func NewSimPair(opts SimOptions) (*Sim, *Sim) {
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = 32
	}
	ch := &simChannel{rng: rand.New(rand.NewSource(opts.Seed)), opts: opts}
	a := &Sim{ch: ch, inbox: newQueue(opts.QueueSize)}
	b := &Sim{ch: ch, inbox: newQueue(opts.QueueSize)}
	a.peer, b.peer = b, a
	return a, b
}

func (s *Sim) Send(frame []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := checkFrame(frame, s.ch.opts.MaxFrameSize); err != nil {
		return err
	}
	if s.ch.roll(s.ch.opts.Busy) {
		return ErrBusy
	}
	if s.ch.roll(s.ch.opts.Loss) {
		return nil
	}

	data := clone(frame)

	s.heldMu.Lock()
	defer s.heldMu.Unlock()

	if s.held == nil && s.ch.roll(s.ch.opts.Reorder) {
		s.held = data
		return nil
	}

	s.deliver(data)
	if s.held != nil {
		s.deliver(s.held)
		s.held = nil
	}
	return nil
}

func (s *Sim) deliver(data []byte) {
	if s.peer.closed.Load() {
		return
	}
	s.peer.inbox.push(data)
	if s.ch.roll(s.ch.opts.Duplicate) {
		s.peer.inbox.push(clone(data))
	}
}

// Flush delivers a frame held back for reordering, if any.
func (s *Sim) Flush() {
	s.heldMu.Lock()
	defer s.heldMu.Unlock()
	if s.held != nil {
		s.deliver(s.held)
		s.held = nil
	}
}

func (s *Sim) Receive() ([]byte, bool) {
	if s.closed.Load() {
		return nil, false
	}
	return s.inbox.pop()
}

func (s *Sim) MaxFrameSize() int { return s.ch.opts.MaxFrameSize }

// Pending is the number of frames waiting to be received.
func (s *Sim) Pending() int { return s.inbox.len() }

// Overflows is the number of frames dropped because the inbox was full.
func (s *Sim) Overflows() int64 { return s.inbox.overflows() }

func (s *Sim) Close() error {
	s.closed.Store(true)
	return nil
}
