package protocol

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/1ureka/padlink/internal/util"
)

// Status is the outcome of feeding one frame to a Reassembler.
type Status int

const (
	Incomplete Status = iota
	Discarded
	Completed
)

func (s Status) String() string {
	switch s {
	case Incomplete:
		return "incomplete"
	case Discarded:
		return "discarded"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Reason explains a Discarded result.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonPacketIDMismatch
	ReasonChunkIndexOutOfRange
	ReasonInvalidLength
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonPacketIDMismatch:
		return "packet-id-mismatch"
	case ReasonChunkIndexOutOfRange:
		return "chunk-index-out-of-range"
	case ReasonInvalidLength:
		return "invalid-length"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

var (
	ErrPacketIDMismatch     = errors.New("protocol: packet id mismatch")
	ErrChunkIndexOutOfRange = errors.New("protocol: chunk index out of range")
	ErrInvalidLength        = errors.New("protocol: invalid payload length")
)

// Err maps the reason to its sentinel error, or nil for ReasonNone.
func (r Reason) Err() error {
	switch r {
	case ReasonPacketIDMismatch:
		return ErrPacketIDMismatch
	case ReasonChunkIndexOutOfRange:
		return ErrChunkIndexOutOfRange
	case ReasonInvalidLength:
		return ErrInvalidLength
	}
	return nil
}

// Result is returned for every accepted frame. Record is set only when
// Status is Completed and is owned by the caller.
type Result struct {
	Status Status
	Reason Reason
	Record []byte
}

// Err returns the discard reason as an error, nil unless Status is Discarded.
func (r Result) Err() error {
	if r.Status != Discarded {
		return nil
	}
	return r.Reason.Err()
}

// Completion selects how the Reassembler decides a record is whole.
type Completion int

const (
	// CompletionIndexSet completes once every chunk index has been seen.
	CompletionIndexSet Completion = iota
	// CompletionCount completes once TotalChunks frames have been accepted,
	// duplicates included. A duplicated chunk can therefore complete a record
	// whose missing chunk still holds zeroes.
	CompletionCount
)

func (c Completion) String() string {
	if c == CompletionCount {
		return "count"
	}
	return "index"
}

// ParseCompletion accepts "index" or "count".
func ParseCompletion(s string) (Completion, error) {
	switch s {
	case "", "index":
		return CompletionIndexSet, nil
	case "count":
		return CompletionCount, nil
	}
	return 0, fmt.Errorf("protocol: unknown completion mode %q", s)
}

// Option configures a Reassembler.
type Option func(*Reassembler)

// WithCompletion sets the completion policy. The default is CompletionIndexSet.
func WithCompletion(c Completion) Option {
	return func(r *Reassembler) { r.completion = c }
}

// State is a snapshot of the in-progress cycle.
type State struct {
	ExpectedPacketID    uint8
	ExpectedTotalChunks uint8
	ReceivedChunks      int
}

// Reassembler rebuilds records from frames that may be lost, duplicated or
// interleaved with a newer record. It is owned by a single polling loop and
// needs no locking.
type Reassembler struct {
	geom       Geometry
	completion Completion

	expectedID    uint8
	expectedTotal uint8
	received      int
	seen          *bitset.BitSet
	buffer        []byte
}

// NewReassembler creates a Reassembler in the fresh state.
func NewReassembler(g Geometry, opts ...Option) (*Reassembler, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	r := &Reassembler{
		geom:   g,
		seen:   bitset.New(uint(g.TotalChunks())),
		buffer: make([]byte, g.RecordSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Geometry returns the geometry the Reassembler was built with.
func (r *Reassembler) Geometry() Geometry { return r.geom }

// Completion returns the active completion policy.
func (r *Reassembler) Completion() Completion { return r.completion }

// State returns the current cycle bookkeeping.
func (r *Reassembler) State() State {
	return State{
		ExpectedPacketID:    r.expectedID,
		ExpectedTotalChunks: r.expectedTotal,
		ReceivedChunks:      r.received,
	}
}

// Reset abandons any partial record and returns to the fresh state.
func (r *Reassembler) Reset() {
	r.expectedID = 0
	r.expectedTotal = 0
	r.beginCycle()
}

func (r *Reassembler) beginCycle() {
	r.received = 0
	r.seen.ClearAll()
	clear(r.buffer)
}

// Accept feeds one frame. Chunk 0 always starts a new cycle, abandoning any
// partial record, unless its total disagrees with the geometry. Frames from
// another cycle are discarded without touching the current one.
func (r *Reassembler) Accept(f Frame) Result {
	if f.ChunkIndex == 0 {
		if int(f.TotalChunks) != r.geom.TotalChunks() {
			util.LogWarning("chunk 0 of packet %d announces %d chunks, record has %d, discarding",
				f.PacketID, f.TotalChunks, r.geom.TotalChunks())
			return discard(ReasonChunkIndexOutOfRange)
		}
		r.beginCycle()
		r.expectedID = f.PacketID
		r.expectedTotal = f.TotalChunks
	}

	if f.PacketID != r.expectedID {
		util.LogWarning("unexpected packet id %d, last expected %d, discarding", f.PacketID, r.expectedID)
		return discard(ReasonPacketIDMismatch)
	}

	if f.ChunkIndex >= r.expectedTotal || int(f.ChunkIndex) >= r.geom.TotalChunks() {
		util.LogWarning("invalid chunk index %d, expected total %d, discarding", f.ChunkIndex, r.expectedTotal)
		return discard(ReasonChunkIndexOutOfRange)
	}

	n := int(f.PayloadLength)
	offset := int(f.ChunkIndex) * r.geom.ChunkCap
	if n > r.geom.ChunkCap || n > len(f.Payload) || offset+n > r.geom.RecordSize {
		util.LogWarning("invalid data bytes %d, capacity %d, discarding", n, r.geom.ChunkCap)
		return discard(ReasonInvalidLength)
	}

	copy(r.buffer[offset:], f.Payload[:n])

	switch r.completion {
	case CompletionCount:
		r.received++
	default:
		idx := uint(f.ChunkIndex)
		if r.seen.Test(idx) {
			util.LogDebug("duplicate chunk %d of packet %d", f.ChunkIndex, f.PacketID)
			return Result{Status: Incomplete}
		}
		r.seen.Set(idx)
		r.received = int(r.seen.Count())
	}

	util.LogDebug("packet %d: chunk %d/%d received", f.PacketID, r.received, r.expectedTotal)

	if r.received < int(r.expectedTotal) {
		return Result{Status: Incomplete}
	}

	rec := make([]byte, len(r.buffer))
	copy(rec, r.buffer)
	r.Reset()
	return Result{Status: Completed, Record: rec}
}

// AcceptBytes decodes a wire frame and feeds it. A frame of the wrong size is
// reported as an error and leaves the state untouched.
func (r *Reassembler) AcceptBytes(data []byte) (Result, error) {
	f, err := DecodeFrame(data, r.geom)
	if err != nil {
		return Result{}, err
	}
	return r.Accept(f), nil
}

func discard(reason Reason) Result {
	return Result{Status: Discarded, Reason: reason}
}
