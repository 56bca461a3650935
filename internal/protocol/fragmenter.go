package protocol

import (
	"fmt"

	"github.com/1ureka/padlink/internal/record"
)

// Fragmenter splits records into ordered frames. Each call allocates a new
// packet ID from its own counter.
type Fragmenter struct {
	geom    Geometry
	total   int
	counter *PacketCounter
}

// NewFragmenter creates a Fragmenter whose first packet ID is 0.
func NewFragmenter(g Geometry) (*Fragmenter, error) {
	return NewFragmenterWithCounter(g, NewPacketCounter(0))
}

// NewFragmenterWithCounter creates a Fragmenter that draws IDs from c.
func NewFragmenterWithCounter(g Geometry, c *PacketCounter) (*Fragmenter, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Fragmenter{geom: g, total: g.TotalChunks(), counter: c}, nil
}

// Geometry returns the geometry the Fragmenter was built with.
func (f *Fragmenter) Geometry() Geometry { return f.geom }

// Fragment splits data (exactly RecordSize bytes) into TotalChunks frames.
// Only the last frame may carry fewer than ChunkCap bytes. The packet counter
// is not advanced when data has the wrong size.
func (f *Fragmenter) Fragment(data []byte) ([]Frame, error) {
	if len(data) != f.geom.RecordSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrRecordSize, len(data), f.geom.RecordSize)
	}

	id := f.counter.Next()
	frames := make([]Frame, f.total)
	for i := range frames {
		start := i * f.geom.ChunkCap
		end := min(start+f.geom.ChunkCap, len(data))

		payload := make([]byte, f.geom.ChunkCap)
		n := copy(payload, data[start:end])

		frames[i] = Frame{
			PacketID:      id,
			ChunkIndex:    uint8(i),
			TotalChunks:   uint8(f.total),
			PayloadLength: uint8(n),
			Payload:       payload,
		}
	}
	return frames, nil
}

// FragmentRecord encodes r and fragments it.
func (f *Fragmenter) FragmentRecord(r record.Record) ([]Frame, error) {
	enc := r.Encode()
	return f.Fragment(enc[:])
}
