// Package protocol defines the chunked frame format used to move one record
// across a link whose frames are smaller than the record, together with the
// Fragmenter (sender side) and Reassembler (receiver side).
package protocol

import (
	"errors"
	"fmt"

	"github.com/1ureka/padlink/internal/record"
)

// Wire layout of one frame:
//
//	PacketID (1) | ChunkIndex (1) | TotalChunks (1) | PayloadLength (1) | Payload (ChunkCap)
//
// The payload is always present at full capacity on the wire; only the first
// PayloadLength bytes are meaningful.
const (
	PacketIDSize      = 1
	ChunkIndexSize    = 1
	TotalChunksSize   = 1
	PayloadLengthSize = 1

	// HeaderSize is the metadata carried in front of every payload.
	HeaderSize = PacketIDSize + ChunkIndexSize + TotalChunksSize + PayloadLengthSize // 4 bytes

	// MaxFrameSize is the gross frame size of the radio (nRF24L01 static payload).
	MaxFrameSize = 32

	// DefaultChunkCap is the payload capacity of one frame on the default link.
	DefaultChunkCap = MaxFrameSize - HeaderSize // 28 bytes

	// maxField is the largest value an 8-bit header field can hold.
	maxField = 0xFF
)

var (
	ErrInvalidGeometry = errors.New("protocol: invalid geometry")
	ErrFrameSize       = errors.New("protocol: invalid frame size")
	ErrRecordSize      = errors.New("protocol: record size does not match geometry")
)

// Geometry fixes the record size and chunk capacity both ends agree on out of
// band. It never changes at runtime.
type Geometry struct {
	RecordSize int
	ChunkCap   int
}

// DefaultGeometry carries one record.Record in 32-byte radio frames.
var DefaultGeometry = Geometry{RecordSize: record.Size, ChunkCap: DefaultChunkCap}

// GeometryForFrameSize derives the chunk capacity from a link's gross frame size.
func GeometryForFrameSize(recordSize, maxFrameSize int) Geometry {
	return Geometry{RecordSize: recordSize, ChunkCap: maxFrameSize - HeaderSize}
}

// TotalChunks returns ceil(RecordSize / ChunkCap).
func (g Geometry) TotalChunks() int {
	if g.ChunkCap <= 0 {
		return 0
	}
	return (g.RecordSize + g.ChunkCap - 1) / g.ChunkCap
}

// FrameSize is the wire size of one frame.
func (g Geometry) FrameSize() int { return HeaderSize + g.ChunkCap }

// Validate checks that every header field fits in 8 bits.
func (g Geometry) Validate() error {
	switch {
	case g.RecordSize <= 0:
		return fmt.Errorf("%w: record size %d", ErrInvalidGeometry, g.RecordSize)
	case g.ChunkCap <= 0 || g.ChunkCap > maxField:
		return fmt.Errorf("%w: chunk capacity %d (must be 1..%d)", ErrInvalidGeometry, g.ChunkCap, maxField)
	case g.TotalChunks() > maxField:
		return fmt.Errorf("%w: %d chunks exceed %d", ErrInvalidGeometry, g.TotalChunks(), maxField)
	}
	return nil
}

// Frame is one transport unit: metadata plus a slice of a record's bytes.
type Frame struct {
	PacketID      uint8  // cycle discriminator, wraps modulo 256
	ChunkIndex    uint8  // 0..TotalChunks-1
	TotalChunks   uint8  // ceil(RecordSize / ChunkCap)
	PayloadLength uint8  // valid bytes in Payload
	Payload       []byte // ChunkCap bytes
}

// Data returns the meaningful part of the payload.
func (f Frame) Data() []byte {
	n := int(f.PayloadLength)
	if n > len(f.Payload) {
		n = len(f.Payload)
	}
	return f.Payload[:n]
}
