package protocol

import "fmt"

// EncodeFrame serializes a Frame into exactly g.FrameSize() bytes. Payload bytes
// beyond the frame's slice are zero-filled.
func EncodeFrame(f Frame, g Geometry) []byte {
	buf := make([]byte, g.FrameSize())
	buf[0] = f.PacketID
	buf[1] = f.ChunkIndex
	buf[2] = f.TotalChunks
	buf[3] = f.PayloadLength
	copy(buf[HeaderSize:], f.Payload)
	return buf
}

// DecodeFrame deserializes a wire frame. Only the size is checked here; the
// metadata is validated by the Reassembler.
func DecodeFrame(data []byte, g Geometry) (Frame, error) {
	if len(data) != g.FrameSize() {
		return Frame{}, fmt.Errorf("%w: %d bytes (want %d)", ErrFrameSize, len(data), g.FrameSize())
	}
	f := Frame{
		PacketID:      data[0],
		ChunkIndex:    data[1],
		TotalChunks:   data[2],
		PayloadLength: data[3],
		Payload:       make([]byte, g.ChunkCap),
	}
	copy(f.Payload, data[HeaderSize:])
	return f, nil
}
