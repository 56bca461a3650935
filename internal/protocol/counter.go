package protocol

// PacketCounter allocates packet IDs for one Fragmenter. It wraps from 255
// to 0 and is owned by a single producer, so it is not safe for concurrent use.
type PacketCounter struct {
	next uint8
}

// NewPacketCounter creates a counter whose first Next() returns start.
func NewPacketCounter(start uint8) *PacketCounter {
	return &PacketCounter{next: start}
}

// Next returns the current ID and advances the counter.
func (c *PacketCounter) Next() uint8 {
	id := c.next
	c.next++
	return id
}

// Peek returns the ID the next call to Next will return.
func (c *PacketCounter) Peek() uint8 { return c.next }
