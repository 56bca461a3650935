// Package record defines the controller snapshot carried over the radio link.
//
// The snapshot has a fixed field order and a fixed little-endian encoding so
// that both ends agree on its size without depending on struct padding.
package record

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Size is the encoded size of a Record in bytes:
// id(1) + dpad(1) + axes(4*4) + brake/throttle(2*4) + buttons(2) + misc(1) + gyro(3*4) + accel(3*4).
const Size = 53

// NoController is the ID reported when no controller is connected.
const NoController int8 = -1

// Button bitmask (Record.Buttons).
const (
	ButtonA         uint16 = 0x01
	ButtonB         uint16 = 0x02
	ButtonX         uint16 = 0x04
	ButtonY         uint16 = 0x08
	ButtonShoulderL uint16 = 0x10
	ButtonShoulderR uint16 = 0x20
	ButtonTriggerL  uint16 = 0x40
	ButtonTriggerR  uint16 = 0x80
	ButtonThumbL    uint16 = 0x100
	ButtonThumbR    uint16 = 0x200
)

// Misc button bitmask (Record.Misc).
const (
	MiscSystem  uint8 = 0x01
	MiscSelect  uint8 = 0x02
	MiscStart   uint8 = 0x04
	MiscCapture uint8 = 0x08
)

// ErrSize is returned when decoding a buffer that is not exactly Size bytes.
var ErrSize = errors.New("record: invalid encoded size")

// Record is one device-state snapshot.
type Record struct {
	ID   int8  // controller index, NoController if none
	Dpad uint8 // directional pad state

	AxisX  int32 // left stick, -512..512
	AxisY  int32
	AxisRX int32 // right stick, -512..512
	AxisRY int32

	Brake    uint32 // 0..1023
	Throttle uint32 // 0..1023

	Buttons uint16 // ButtonXxx bitmask
	Misc    uint8  // MiscXxx bitmask

	Gyro  [3]int32 // deg/sec
	Accel [3]int32
}

// Disconnected returns the snapshot sent while no controller is present.
func Disconnected() Record {
	return Record{ID: NoController}
}

// Encode serializes r field by field.
func (r Record) Encode() [Size]byte {
	var buf [Size]byte
	buf[0] = byte(r.ID)
	buf[1] = r.Dpad

	off := 2
	for _, v := range [...]int32{r.AxisX, r.AxisY, r.AxisRX, r.AxisRY} {
		binary.LittleEndian.PutUint32(buf[off:], uint32(v))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:], r.Brake)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], r.Throttle)
	off += 4
	binary.LittleEndian.PutUint16(buf[off:], r.Buttons)
	off += 2
	buf[off] = r.Misc
	off++
	for _, v := range r.Gyro {
		binary.LittleEndian.PutUint32(buf[off:], uint32(v))
		off += 4
	}
	for _, v := range r.Accel {
		binary.LittleEndian.PutUint32(buf[off:], uint32(v))
		off += 4
	}
	return buf
}

// AppendBinary appends the encoded record to b.
func (r Record) AppendBinary(b []byte) ([]byte, error) {
	enc := r.Encode()
	return append(b, enc[:]...), nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r Record) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(make([]byte, 0, Size))
}

// Decode parses an encoded record.
func Decode(data []byte) (Record, error) {
	if len(data) != Size {
		return Record{}, fmt.Errorf("%w: got %d bytes, want %d", ErrSize, len(data), Size)
	}

	var r Record
	r.ID = int8(data[0])
	r.Dpad = data[1]

	off := 2
	axes := [...]*int32{&r.AxisX, &r.AxisY, &r.AxisRX, &r.AxisRY}
	for _, p := range axes {
		*p = int32(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	r.Brake = binary.LittleEndian.Uint32(data[off:])
	off += 4
	r.Throttle = binary.LittleEndian.Uint32(data[off:])
	off += 4
	r.Buttons = binary.LittleEndian.Uint16(data[off:])
	off += 2
	r.Misc = data[off]
	off++
	for i := range r.Gyro {
		r.Gyro[i] = int32(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	for i := range r.Accel {
		r.Accel[i] = int32(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	return r, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Record) UnmarshalBinary(data []byte) error {
	dec, err := Decode(data)
	if err != nil {
		return err
	}
	*r = dec
	return nil
}

// Connected reports whether the snapshot comes from a connected controller.
func (r Record) Connected() bool { return r.ID != NoController }

// Pressed reports whether every bit of mask is set in Buttons.
func (r Record) Pressed(mask uint16) bool { return r.Buttons&mask == mask }

// MiscPressed reports whether every bit of mask is set in Misc.
func (r Record) MiscPressed(mask uint8) bool { return r.Misc&mask == mask }

func (r Record) A() bool      { return r.Pressed(ButtonA) }
func (r Record) B() bool      { return r.Pressed(ButtonB) }
func (r Record) X() bool      { return r.Pressed(ButtonX) }
func (r Record) Y() bool      { return r.Pressed(ButtonY) }
func (r Record) L1() bool     { return r.Pressed(ButtonShoulderL) }
func (r Record) L2() bool     { return r.Pressed(ButtonTriggerL) }
func (r Record) R1() bool     { return r.Pressed(ButtonShoulderR) }
func (r Record) R2() bool     { return r.Pressed(ButtonTriggerR) }
func (r Record) ThumbL() bool { return r.Pressed(ButtonThumbL) }
func (r Record) ThumbR() bool { return r.Pressed(ButtonThumbR) }

func (r Record) System() bool  { return r.MiscPressed(MiscSystem) }
func (r Record) Select() bool  { return r.MiscPressed(MiscSelect) }
func (r Record) Start() bool   { return r.MiscPressed(MiscStart) }
func (r Record) Capture() bool { return r.MiscPressed(MiscCapture) }

// String renders the snapshot in a single diagnostic line.
func (r Record) String() string {
	if !r.Connected() {
		return "controller: disconnected"
	}
	return fmt.Sprintf(
		"dpad: 0x%02x, buttons: 0x%04x, axis L: %4d, %4d, axis R: %4d, %4d, "+
			"brake: %4d, throttle: %4d, misc: 0x%02x, "+
			"gyro x:%6d y:%6d z:%6d, accel x:%6d y:%6d z:%6d",
		r.Dpad, r.Buttons,
		r.AxisX, r.AxisY, r.AxisRX, r.AxisRY,
		r.Brake, r.Throttle, r.Misc,
		r.Gyro[0], r.Gyro[1], r.Gyro[2],
		r.Accel[0], r.Accel[1], r.Accel[2],
	)
}
