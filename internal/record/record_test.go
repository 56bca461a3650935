package record

import (
	"errors"
	"strings"
	"testing"
)

func sample() Record {
	return Record{
		ID:       0,
		Dpad:     0x03,
		AxisX:    -512,
		AxisY:    511,
		AxisRX:   -1,
		AxisRY:   200,
		Brake:    1023,
		Throttle: 17,
		Buttons:  ButtonA | ButtonThumbL,
		Misc:     MiscStart,
		Gyro:     [3]int32{-100000, 0, 42},
		Accel:    [3]int32{1, -2, 3},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		rec  Record
	}{
		{name: "zero value", rec: Record{}},
		{name: "disconnected", rec: Disconnected()},
		{name: "populated", rec: sample()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enc := tc.rec.Encode()
			got, err := Decode(enc[:])
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got != tc.rec {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tc.rec)
			}
		})
	}
}

func TestEncodeLayout(t *testing.T) {
	r := Record{ID: -1, Dpad: 0x7, AxisX: 1, Buttons: 0x0201, Misc: 0x08, Accel: [3]int32{0, 0, -1}}
	enc := r.Encode()

	if enc[0] != 0xFF {
		t.Errorf("id byte = 0x%02X, want 0xFF", enc[0])
	}
	if enc[1] != 0x07 {
		t.Errorf("dpad byte = 0x%02X, want 0x07", enc[1])
	}
	// axisX little-endian at offset 2
	if enc[2] != 0x01 || enc[3] != 0 || enc[4] != 0 || enc[5] != 0 {
		t.Errorf("axisX bytes = % X, want 01 00 00 00", enc[2:6])
	}
	// buttons at offset 26, misc at 28
	if enc[26] != 0x01 || enc[27] != 0x02 {
		t.Errorf("buttons bytes = % X, want 01 02", enc[26:28])
	}
	if enc[28] != 0x08 {
		t.Errorf("misc byte = 0x%02X, want 0x08", enc[28])
	}
	for i := Size - 4; i < Size; i++ {
		if enc[i] != 0xFF {
			t.Fatalf("accel z byte %d = 0x%02X, want 0xFF", i, enc[i])
		}
	}
}

func TestDecodeWrongSize(t *testing.T) {
	for _, n := range []int{0, Size - 1, Size + 1} {
		_, err := Decode(make([]byte, n))
		if !errors.Is(err, ErrSize) {
			t.Errorf("Decode(%d bytes) err = %v, want ErrSize", n, err)
		}
	}
}

func TestBinaryMarshaler(t *testing.T) {
	in := sample()
	data, err := in.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(data) != Size {
		t.Fatalf("MarshalBinary len = %d, want %d", len(data), Size)
	}

	var out Record
	if err := out.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestButtons(t *testing.T) {
	r := Record{Buttons: ButtonB | ButtonShoulderR | ButtonThumbR, Misc: MiscSelect | MiscCapture}

	if r.A() || !r.B() || r.X() || r.Y() {
		t.Errorf("face buttons wrong for 0x%04x", r.Buttons)
	}
	if r.L1() || !r.R1() || r.L2() || r.R2() {
		t.Errorf("shoulder buttons wrong for 0x%04x", r.Buttons)
	}
	if r.ThumbL() || !r.ThumbR() {
		t.Errorf("thumb buttons wrong for 0x%04x", r.Buttons)
	}
	if r.System() || !r.Select() || r.Start() || !r.Capture() {
		t.Errorf("misc buttons wrong for 0x%02x", r.Misc)
	}
}

func TestString(t *testing.T) {
	if got := Disconnected().String(); got != "controller: disconnected" {
		t.Errorf("Disconnected().String() = %q", got)
	}
	s := sample().String()
	for _, want := range []string{"dpad: 0x03", "buttons: 0x0101", "axis L: -512,  511", "misc: 0x04"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
