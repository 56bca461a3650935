// Package pad models the joystick shield that produces the records: analog
// stick calibration, dead-zone directions, the seven shield buttons and the
// mapping onto record.Record.
package pad

import (
	"strings"

	"github.com/1ureka/padlink/internal/record"
)

// Analog input range of the shield's 10-bit ADC.
const (
	AnalogMin    = 0
	AnalogMax    = 1023
	AnalogCenter = 512

	// AxisLimit bounds calibrated axis values to [-AxisLimit, AxisLimit].
	AxisLimit = 512

	// DeadZone is the distance from center below which the stick is centered.
	DeadZone = 100

	// CalibrationSamples is how many readings average into the center.
	CalibrationSamples = 5
)

// Sample is one raw stick reading.
type Sample struct {
	X, Y int
}

// Calibration holds the stick's measured center and its range.
type Calibration struct {
	XCenter, YCenter int
	XMin, XMax       int
	YMin, YMax       int
	Calibrated       bool
}

// Calibrate averages samples into the center. The range is the full ADC
// range. An empty sample set yields an uncalibrated result.
func Calibrate(samples []Sample) Calibration {
	if len(samples) == 0 {
		return Calibration{}
	}
	var xs, ys int
	for _, s := range samples {
		xs += s.X
		ys += s.Y
	}
	return Calibration{
		XCenter:    xs / len(samples),
		YCenter:    ys / len(samples),
		XMin:       AnalogMin,
		XMax:       AnalogMax,
		YMin:       AnalogMin,
		YMax:       AnalogMax,
		Calibrated: true,
	}
}

// mapRange is Arduino's map(): integer linear interpolation that truncates
// toward zero and does not clamp.
func mapRange(x, inMin, inMax, outMin, outMax int) int {
	if inMax == inMin {
		return outMax
	}
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// calibrateAxis maps a raw reading to [-512, 512] around center.
func calibrateAxis(raw, center, lo, hi int) int {
	var v int
	if raw > center {
		v = mapRange(raw, center, hi, 0, AxisLimit)
	} else {
		v = mapRange(raw, lo, center, -AxisLimit, 0)
	}
	return clamp(v, -AxisLimit, AxisLimit)
}

// Apply converts a raw sample to calibrated axis values. Without calibration
// the raw value is only shifted by the nominal center.
func (c Calibration) Apply(s Sample) (x, y int) {
	if !c.Calibrated {
		return s.X - AnalogCenter, s.Y - AnalogCenter
	}
	return calibrateAxis(s.X, c.XCenter, c.XMin, c.XMax),
		calibrateAxis(s.Y, c.YCenter, c.YMin, c.YMax)
}

// Direction is the coarse position of one stick axis.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
	Center
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Center:
		return "CENTER"
	}
	return "UNKNOWN"
}

// DirectionOf classifies an analog value against center with the dead zone.
// Vertical axes report Up/Down, horizontal ones Left/Right.
func DirectionOf(value, center int, vertical bool) Direction {
	switch {
	case value < center-DeadZone:
		if vertical {
			return Down
		}
		return Left
	case value > center+DeadZone:
		if vertical {
			return Up
		}
		return Right
	}
	return Center
}

// Buttons is the bitmask of pressed shield buttons.
type Buttons uint8

const (
	ButtonA Buttons = 1 << iota
	ButtonB
	ButtonC
	ButtonD
	ButtonE
	ButtonF
	ButtonJoystick
)

var buttonNames = []struct {
	b    Buttons
	name string
}{
	{ButtonA, "A"}, {ButtonB, "B"}, {ButtonC, "C"}, {ButtonD, "D"},
	{ButtonE, "E"}, {ButtonF, "F"}, {ButtonJoystick, "JOY"},
}

// Has reports whether every button in mask is pressed.
func (b Buttons) Has(mask Buttons) bool { return b&mask == mask }

// String lists pressed buttons in shield order, e.g. "ACJOY".
func (b Buttons) String() string {
	var sb strings.Builder
	for _, n := range buttonNames {
		if b.Has(n.b) {
			sb.WriteString(n.name)
		}
	}
	return sb.String()
}

// Joystick is one processed stick reading.
type Joystick struct {
	XRaw, YRaw int
	X, Y       int // calibrated, -512..512
	XDir, YDir Direction
}

// ReadJoystick applies calibration and classifies both axes.
func ReadJoystick(s Sample, c Calibration) Joystick {
	x, y := c.Apply(s)
	return Joystick{
		XRaw: s.X,
		YRaw: s.Y,
		X:    x,
		Y:    y,
		XDir: DirectionOf(x+AxisLimit, AnalogCenter, false),
		YDir: DirectionOf(y+AxisLimit, AnalogCenter, true),
	}
}

// State is the whole shield at one instant.
type State struct {
	Joystick Joystick
	Buttons  Buttons
}

// ToRecord maps the shield onto a single-controller record: the stick is the
// left axis, C and D stand in for X and Y, the stick button is ThumbL, and
// E/F are Select/Start.
func ToRecord(s State) record.Record {
	r := record.Record{
		ID:    0,
		AxisX: int32(s.Joystick.X),
		AxisY: int32(s.Joystick.Y),
	}

	for _, m := range []struct {
		in  Buttons
		out uint16
	}{
		{ButtonA, record.ButtonA},
		{ButtonB, record.ButtonB},
		{ButtonC, record.ButtonX},
		{ButtonD, record.ButtonY},
		{ButtonJoystick, record.ButtonThumbL},
	} {
		if s.Buttons.Has(m.in) {
			r.Buttons |= m.out
		}
	}

	if s.Buttons.Has(ButtonE) {
		r.Misc |= record.MiscSelect
	}
	if s.Buttons.Has(ButtonF) {
		r.Misc |= record.MiscStart
	}
	return r
}
