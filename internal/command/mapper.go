package command

import (
	"github.com/1ureka/padlink/internal/pad"
	"github.com/1ureka/padlink/internal/record"
)

// ScaleAxis maps a record axis (-512..512) onto a pad value (-127..127).
func ScaleAxis(v int32) int {
	s := int(v) * MaxPadValue / pad.AxisLimit
	return max(MinPadValue, min(s, MaxPadValue))
}

// Mapper turns received records into robot commands. Shoulder buttons are
// edge-triggered, so it keeps the previous button state.
type Mapper struct {
	prev uint16
}

// Commands returns the commands for one record: speed from the left stick,
// rotation from the right stick, and an angle offset step for each newly
// pressed shoulder button. A disconnected controller stops the robot.
func (m *Mapper) Commands(r record.Record) []string {
	if !r.Connected() {
		m.prev = 0
		return []string{mustPad(Speed, 0, 0), mustPad(Rotate, 0, 0)}
	}

	cmds := []string{
		mustPad(Speed, ScaleAxis(r.AxisX), ScaleAxis(r.AxisY)),
		mustPad(Rotate, ScaleAxis(r.AxisRX), ScaleAxis(r.AxisRY)),
	}

	pressed := r.Buttons &^ m.prev
	if pressed&record.ButtonShoulderR != 0 {
		cmds = append(cmds, Simple(AngleOffsetIncrease))
	}
	if pressed&record.ButtonShoulderL != 0 {
		cmds = append(cmds, Simple(AngleOffsetDecrease))
	}
	m.prev = r.Buttons
	return cmds
}

// mustPad is only called with values already clamped by ScaleAxis.
func mustPad(t Type, x, y int) string {
	cmd, err := Pad(t, x, y)
	if err != nil {
		panic(err)
	}
	return cmd
}
