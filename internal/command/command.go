// Package command formats and sends the text commands understood by the
// robot's Bluetooth serial controller, e.g. "SX-40Y127*".
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Type is the leading character of a command.
type Type byte

const (
	Speed               Type = 'S'
	Rotate              Type = 'R'
	AngleOffsetIncrease Type = 'A'
	AngleOffsetDecrease Type = 'B'
	PIDSetting1         Type = 'C'
	PIDSetting2         Type = 'D'
	PIDSetting3         Type = '3'
	PIDSetting4         Type = '4'
)

const (
	Delimiter   = '*'
	MinPadValue = -127
	MaxPadValue = 127
	MaxLength   = 32
)

var (
	ErrOutOfRange = errors.New("command: pad value out of range")
	ErrTooLong    = errors.New("command: command too long")
	ErrEmpty      = errors.New("command: empty command")
	ErrNotPad     = errors.New("command: type does not take pad values")
	ErrNotPID     = errors.New("command: type is not a PID setting")
)

// Pad formats a stick command: <type>X<x>Y<y>*.
func Pad(t Type, x, y int) (string, error) {
	if t != Speed && t != Rotate {
		return "", fmt.Errorf("%w: %q", ErrNotPad, t)
	}
	if x < MinPadValue || x > MaxPadValue {
		return "", fmt.Errorf("%w: x=%d", ErrOutOfRange, x)
	}
	if y < MinPadValue || y > MaxPadValue {
		return "", fmt.Errorf("%w: y=%d", ErrOutOfRange, y)
	}

	var sb strings.Builder
	sb.WriteByte(byte(t))
	sb.WriteByte('X')
	sb.WriteString(strconv.Itoa(x))
	sb.WriteByte('Y')
	sb.WriteString(strconv.Itoa(y))
	sb.WriteByte(Delimiter)
	return sb.String(), nil
}

// Simple formats a command without arguments, e.g. "A*".
func Simple(t Type) string {
	return string([]byte{byte(t), Delimiter})
}

// PID formats a PID setting command carrying free-form data.
func PID(t Type, data string) (string, error) {
	switch t {
	case PIDSetting1, PIDSetting2, PIDSetting3, PIDSetting4:
	default:
		return "", fmt.Errorf("%w: %q", ErrNotPID, t)
	}
	return checkLength(string(t) + data + string(Delimiter))
}

// Raw passes a caller-built command through, appending the delimiter when
// it is missing.
func Raw(cmd string) (string, error) {
	if cmd == "" {
		return "", ErrEmpty
	}
	if len(cmd) > MaxLength {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLong, len(cmd))
	}
	if cmd[len(cmd)-1] != Delimiter {
		cmd += string(Delimiter)
	}
	return checkLength(cmd)
}

func checkLength(cmd string) (string, error) {
	switch {
	case cmd == "":
		return "", ErrEmpty
	case len(cmd) > MaxLength:
		return "", fmt.Errorf("%w: %d bytes", ErrTooLong, len(cmd))
	}
	return cmd, nil
}
