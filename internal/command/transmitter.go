package command

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"github.com/1ureka/padlink/internal/util"
)

// Bluetooth module baud rates: the module boots at InitBaudRate, is told to
// switch with BaudCommand, and is then spoken to at BaudRate.
const (
	InitBaudRate = 9600
	BaudCommand  = "AT+BAUD3"
	BaudRate     = 38400
)

// Transmitter writes commands to the robot's serial link and remembers the
// last one sent.
type Transmitter struct {
	mu       sync.Mutex
	w        io.Writer
	last     string
	lastTime time.Time
	now      func() time.Time
}

// NewTransmitter sends commands to w.
func NewTransmitter(w io.Writer) *Transmitter {
	return &Transmitter{w: w, now: time.Now}
}

// OpenBluetooth switches the module at address to BaudRate and returns a
// Transmitter on the reopened port. Close releases the port.
func OpenBluetooth(address string, timeout time.Duration) (*Transmitter, error) {
	cfg := &serial.Config{
		Address:  address,
		BaudRate: InitBaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  timeout,
	}

	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s at %d: %w", address, InitBaudRate, err)
	}
	if _, err := io.WriteString(port, BaudCommand); err != nil {
		port.Close()
		return nil, fmt.Errorf("switch baud rate: %w", err)
	}
	port.Close()

	cfg.BaudRate = BaudRate
	if port, err = serial.Open(cfg); err != nil {
		return nil, fmt.Errorf("open %s at %d: %w", address, BaudRate, err)
	}

	util.LogInfo("bluetooth transmitter ready on %s at %d baud", address, BaudRate)
	return NewTransmitter(port), nil
}

// Send writes a fully formatted command.
func (t *Transmitter) Send(cmd string) error {
	if _, err := checkLength(cmd); err != nil {
		util.LogWarning("invalid command length: %q", cmd)
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := io.WriteString(t.w, cmd); err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}
	t.last = cmd
	t.lastTime = t.now()

	util.LogDebug("Sent: %s", cmd)
	return nil
}

func (t *Transmitter) SendSpeed(x, y int) error    { return t.sendPad(Speed, x, y) }
func (t *Transmitter) SendRotation(x, y int) error { return t.sendPad(Rotate, x, y) }

func (t *Transmitter) sendPad(typ Type, x, y int) error {
	cmd, err := Pad(typ, x, y)
	if err != nil {
		util.LogWarning("%v", err)
		return err
	}
	return t.Send(cmd)
}

func (t *Transmitter) SendAngleOffsetIncrease() error { return t.Send(Simple(AngleOffsetIncrease)) }
func (t *Transmitter) SendAngleOffsetDecrease() error { return t.Send(Simple(AngleOffsetDecrease)) }

// SendPID sends one of the four PID setting commands.
func (t *Transmitter) SendPID(typ Type, data string) error {
	cmd, err := PID(typ, data)
	if err != nil {
		return err
	}
	return t.Send(cmd)
}

// SendRaw sends a caller-built command, adding the delimiter if missing.
func (t *Transmitter) SendRaw(cmd string) error {
	formatted, err := Raw(cmd)
	if err != nil {
		return err
	}
	return t.Send(formatted)
}

// LastCommand returns the most recent command sent, "" if none.
func (t *Transmitter) LastCommand() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// SinceLastCommand is the time since the last command, 0 if none was sent.
func (t *Transmitter) SinceLastCommand() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastTime.IsZero() {
		return 0
	}
	return t.now().Sub(t.lastTime)
}

// Close closes the underlying writer if it is closable.
func (t *Transmitter) Close() error {
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
