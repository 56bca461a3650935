package pad

import (
	"fmt"
	"math"

	"github.com/1ureka/padlink/internal/record"
	"github.com/1ureka/padlink/internal/util"
)

// Source yields raw shield readings. Pin I/O lives behind it.
type Source interface {
	Read() (Sample, Buttons, error)
}

// Pad combines a Source with its calibration.
type Pad struct {
	src Source
	cal Calibration
}

func New(src Source) *Pad {
	return &Pad{src: src}
}

// Calibrate reads CalibrationSamples readings with the stick at rest and
// stores the averaged center.
func (p *Pad) Calibrate() error {
	samples := make([]Sample, CalibrationSamples)
	for i := range samples {
		s, _, err := p.src.Read()
		if err != nil {
			return fmt.Errorf("calibration sample %d: %w", i, err)
		}
		samples[i] = s
	}
	p.cal = Calibrate(samples)

	c := p.cal
	util.LogInfo("calibration complete: X[min:%d, max:%d, center:%d], Y[min:%d, max:%d, center:%d]",
		c.XMin, c.XMax, c.XCenter, c.YMin, c.YMax, c.YCenter)
	return nil
}

// Calibration returns the current calibration.
func (p *Pad) Calibration() Calibration { return p.cal }

// Read returns the processed shield state.
func (p *Pad) Read() (State, error) {
	s, b, err := p.src.Read()
	if err != nil {
		return State{}, err
	}
	st := State{Joystick: ReadJoystick(s, p.cal), Buttons: b}

	j := st.Joystick
	util.LogDebug("joystick: X[raw:%d, cal:%d, dir:%s], Y[raw:%d, cal:%d, dir:%s]",
		j.XRaw, j.X, j.XDir, j.YRaw, j.Y, j.YDir)
	if b != 0 {
		util.LogDebug("buttons: %s", b)
	}
	return st, nil
}

// Record reads the shield and maps it to a record.
func (p *Pad) Record() (record.Record, error) {
	st, err := p.Read()
	if err != nil {
		return record.Record{}, err
	}
	return ToRecord(st), nil
}

// Synthetic is a deterministic Source: the stick traces a circle one step
// per read and one button at a time is held for a few reads. The first
// CalibrationSamples reads return the resting stick so calibration sees a
// true center.
type Synthetic struct {
	Radius    int // stick deflection in ADC counts
	Steps     int // reads per full circle
	HoldReads int // reads each button stays pressed

	n int
}

// NewSynthetic returns a generator with a moderate circle.
func NewSynthetic() *Synthetic {
	return &Synthetic{Radius: 400, Steps: 100, HoldReads: 25}
}

func (s *Synthetic) Read() (Sample, Buttons, error) {
	i := s.n
	s.n++

	if i < CalibrationSamples {
		return Sample{X: AnalogCenter, Y: AnalogCenter}, 0, nil
	}
	i -= CalibrationSamples

	steps := max(s.Steps, 1)
	angle := 2 * math.Pi * float64(i%steps) / float64(steps)
	sample := Sample{
		X: clamp(AnalogCenter+int(math.Round(float64(s.Radius)*math.Cos(angle))), AnalogMin, AnalogMax),
		Y: clamp(AnalogCenter+int(math.Round(float64(s.Radius)*math.Sin(angle))), AnalogMin, AnalogMax),
	}

	hold := max(s.HoldReads, 1)
	button := Buttons(1) << ((i / hold) % len(buttonNames))
	return sample, button, nil
}
