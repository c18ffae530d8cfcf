package sim

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// Sensors simulates the I2C sensor modules. Readings are whatever was
// last set.
type Sensors struct {
	CalibrationDelay time.Duration

	lock         sync.Mutex
	motion       hw.Motion
	color        hw.RGB
	climate      hw.Climate
	failing      bool
	calibrations int
}

// NewSensors creates Sensors with resting readings.
func NewSensors() *Sensors {
	return &Sensors{
		motion:  hw.Motion{Accel: [3]int{0, 0, 1000}},
		color:   hw.RGB{R: 120, G: 120, B: 120},
		climate: hw.Climate{Temperature: 24, Humidity: 40},
	}
}

// SetMotion sets the motion reading.
func (s *Sensors) SetMotion(m hw.Motion) {
	s.lock.Lock()
	s.motion = m
	s.lock.Unlock()
}

// SetColor sets the color reading.
func (s *Sensors) SetColor(c hw.RGB) {
	s.lock.Lock()
	s.color = c
	s.lock.Unlock()
}

// SetClimate sets the climate reading.
func (s *Sensors) SetClimate(c hw.Climate) {
	s.lock.Lock()
	s.climate = c
	s.lock.Unlock()
}

// SetFailing makes every read fail with hw.ErrNoResponse.
func (s *Sensors) SetFailing(failing bool) {
	s.lock.Lock()
	s.failing = failing
	s.lock.Unlock()
}

// Calibrations returns how many times calibration ran.
func (s *Sensors) Calibrations() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calibrations
}

// ReadMotion implements hw.Sensors.
func (s *Sensors) ReadMotion() (hw.Motion, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.failing {
		return hw.Motion{}, hw.ErrNoResponse
	}
	return s.motion, nil
}

// ReadColor implements hw.Sensors.
func (s *Sensors) ReadColor() (hw.RGB, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.failing {
		return hw.RGB{}, hw.ErrNoResponse
	}
	return s.color, nil
}

// CalibrateColor implements hw.Sensors.
func (s *Sensors) CalibrateColor() (bool, error) {
	time.Sleep(s.CalibrationDelay)
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calibrations++
	if s.failing {
		return false, hw.ErrNoResponse
	}
	return true, nil
}

// ReadClimate implements hw.Sensors.
func (s *Sensors) ReadClimate() (hw.Climate, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.failing {
		return hw.Climate{}, hw.ErrNoResponse
	}
	return s.climate, nil
}

// IdleRaw is the ADC reading with no button pressed.
const IdleRaw = 4095

// ADC simulates the button ladder input.
type ADC struct {
	raw int32
}

// NewADC creates an ADC reading IdleRaw.
func NewADC() *ADC {
	return &ADC{raw: IdleRaw}
}

// SetRaw sets the next raw sample.
func (a *ADC) SetRaw(raw uint16) {
	atomic.StoreInt32(&a.raw, int32(raw))
}

// SetVolts sets the sample corresponding to a voltage on a 3.3V/12-bit
// converter.
func (a *ADC) SetVolts(v float64) {
	a.SetRaw(uint16(v / 3.3 * 4096))
}

// ReadRaw implements hw.ADC.
func (a *ADC) ReadRaw() (uint16, error) {
	return uint16(atomic.LoadInt32(&a.raw)), nil
}

// Microphone reports a random sound level in [0, 90].
type Microphone struct{}

// SoundLevel implements hw.SoundSource.
func (Microphone) SoundLevel() (uint8, error) {
	return uint8(rand.Intn(91)), nil
}
