package hw

import (
	"errors"
	"sync"
)

// Board owns the device resources. It is constructed once at startup and
// passed to every consumer.
type Board struct {
	Display   Display
	Actuators Actuators
	Sensors   Sensors
	ADC       ADC
	Sound     SoundSource
	Transport Transport
}

// Validate checks all mandatory resources are present.
func (b *Board) Validate() error {
	switch {
	case b.Display == nil:
		return errors.New("hw: board without display")
	case b.Actuators == nil:
		return errors.New("hw: board without actuators")
	case b.Sensors == nil:
		return errors.New("hw: board without sensors")
	case b.ADC == nil:
		return errors.New("hw: board without button ADC")
	case b.Transport == nil:
		return errors.New("hw: board without transport")
	}
	return nil
}

// Guarded returns a copy of the board whose actuators and sensors are
// serialized by a single Guard, as both share the same bus.
func (b Board) Guarded() *Board {
	g := &Guard{Actuators: b.Actuators, Sensors: b.Sensors}
	b.Actuators, b.Sensors = g, g
	return &b
}

// Guard serializes calls into actuators and sensors so the menu and the
// command dispatcher can drive them concurrently.
type Guard struct {
	Actuators Actuators
	Sensors   Sensors

	lock sync.Mutex
}

// SetLED implements Actuators.
func (g *Guard) SetLED(port int, r, gr, b uint8) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.Actuators.SetLED(port, r, gr, b)
}

// LEDCount implements Actuators.
func (g *Guard) LEDCount() int {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.Actuators.LEDCount()
}

// DriveMotor implements Actuators.
func (g *Guard) DriveMotor(port, speed int) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.Actuators.DriveMotor(port, speed)
}

// SetServoAngle implements Actuators.
func (g *Guard) SetServoAngle(deg int) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.Actuators.SetServoAngle(deg)
}

// BuzzerEngage implements Actuators.
func (g *Guard) BuzzerEngage(port, freq, duty int) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.Actuators.BuzzerEngage(port, freq, duty)
}

// BuzzerDisengage implements Actuators.
func (g *Guard) BuzzerDisengage(port int) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.Actuators.BuzzerDisengage(port)
}

// ReadMotion implements Sensors.
func (g *Guard) ReadMotion() (Motion, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.Sensors.ReadMotion()
}

// ReadColor implements Sensors.
func (g *Guard) ReadColor() (RGB, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.Sensors.ReadColor()
}

// CalibrateColor implements Sensors.
func (g *Guard) CalibrateColor() (bool, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.Sensors.CalibrateColor()
}

// ReadClimate implements Sensors.
func (g *Guard) ReadClimate() (Climate, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.Sensors.ReadClimate()
}
