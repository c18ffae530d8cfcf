package sim

import (
	"image/color"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// Actuator limits of the simulated board.
const (
	LEDCount   = 10
	MaxSpeed   = 100
	MaxAngle   = 360
	MinFreq    = 20
	MaxFreq    = 20000
	MaxDuty    = 1023
	FirstMotor = 1
	LastMotor  = 2
)

// BuzzerState is the state of the PWM buzzer.
type BuzzerState struct {
	Port    int
	Freq    int
	Duty    int
	Engaged bool
	// Inits counts pin initializations.
	Inits int
}

// Buzzer is the PWM buzzer bound to one port at a time.
type Buzzer struct {
	state BuzzerState
}

// Reinit rebinds the buzzer to another port.
func (b *Buzzer) Reinit(port int) error {
	if port < 1 || port > 4 {
		return &hw.PortError{Kind: "buzzer", Port: port}
	}
	glog.V(2).Infof("buzzer: init port %d", port)
	b.state = BuzzerState{Port: port, Inits: b.state.Inits + 1}
	return nil
}

// Actuators simulates LEDs, motors, servo and buzzer.
type Actuators struct {
	lock   sync.Mutex
	leds   [LEDCount]color.RGBA
	motors [LastMotor + 1]int
	servo  int
	buzzer Buzzer
}

// NewActuators creates Actuators with everything off.
func NewActuators() *Actuators {
	return &Actuators{}
}

// SetLED implements hw.Actuators.
func (a *Actuators) SetLED(port int, r, g, b uint8) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	c := color.RGBA{R: r, G: g, B: b, A: 0xff}
	if port == hw.AllPorts {
		for i := range a.leds {
			a.leds[i] = c
		}
		return nil
	}
	if port < 0 || port >= LEDCount {
		return &hw.PortError{Kind: "led", Port: port}
	}
	a.leds[port] = c
	return nil
}

// LEDCount implements hw.Actuators.
func (a *Actuators) LEDCount() int {
	return LEDCount
}

// LED returns the color of one LED.
func (a *Actuators) LED(port int) color.RGBA {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.leds[port]
}

// DriveMotor implements hw.Actuators.
func (a *Actuators) DriveMotor(port, speed int) error {
	if speed > MaxSpeed || speed < -MaxSpeed {
		glog.Warningf("motor: speed %d out of range, clamped", speed)
		speed = clamp(speed, -MaxSpeed, MaxSpeed)
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	if port == hw.AllPorts {
		for p := FirstMotor; p <= LastMotor; p++ {
			a.motors[p] = speed
		}
		return nil
	}
	if port < FirstMotor || port > LastMotor {
		return &hw.PortError{Kind: "motor", Port: port}
	}
	a.motors[port] = speed
	return nil
}

// Motor returns the signed speed of a motor.
func (a *Actuators) Motor(port int) int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.motors[port]
}

// SetServoAngle implements hw.Actuators.
func (a *Actuators) SetServoAngle(deg int) error {
	if deg < 0 || deg > MaxAngle {
		glog.Warningf("servo: angle %d out of range, clamped", deg)
		deg = clamp(deg, 0, MaxAngle)
	}
	a.lock.Lock()
	a.servo = deg
	a.lock.Unlock()
	return nil
}

// Servo returns the servo angle.
func (a *Actuators) Servo() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.servo
}

// BuzzerEngage implements hw.Actuators.
func (a *Actuators) BuzzerEngage(port, freq, duty int) error {
	if freq < MinFreq || freq > MaxFreq {
		glog.Warningf("buzzer: frequency %d out of range, clamped", freq)
		freq = clamp(freq, MinFreq, MaxFreq)
	}
	if duty < 0 || duty > MaxDuty {
		glog.Warningf("buzzer: duty %d out of range, clamped", duty)
		duty = clamp(duty, 0, MaxDuty)
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	if port != a.buzzer.state.Port {
		if err := a.buzzer.Reinit(port); err != nil {
			return err
		}
	}
	a.buzzer.state.Freq, a.buzzer.state.Duty = freq, duty
	a.buzzer.state.Engaged = duty > 0
	return nil
}

// BuzzerDisengage implements hw.Actuators.
func (a *Actuators) BuzzerDisengage(port int) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if port != a.buzzer.state.Port {
		if err := a.buzzer.Reinit(port); err != nil {
			return err
		}
	}
	a.buzzer.state.Duty, a.buzzer.state.Engaged = 0, false
	return nil
}

// Buzzer returns the buzzer state.
func (a *Actuators) Buzzer() BuzzerState {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.buzzer.state
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
