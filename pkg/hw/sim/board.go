package sim

import "github.com/robotalks/blocks.go/pkg/hw"

// Board bundles all simulated resources so callers can inspect them.
type Board struct {
	Actuators   *Actuators
	Sensors     *Sensors
	ADC         *ADC
	Framebuffer *Framebuffer
	Link        *Link
}

// NewBoard creates a simulated board.
func NewBoard() *Board {
	return &Board{
		Actuators:   NewActuators(),
		Sensors:     NewSensors(),
		ADC:         NewADC(),
		Framebuffer: NewFramebuffer(ScreenWidth, ScreenHeight),
		Link:        NewLink(),
	}
}

// Resources returns an hw.Board using the simulated devices and the
// given display and transport. A nil transport uses the loopback link.
func (b *Board) Resources(display hw.Display, transport hw.Transport) *hw.Board {
	if transport == nil {
		transport = b.Link
	}
	return &hw.Board{
		Display:   display,
		Actuators: b.Actuators,
		Sensors:   b.Sensors,
		ADC:       b.ADC,
		Sound:     Microphone{},
		Transport: transport,
	}
}
