// Package joystick presses the board buttons from a gamepad.
package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/input"
	"github.com/robotalks/blocks.go/pkg/joystick/device"
)

// Line is the analog button line, e.g. the simulated ADC.
type Line interface {
	SetVolts(v float64)
}

// Mapping maps joystick buttons and axes to board buttons.
type Mapping struct {
	Buttons map[int]input.Button
	// Axes map an axis to the buttons of its negative and positive ends.
	Axes      map[int][2]input.Button
	Threshold int
}

// DefaultMapping suits common gamepads: the stick and the D-pad move,
// A confirms and B returns.
func DefaultMapping() Mapping {
	return Mapping{
		Buttons: map[int]input.Button{0: input.Ok, 1: input.Return},
		Axes: map[int][2]input.Button{
			0: {input.Left, input.Right},
			1: {input.Up, input.Down},
			6: {input.Left, input.Right},
			7: {input.Up, input.Down},
		},
		Threshold: 16384,
	}
}

// Map translates an event. ok is false for unmapped events. An axis back
// in the dead zone releases with input.None.
func (m Mapping) Map(ev device.Event) (b input.Button, pressed, ok bool) {
	switch ev.Kind {
	case device.ButtonEvent:
		b, ok = m.Buttons[ev.Index]
		return b, ev.Pressed(), ok
	case device.AxisEvent:
		ends, found := m.Axes[ev.Index]
		if !found {
			return input.None, false, false
		}
		switch {
		case ev.Value <= -m.Threshold:
			return ends[0], true, true
		case ev.Value >= m.Threshold:
			return ends[1], true, true
		}
		return input.None, false, true
	}
	return input.None, false, false
}

// OpenFunc opens the joystick, nil when none is present.
type OpenFunc func() (device.Device, error)

// Default timing of a Panel.
const (
	DefaultRetry   = time.Second
	DefaultMinHold = 120 * time.Millisecond
)

// Panel holds the line at the voltage of the pressed button. A press is
// held at least MinHold so the sampling loop sees short taps.
type Panel struct {
	Line    Line
	Mapping Mapping
	Open    OpenFunc
	Retry   time.Duration
	MinHold time.Duration
	Sleep   func(time.Duration)

	pressed   input.Button
	pressedAt time.Time
}

// NewPanel creates a Panel reading joystick index, or the first one
// found when index is negative.
func NewPanel(line Line, index int) *Panel {
	open := func() (device.Device, error) { return device.Open(index) }
	if index < 0 {
		open = func() (device.Device, error) { return device.DetectAndOpen(0) }
	}
	return &Panel{
		Line:    line,
		Mapping: DefaultMapping(),
		Open:    open,
		Retry:   DefaultRetry,
		MinHold: DefaultMinHold,
		Sleep:   time.Sleep,
	}
}

// Name implements framework.Named.
func (p *Panel) Name() string {
	return "joystick"
}

// Run implements framework.Runnable. The joystick is reopened after it
// goes away.
func (p *Panel) Run(ctx context.Context) error {
	for {
		dev, err := p.Open()
		switch {
		case err == device.ErrUnsupported:
			glog.Warningf("joystick: %v", err)
			<-ctx.Done()
			return ctx.Err()
		case err != nil:
			glog.V(2).Infof("joystick: %v", err)
		case dev != nil:
			glog.Infof("joystick: %s", dev.Name())
			p.serve(ctx, dev)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Retry):
		}
	}
}

func (p *Panel) serve(ctx context.Context, dev device.Device) {
	stop := context.AfterFunc(ctx, func() { dev.Close() })
	defer stop()
	defer dev.Close()
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			if ctx.Err() == nil {
				glog.Warningf("joystick: %s: %v", dev.Name(), err)
			}
			p.release()
			return
		}
		p.Handle(ev)
	}
}

// Handle applies one event to the line.
func (p *Panel) Handle(ev device.Event) {
	if ev.Init {
		return
	}
	b, pressed, ok := p.Mapping.Map(ev)
	switch {
	case !ok:
	case pressed:
		p.pressed, p.pressedAt = b, time.Now()
		glog.V(3).Infof("joystick: press %s", b)
		p.Line.SetVolts(input.Volts(b))
	case b == input.None || b == p.pressed:
		p.release()
	}
}

// Pressed returns the button currently held.
func (p *Panel) Pressed() input.Button {
	return p.pressed
}

func (p *Panel) release() {
	if p.pressed == input.None {
		return
	}
	if held := time.Since(p.pressedAt); held < p.MinHold && p.Sleep != nil {
		p.Sleep(p.MinHold - held)
	}
	glog.V(3).Infof("joystick: release %s", p.pressed)
	p.pressed = input.None
	p.Line.SetVolts(input.IdleVolts)
}
