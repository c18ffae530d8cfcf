package core

import (
	"fmt"
	"image/color"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/framework"
	"github.com/robotalks/blocks.go/pkg/hw"
	"github.com/robotalks/blocks.go/pkg/wire"
)

// Dispatcher executes inbound commands.
type Dispatcher struct {
	Actuators hw.Actuators
	Display   hw.Display
	State     *State
	Queue     *wire.Queue
}

var _ wire.Handler = &Dispatcher{}

// Dispatch decodes and executes one frame. A bad frame or a failing
// command returns an error and changes nothing else.
func (d *Dispatcher) Dispatch(frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame % X: recovered: %v", frame, r)
		}
	}()
	cmd, err := wire.Parse(frame)
	if err != nil {
		return err
	}
	glog.V(2).Infof("EXEC %s", wire.Describe(frame))
	if err = cmd.Apply(d); err != nil {
		return fmt.Errorf("0x%02X: %w", cmd.Opcode(), err)
	}
	return nil
}

// Control implements framework.Controller. It handles at most one queued
// frame per iteration and asks for the next iteration right away while
// the queue is not empty.
func (d *Dispatcher) Control(cc framework.ControlContext) error {
	frame := d.Queue.Pop()
	if frame == nil {
		return nil
	}
	if d.Queue.Len() > 0 {
		cc.TriggerNext()
	}
	if err := d.Dispatch(frame); err != nil {
		glog.Warningf("dropped frame: %v", err)
	}
	return nil
}

// HandleSetLED implements wire.Handler.
func (d *Dispatcher) HandleSetLED(c *wire.SetLED) error {
	return d.Actuators.SetLED(int(c.Port), c.R, c.G, c.B)
}

// HandleClearLED implements wire.Handler.
func (d *Dispatcher) HandleClearLED(c *wire.ClearLED) error {
	return d.Actuators.SetLED(int(c.Port), 0, 0, 0)
}

// HandleShowText implements wire.Handler.
func (d *Dispatcher) HandleShowText(c *wire.ShowText) error {
	return d.Display.LoadScreen(d.Display.TextScreen(c.Text, int(c.X), int(c.Y), int(c.Size), c.Color))
}

// HandleClearScreen implements wire.Handler.
func (d *Dispatcher) HandleClearScreen(*wire.ClearScreen) error {
	return d.Display.LoadScreen(d.Display.TextScreen("", -1, -1, 1, color.RGBA{A: 0xff}))
}

// HandleSetMatrix implements wire.Handler.
func (d *Dispatcher) HandleSetMatrix(c *wire.SetMatrix) error {
	if c.Port != wire.MatrixPort {
		glog.V(2).Infof("matrix pattern for port %d ignored", c.Port)
		return nil
	}
	return d.showMatrix(d.State.SetPattern(c.Pattern))
}

// HandleSetMatrixColors implements wire.Handler.
func (d *Dispatcher) HandleSetMatrixColors(c *wire.SetMatrixColors) error {
	return d.showMatrix(d.State.SetColors(c.Bright, c.Dark))
}

func (d *Dispatcher) showMatrix(m MatrixState) error {
	return d.Display.LoadScreen(d.Display.MatrixScreen(m.Pattern, m.Bright, m.Dark))
}

// HandleDriveMotor implements wire.Handler.
func (d *Dispatcher) HandleDriveMotor(c *wire.DriveMotor) error {
	return d.Actuators.DriveMotor(int(c.Port), c.Signed())
}

// HandleStopMotor implements wire.Handler.
func (d *Dispatcher) HandleStopMotor(c *wire.StopMotor) error {
	return d.Actuators.DriveMotor(int(c.Port), 0)
}

// HandleDriveMotors implements wire.Handler.
func (d *Dispatcher) HandleDriveMotors(c *wire.DriveMotors) error {
	if err := d.Actuators.DriveMotor(1, c.M1.Signed()); err != nil {
		return err
	}
	return d.Actuators.DriveMotor(2, c.M2.Signed())
}

// HandleArmBuzzer implements wire.Handler.
func (d *Dispatcher) HandleArmBuzzer(c *wire.ArmBuzzer) error {
	d.State.ArmBuzzer(c.Frequency(), int(c.Duty), c.WaitDuration())
	return nil
}

// HandleStopBuzzer implements wire.Handler.
func (d *Dispatcher) HandleStopBuzzer(*wire.StopBuzzer) error {
	return d.Actuators.BuzzerDisengage(d.State.DisarmBuzzer())
}
