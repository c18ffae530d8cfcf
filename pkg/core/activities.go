package core

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/framework"
	"github.com/robotalks/blocks.go/pkg/hw"
	"github.com/robotalks/blocks.go/pkg/input"
	"github.com/robotalks/blocks.go/pkg/wire"
)

// ButtonHandler consumes decoded buttons.
type ButtonHandler interface {
	Handle(input.Button) error
}

// InputControl samples the buttons and feeds the menu.
type InputControl struct {
	Decoder *input.Decoder
	Handler ButtonHandler
}

// Control implements framework.Controller.
func (c *InputControl) Control(framework.ControlContext) error {
	b, err := c.Decoder.ReadButton()
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}
	return c.Handler.Handle(b)
}

// BuzzerControl plays the armed buzzer once per iteration.
type BuzzerControl struct {
	Actuators hw.Actuators
	State     *State
}

// Control implements framework.Controller.
func (c *BuzzerControl) Control(cc framework.ControlContext) error {
	p := c.State.Buzzer()
	if !p.Active {
		return nil
	}
	if err := c.Actuators.BuzzerEngage(p.Port, p.Freq, p.Duty); err != nil {
		return err
	}
	sleepCtx(cc.Context(), p.Wait)
	return c.Actuators.BuzzerDisengage(p.Port)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Calibrator performs the calibration gate without blocking.
type Calibrator interface {
	TryCalibrate() bool
}

// HeartbeatObserver receives every heartbeat that was sent.
type HeartbeatObserver interface {
	ObserveHeartbeat(*wire.Heartbeat)
}

// TelemetryControl sends a heartbeat per iteration while connected.
type TelemetryControl struct {
	State      *State
	Sensors    hw.Sensors
	Calibrator Calibrator
	Decoder    *input.Decoder
	Sound      hw.SoundSource
	Transport  hw.Transport
	Observers  []HeartbeatObserver
}

// Collect reads all sensors into a heartbeat. Any failing read fails
// the whole heartbeat.
func (c *TelemetryControl) Collect() (*wire.Heartbeat, error) {
	if c.Calibrator != nil {
		c.Calibrator.TryCalibrate()
	}
	var t wire.Telemetry
	var err error
	if t.Climate, err = c.Sensors.ReadClimate(); err != nil {
		return nil, fmt.Errorf("climate: %w", err)
	}
	if t.Motion, err = c.Sensors.ReadMotion(); err != nil {
		return nil, fmt.Errorf("motion: %w", err)
	}
	if t.Color, err = c.Sensors.ReadColor(); err != nil {
		return nil, fmt.Errorf("color: %w", err)
	}
	if c.Decoder != nil {
		b, err := c.Decoder.ReadButton()
		if err != nil {
			return nil, fmt.Errorf("button: %w", err)
		}
		t.Button = byte(b)
	}
	if c.Sound != nil {
		if t.Voice, err = c.Sound.SoundLevel(); err != nil {
			return nil, fmt.Errorf("sound: %w", err)
		}
	}
	return wire.NewHeartbeat(t), nil
}

// Control implements framework.Controller.
func (c *TelemetryControl) Control(framework.ControlContext) error {
	if c.State.Conn() != Connected {
		return nil
	}
	hb, err := c.Collect()
	if err != nil {
		return fmt.Errorf("heartbeat skipped: %w", err)
	}
	frame := hb.Bytes()
	if err := c.Transport.Send(frame); err != nil {
		return fmt.Errorf("send heartbeat: %w", err)
	}
	glog.V(2).Infof("SND % X", frame)
	for _, o := range c.Observers {
		o.ObserveHeartbeat(hb)
	}
	return nil
}
