package core

import (
	"context"
	"image/color"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/framework"
	"github.com/robotalks/blocks.go/pkg/hw"
	"github.com/robotalks/blocks.go/pkg/input"
	"github.com/robotalks/blocks.go/pkg/menu"
	"github.com/robotalks/blocks.go/pkg/sensors"
	"github.com/robotalks/blocks.go/pkg/wire"
)

// Link status screens.
const (
	TextConnected    = "Status: Connected !"
	TextDisconnected = "Status: Disconnected !"
)

// Options tunes a Device.
type Options struct {
	Name              string
	InputInterval     time.Duration
	BuzzerInterval    time.Duration
	TelemetryInterval time.Duration
	DispatchIdle      time.Duration
	RefreshInterval   time.Duration
	Flash             time.Duration
	Settle            time.Duration
}

// DefaultOptions returns the standard activity timing.
func DefaultOptions() Options {
	return Options{
		Name:              "blocks",
		InputInterval:     50 * time.Millisecond,
		BuzzerInterval:    500 * time.Millisecond,
		TelemetryInterval: time.Second,
		DispatchIdle:      100 * time.Millisecond,
		RefreshInterval:   sensors.DefaultRefreshInterval,
		Flash:             sensors.DefaultFlash,
		Settle:            input.DefaultSettle,
	}
}

// Device wires the board to the menu, the command dispatcher and the
// heartbeat.
type Device struct {
	Options Options
	Board   *hw.Board

	State      *State
	Queue      *wire.Queue
	Cache      *sensors.Cache
	Refresher  *sensors.Refresher
	Decoder    *input.Decoder
	Menu       *menu.Engine
	Dispatcher *Dispatcher
	Telemetry  *TelemetryControl
}

// NewDevice creates a Device on the board. Actuators and sensors are
// serialized with a hw.Guard.
func NewDevice(board *hw.Board, opts Options) (*Device, error) {
	if err := board.Validate(); err != nil {
		return nil, err
	}
	b := board.Guarded()
	d := &Device{
		Options: opts,
		Board:   b,
		State:   NewState(),
		Queue:   &wire.Queue{},
	}
	d.Cache = sensors.NewCache(b.Sensors, b.Display)
	d.Cache.Flash = opts.Flash
	d.Refresher = sensors.NewRefresher(d.Cache, opts.RefreshInterval)
	d.Decoder = input.NewDecoder(b.ADC)
	d.Decoder.Settle = opts.Settle
	d.Menu = menu.NewEngine(b.Display, b.Actuators, d.Cache)
	d.Menu.Flash = opts.Flash
	d.Menu.Refresher = d.Refresher
	d.Menu.Link = d
	d.Dispatcher = &Dispatcher{
		Actuators: b.Actuators,
		Display:   b.Display,
		State:     d.State,
		Queue:     d.Queue,
	}
	d.Telemetry = &TelemetryControl{
		State:      d.State,
		Sensors:    b.Sensors,
		Calibrator: d.Cache,
		Decoder:    d.Decoder,
		Sound:      b.Sound,
		Transport:  b.Transport,
	}
	b.Transport.SetHandler(d.HandleEvent)
	return d, nil
}

// Observe registers a heartbeat observer. Call before Run.
func (d *Device) Observe(o HeartbeatObserver) {
	d.Telemetry.Observers = append(d.Telemetry.Observers, o)
}

// Activities returns the four device activities.
func (d *Device) Activities() []framework.Runnable {
	return []framework.Runnable{
		framework.NewLoop("input", d.Options.InputInterval, &InputControl{Decoder: d.Decoder, Handler: d.Menu}),
		framework.NewLoop("buzzer", d.Options.BuzzerInterval, &BuzzerControl{Actuators: d.Board.Actuators, State: d.State}),
		framework.NewLoop("telemetry", d.Options.TelemetryInterval, d.Telemetry),
		framework.NewLoop("dispatch", d.Options.DispatchIdle, d.Dispatcher),
	}
}

// Run shows the main menu and runs the activities until ctx is done. A
// transport which is also a framework.Runnable runs alongside.
func (d *Device) Run(ctx context.Context) error {
	if err := d.Menu.Start(); err != nil {
		return err
	}
	runner := framework.NewRunnerWith(ctx)
	if r, ok := d.Board.Transport.(framework.Runnable); ok {
		runner.Go(framework.NamedRun("transport", r))
	}
	err := runner.Go(d.Activities()...).Wait()
	d.Refresher.Stop()
	if stopErr := d.Board.Transport.Stop(); stopErr != nil {
		glog.Warningf("stop transport: %v", stopErr)
	}
	return err
}

// HandleEvent receives transport events.
func (d *Device) HandleEvent(ev hw.Event) {
	switch ev.Kind {
	case hw.Connected:
		d.State.SetConn(Connected)
		glog.Infof("peer connected")
		d.status(TextConnected)
	case hw.Disconnected:
		conn, lost := d.State.PeerLost()
		glog.Infof("peer disconnected, link %s", conn)
		// a link stopped from the menu has already left the status screen.
		if lost {
			d.status(TextDisconnected)
		}
	case hw.DataReceived:
		glog.V(2).Infof("RCV % X", ev.Data)
		d.Queue.Push(ev.Data)
	}
}

func (d *Device) status(text string) {
	screen := d.Board.Display.TextScreen(text, -1, -1, 1, color.RGBA{A: 0xff})
	if err := d.Board.Display.LoadScreen(screen); err != nil {
		glog.Errorf("show %q: %v", text, err)
	}
}

// Advertise implements menu.LinkControl.
func (d *Device) Advertise() error {
	if err := d.Board.Transport.StartAdvertising(d.Options.Name); err != nil {
		return err
	}
	if d.State.Conn() == Disconnected {
		d.State.SetConn(Advertising)
	}
	return nil
}

// Disconnect implements menu.LinkControl.
func (d *Device) Disconnect() error {
	d.State.SetConn(Disconnected)
	return d.Board.Transport.Stop()
}
