package main

import (
	"context"
	"flag"
	"image/png"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/config"
	"github.com/robotalks/blocks.go/pkg/core"
	"github.com/robotalks/blocks.go/pkg/display/fb"
	"github.com/robotalks/blocks.go/pkg/framework"
	"github.com/robotalks/blocks.go/pkg/hw"
	"github.com/robotalks/blocks.go/pkg/hw/sim"
	"github.com/robotalks/blocks.go/pkg/joystick"
	"github.com/robotalks/blocks.go/pkg/transport/ble"
	"github.com/robotalks/blocks.go/pkg/transport/mqtt"
	"github.com/robotalks/blocks.go/pkg/transport/stream"
	"github.com/robotalks/blocks.go/pkg/transport/websocket"
)

var (
	screenshot   string
	gamepad      bool
	gamepadIndex = -1
)

func init() {
	flag.StringVar(&screenshot, "screenshot", screenshot, "Save the simulated screen as PNG on exit.")
	flag.BoolVar(&gamepad, "joystick", gamepad, "Press the simulated buttons with a joystick.")
	flag.IntVar(&gamepadIndex, "joystick-index", gamepadIndex, "Joystick index, -1 for auto detection.")
}

func newTransport(c *config.Config) (hw.Transport, error) {
	switch c.Transport {
	case config.TransportMQTT:
		t, err := mqtt.NewTransport(c.MQTTURL, c.Name)
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.TransportWebsocket:
		return websocket.NewServer(c.ListenAddr), nil
	case config.TransportSerial:
		return stream.NewSerial(c.SerialPort, c.SerialBaud), nil
	case config.TransportTCP:
		return stream.NewTCP(c.TCPAddr), nil
	case config.TransportBLE:
		return ble.NewTransport(), nil
	}
	return nil, nil
}

func saveScreen(screen *sim.Framebuffer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, screen.Snapshot()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func main() {
	conf, err := config.Load(flag.CommandLine, os.Args[1:], os.LookupEnv)
	if err != nil {
		glog.Exitf("config: %v", err)
	}
	defer glog.Flush()

	transport, err := newTransport(conf)
	if err != nil {
		glog.Exitf("transport %s: %v", conf.Transport, err)
	}
	board := sim.NewBoard()
	dev, err := core.NewDevice(board.Resources(fb.New(board.Framebuffer), transport), conf.DeviceOptions())
	if err != nil {
		glog.Exit(err)
	}
	if observer, ok := transport.(core.HeartbeatObserver); ok {
		dev.Observe(observer)
	}
	if conf.Transport != config.TransportNone {
		// as if Connect was chosen from the menu.
		if err := dev.Advertise(); err != nil {
			glog.Exitf("advertise: %v", err)
		}
	}

	runner := framework.NewRunner().HandleSignals()
	runner.Go(framework.NamedRun("device", framework.RunFunc(dev.Run)))
	if gamepad {
		runner.Go(joystick.NewPanel(board.ADC, gamepadIndex))
	}
	err = runner.Wait()
	if screenshot != "" {
		if saveErr := saveScreen(board.Framebuffer, screenshot); saveErr != nil {
			glog.Errorf("screenshot: %v", saveErr)
		}
	}
	if err != nil && err != context.Canceled {
		glog.Exit(err)
	}
}
