// Package ble serves the companion as a Nordic UART peripheral.
package ble

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// Radio is the peripheral side of the BLE stack: one UART service whose
// RX characteristic receives writes and whose TX characteristic notifies.
type Radio interface {
	// Register enables the stack and adds the UART service. onWrite is
	// called for every RX write.
	Register(onWrite func([]byte)) error
	Advertise(name string) error
	StopAdvertising() error
	Notify(data []byte) error
	// SetConnectHandler installs the central connect/disconnect callback.
	SetConnectHandler(func(connected bool))
}

// Peripheral implements hw.Transport over a Radio.
type Peripheral struct {
	Radio Radio

	lock        sync.Mutex
	handler     hw.EventHandler
	registered  bool
	advertising bool
	connected   bool
}

// NewPeripheral creates a Peripheral on radio.
func NewPeripheral(radio Radio) *Peripheral {
	p := &Peripheral{Radio: radio}
	radio.SetConnectHandler(p.onConnect)
	return p
}

// StartAdvertising implements hw.Transport.
func (p *Peripheral) StartAdvertising(name string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.registered {
		if err := p.Radio.Register(p.onWrite); err != nil {
			return err
		}
		p.registered = true
	}
	if err := p.Radio.Advertise(name); err != nil {
		return err
	}
	p.advertising = true
	glog.Infof("ble: advertising as %q", name)
	return nil
}

// Stop implements hw.Transport.
func (p *Peripheral) Stop() error {
	p.lock.Lock()
	advertising, connected := p.advertising, p.connected
	p.advertising, p.connected = false, false
	p.lock.Unlock()
	if connected {
		p.emit(hw.Event{Kind: hw.Disconnected})
	}
	if !advertising {
		return nil
	}
	return p.Radio.StopAdvertising()
}

// Send implements hw.Transport. Frames go out as one notification.
func (p *Peripheral) Send(frame []byte) error {
	p.lock.Lock()
	connected := p.connected
	p.lock.Unlock()
	if !connected {
		return hw.ErrNotAdvertising
	}
	return p.Radio.Notify(frame)
}

// SetHandler implements hw.Transport.
func (p *Peripheral) SetHandler(h hw.EventHandler) {
	p.lock.Lock()
	p.handler = h
	p.lock.Unlock()
}

// Connected reports whether a central is attached.
func (p *Peripheral) Connected() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.connected
}

func (p *Peripheral) onConnect(connected bool) {
	p.lock.Lock()
	if !p.advertising || p.connected == connected {
		p.lock.Unlock()
		return
	}
	p.connected = connected
	p.lock.Unlock()
	if connected {
		p.emit(hw.Event{Kind: hw.Connected})
	} else {
		p.emit(hw.Event{Kind: hw.Disconnected})
	}
}

func (p *Peripheral) onWrite(data []byte) {
	if !p.Connected() {
		glog.V(2).Infof("ble: write without central dropped")
		return
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	p.emit(hw.Event{Kind: hw.DataReceived, Data: frame})
}

func (p *Peripheral) emit(ev hw.Event) {
	p.lock.Lock()
	h := p.handler
	p.lock.Unlock()
	if h != nil {
		h(ev)
	}
}
