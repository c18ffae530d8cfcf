package ble

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/blocks.go/pkg/hw"
)

var (
	_ hw.Transport = &Peripheral{}
	_ Radio        = &Adapter{}
)

type fakeRadio struct {
	registered int
	names      []string
	stopped    int
	notified   [][]byte
	onWrite    func([]byte)
	onConnect  func(bool)
	failAdv    error
}

func (r *fakeRadio) Register(onWrite func([]byte)) error {
	r.registered++
	r.onWrite = onWrite
	return nil
}

func (r *fakeRadio) Advertise(name string) error {
	if r.failAdv != nil {
		return r.failAdv
	}
	r.names = append(r.names, name)
	return nil
}

func (r *fakeRadio) StopAdvertising() error {
	r.stopped++
	return nil
}

func (r *fakeRadio) Notify(data []byte) error {
	r.notified = append(r.notified, data)
	return nil
}

func (r *fakeRadio) SetConnectHandler(h func(bool)) {
	r.onConnect = h
}

func TestPeripheralLifecycle(t *testing.T) {
	radio := &fakeRadio{}
	p := NewPeripheral(radio)
	var events []hw.Event
	p.SetHandler(func(ev hw.Event) { events = append(events, ev) })

	// nothing happens before advertising.
	radio.onConnect(true)
	require.False(t, p.Connected())
	require.Equal(t, hw.ErrNotAdvertising, p.Send([]byte{0xF0}))

	require.NoError(t, p.StartAdvertising("blocks-ab12cd"))
	require.NoError(t, p.StartAdvertising("blocks-ab12cd"))
	require.Equal(t, 1, radio.registered)
	require.Equal(t, []string{"blocks-ab12cd", "blocks-ab12cd"}, radio.names)

	radio.onWrite([]byte{0xF4})
	require.Empty(t, events, "writes before connect are dropped")

	radio.onConnect(true)
	radio.onConnect(true)
	require.True(t, p.Connected())
	data := []byte{0xF8, 0x01}
	radio.onWrite(data)
	data[1] = 0x02
	require.NoError(t, p.Send([]byte{0xF0, 0x01}))
	require.Equal(t, [][]byte{{0xF0, 0x01}}, radio.notified)

	radio.onConnect(false)
	require.False(t, p.Connected())
	require.Equal(t, []hw.Event{
		{Kind: hw.Connected},
		{Kind: hw.DataReceived, Data: []byte{0xF8, 0x01}},
		{Kind: hw.Disconnected},
	}, events)

	radio.onConnect(true)
	require.NoError(t, p.Stop())
	require.Equal(t, 1, radio.stopped)
	require.Equal(t, hw.Disconnected, events[len(events)-1].Kind)
	require.NoError(t, p.Stop())
	require.Equal(t, 1, radio.stopped)
}

func TestPeripheralAdvertiseFailure(t *testing.T) {
	radio := &fakeRadio{failAdv: errors.New("adapter busy")}
	p := NewPeripheral(radio)
	require.EqualError(t, p.StartAdvertising("blocks-1"), "adapter busy")
	radio.onConnect(true)
	require.False(t, p.Connected())
}
