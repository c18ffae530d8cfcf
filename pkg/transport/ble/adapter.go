package ble

import (
	"sync"

	"tinygo.org/x/bluetooth"
)

// Adapter implements Radio on a tinygo bluetooth adapter.
type Adapter struct {
	*bluetooth.Adapter

	lock sync.Mutex
	adv  *bluetooth.Advertisement
	tx   bluetooth.Characteristic
}

// NewAdapter wraps the default host adapter.
func NewAdapter() *Adapter {
	return &Adapter{Adapter: bluetooth.DefaultAdapter}
}

// NewTransport creates a Peripheral on the default host adapter.
func NewTransport() *Peripheral {
	return NewPeripheral(NewAdapter())
}

// Register implements Radio.
func (a *Adapter) Register(onWrite func([]byte)) error {
	if err := a.Enable(); err != nil {
		return err
	}
	var rx bluetooth.Characteristic
	return a.AddService(&bluetooth.Service{
		UUID: bluetooth.ServiceUUIDNordicUART,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &rx,
				UUID:   bluetooth.CharacteristicUUIDUARTRX,
				Flags:  bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission,
				WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
					onWrite(value)
				},
			},
			{
				Handle: &a.tx,
				UUID:   bluetooth.CharacteristicUUIDUARTTX,
				Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
			},
		},
	})
}

// Advertise implements Radio.
func (a *Adapter) Advertise(name string) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.adv == nil {
		a.adv = a.DefaultAdvertisement()
	}
	err := a.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    name,
		ServiceUUIDs: []bluetooth.UUID{bluetooth.ServiceUUIDNordicUART},
	})
	if err != nil {
		return err
	}
	return a.adv.Start()
}

// StopAdvertising implements Radio.
func (a *Adapter) StopAdvertising() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.adv == nil {
		return nil
	}
	return a.adv.Stop()
}

// Notify implements Radio.
func (a *Adapter) Notify(data []byte) error {
	_, err := a.tx.Write(data)
	return err
}

// SetConnectHandler implements Radio.
func (a *Adapter) SetConnectHandler(h func(connected bool)) {
	a.Adapter.SetConnectHandler(func(_ bluetooth.Device, connected bool) {
		h(connected)
	})
}
