// Package device reads Linux joystick events.
package device

import (
	"encoding/binary"
	"errors"
	"io"
)

// EventKind is the type of an event.
type EventKind uint8

// Event kinds.
const (
	ButtonEvent EventKind = 0x01
	AxisEvent   EventKind = 0x02
)

const (
	evInit    uint8 = 0x80
	eventSize       = 8
)

// ErrUnsupported is returned by Open where joysticks can't be read.
var ErrUnsupported = errors.New("joystick: unsupported on this system")

// Event is a change of one axis or button. Init events report the
// initial state right after opening.
type Event struct {
	Kind  EventKind
	Index int
	Value int
	Init  bool
}

// Pressed reports whether a button event is a press.
func (e Event) Pressed() bool {
	return e.Kind == ButtonEvent && e.Value != 0
}

// Device is an opened joystick.
type Device interface {
	io.Closer
	Name() string
	ReadEvent() (Event, error)
}

// DecodeEvent decodes one js_event record: a 32-bit timestamp, a signed
// 16-bit value, the type and the axis or button number.
func DecodeEvent(b []byte) (Event, error) {
	if len(b) < eventSize {
		return Event{}, io.ErrUnexpectedEOF
	}
	typ := b[6]
	return Event{
		Kind:  EventKind(typ &^ evInit),
		Index: int(b[7]),
		Value: int(int16(binary.LittleEndian.Uint16(b[4:6]))),
		Init:  typ&evInit != 0,
	}, nil
}

// Reader implements Device on a stream of js_event records.
type Reader struct {
	io.ReadCloser
	name string
	buf  [eventSize]byte
}

// NewReader creates a Reader.
func NewReader(rc io.ReadCloser, name string) *Reader {
	return &Reader{ReadCloser: rc, name: name}
}

// Name implements Device.
func (r *Reader) Name() string {
	return r.name
}

// ReadEvent implements Device.
func (r *Reader) ReadEvent() (Event, error) {
	if _, err := io.ReadFull(r.ReadCloser, r.buf[:]); err != nil {
		return Event{}, err
	}
	return DecodeEvent(r.buf[:])
}
