package sim

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// Link is a loopback transport. The test or shell on the other end
// plays the companion by calling Connect, Inject and Sent.
type Link struct {
	lock        sync.Mutex
	handler     hw.EventHandler
	advertising bool
	connected   bool
	name        string
	sent        [][]byte
}

// NewLink creates a Link.
func NewLink() *Link {
	return &Link{}
}

// StartAdvertising implements hw.Transport.
func (l *Link) StartAdvertising(name string) error {
	l.lock.Lock()
	l.advertising, l.name = true, name
	l.lock.Unlock()
	glog.Infof("link: advertising as %q", name)
	return nil
}

// Stop implements hw.Transport.
func (l *Link) Stop() error {
	l.lock.Lock()
	wasConnected := l.connected
	l.advertising, l.connected = false, false
	l.lock.Unlock()
	if wasConnected {
		l.emit(hw.Event{Kind: hw.Disconnected})
	}
	return nil
}

// Send implements hw.Transport.
func (l *Link) Send(frame []byte) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.connected {
		return hw.ErrNotAdvertising
	}
	l.sent = append(l.sent, append([]byte(nil), frame...))
	return nil
}

// SetHandler implements hw.Transport.
func (l *Link) SetHandler(h hw.EventHandler) {
	l.lock.Lock()
	l.handler = h
	l.lock.Unlock()
}

// Advertising reports whether the link accepts a peer.
func (l *Link) Advertising() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.advertising
}

// Connect simulates a peer connecting.
func (l *Link) Connect() {
	l.lock.Lock()
	l.connected = true
	l.lock.Unlock()
	l.emit(hw.Event{Kind: hw.Connected})
}

// Disconnect simulates the peer leaving.
func (l *Link) Disconnect() {
	l.lock.Lock()
	l.connected = false
	l.lock.Unlock()
	l.emit(hw.Event{Kind: hw.Disconnected})
}

// Inject delivers a frame as if the peer sent it.
func (l *Link) Inject(frame []byte) {
	l.emit(hw.Event{Kind: hw.DataReceived, Data: frame})
}

// Sent returns frames sent to the peer.
func (l *Link) Sent() [][]byte {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([][]byte(nil), l.sent...)
}

func (l *Link) emit(ev hw.Event) {
	l.lock.Lock()
	h := l.handler
	l.lock.Unlock()
	if h != nil {
		h(ev)
	}
}
