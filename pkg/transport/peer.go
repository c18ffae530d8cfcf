// Package transport carries command and heartbeat frames between the
// device and one companion peer.
package transport

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// FrameReader reads whole frames.
type FrameReader interface {
	ReadFrame() ([]byte, error)
}

// FrameWriter writes whole frames.
type FrameWriter interface {
	WriteFrame([]byte) error
}

// FrameReadWriter reads and writes whole frames.
type FrameReadWriter interface {
	FrameReader
	FrameWriter
}

// ErrPeerBusy is returned when a second peer tries to attach.
var ErrPeerBusy = errors.New("transport: another peer is attached")

// Peer implements hw.Transport on top of frame connections. Connection
// oriented transports hand every accepted connection to Serve; only one
// is attached at a time.
type Peer struct {
	lock        sync.Mutex
	sendLock    sync.Mutex
	handler     hw.EventHandler
	advertising bool
	name        string
	conn        FrameReadWriter
}

// StartAdvertising implements hw.Transport.
func (p *Peer) StartAdvertising(name string) error {
	p.lock.Lock()
	p.advertising, p.name = true, name
	p.lock.Unlock()
	glog.Infof("accepting peer as %q", name)
	return nil
}

// Advertising returns the advertised name and whether peers are accepted.
func (p *Peer) Advertising() (string, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.name, p.advertising
}

// Connected reports whether a peer is attached.
func (p *Peer) Connected() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.conn != nil
}

// Stop implements hw.Transport. The attached peer is closed.
func (p *Peer) Stop() error {
	p.lock.Lock()
	p.advertising = false
	conn := p.conn
	p.lock.Unlock()
	if conn != nil {
		return closeConn(conn)
	}
	return nil
}

// Send implements hw.Transport.
func (p *Peer) Send(frame []byte) error {
	p.lock.Lock()
	conn := p.conn
	p.lock.Unlock()
	if conn == nil {
		return hw.ErrNotAdvertising
	}
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	return conn.WriteFrame(frame)
}

// SetHandler implements hw.Transport.
func (p *Peer) SetHandler(h hw.EventHandler) {
	p.lock.Lock()
	p.handler = h
	p.lock.Unlock()
}

// Serve attaches conn as the peer and delivers its frames until reading
// fails or ctx is done. conn is closed on return.
func (p *Peer) Serve(ctx context.Context, conn FrameReadWriter) error {
	defer closeConn(conn)
	p.lock.Lock()
	switch {
	case !p.advertising:
		p.lock.Unlock()
		return hw.ErrNotAdvertising
	case p.conn != nil:
		p.lock.Unlock()
		return ErrPeerBusy
	}
	p.conn = conn
	p.lock.Unlock()

	p.emit(hw.Event{Kind: hw.Connected})
	stop := context.AfterFunc(ctx, func() { closeConn(conn) })
	defer stop()

	var err error
	for {
		var frame []byte
		if frame, err = conn.ReadFrame(); err != nil {
			break
		}
		if len(frame) > 0 {
			p.emit(hw.Event{Kind: hw.DataReceived, Data: frame})
		}
	}

	p.lock.Lock()
	p.conn = nil
	stopped := !p.advertising
	p.lock.Unlock()
	p.emit(hw.Event{Kind: hw.Disconnected})
	if err == io.EOF || stopped || ctx.Err() != nil {
		return nil
	}
	return err
}

func (p *Peer) emit(ev hw.Event) {
	p.lock.Lock()
	h := p.handler
	p.lock.Unlock()
	if h != nil {
		h(ev)
	}
}

func closeConn(conn FrameReadWriter) error {
	if closer, ok := conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
