// Package sh is the companion shell talking to a device.
package sh

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/transport"
	"github.com/robotalks/blocks.go/pkg/wire"
)

// Conn is an open connection to a device. Incoming heartbeats are
// decoded in the background.
type Conn struct {
	Kind   string
	Target string
	RW     transport.FrameReadWriter

	sendLock sync.Mutex
	lock     sync.Mutex
	last     *wire.Heartbeat
	lastAt   time.Time
	waiters  []chan *wire.Heartbeat
	done     chan struct{}
	err      error
}

// NewConn starts reading heartbeats from rw.
func NewConn(kind, target string, rw transport.FrameReadWriter) *Conn {
	c := &Conn{Kind: kind, Target: target, RW: rw, done: make(chan struct{})}
	go c.readLoop()
	return c
}

// Send writes a frame.
func (c *Conn) Send(frame []byte) error {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	return c.RW.WriteFrame(frame)
}

// Last returns the latest heartbeat and when it arrived.
func (c *Conn) Last() (*wire.Heartbeat, time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.last, c.lastAt
}

// Next waits for the next heartbeat.
func (c *Conn) Next(ctx context.Context) (*wire.Heartbeat, error) {
	ch := make(chan *wire.Heartbeat, 1)
	c.lock.Lock()
	c.waiters = append(c.waiters, ch)
	c.lock.Unlock()
	select {
	case hb := <-ch:
		return hb, nil
	case <-c.done:
		return nil, c.Err()
	case <-ctx.Done():
		c.lock.Lock()
		for i, w := range c.waiters {
			if w == ch {
				c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
				break
			}
		}
		c.lock.Unlock()
		return nil, ctx.Err()
	}
}

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended.
func (c *Conn) Err() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.err
}

// Close closes the connection.
func (c *Conn) Close() error {
	if closer, ok := c.RW.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Conn) readLoop() {
	var err error
	for {
		var frame []byte
		if frame, err = c.RW.ReadFrame(); err != nil {
			break
		}
		hb, decodeErr := wire.DecodeHeartbeat(frame)
		if decodeErr != nil {
			glog.V(2).Infof("ignored frame % X: %v", frame, decodeErr)
			continue
		}
		c.lock.Lock()
		c.last, c.lastAt = hb, time.Now()
		waiters := c.waiters
		c.waiters = nil
		c.lock.Unlock()
		for _, w := range waiters {
			w <- hb
		}
	}
	if err == io.EOF {
		err = io.ErrClosedPipe
	}
	c.lock.Lock()
	c.err = err
	c.lock.Unlock()
	close(c.done)
}
