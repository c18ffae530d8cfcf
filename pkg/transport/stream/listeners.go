package stream

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/robotalks/blocks.go/pkg/transport"
)

// TCP accepts the companion over TCP. It implements hw.Transport and
// framework.Runnable.
type TCP struct {
	transport.Peer
	Addr string

	lock     sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// NewTCP creates a TCP transport listening on addr.
func NewTCP(addr string) *TCP {
	return &TCP{Addr: addr, ready: make(chan struct{})}
}

// Name implements framework.Named.
func (t *TCP) Name() string {
	return "tcp"
}

// ListenAddr waits until the listener is up and returns its address.
func (t *TCP) ListenAddr(ctx context.Context) (net.Addr, error) {
	select {
	case <-t.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.listener.Addr(), nil
}

// Run implements framework.Runnable.
func (t *TCP) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.Addr)
	if err != nil {
		return err
	}
	t.lock.Lock()
	t.listener = ln
	t.lock.Unlock()
	close(t.ready)
	glog.Infof("tcp: listening on %s", ln.Addr())

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go func() {
			glog.V(2).Infof("tcp: peer %s", conn.RemoteAddr())
			if err := t.Serve(ctx, New(conn)); err != nil {
				glog.Warningf("tcp: peer %s: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}

// DefaultRetry is the wait between attempts to open a serial port.
const DefaultRetry = time.Second

// OpenFunc opens the byte stream of a serial line.
type OpenFunc func() (io.ReadWriteCloser, error)

// Serial talks to the companion over a serial line. An open port counts
// as a connected peer while advertising.
type Serial struct {
	transport.Peer
	Open  OpenFunc
	Retry time.Duration
}

// NewSerial creates a Serial transport on a port.
func NewSerial(port string, baud int) *Serial {
	return &Serial{
		Open: func() (io.ReadWriteCloser, error) {
			return serial.Open(port, &serial.Mode{BaudRate: baud})
		},
		Retry: DefaultRetry,
	}
}

// Ports lists the serial ports of the machine.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// Name implements framework.Named.
func (s *Serial) Name() string {
	return "serial"
}

// Run implements framework.Runnable.
func (s *Serial) Run(ctx context.Context) error {
	for {
		if _, advertising := s.Advertising(); advertising {
			if err := s.serveOnce(ctx); err != nil {
				glog.Warningf("serial: %v", err)
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.Retry):
		}
	}
}

func (s *Serial) serveOnce(ctx context.Context) error {
	port, err := s.Open()
	if err != nil {
		return err
	}
	return s.Serve(ctx, New(port))
}
