// Package websocket serves the companion over a websocket.
package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/blocks.go/pkg/transport"
)

// ReadWriter implements transport.FrameReadWriter with one binary
// websocket message per frame.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadFrame implements transport.FrameReader.
func (p *ReadWriter) ReadFrame() (frame []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &frame)
	return
}

// WriteFrame implements transport.FrameWriter.
func (p *ReadWriter) WriteFrame(frame []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), frame)
}

// Close closes the websocket.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Path is where the websocket is served.
const Path = "/blocks"

// Server accepts the companion over a websocket. It implements
// hw.Transport and framework.Runnable.
type Server struct {
	transport.Peer
	Addr string

	lock     sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// NewServer creates a Server listening on addr.
func NewServer(addr string) *Server {
	return &Server{Addr: addr, ready: make(chan struct{})}
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "websocket"
}

// URL waits until the server listens and returns the websocket URL.
func (s *Server) URL(ctx context.Context) (string, error) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return "ws://" + s.listener.Addr().String() + Path, nil
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.lock.Lock()
	s.listener = ln
	s.lock.Unlock()
	close(s.ready)

	mux := http.NewServeMux()
	mux.Handle(Path, websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		glog.V(2).Infof("websocket: peer %s", conn.Request().RemoteAddr)
		if err := s.Serve(ctx, New(conn)); err != nil {
			glog.Warningf("websocket: peer %s: %v", conn.Request().RemoteAddr, err)
		}
	}))
	server := &http.Server{Handler: mux}
	stop := context.AfterFunc(ctx, func() { server.Close() })
	defer stop()
	glog.Infof("websocket: listening on %s", ln.Addr())
	if err := server.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}

// Dial connects to a device as the companion.
func Dial(url string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return New(conn), nil
}
