package stream

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/blocks.go/pkg/hw"
)

var (
	_ hw.Transport = &TCP{}
	_ hw.Transport = &Serial{}
)

type events struct {
	lock sync.Mutex
	list []hw.Event
}

func (e *events) handle(ev hw.Event) {
	e.lock.Lock()
	e.list = append(e.list, ev)
	e.lock.Unlock()
}

func (e *events) kinds() []hw.EventKind {
	e.lock.Lock()
	defer e.lock.Unlock()
	kinds := make([]hw.EventKind, len(e.list))
	for i, ev := range e.list {
		kinds[i] = ev.Kind
	}
	return kinds
}

func (e *events) data() [][]byte {
	e.lock.Lock()
	defer e.lock.Unlock()
	var frames [][]byte
	for _, ev := range e.list {
		if ev.Kind == hw.DataReceived {
			frames = append(frames, ev.Data)
		}
	}
	return frames
}

func TestFraming(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WriteFrame([]byte{0xF4}))
	require.NoError(t, rw.WriteFrame([]byte{0xF7, 0x01, 0x32, 0x02}))
	require.Equal(t, []byte{1, 0, 0, 0, 0xF4}, buf.Bytes()[:5])

	frame, err := rw.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, []byte{0xF4}, frame)
	frame, err = rw.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, []byte{0xF7, 0x01, 0x32, 0x02}, frame)
	_, err = rw.ReadFrame()
	require.Equal(t, io.EOF, err)
}

func TestFramingErrors(t *testing.T) {
	rw := New(bytes.NewBuffer([]byte{0xff, 0xff, 0, 0}))
	_, err := rw.ReadFrame()
	var tooLarge *FrameTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	require.Equal(t, uint32(0xffff), tooLarge.Size)

	rw = New(bytes.NewBuffer([]byte{3, 0, 0, 0, 0xF1}))
	_, err = rw.ReadFrame()
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestTCPPeer(t *testing.T) {
	tr := NewTCP("127.0.0.1:0")
	ev := &events{}
	tr.SetHandler(ev.handle)
	require.NoError(t, tr.StartAdvertising("blocks-test"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()
	addr, err := tr.ListenAddr(ctx)
	require.NoError(t, err)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	peer := New(conn)
	require.Eventually(t, tr.Connected, time.Second, time.Millisecond)

	// a second peer is turned away.
	extra, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	_, err = New(extra).ReadFrame()
	require.Error(t, err)

	require.NoError(t, peer.WriteFrame([]byte{0xF2, 0x01}))
	require.Eventually(t, func() bool { return len(ev.data()) == 1 }, time.Second, time.Millisecond)
	require.Equal(t, []byte{0xF2, 0x01}, ev.data()[0])

	require.NoError(t, tr.Send([]byte{0xF0, 0x01}))
	frame, err := peer.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, []byte{0xF0, 0x01}, frame)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return !tr.Connected() }, time.Second, time.Millisecond)
	require.Equal(t, []hw.EventKind{hw.Connected, hw.DataReceived, hw.Disconnected}, ev.kinds())
	require.Equal(t, hw.ErrNotAdvertising, tr.Send([]byte{0xF0}))

	cancel()
	require.Equal(t, context.Canceled, <-done)
}

func TestSerialReopens(t *testing.T) {
	var lock sync.Mutex
	var opened int
	var ends []net.Conn
	s := &Serial{
		Retry: time.Millisecond,
		Open: func() (io.ReadWriteCloser, error) {
			lock.Lock()
			defer lock.Unlock()
			opened++
			if opened == 1 {
				return nil, io.ErrClosedPipe
			}
			device, companion := net.Pipe()
			ends = append(ends, companion)
			return device, nil
		},
	}
	ev := &events{}
	s.SetHandler(ev.handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(5 * time.Millisecond)
	lock.Lock()
	require.Equal(t, 0, opened, "not advertising")
	lock.Unlock()

	require.NoError(t, s.StartAdvertising("blocks-test"))
	require.Eventually(t, s.Connected, time.Second, time.Millisecond)
	lock.Lock()
	companion := New(ends[0])
	lock.Unlock()

	go func() { companion.WriteFrame([]byte{0xFB}) }()
	require.Eventually(t, func() bool { return len(ev.data()) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, s.Stop())
	require.Eventually(t, func() bool { return !s.Connected() }, time.Second, time.Millisecond)
	cancel()
	require.Equal(t, context.Canceled, <-done)
	require.Equal(t, []hw.EventKind{hw.Connected, hw.DataReceived, hw.Disconnected}, ev.kinds())
}
