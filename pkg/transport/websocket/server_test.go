package websocket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/blocks.go/pkg/hw"
)

var _ hw.Transport = &Server{}

func TestServerPeer(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	var lock sync.Mutex
	var frames [][]byte
	s.SetHandler(func(ev hw.Event) {
		if ev.Kind == hw.DataReceived {
			lock.Lock()
			frames = append(frames, ev.Data)
			lock.Unlock()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	url, err := s.URL(ctx)
	require.NoError(t, err)

	// not advertising: the peer is dropped.
	rw, err := Dial(url)
	require.NoError(t, err)
	_, err = rw.ReadFrame()
	require.Error(t, err)

	require.NoError(t, s.StartAdvertising("blocks-test"))
	rw, err = Dial(url)
	require.NoError(t, err)
	require.Eventually(t, s.Connected, time.Second, time.Millisecond)

	require.NoError(t, rw.WriteFrame([]byte{0xF8, 0x02}))
	require.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		return len(frames) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, s.Send([]byte{0xF0, 0x00}))
	frame, err := rw.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, []byte{0xF0, 0x00}, frame)

	require.NoError(t, s.Stop())
	require.Eventually(t, func() bool { return !s.Connected() }, time.Second, time.Millisecond)
	_, err = rw.ReadFrame()
	require.Error(t, err)

	cancel()
	require.Equal(t, context.Canceled, <-done)
}
