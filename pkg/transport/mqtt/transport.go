package mqtt

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/hw"
	"github.com/robotalks/blocks.go/pkg/telemetry"
	"github.com/robotalks/blocks.go/pkg/transport"
	"github.com/robotalks/blocks.go/pkg/wire"
)

// Topic suffixes under the device name.
const (
	TopicMeta   = "meta"
	TopicPeer   = "peer"
	TopicRx     = "rx"
	TopicTx     = "tx"
	TopicReport = "report"
)

// PeerPresent is the retained payload on the peer topic while a companion
// is attached.
const PeerPresent = "1"

// Meta is the retained device description.
type Meta struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Advertising bool   `json:"advertising"`
}

// DeviceKind is Meta.Kind of every device.
const DeviceKind = "blocks"

// Topic joins a device name and a topic suffix.
func Topic(name, suffix string) string {
	return name + "/" + suffix
}

// Transport implements hw.Transport, framework.Runnable and
// core.HeartbeatObserver over MQTT.
type Transport struct {
	Queue *Queue
	Name  string

	peer transport.Peer
	lock sync.Mutex
	ctx  context.Context
	link *link
	subs []*Subscription
}

// NewTransport creates a Transport for the device name. The broker clears
// the meta topic when the device drops off.
func NewTransport(brokerURL, name string) (*Transport, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(prefix+Topic(name, TopicMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("blocks:" + name)
	}
	return New(NewQueue(opts, prefix), name), nil
}

// New creates a Transport on an existing Queue.
func New(q *Queue, name string) *Transport {
	t := &Transport{Queue: q, Name: name, ctx: context.Background()}
	q.OnConnect = func(*Queue) { t.publishMeta() }
	return t
}

func (t *Transport) topic(suffix string) string {
	return Topic(t.Name, suffix)
}

// Run implements framework.Runnable.
func (t *Transport) Run(ctx context.Context) error {
	t.lock.Lock()
	t.ctx = ctx
	t.lock.Unlock()
	token := t.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	t.Stop()
	t.Queue.PubWith(t.topic(TopicMeta), nil, 1, true).WaitTimeout(time.Second)
	t.Queue.Close()
	return ctx.Err()
}

// StartAdvertising implements hw.Transport. The name was fixed when the
// transport was created.
func (t *Transport) StartAdvertising(name string) error {
	if name != t.Name {
		glog.Warningf("mqtt: advertising as %q, not %q", t.Name, name)
	}
	t.peer.StartAdvertising(t.Name)
	t.lock.Lock()
	if len(t.subs) == 0 {
		t.subs = []*Subscription{
			t.Queue.Sub(t.topic(TopicPeer), t.handlePresence),
			t.Queue.Sub(t.topic(TopicRx), t.handleFrame),
		}
	}
	t.lock.Unlock()
	t.publishMeta()
	return nil
}

// Stop implements hw.Transport.
func (t *Transport) Stop() error {
	err := t.peer.Stop()
	t.lock.Lock()
	subs := t.subs
	t.subs = nil
	t.lock.Unlock()
	for _, sub := range subs {
		if closeErr := sub.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	t.publishMeta()
	return err
}

// Send implements hw.Transport.
func (t *Transport) Send(frame []byte) error {
	return t.peer.Send(frame)
}

// SetHandler implements hw.Transport.
func (t *Transport) SetHandler(h hw.EventHandler) {
	t.peer.SetHandler(h)
}

// Connected reports whether a companion is attached.
func (t *Transport) Connected() bool {
	return t.peer.Connected()
}

// ObserveHeartbeat publishes the heartbeat as a telemetry report.
func (t *Transport) ObserveHeartbeat(hb *wire.Heartbeat) {
	data, err := telemetry.FromHeartbeat(t.Name, time.Now(), hb).Encode()
	if err != nil {
		glog.Errorf("mqtt: encode report: %v", err)
		return
	}
	t.Queue.Pub(t.topic(TopicReport), data)
}

func (t *Transport) publishMeta() {
	_, advertising := t.peer.Advertising()
	meta, err := json.Marshal(&Meta{Name: t.Name, Kind: DeviceKind, Advertising: advertising})
	if err != nil {
		panic(err)
	}
	t.Queue.PubWith(t.topic(TopicMeta), meta, 1, true)
}

func (t *Transport) handlePresence(_ string, payload []byte) {
	t.lock.Lock()
	defer t.lock.Unlock()
	present := string(payload) == PeerPresent
	switch {
	case present && t.link == nil:
		l, ctx := newLink(t), t.ctx
		t.link = l
		go func() {
			if err := t.peer.Serve(ctx, l); err != nil {
				glog.Warningf("mqtt: peer: %v", err)
			}
			t.lock.Lock()
			if t.link == l {
				t.link = nil
			}
			t.lock.Unlock()
		}()
	case !present && t.link != nil:
		t.link.Close()
		t.link = nil
	}
}

func (t *Transport) handleFrame(_ string, payload []byte) {
	t.lock.Lock()
	l := t.link
	t.lock.Unlock()
	if l == nil {
		glog.V(2).Infof("mqtt: frame without peer dropped")
		return
	}
	l.deliver(payload)
}

// link is the frame connection of an attached companion.
type link struct {
	t      *Transport
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func newLink(t *Transport) *link {
	return &link{t: t, frames: make(chan []byte, 16), done: make(chan struct{})}
}

func (l *link) ReadFrame() ([]byte, error) {
	select {
	case frame := <-l.frames:
		return frame, nil
	case <-l.done:
		return nil, io.EOF
	}
}

func (l *link) WriteFrame(frame []byte) error {
	token := l.t.Queue.Pub(l.t.topic(TopicTx), frame)
	token.Wait()
	return token.Error()
}

func (l *link) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *link) deliver(frame []byte) {
	select {
	case l.frames <- frame:
	case <-l.done:
	}
}
