package mqtt

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/telemetry"
)

// Companion attaches to a device through the broker and implements
// transport.FrameReadWriter.
type Companion struct {
	Queue  *Queue
	Device string

	frames chan []byte
	done   chan struct{}
	once   sync.Once
	sub    *Subscription
}

// NewCompanion creates a Companion for the device on a connected Queue.
func NewCompanion(q *Queue, device string) *Companion {
	return &Companion{
		Queue:  q,
		Device: device,
		frames: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

// Dial connects to the broker and attaches to the device. If the
// companion drops off, the broker clears its presence.
func Dial(brokerURL, device string) (*Companion, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(prefix+Topic(device, TopicPeer), nil, 1, true)
	q := NewQueue(opts, prefix)
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	c := NewCompanion(q, device)
	if err := c.Attach(); err != nil {
		q.Close()
		return nil, err
	}
	return c, nil
}

// Attach subscribes to the heartbeats and announces the presence.
func (c *Companion) Attach() error {
	c.sub = c.Queue.Sub(Topic(c.Device, TopicTx), c.handleFrame)
	token := c.Queue.PubWith(Topic(c.Device, TopicPeer), []byte(PeerPresent), 1, true)
	token.Wait()
	return token.Error()
}

// ReadFrame implements transport.FrameReader.
func (c *Companion) ReadFrame() ([]byte, error) {
	select {
	case frame := <-c.frames:
		return frame, nil
	case <-c.done:
		return nil, io.EOF
	}
}

// WriteFrame implements transport.FrameWriter.
func (c *Companion) WriteFrame(frame []byte) error {
	token := c.Queue.Pub(Topic(c.Device, TopicRx), frame)
	token.Wait()
	return token.Error()
}

// Close detaches from the device.
func (c *Companion) Close() (err error) {
	c.once.Do(func() {
		close(c.done)
		token := c.Queue.PubWith(Topic(c.Device, TopicPeer), nil, 1, true)
		token.Wait()
		err = token.Error()
		if c.sub != nil {
			if subErr := c.sub.Close(); err == nil {
				err = subErr
			}
		}
	})
	return
}

func (c *Companion) handleFrame(_ string, payload []byte) {
	select {
	case c.frames <- payload:
	case <-c.done:
	default:
		glog.V(2).Infof("mqtt: companion backlog full, frame dropped")
	}
}

// Discover collects the devices announcing meta until ctx is done.
func Discover(ctx context.Context, q *Queue) []Meta {
	var lock sync.Mutex
	found := make(map[string]Meta)
	sub := q.Sub(Topic("+", TopicMeta), func(topic string, payload []byte) {
		if len(payload) == 0 {
			return
		}
		var meta Meta
		if err := json.Unmarshal(payload, &meta); err != nil {
			glog.V(2).Infof("mqtt: bad meta on %s: %v", topic, err)
			return
		}
		lock.Lock()
		found[meta.Name] = meta
		lock.Unlock()
	})
	<-ctx.Done()
	sub.Close()

	lock.Lock()
	defer lock.Unlock()
	list := make([]Meta, 0, len(found))
	for _, meta := range found {
		list = append(list, meta)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// ReportHandler receives decoded telemetry reports.
type ReportHandler func(*telemetry.Report)

// SubReports subscribes to the reports of a device, or of every device
// when device is "+".
func SubReports(q *Queue, device string, h ReportHandler) *Subscription {
	return q.Sub(Topic(device, TopicReport), func(topic string, payload []byte) {
		report, err := telemetry.Decode(payload)
		if err != nil {
			glog.Warningf("mqtt: bad report on %s: %v", topic, err)
			return
		}
		h(report)
	})
}

// DiscoverFor runs Discover for a fixed duration.
func DiscoverFor(q *Queue, d time.Duration) []Meta {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return Discover(ctx, q)
}
