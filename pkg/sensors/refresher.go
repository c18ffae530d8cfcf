package sensors

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/blocks.go/pkg/hw"
)

// DefaultRefreshInterval is the period of redrawing sensor values.
const DefaultRefreshInterval = time.Second

// ValueSource provides display values and the shared failure flag.
// Sample must not change the screen.
type ValueSource interface {
	Sample(label string) string
	Failed() bool
}

// Refresher periodically redraws sensor rows while a sensor submenu is
// open. At most one refresh goroutine runs at a time.
type Refresher struct {
	Values   ValueSource
	Interval time.Duration

	lock   sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefresher creates a Refresher.
func NewRefresher(values ValueSource, interval time.Duration) *Refresher {
	return &Refresher{Values: values, Interval: interval}
}

// Start redraws rows of list, one per label, every interval. A running
// refresh is stopped first.
func (r *Refresher) Start(list hw.ItemList, labels []string) {
	r.Stop()
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.lock.Lock()
	r.cancel, r.done = cancel, done
	r.lock.Unlock()
	labels = append([]string(nil), labels...)
	go r.run(ctx, done, interval, list, labels)
}

// Stop stops the refresh and waits for it to exit.
func (r *Refresher) Stop() {
	r.lock.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.lock.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// Running reports whether a refresh goroutine is alive.
func (r *Refresher) Running() bool {
	r.lock.Lock()
	done := r.done
	r.lock.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (r *Refresher) run(ctx context.Context, done chan struct{}, interval time.Duration, list hw.ItemList, labels []string) {
	defer close(done)
	glog.V(4).Infof("refresh started: %v", labels)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			glog.V(4).Info("refresh stopped")
			return
		case <-ticker.C:
		}
		for i, label := range labels {
			if ctx.Err() != nil {
				return
			}
			list.SetRow(i, FormatRow(label, r.Values.Sample(label)), false)
		}
		if r.Values.Failed() {
			glog.Warning("refresh aborted on sensor failure")
			return
		}
	}
}
