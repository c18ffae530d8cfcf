package framework

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is used when a Loop has no Interval.
const DefaultInterval = 100 * time.Millisecond

// Loop runs a Controller repeatedly, pausing Interval after each
// iteration. Every iteration is a failure boundary: returned errors and
// panics are logged and the loop continues.
type Loop struct {
	Interval   time.Duration
	Controller Controller

	name      string
	iteration uint64
	wakeUpCh  chan struct{}
}

// NewLoop creates a Loop.
func NewLoop(name string, interval time.Duration, ctl Controller) *Loop {
	return &Loop{
		Interval:   interval,
		Controller: ctl,
		name:       name,
		wakeUpCh:   make(chan struct{}, 1),
	}
}

// Name implements Named.
func (l *Loop) Name() string {
	return l.name
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-l.wakeUpCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		l.runIteration(ctx)
		timer.Reset(interval)
	}
}

// TriggerNext implements ControlContext.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) runIteration(ctx context.Context) {
	l.iteration++
	iter := &loopIteration{Loop: l, ctx: ctx, time: time.Now()}
	if err := safeControl(l.Controller, iter); err != nil {
		glog.Errorf("%s: %v", l.name, err)
	}
}

func safeControl(ctl Controller, cc ControlContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered: %v", r)
		}
	}()
	return ctl.Control(cc)
}

type loopIteration struct {
	*Loop
	ctx  context.Context
	time time.Time
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Iteration() uint64 {
	return t.iteration
}
