package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for long-lived activities.
type Runnable interface {
	Run(context.Context) error
}

// Controller defines the work performed by one iteration of a Loop.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext provides the context of the current iteration.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// Iteration returns the sequence number of the iteration, starting at 1.
	Iteration() uint64
	// TriggerNext schedules the next iteration immediately after the
	// current one instead of waiting for the interval.
	TriggerNext()
}
