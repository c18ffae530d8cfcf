package framework

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopSurvivesErrorsAndPanics(t *testing.T) {
	var count int32
	loop := NewLoop("test", time.Millisecond, ControlFunc(func(cc ControlContext) error {
		switch atomic.AddInt32(&count, 1) {
		case 1:
			return errors.New("boom")
		case 2:
			panic("bad frame")
		}
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&count) >= 4 }, time.Second, time.Millisecond)
	cancel()
	require.Equal(t, context.Canceled, <-done)
}

func TestLoopTriggerNext(t *testing.T) {
	var count, mismatch int32
	loop := NewLoop("trigger", time.Hour, nil)
	loop.Controller = ControlFunc(func(cc ControlContext) error {
		if uint64(atomic.AddInt32(&count, 1)) != cc.Iteration() {
			atomic.AddInt32(&mismatch, 1)
		}
		if cc.Iteration() < 5 {
			cc.TriggerNext()
		}
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&count) == 5 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	require.EqualValues(t, 5, atomic.LoadInt32(&count))
	require.Zero(t, atomic.LoadInt32(&mismatch))
}

func TestRunnerAggregatesErrors(t *testing.T) {
	runner := NewRunner()
	runner.Go(
		NamedRun("ok", RunFunc(func(context.Context) error { return nil })),
		NamedRun("canceled", RunFunc(func(context.Context) error { return context.Canceled })),
		NamedRun("failed", RunFunc(func(context.Context) error { return errors.New("failed") })),
	)
	err := runner.Wait()
	require.Error(t, err)
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.Len(t, agg.Errors, 1)
	require.EqualError(t, agg.Errors[0], "failed")
}
