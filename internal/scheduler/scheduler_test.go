package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeMaterialiser struct {
	calls int32
}

func (f *fakeMaterialiser) MaterializeToday(ctx context.Context) error {
	atomic.AddInt32(&f.calls, 1)
	return nil
}

type fakeProcessor struct {
	recoveries int32
	calls      int32
	block      time.Duration
}

func (f *fakeProcessor) RecoverMissed(ctx context.Context) error {
	atomic.AddInt32(&f.recoveries, 1)
	return nil
}

func (f *fakeProcessor) ProcessDue(ctx context.Context) error {
	atomic.AddInt32(&f.calls, 1)
	if f.block > 0 {
		time.Sleep(f.block)
	}
	return nil
}

func TestScheduler_RecoversThenTicks(t *testing.T) {
	materialiser := &fakeMaterialiser{}
	processor := &fakeProcessor{}

	s := New(materialiser, processor, 20*time.Millisecond, 20*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if got := atomic.LoadInt32(&processor.recoveries); got != 1 {
		t.Errorf("RecoverMissed called %d times, want 1", got)
	}
	// One immediate run at startup plus periodic ticks
	if got := atomic.LoadInt32(&processor.calls); got < 2 {
		t.Errorf("ProcessDue called %d times, want >= 2", got)
	}
	if got := atomic.LoadInt32(&materialiser.calls); got < 1 {
		t.Errorf("MaterializeToday called %d times, want >= 1", got)
	}
}

func TestScheduler_StopDrainsInFlightTick(t *testing.T) {
	materialiser := &fakeMaterialiser{}
	processor := &fakeProcessor{block: 80 * time.Millisecond}

	s := New(materialiser, processor, time.Hour, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx) // the immediate process run is still sleeping when Stop begins
	s.Stop()

	if got := atomic.LoadInt32(&processor.calls); got != 1 {
		t.Errorf("ProcessDue called %d times, want 1", got)
	}
}

func TestScheduler_SlowTickDoesNotOverlap(t *testing.T) {
	materialiser := &fakeMaterialiser{}
	processor := &fakeProcessor{block: 120 * time.Millisecond}

	s := New(materialiser, processor, time.Hour, 15*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	// Several ticks fired while the first run slept; all were skipped
	if got := atomic.LoadInt32(&processor.calls); got != 1 {
		t.Errorf("ProcessDue ran %d times during one blocking run, want 1", got)
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := New(&fakeMaterialiser{}, &fakeProcessor{}, time.Hour, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	s.Stop()
	s.Stop()
}
