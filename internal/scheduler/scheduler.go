package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Materialiser creates today's scheduled records
type Materialiser interface {
	MaterializeToday(ctx context.Context) error
}

// Processor drives due records to a terminal state
type Processor interface {
	ProcessDue(ctx context.Context) error
	RecoverMissed(ctx context.Context) error
}

// Scheduler runs the periodic materialise and process tasks, preceded by a
// one-shot recovery pass that closes the downtime window. Ticks never overlap
// within a replica; a tick firing while the previous one still runs is
// skipped and logged. Cross-replica overlap is handled by the store's lease.
type Scheduler struct {
	materialiser    Materialiser
	processor       Processor
	checkInterval   time.Duration
	processInterval time.Duration
	log             *zap.Logger

	materialiseBusy sync.Mutex
	processBusy     sync.Mutex
	stopChan        chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

// New creates a new Scheduler
func New(materialiser Materialiser, processor Processor, checkInterval, processInterval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		materialiser:    materialiser,
		processor:       processor,
		checkInterval:   checkInterval,
		processInterval: processInterval,
		log:             log,
		stopChan:        make(chan struct{}),
	}
}

// Start runs the recovery pass, then launches both periodic loops. It returns
// once the loops are running; call Stop to drain and halt them.
func (s *Scheduler) Start(ctx context.Context) {
	// Recovery before the first tick: anything that came due while the
	// process was down goes through the normal pipeline now.
	if err := s.processor.RecoverMissed(ctx); err != nil {
		s.log.Error("recovery pass failed", zap.Error(err))
	}

	// Process immediately as well, so freshly materialised-and-due work does
	// not wait a full interval after startup.
	s.runTick(ctx, "process", &s.processBusy, s.processor.ProcessDue)

	s.wg.Add(2)
	go s.loop(ctx, "materialise", s.checkInterval, &s.materialiseBusy, s.materialiser.MaterializeToday)
	go s.loop(ctx, "process", s.processInterval, &s.processBusy, s.processor.ProcessDue)

	s.log.Info("scheduler started",
		zap.Duration("check_interval", s.checkInterval),
		zap.Duration("process_interval", s.processInterval))
}

// Stop prevents new ticks and blocks until in-flight ticks have returned
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// loop fires the task at the given cadence until stopped
func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, busy *sync.Mutex, task func(context.Context) error) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runTick(ctx, name, busy, task)
		}
	}
}

// runTick executes one tick unless the previous one is still running
func (s *Scheduler) runTick(ctx context.Context, name string, busy *sync.Mutex, task func(context.Context) error) {
	if !busy.TryLock() {
		s.log.Warn("tick still running, skipping", zap.String("task", name))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer busy.Unlock()

		start := time.Now()
		if err := task(ctx); err != nil {
			s.log.Error("tick failed", zap.String("task", name), zap.Error(err))
			return
		}
		s.log.Debug("tick finished", zap.String("task", name), zap.Duration("took", time.Since(start)))
	}()
}
