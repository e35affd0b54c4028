package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

const schedulerLockName = "scheduler"

// Sweep is a periodic cleanup step, such as purging finished tasks or
// expired sessions. Run returns how many records it removed.
type Sweep struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// Scheduler runs periodic maintenance on worker nodes. Each cycle it
// enqueues a recover_stale task, runs the configured sweeps and logs the
// queue depth.
//
// For multi-worker deployments, configure a DistributedLock so only one
// instance runs a cycle at a time.
type Scheduler struct {
	taskQueue driven.TaskQueue
	lock      driven.DistributedLock
	sweeps    []Sweep
	logger    *slog.Logger

	// Internal state
	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration
	lockTTL  time.Duration
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	TaskQueue driven.TaskQueue
	Lock      driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Sweeps    []Sweep
	Logger    *slog.Logger
	Interval  time.Duration // How often a cycle runs (default: 1m)
	LockTTL   time.Duration // TTL for the distributed lock (default: 2x interval)
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 2 * interval
	}

	return &Scheduler{
		taskQueue: cfg.TaskQueue,
		lock:      cfg.Lock,
		sweeps:    cfg.Sweeps,
		logger:    logger,
		interval:  interval,
		lockTTL:   lockTTL,
	}
}

// Start begins the scheduler loop.
// It runs until Stop is called or context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("scheduler starting", "interval", s.interval, "sweeps", len(s.sweeps))

	go s.run(ctx)

	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle runs one maintenance cycle. It returns false when another
// instance holds the scheduler lock or the lock could not be checked.
func (s *Scheduler) RunCycle(ctx context.Context) bool {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, schedulerLockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire scheduler lock", "error", err)
			return false
		}
		if !acquired {
			s.logger.Debug("scheduler lock held by another instance, skipping cycle")
			return false
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), schedulerLockName); err != nil {
				s.logger.Warn("failed to release scheduler lock", "error", err)
			}
		}()
	}

	if s.taskQueue != nil {
		task := domain.NewTask(domain.TaskTypeRecoverStale, "", nil)
		task.MaxAttempts = 1
		if err := s.taskQueue.Enqueue(ctx, task); err != nil {
			s.logger.Error("failed to enqueue recover_stale task", "error", err)
		} else {
			s.logger.Debug("enqueued recover_stale task", "task_id", task.ID)
		}
	}

	for _, sweep := range s.sweeps {
		n, err := sweep.Run(ctx)
		if err != nil {
			s.logger.Error("sweep failed", "sweep", sweep.Name, "error", err)
			continue
		}
		if n > 0 {
			s.logger.Info("sweep removed records", "sweep", sweep.Name, "count", n)
		}
	}

	if s.taskQueue != nil {
		if stats, err := s.taskQueue.Stats(ctx); err != nil {
			s.logger.Warn("failed to read queue stats", "error", err)
		} else {
			s.logger.Debug("queue depth",
				"pending", stats.PendingCount,
				"processing", stats.ProcessingCount,
				"failed", stats.FailedCount,
			)
		}
	}

	return true
}
