package scheduler

import (
	"context"
	"sync"
	"time"
)

// Task is a deferred unit of work. The context is the scheduler's run context;
// it is cancelled when the scheduler stops.
type Task func(ctx context.Context)

// Handle refers to one scheduled task.
type Handle struct {
	timer *time.Timer
}

// Cancel stops the task if it has not fired yet.
func (h *Handle) Cancel() {
	if h != nil && h.timer != nil {
		h.timer.Stop()
	}
}

// Scheduler runs tasks at wall-clock deadlines. Tasks are best-effort
// background work: stopping the scheduler cancels the run context and stops
// pending timers, so they never keep a shutting-down process alive.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[*Handle]struct{}
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[*Handle]struct{}),
	}
}

// At schedules task for the given time. Deadlines in the past run promptly.
func (s *Scheduler) At(at time.Time, task Task) *Handle {
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	h := &Handle{}
	s.mu.Lock()
	s.pending[h] = struct{}{}
	s.mu.Unlock()

	h.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, h)
		s.mu.Unlock()

		select {
		case <-s.ctx.Done():
			return
		default:
		}
		task(s.ctx)
	})
	return h
}

// Stop cancels the run context and stops all pending timers. Tasks that are
// already running observe the cancelled context.
func (s *Scheduler) Stop() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for h := range s.pending {
		if h.timer != nil {
			h.timer.Stop()
		}
		delete(s.pending, h)
	}
}
