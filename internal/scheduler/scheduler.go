package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Category partitions operations into coalescing groups.
type Category string

// Operation performs one asynchronous request and calls done exactly once
// when it completes, whatever the outcome.
type Operation func(done func())

// ErrSuperseded resolves a submitted operation that was dropped from the
// queue by a newer request of the same category before it started.
var ErrSuperseded = errors.New("operation superseded by a newer request")

type task struct {
	id       uint64
	category Category
	op       Operation
	// dropped is invoked when a newer task of the same category replaces this one.
	dropped func()
}

// Scheduler executes queued operations strictly one at a time.
type Scheduler struct {
	mu      sync.Mutex
	locked  bool
	pumping bool
	queue   []*task
	nextID  uint64
	running Category
	logger  *slog.Logger
}

// New creates an idle Scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger: logger.With("component", "scheduler"),
	}
}

// Enqueue appends op after removing any pending operation of the same
// category, then dispatches if the scheduler is idle.
func (s *Scheduler) Enqueue(category Category, op Operation) {
	s.enqueue(&task{category: category, op: op})
}

// Submit enqueues fn under category and returns a channel that receives
// exactly one value: fn's result, ErrSuperseded if the request was replaced
// before starting, or ctx.Err() if ctx was done when its turn came.
// fn runs on its own goroutine; a panic inside it is reported as an error.
func (s *Scheduler) Submit(ctx context.Context, category Category, fn func(ctx context.Context) error) <-chan error {
	result := make(chan error, 1)

	s.enqueue(&task{
		category: category,
		op: func(done func()) {
			if err := ctx.Err(); err != nil {
				result <- err
				done()
				return
			}
			go func() {
				var err error
				defer func() {
					if p := recover(); p != nil {
						err = fmt.Errorf("operation %s panicked: %v", category, p)
					}
					result <- err
					done()
				}()
				err = fn(ctx)
			}()
		},
		dropped: func() {
			result <- ErrSuperseded
		},
	})

	return result
}

// Do is the blocking form of Submit.
func (s *Scheduler) Do(ctx context.Context, category Category, fn func(ctx context.Context) error) error {
	select {
	case err := <-s.Submit(ctx, category, fn):
		return err
	case <-ctx.Done():
		// The operation may still run; its result is discarded.
		return ctx.Err()
	}
}

// Pending returns the number of queued operations that have not started.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Busy reports whether an operation is currently executing.
func (s *Scheduler) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

func (s *Scheduler) enqueue(t *task) {
	var dropped []*task

	s.mu.Lock()
	s.nextID++
	t.id = s.nextID

	kept := s.queue[:0]
	for _, pending := range s.queue {
		if pending.category == t.category {
			dropped = append(dropped, pending)
			continue
		}
		kept = append(kept, pending)
	}
	// Clear the tail so dropped tasks are not retained by the backing array.
	for i := len(kept); i < len(s.queue); i++ {
		s.queue[i] = nil
	}
	s.queue = append(kept, t)
	queueLen := len(s.queue)
	s.mu.Unlock()

	for _, d := range dropped {
		s.logger.Debug("dropped redundant operation",
			"category", d.category,
			"task_id", d.id,
			"superseded_by", t.id)
		if d.dropped != nil {
			d.dropped()
		}
	}

	s.logger.Debug("operation enqueued",
		"category", t.category,
		"task_id", t.id,
		"queue_len", queueLen)

	s.pump()
}

// pump dispatches queued operations until the scheduler is locked or the
// queue is empty. Only one pump loop runs at a time; a done callback that
// fires while the loop is active (for example synchronously from inside the
// operation) just unlocks and lets the active loop continue, which keeps the
// stack flat.
func (s *Scheduler) pump() {
	s.mu.Lock()
	if s.pumping {
		s.mu.Unlock()
		return
	}
	s.pumping = true

	for !s.locked && len(s.queue) > 0 {
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.locked = true
		s.running = next.category
		s.mu.Unlock()

		s.logger.Debug("executing operation",
			"category", next.category,
			"task_id", next.id)
		next.op(s.doneFunc(next))

		s.mu.Lock()
	}

	s.pumping = false
	s.mu.Unlock()
}

func (s *Scheduler) doneFunc(t *task) func() {
	var once sync.Once
	return func() {
		called := false
		once.Do(func() {
			called = true
			s.mu.Lock()
			s.locked = false
			s.running = ""
			s.mu.Unlock()
			s.pump()
		})
		if !called {
			s.logger.Warn("done called more than once",
				"category", t.category,
				"task_id", t.id)
		}
	}
}
