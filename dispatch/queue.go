package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueClosed is returned when submitting to a shut down queue.
	ErrQueueClosed = errors.New("event queue is shut down")
	// ErrQueueFull is returned when the queue has no room left.
	ErrQueueFull = errors.New("event queue is full")
)

// DefaultQueueSize is the event queue depth used when none is configured.
const DefaultQueueSize = 10000

// event is one queued notification call.
type event struct {
	name string
	fn   func() error
	done chan struct{}
}

// QueueStats contains event queue statistics.
type QueueStats struct {
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Pending   int   `json:"pending"`
}

// Queue runs notification calls on a single background goroutine, in
// submission order, so the caller never blocks on a socket.
type Queue struct {
	log    *zap.Logger
	events chan *event
	wg     sync.WaitGroup

	completed int64
	failed    int64

	mu      sync.RWMutex
	running bool
}

// NewQueue starts a queue holding up to size pending events.
func NewQueue(log *zap.Logger, size int) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	if size <= 0 {
		size = DefaultQueueSize
	}

	q := &Queue{
		log:     log,
		events:  make(chan *event, size),
		running: true,
	}

	q.wg.Add(1)
	go q.worker()
	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for ev := range q.events {
		q.process(ev)
	}
}

func (q *Queue) process(ev *event) {
	if ev.done != nil {
		defer close(ev.done)
	}
	if ev.fn == nil {
		return
	}

	// A panicking notifier must not stop later events.
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&q.failed, 1)
			q.log.Error("panic in event", zap.String("event", ev.name), zap.Any("panic", r))
		}
	}()

	if err := ev.fn(); err != nil {
		atomic.AddInt64(&q.failed, 1)
		q.log.Warn("event failed", zap.String("event", ev.name), zap.Error(err))
		return
	}
	atomic.AddInt64(&q.completed, 1)
}

// Submit queues fn. It never blocks.
func (q *Queue) Submit(name string, fn func() error) error {
	return q.enqueue(&event{name: name, fn: fn})
}

func (q *Queue) enqueue(ev *event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.running {
		return ErrQueueClosed
	}
	select {
	case q.events <- ev:
		return nil
	default:
		return fmt.Errorf("%w: dropping %s", ErrQueueFull, ev.name)
	}
}

// Sync waits until every event submitted before the call has run.
func (q *Queue) Sync(ctx context.Context) error {
	done := make(chan struct{})

	q.mu.RLock()
	if !q.running {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	select {
	case q.events <- &event{name: "sync", done: done}:
	case <-ctx.Done():
		q.mu.RUnlock()
		return ctx.Err()
	}
	q.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current queue statistics.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Completed: atomic.LoadInt64(&q.completed),
		Failed:    atomic.LoadInt64(&q.failed),
		Pending:   len(q.events),
	}
}

// Shutdown stops accepting events and waits for the queued ones to run.
func (q *Queue) Shutdown() {
	_ = q.ShutdownWithTimeout(0)
}

// ShutdownWithTimeout is Shutdown bounded by timeout. A zero timeout waits
// indefinitely.
func (q *Queue) ShutdownWithTimeout(timeout time.Duration) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	close(q.events)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	if timeout <= 0 {
		<-done
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("shutdown timeout")
	}
}

// IsRunning returns true if the queue still accepts events.
func (q *Queue) IsRunning() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.running
}
