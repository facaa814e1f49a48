package queue

import (
	"context"
	"sync"
	"time"

	"github.com/textloop/campaign-dispatch/internal/model"
)

// Handler receives a task once its not-before time has passed.
type Handler func(ctx context.Context, task model.DispatchTask)

// InMemoryQueue is a timer-backed queue for tests and broker-less local
// runs. There is no retry loop here: the dispatch worker does its own
// rescheduling, and stacking queue-level retries on top of that would
// double-send.
type InMemoryQueue struct {
	mu      sync.Mutex
	handler Handler
	now     func() time.Time
	wg      sync.WaitGroup
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{now: time.Now}
}

// Subscribe registers the single task handler. Tasks enqueued before a
// handler exists are dropped.
func (q *InMemoryQueue) Subscribe(h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = h
}

func (q *InMemoryQueue) Enqueue(_ context.Context, task model.DispatchTask, notBefore time.Time) error {
	q.mu.Lock()
	h := q.handler
	q.mu.Unlock()
	if h == nil {
		return nil
	}

	delay := notBefore.Sub(q.now())
	if delay < 0 {
		delay = 0
	}

	q.wg.Add(1)
	time.AfterFunc(delay, func() {
		defer q.wg.Done()
		h(context.Background(), task)
	})
	return nil
}

// Wait blocks until every enqueued task has been handled.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

var _ Queue = (*InMemoryQueue)(nil)
