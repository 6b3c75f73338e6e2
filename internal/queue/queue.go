// Package queue provides the bounded FIFO buffers shared by the session workers.
package queue

import (
	"context"
	"errors"
)

// DefaultCapacity is the bound used when none is configured.
const DefaultCapacity = 30

var ErrClosed = errors.New("queue closed")

// Queue is a bounded FIFO safe for concurrent producers and consumers.
// Push blocks while the queue is full and Pop blocks while it is empty.
type Queue[T any] struct {
	items chan T
	done  chan struct{}
}

// New creates a queue holding at most capacity items. A non-positive
// capacity falls back to DefaultCapacity.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue[T]{
		items: make(chan T, capacity),
		done:  make(chan struct{}),
	}
}

// Push appends v, waiting for free space until ctx is done or the queue is closed.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.items <- v:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop removes the oldest item, waiting until one is available, ctx is done
// or the queue is closed. Items still buffered at close time are dropped.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	select {
	case v := <-q.items:
		return v, nil
	case <-q.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close wakes every blocked producer and consumer. It must be called at most once.
func (q *Queue[T]) Close() {
	close(q.done)
}

func (q *Queue[T]) Len() int { return len(q.items) }

func (q *Queue[T]) Cap() int { return cap(q.items) }
