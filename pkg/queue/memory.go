package queue

import (
	"context"
	"fmt"
)

// ErrQueueFull is returned by Enqueue when the queue is at capacity.
type ErrQueueFull struct {
	Capacity int
}

func (e *ErrQueueFull) Error() string {
	return fmt.Sprintf("queue is full (capacity %d)", e.Capacity)
}

// InMemoryQueue implements a bounded in-memory queue backed by a channel.
type InMemoryQueue[T any] struct {
	ch chan T
}

// NewInMemoryQueue creates a new queue holding at most size items.
func NewInMemoryQueue[T any](size int) *InMemoryQueue[T] {
	return &InMemoryQueue[T]{
		ch: make(chan T, size),
	}
}

// Enqueue adds an item to the end of the queue without blocking.
func (q *InMemoryQueue[T]) Enqueue(item T) error {
	select {
	case q.ch <- item:
		return nil
	default:
		return &ErrQueueFull{Capacity: cap(q.ch)}
	}
}

// EnqueueWait adds an item to the end of the queue, blocking while the
// queue is full until there is room or ctx is done.
func (q *InMemoryQueue[T]) EnqueueWait(ctx context.Context, item T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue removes and returns the item from the front of the queue,
// blocking until one is available or ctx is done.
func (q *InMemoryQueue[T]) Dequeue(ctx context.Context) (T, error) {
	select {
	case item := <-q.ch:
		return item, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Size returns the current size of the queue.
func (q *InMemoryQueue[T]) Size() int {
	return len(q.ch)
}

// ReadAllMessages reads all pending items in the queue without blocking.
func (q *InMemoryQueue[T]) ReadAllMessages() []T {
	var items []T
	for {
		select {
		case item := <-q.ch:
			items = append(items, item)
		default:
			return items
		}
	}
}
