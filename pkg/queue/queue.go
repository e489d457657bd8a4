package queue

import "context"

// Queue represents a basic FIFO queue.
type Queue[T any] interface {
	Enqueue(item T) error
	EnqueueWait(ctx context.Context, item T) error
	Dequeue(ctx context.Context) (T, error)
	Size() int
	ReadAllMessages() []T
}
