package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue(t *testing.T) {
	q := NewInMemoryQueue[string](2)

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	err := q.Enqueue("c")
	var full *ErrQueueFull
	require.ErrorAs(t, err, &full)
	assert.Equal(t, 2, full.Capacity)
	assert.Equal(t, 2, q.Size())

	item, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", item)

	assert.Equal(t, []string{"b"}, q.ReadAllMessages())
	assert.Equal(t, 0, q.Size())
}

func TestInMemoryQueue_DequeueHonorsContext(t *testing.T) {
	q := NewInMemoryQueue[int](1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInMemoryQueue_EnqueueWait(t *testing.T) {
	q := NewInMemoryQueue[int](1)
	require.NoError(t, q.EnqueueWait(context.Background(), 1))

	done := make(chan error, 1)
	go func() {
		done <- q.EnqueueWait(context.Background(), 2)
	}()

	item, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, item)
	require.NoError(t, <-done, "a blocked enqueue completes once there is room")

	item, err = q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, item)
}

func TestInMemoryQueue_EnqueueWaitHonorsContext(t *testing.T) {
	q := NewInMemoryQueue[int](1)
	require.NoError(t, q.Enqueue(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.EnqueueWait(ctx, 2), context.DeadlineExceeded)

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	assert.ErrorIs(t, q.EnqueueWait(cancelled, 2), context.Canceled)
	assert.Equal(t, 1, q.Size())
}
