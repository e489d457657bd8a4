// Package loop serializes every reaction of the cabinet onto one goroutine.
//
// Transport readers, timers, the display and API handlers never touch
// controller state directly; they Post closures that the Loop runs one at
// a time in the order they were posted.
package loop

import (
	"context"
	"errors"
	"fmt"

	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/queue"
)

// DefaultQueueSize is the number of reactions that may be pending at once.
const DefaultQueueSize = 1024

// Executor runs posted functions without overlap.
type Executor interface {
	Post(fn func())
}

// Inline runs every posted function immediately on the caller's goroutine.
// It is meant for tests that drive the controller from a single goroutine.
type Inline struct{}

func (Inline) Post(fn func()) {
	fn()
}

// Loop is an Executor backed by a queue and drained by Run.
type Loop struct {
	queue queue.Queue[func()]
	// done is cancelled when Run returns
	done   context.Context
	cancel context.CancelFunc
}

func New(size int) *Loop {
	done, cancel := context.WithCancel(context.Background())
	return &Loop{
		queue:  queue.NewInMemoryQueue[func()](size),
		done:   done,
		cancel: cancel,
	}
}

// Post queues fn. While the queue is full Post blocks until the loop makes
// room, so reactions running on the loop must never call it. After Run has
// returned the reaction is dropped.
func (l *Loop) Post(fn func()) {
	if err := l.enqueue(l.done, fn); err != nil {
		log.Debug("Dropping reaction: %v", err)
	}
}

func (l *Loop) enqueue(ctx context.Context, fn func()) error {
	err := l.queue.Enqueue(fn)
	var full *queue.ErrQueueFull
	if !errors.As(err, &full) {
		return err
	}
	log.Warn("Event loop is backed up (%d pending), waiting", full.Capacity)
	return l.queue.EnqueueWait(ctx, fn)
}

// Do posts fn and waits until it has run or ctx is done.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(l.done, cancel)
	defer stop()

	done := make(chan struct{})
	err := l.enqueue(ctx, func() {
		defer close(done)
		fn()
	})
	if err != nil {
		return fmt.Errorf("posting to event loop: %w", err)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for event loop: %w", ctx.Err())
	}
}

// Run drains the queue until ctx is done. Reactions still queued at that
// point are discarded.
func (l *Loop) Run(ctx context.Context) {
	defer l.cancel()
	for {
		fn, err := l.queue.Dequeue(ctx)
		if err != nil {
			l.cancel()
			if pending := l.queue.ReadAllMessages(); len(pending) > 0 {
				log.Debug("Discarded %d queued reactions", len(pending))
			}
			log.Debug("Event loop stopped: %v", err)
			return
		}
		fn()
	}
}
