package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cbodonnell/cabinet/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunsInPostOrder(t *testing.T) {
	l := New(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var mu sync.Mutex
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
		})
	}
	require.NoError(t, l.Do(ctx, func() {}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_DoHonorsContext(t *testing.T) {
	l := New(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// nothing drains the loop
	err := l.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoop_PostWaitsWhenFull(t *testing.T) {
	l := New(1)
	ran := make(chan int, 2)
	l.Post(func() { ran <- 1 })

	posted := make(chan struct{})
	go func() {
		defer close(posted)
		l.Post(func() { ran <- 2 })
	}()

	select {
	case <-posted:
		t.Fatal("Post returned while the queue was full")
	case <-time.After(20 * time.Millisecond):
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	<-posted
	require.NoError(t, l.Do(ctx, func() {}))
	assert.Equal(t, 1, <-ran)
	assert.Equal(t, 2, <-ran, "no reaction is dropped")
}

func TestLoop_PostAfterRunReturns(t *testing.T) {
	l := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		l.Run(ctx)
	}()
	cancel()
	<-stopped

	// neither call may block once the loop is gone
	l.Post(func() {})
	l.Post(func() {})
	err := l.Do(context.Background(), func() {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSingleShot(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	s := NewSingleShot(c, Inline{})

	fired := 0
	s.Arm(time.Second, func() { fired++ })
	assert.True(t, s.Pending())

	c.Advance(900 * time.Millisecond)
	s.Arm(time.Second, func() { fired++ })
	c.Advance(900 * time.Millisecond)
	assert.Equal(t, 0, fired, "re-arming restarts the countdown")

	c.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.False(t, s.Pending())

	s.Arm(time.Second, func() { fired++ })
	s.Cancel()
	c.Advance(time.Minute)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, c.Pending())
}

type deferred struct {
	fns []func()
}

func (d *deferred) Post(fn func()) {
	d.fns = append(d.fns, fn)
}

func TestSingleShot_CancelAfterQueued(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	exec := &deferred{}
	s := NewSingleShot(c, exec)

	fired := false
	s.Arm(time.Second, func() { fired = true })
	c.Advance(time.Second)
	require.Len(t, exec.fns, 1)

	s.Cancel()
	exec.fns[0]()
	assert.False(t, fired)
}
