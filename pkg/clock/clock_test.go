package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_Advance(t *testing.T) {
	start := time.UnixMilli(1_000)
	c := NewFake(start)

	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(time.Second, func() {
		fired = append(fired, "a")
		c.AfterFunc(500*time.Millisecond, func() { fired = append(fired, "nested") })
	})
	stopped := c.AfterFunc(1500*time.Millisecond, func() { fired = append(fired, "stopped") })
	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	c.Advance(1999 * time.Millisecond)
	assert.Equal(t, []string{"a", "nested"}, fired)
	assert.Equal(t, start.Add(1999*time.Millisecond), c.Now())
	assert.Equal(t, 1, c.Pending())

	c.Advance(time.Millisecond)
	assert.Equal(t, []string{"a", "nested", "b"}, fired)
	assert.Equal(t, 0, c.Pending())
}

func TestFake_sameDeadlineFiresInScheduleOrder(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	var fired []int
	for i := 0; i < 3; i++ {
		i := i
		c.AfterFunc(time.Second, func() { fired = append(fired, i) })
	}
	c.Advance(time.Second)

	assert.Equal(t, []int{0, 1, 2}, fired)
}
