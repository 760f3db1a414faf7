package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeClock advances by a fixed step on every read.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newFakeTimer(step time.Duration) *ExecutionTimer {
	et := NewExecutionTimer(zap.NewNop())
	et.now = (&fakeClock{t: time.Unix(0, 0), step: step}).now
	return et
}

func TestTimerStartEndPairing(t *testing.T) {
	et := newFakeTimer(3 * time.Millisecond)

	et.Start("rendering")
	assert.Equal(t, 3*time.Millisecond, et.End("rendering"))
}

func TestTimerEndWithoutStart(t *testing.T) {
	et := newFakeTimer(time.Millisecond)

	assert.Equal(t, time.Duration(0), et.End("rendering"))
}

func TestTimerNamesAreIsolated(t *testing.T) {
	et := newFakeTimer(time.Millisecond)

	et.Start("input")
	// Misuse on one name must not consume another name's start.
	assert.Equal(t, time.Duration(0), et.End("rendering"))
	assert.Equal(t, time.Millisecond, et.End("input"))
}

func TestTimerNestedStarts(t *testing.T) {
	et := newFakeTimer(time.Millisecond)

	et.Start("combat") // t=1
	et.Start("combat") // t=2
	assert.Equal(t, time.Millisecond, et.End("combat"))   // t=3, inner
	assert.Equal(t, 3*time.Millisecond, et.End("combat")) // t=4, outer
	assert.Equal(t, time.Duration(0), et.End("combat"))
}
