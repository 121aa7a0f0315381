package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerExpires(t *testing.T) {
	t.Parallel()

	var ticks, expires atomic.Int32
	done := make(chan struct{})

	ArmTimer(50*time.Millisecond, 10*time.Millisecond,
		func(time.Duration) { ticks.Add(1) },
		func() {
			expires.Add(1)
			close(done)
		},
	)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not expire")
	}

	assert.Equal(t, int32(1), expires.Load())

	// 50ms at 10ms resolution yields at most four ticks before the expiry;
	// scheduling jitter may swallow some, never add extra ones.
	assert.Positive(t, ticks.Load())
	assert.LessOrEqual(t, ticks.Load(), int32(4))
}

func TestTimerCancelPreventsExpire(t *testing.T) {
	t.Parallel()

	var expires atomic.Int32

	timer := ArmTimer(30*time.Millisecond, 10*time.Millisecond,
		func(time.Duration) {},
		func() { expires.Add(1) },
	)
	timer.Cancel()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), expires.Load())
}

func TestTimerCancelIsIdempotent(t *testing.T) {
	t.Parallel()

	timer := ArmTimer(time.Hour, time.Minute, func(time.Duration) {}, func() {})

	assert.NotPanics(t, func() {
		timer.Cancel()
		timer.Cancel()
		timer.Cancel()
	})
}

func TestTimerCancelAfterExpire(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	timer := ArmTimer(20*time.Millisecond, 10*time.Millisecond,
		func(time.Duration) {},
		func() { close(done) },
	)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not expire")
	}

	assert.NotPanics(t, timer.Cancel)
}
