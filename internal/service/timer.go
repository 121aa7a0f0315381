package service

import (
	"sync"
	"time"
)

// Timer drives the cancellable countdown for one armed question. It ticks
// on a fixed interval until the duration elapses or Cancel is called.
// onExpire fires exactly once; Cancel is idempotent, so cancelling an
// already expired or already cancelled timer is a no-op.
type Timer struct {
	cancel chan struct{}
	once   sync.Once
}

// ArmTimer starts a countdown of d, invoking onTick with the remaining time
// on every interval and onExpire when the countdown runs out.
func ArmTimer(d, interval time.Duration, onTick func(remaining time.Duration), onExpire func()) *Timer {
	t := &Timer{cancel: make(chan struct{})}
	go t.run(d, interval, onTick, onExpire)
	return t
}

func (t *Timer) run(d, interval time.Duration, onTick func(time.Duration), onExpire func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	remaining := d
	for {
		select {
		case <-t.cancel:
			return
		case <-ticker.C:
			// A cancel racing the tick must win.
			select {
			case <-t.cancel:
				return
			default:
			}

			remaining -= interval
			if remaining <= 0 {
				onExpire()
				return
			}
			onTick(remaining)
		}
	}
}

// Cancel stops the countdown. Safe to call multiple times.
func (t *Timer) Cancel() {
	t.once.Do(func() {
		close(t.cancel)
	})
}
