package ws

import (
	"sync"
	"time"
)

const warningLead = 30 * time.Second

// TimerRegistry holds the one timer pair (warning, close) an active room may
// have. Only the session manager creates or clears entries; the close
// callback runs at most once per armed room because the handle is removed
// under the lock before it fires.
type TimerRegistry struct {
	mu sync.Mutex
	m  map[string]*roomTimer
}

type roomTimer struct {
	warn *time.Timer
	end  *time.Timer
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{m: make(map[string]*roomTimer)}
}

// Arm schedules the warning at endsAt-30s (skipped when already past) and
// the close at endsAt (fires immediately when already past). Arming an
// already-armed room is a no-op; returns whether a timer was created.
func (tr *TimerRegistry) Arm(roomID string, endsAt time.Time, warn, closeRoom func()) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, ok := tr.m[roomID]; ok {
		return false
	}

	rt := &roomTimer{}
	now := time.Now()

	if d := endsAt.Add(-warningLead).Sub(now); d > 0 {
		rt.warn = time.AfterFunc(d, warn)
	}

	endDelay := endsAt.Sub(now)
	if endDelay < 0 {
		endDelay = 0
	}
	rt.end = time.AfterFunc(endDelay, func() {
		if tr.take(roomID) == nil {
			return // cancelled before it could run
		}
		closeRoom()
	})

	tr.m[roomID] = rt
	return true
}

// Cancel stops and discards the room's timers, if any.
func (tr *TimerRegistry) Cancel(roomID string) {
	if rt := tr.take(roomID); rt != nil {
		if rt.warn != nil {
			rt.warn.Stop()
		}
		rt.end.Stop()
	}
}

func (tr *TimerRegistry) Armed(roomID string) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	_, ok := tr.m[roomID]
	return ok
}

func (tr *TimerRegistry) take(roomID string) *roomTimer {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	rt := tr.m[roomID]
	delete(tr.m, roomID)
	return rt
}
