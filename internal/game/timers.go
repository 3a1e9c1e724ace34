package game

import "time"

// Timer names. At most one timer per name is armed in a room at any moment.
const (
	timerTurnTimeout   = "turn-timeout"
	timerEndTurnPopup  = "end-turn-popup"
	timerVoteTimeout   = "vote-timeout"
	timerNextPhase     = "next-phase"
	timerBotSubmission = "bot-submission"
)

// clock abstracts time so the engine can be driven deterministically in
// tests. The real implementation delegates to the time package.
type clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) timerHandle
}

type timerHandle interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) timerHandle {
	return time.AfterFunc(d, fn)
}

// scheduled is one armed timer. Identity of the pointer is what makes stale
// callbacks detectable: a callback only runs if its handle is still the one
// registered under its name.
type scheduled struct {
	handle timerHandle
}

// schedule arms a named timer, replacing any previous timer with that name.
// Callers must hold the room lock. The callback re-acquires the lock, then
// runs fn only if the room is still open and this exact handle is still
// current, so a cancelled or superseded timer that already fired is a no-op.
func (r *Room) schedule(name string, d time.Duration, fn func()) {
	r.cancelTimer(name)
	s := &scheduled{}
	r.timers[name] = s
	s.handle = r.clk.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || r.timers[name] != s {
			return
		}
		delete(r.timers, name)
		fn()
	})
}

// cancelTimer disarms one named timer if armed. Callers must hold the room
// lock.
func (r *Room) cancelTimer(name string) {
	if s, ok := r.timers[name]; ok {
		if s.handle != nil {
			s.handle.Stop()
		}
		delete(r.timers, name)
	}
}

// cancelAllTimers disarms every scheduled timer. Called on every phase
// entry and on room close, before any new timer is armed. Callers must hold
// the room lock.
func (r *Room) cancelAllTimers() {
	for name := range r.timers {
		r.cancelTimer(name)
	}
}
