package game

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kidswaste/Chips-Prod/internal/words"
)

// fakeTimer is one scheduled callback on the fake clock.
type fakeTimer struct {
	clk      *fakeClock
	deadline time.Time
	fn       func()
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock drives the engine deterministically: timers fire only when the
// test advances time, in deadline order, with no real waiting.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) timerHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clk: c, deadline: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// advance moves the clock forward, firing every due timer in deadline
// order. Callbacks may schedule new timers; those fire too if they fall
// within the window.
func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.deadline.After(target) {
				continue
			}
			if next == nil || t.deadline.Before(next.deadline) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.stopped = true
		if next.deadline.After(c.now) {
			c.now = next.deadline
		}
		fn := next.fn
		c.mu.Unlock()
		fn()
	}
}

type recordedEvent struct {
	Target  string // empty for broadcasts
	Event   string
	Payload any
}

// fakeNotifier records everything the engine emits.
type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *fakeNotifier) Broadcast(roomCode, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Event: event, Payload: payload})
}

func (n *fakeNotifier) SendTo(playerID, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Target: playerID, Event: event, Payload: payload})
}

func (n *fakeNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.Event == event {
			c++
		}
	}
	return c
}

func (n *fakeNotifier) last(event string) (recordedEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].Event == event {
			return n.events[i], true
		}
	}
	return recordedEvent{}, false
}

func (n *fakeNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

// testConfig keeps the default rules but pins a single theme so the word
// set is predictable.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Themes = []string{"test"}
	return cfg
}

// newTestRoom builds a room on a fake clock with a word bank containing the
// given dictionary under the "test" theme. A nil dictionary leaves the bank
// without a file, which disables word validation.
func newTestRoom(t *testing.T, cfg Config, dict []string) (*Room, *fakeClock, *fakeNotifier) {
	t.Helper()

	dir := t.TempDir()
	if dict != nil {
		path := filepath.Join(dir, "test.txt")
		if err := os.WriteFile(path, []byte(strings.Join(dict, "\n")), 0o644); err != nil {
			t.Fatalf("write word list: %v", err)
		}
	}
	bank := words.NewBank(dir)

	clk := newFakeClock()
	notify := &fakeNotifier{}
	room := newRoom("test-room", cfg, bank, notify, clk, zerolog.Nop())
	return room, clk, notify
}

// installWordSet force-loads the room's word set so tests do not depend on
// the asynchronous bank resolution having completed.
func installWordSet(r *Room) {
	set := r.bank.Load("test")
	r.mu.Lock()
	r.wordSet = set
	r.mu.Unlock()
}

// joinN adds n players named p1..pn with matching ids and returns their ids.
func joinN(t *testing.T, r *Room, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := "p" + string(rune('0'+i))
		if _, err := r.Join(id, "Player"+string(rune('0'+i))); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
		ids = append(ids, id)
	}
	return ids
}

// startToFirstTurn starts the game as the host and advances into the first
// TurnActive phase.
func startToFirstTurn(t *testing.T, r *Room, clk *fakeClock, host string) {
	t.Helper()
	r.StartGame(host)
	clk.advance(r.cfg.RoundStartDelay)
	if got := r.currentPhase(); got != PhaseTurnActive {
		t.Fatalf("expected TurnActive after round start, got %s", got)
	}
	installWordSet(r)
}

func (r *Room) currentPhase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Room) playerScore(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.players[id]; p != nil {
		return p.Score
	}
	return -1
}

func (r *Room) playerAlive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.players[id]
	return p != nil && p.Alive
}

func (r *Room) wordUsed(word string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.usedWords[word]
	return ok
}
