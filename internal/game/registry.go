package game

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kidswaste/Chips-Prod/internal/words"
)

// Registry owns every room, keyed by room code. Rooms are created lazily on
// first reference and removed either explicitly or by the periodic sweep.
// Nothing else in the process holds a room table.
type Registry struct {
	cfg    Config
	bank   *words.Bank
	notify Notifier
	clk    clock
	log    zerolog.Logger

	rooms map[string]*Room
	mu    sync.RWMutex

	sweepStop    chan struct{}
	sweepDone    chan struct{}
	sweepStarted bool
}

func NewRegistry(cfg Config, bank *words.Bank, notify Notifier, logger zerolog.Logger) *Registry {
	return newRegistry(cfg, bank, notify, realClock{}, logger)
}

func newRegistry(cfg Config, bank *words.Bank, notify Notifier, clk clock, logger zerolog.Logger) *Registry {
	return &Registry{
		cfg:       cfg,
		bank:      bank,
		notify:    notify,
		clk:       clk,
		log:       logger,
		rooms:     make(map[string]*Room),
		sweepStop: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
}

// GetOrCreate returns the room for a code, creating it on first reference.
// Idempotent: concurrent callers for one code get the same room.
func (reg *Registry) GetOrCreate(code string) *Room {
	reg.mu.RLock()
	room, ok := reg.rooms[code]
	reg.mu.RUnlock()
	if ok {
		return room
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if room, ok := reg.rooms[code]; ok {
		return room
	}
	room = newRoom(code, reg.cfg, reg.bank, reg.notify, reg.clk, reg.log)
	reg.rooms[code] = room
	reg.log.Info().Str("room", code).Msg("Room created")
	return room
}

// Get returns the room for a code, or nil.
func (reg *Registry) Get(code string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[code]
}

// Destroy removes a room and closes it: all timers cancelled, members
// notified. Safe to call for a code that no longer exists.
func (reg *Registry) Destroy(code, reason string) {
	reg.mu.Lock()
	room, ok := reg.rooms[code]
	if ok {
		delete(reg.rooms, code)
	}
	reg.mu.Unlock()

	if ok {
		room.close(reason)
	}
}

// Count returns the number of live rooms.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// StartSweeper launches the background reaper. It destroys any room with
// nobody online, past its maximum age, or idle beyond the configured bound.
func (reg *Registry) StartSweeper() {
	reg.sweepStarted = true
	go func() {
		defer close(reg.sweepDone)
		ticker := time.NewTicker(reg.cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				reg.sweep()
			case <-reg.sweepStop:
				return
			}
		}
	}()
}

func (reg *Registry) sweep() {
	now := reg.clk.Now()

	reg.mu.RLock()
	var expired []string
	for code, room := range reg.rooms {
		if room.idle(now) {
			expired = append(expired, code)
		}
	}
	reg.mu.RUnlock()

	for _, code := range expired {
		reg.log.Info().Str("room", code).Msg("Sweeping expired room")
		reg.Destroy(code, "expired")
	}
}

// Close stops the sweeper and tears down every remaining room.
func (reg *Registry) Close() {
	if reg.sweepStarted {
		close(reg.sweepStop)
		<-reg.sweepDone
	}

	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.rooms = make(map[string]*Room)
	reg.mu.Unlock()

	for _, room := range rooms {
		room.close("server shutting down")
	}
}
