package game

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kidswaste/Chips-Prod/internal/words"
)

// Phase is the game state of a room.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseRoundStarting
	PhaseTurnActive
	PhaseTurnResolving
	PhaseVoting
	PhaseVoteResolving
	PhaseGameEnding
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseRoundStarting:
		return "round-starting"
	case PhaseTurnActive:
		return "turn-active"
	case PhaseTurnResolving:
		return "turn-resolving"
	case PhaseVoting:
		return "voting"
	case PhaseVoteResolving:
		return "vote-resolving"
	case PhaseGameEnding:
		return "game-ending"
	}
	return "unknown"
}

// Player is one roster entry. The bot is a normal Player with its id held
// in Room.botID.
type Player struct {
	ID     string
	Name   string
	Score  int
	Alive  bool
	Online bool
}

// Room is one isolated game session. All fields are guarded by mu; every
// inbound action and every timer callback takes the lock for its full
// duration, so handlers for one room never interleave.
type Room struct {
	mu sync.Mutex

	code   string
	cfg    Config
	clk    clock
	notify Notifier
	bank   *words.Bank
	rng    *rand.Rand
	log    zerolog.Logger

	players   map[string]*Player
	joinOrder []string // roster enumeration order, used for tie-breaks
	hostID    string
	botID     string

	phase  Phase
	active bool
	round  int
	turn   int
	level  int

	theme   string
	wordSet *words.Set

	usedWords    map[string]struct{}
	submissions  map[string]string
	submittedAt  map[string]time.Time
	turnStarted  time.Time
	turnDuration time.Duration
	accepting    bool
	punished     map[rune]struct{}

	// Voting state, live only between turn resolution and vote resolution.
	votes     map[string]map[string]struct{} // target -> voters
	voted     map[string]struct{}            // voters who cast their ballot
	voterBase []string                       // alive roster snapshot at turn resolution

	timers map[string]*scheduled
	closed bool

	createdAt    time.Time
	lastActivity time.Time
}

func newRoom(code string, cfg Config, bank *words.Bank, notify Notifier, clk clock, logger zerolog.Logger) *Room {
	now := clk.Now()
	return &Room{
		code:         code,
		cfg:          cfg,
		clk:          clk,
		notify:       notify,
		bank:         bank,
		rng:          rand.New(rand.NewSource(now.UnixNano())),
		log:          logger.With().Str("room", code).Logger(),
		players:      make(map[string]*Player),
		usedWords:    make(map[string]struct{}),
		submissions:  make(map[string]string),
		submittedAt:  make(map[string]time.Time),
		timers:       make(map[string]*scheduled),
		createdAt:    now,
		lastActivity: now,
	}
}

// Code returns the room code.
func (r *Room) Code() string { return r.code }

// Join attaches a player to the roster and assigns the host seat if vacant.
// Rejoining with a known id flips the player back online.
func (r *Room) Join(playerID, name string) (isHost bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, ErrRoomClosed
	}
	r.touch()

	if p, ok := r.players[playerID]; ok {
		p.Online = true
	} else {
		r.players[playerID] = &Player{ID: playerID, Name: name, Online: true}
		r.joinOrder = append(r.joinOrder, playerID)
	}

	if r.hostID == "" {
		r.hostID = playerID
	}

	// A second human makes the bot stand-in unnecessary.
	if r.botID != "" && r.onlineHumans() >= 2 {
		r.removeBot()
	}

	r.log.Info().Str("player", playerID).Str("name", name).Msg("Player joined")
	r.broadcastLobby()
	return r.hostID == playerID, nil
}

// HandleDisconnect degrades a player to offline and not-alive, reassigns
// the host seat, and injects the bot when an active game drops below two
// online humans. Unknown players are a silent no-op. Returns true when no
// online human remains (a bot alone does not keep a room occupied), in
// which case the caller should destroy the room.
func (r *Room) HandleDisconnect(playerID string) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok || r.closed {
		return false
	}
	r.touch()

	p.Online = false
	p.Alive = false

	if r.hostID == playerID {
		r.hostID = r.firstOnlineHuman()
	}

	if r.active && r.botID == "" && r.onlineHumans() < 2 && r.onlineHumans() > 0 {
		r.injectBot()
	}

	r.log.Info().Str("player", playerID).Msg("Player disconnected")

	if r.onlineHumans() == 0 {
		return true
	}
	r.broadcastLobby()
	return false
}

// ReturnToMenu broadcasts the menu event. Host-only; no state reset.
func (r *Room) ReturnToMenu(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || playerID != r.hostID {
		return
	}
	r.touch()
	r.notify.Broadcast(r.code, EventMenu, struct{}{})
}

// close cancels every timer and notifies members. The registry calls it
// with the room already removed from its table; after close no timer
// callback can touch the room again.
func (r *Room) close(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.cancelAllTimers()
	r.notify.Broadcast(r.code, EventRoomClosed, RoomClosedPayload{Reason: reason})
	r.log.Info().Str("reason", reason).Msg("Room closed")
}

// touch refreshes the idle clock. Callers must hold the room lock.
func (r *Room) touch() {
	r.lastActivity = r.clk.Now()
}

func (r *Room) onlineCount() int {
	n := 0
	for _, p := range r.players {
		if p.Online {
			n++
		}
	}
	return n
}

func (r *Room) onlineHumans() int {
	n := 0
	for _, p := range r.players {
		if p.Online && p.ID != r.botID {
			n++
		}
	}
	return n
}

func (r *Room) aliveCount() int {
	n := 0
	for _, p := range r.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// alivePlayers returns alive player ids in roster join order.
func (r *Room) alivePlayers() []string {
	out := make([]string, 0, len(r.players))
	for _, id := range r.joinOrder {
		if p := r.players[id]; p != nil && p.Alive {
			out = append(out, id)
		}
	}
	return out
}

// firstOnlineHuman returns the earliest-joined online human, or "". The bot
// never holds the host seat; a vacant seat goes to the next human to join.
func (r *Room) firstOnlineHuman() string {
	for _, id := range r.joinOrder {
		if id == r.botID {
			continue
		}
		if p := r.players[id]; p != nil && p.Online {
			return id
		}
	}
	return ""
}

// idle reports whether the room qualifies for reaping.
func (r *Room) idle(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.onlineHumans() == 0 {
		return true
	}
	if now.Sub(r.createdAt) > r.cfg.RoomMaxAge {
		return true
	}
	return now.Sub(r.lastActivity) > r.cfg.RoomIdleLimit
}

func (r *Room) snapshotLocked() LobbySnapshot {
	snap := LobbySnapshot{
		RoomCode: r.code,
		HostID:   r.hostID,
		Active:   r.active,
		Round:    r.round,
		Turn:     r.turn,
		Level:    r.level,
		Theme:    r.theme,
		Players:  make([]LobbyPlayer, 0, len(r.players)),
	}
	for _, id := range r.joinOrder {
		p := r.players[id]
		if p == nil {
			continue
		}
		snap.Players = append(snap.Players, LobbyPlayer{
			ID: p.ID, Name: p.Name, Score: p.Score, Alive: p.Alive, Online: p.Online,
		})
	}
	return snap
}

func (r *Room) broadcastLobby() {
	r.notify.Broadcast(r.code, EventLobbyUpdate, r.snapshotLocked())
}

// Snapshot returns the lobby view of the room, as sent to clients.
func (r *Room) Snapshot() LobbySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// scoreboard returns all players sorted by descending score; equal scores
// keep roster join order, which is the documented tie-break.
func (r *Room) scoreboard() []ScoreLine {
	lines := make([]ScoreLine, 0, len(r.players))
	for _, id := range r.joinOrder {
		p := r.players[id]
		if p == nil {
			continue
		}
		lines = append(lines, ScoreLine{PlayerID: p.ID, Name: p.Name, Score: p.Score})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Score > lines[j].Score })
	return lines
}
