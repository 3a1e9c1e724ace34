package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendQueueSize = 64
	writeTimeout  = 10 * time.Second
)

// client is one websocket connection with its outbound queue. A dedicated
// writer goroutine drains the queue, so events reach each client in the
// order they were emitted and a slow socket never blocks a room handler.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writeLoop() {
	for msg := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			return
		}
	}
}

type binding struct {
	PlayerID string
	RoomCode string
}

// ConnectionManager tracks sockets and their room/player bindings, and
// implements game.Notifier on top of them.
type ConnectionManager struct {
	clients  map[string]*client            // connectionID -> client
	bindings map[string]binding            // connectionID -> player binding
	byPlayer map[string]string             // playerID -> connectionID
	members  map[string]map[string]struct{} // roomCode -> connectionIDs
	mu       sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients:  make(map[string]*client),
		bindings: make(map[string]binding),
		byPlayer: make(map[string]string),
		members:  make(map[string]map[string]struct{}),
	}
}

func (cm *ConnectionManager) AddConnection(id string, conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendQueueSize)}
	go c.writeLoop()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[id] = c
}

// Bind attaches a connection to a room/player pair. One binding per
// connection; rebinding an already bound connection is rejected.
func (cm *ConnectionManager) Bind(connectionID, playerID, roomCode string) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, bound := cm.bindings[connectionID]; bound {
		return false
	}
	cm.bindings[connectionID] = binding{PlayerID: playerID, RoomCode: roomCode}
	cm.byPlayer[playerID] = connectionID
	if cm.members[roomCode] == nil {
		cm.members[roomCode] = make(map[string]struct{})
	}
	cm.members[roomCode][connectionID] = struct{}{}
	return true
}

// BindingFor returns the player binding of a connection, if any.
func (cm *ConnectionManager) BindingFor(connectionID string) (playerID, roomCode string, ok bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	b, ok := cm.bindings[connectionID]
	return b.PlayerID, b.RoomCode, ok
}

// Unbind detaches a connection from its player binding, keeping the socket
// alive. Used when a join is accepted at the transport but rejected by the
// room, so the connection can try again.
func (cm *ConnectionManager) Unbind(connectionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.unbindLocked(connectionID)
}

func (cm *ConnectionManager) unbindLocked(id string) {
	b, ok := cm.bindings[id]
	if !ok {
		return
	}
	// The player may have rebound on a newer connection in the meantime.
	if cm.byPlayer[b.PlayerID] == id {
		delete(cm.byPlayer, b.PlayerID)
	}
	if conns := cm.members[b.RoomCode]; conns != nil {
		delete(conns, id)
		if len(conns) == 0 {
			delete(cm.members, b.RoomCode)
		}
	}
	delete(cm.bindings, id)
}

// RemoveConnection unbinds and forgets a connection and stops its writer.
func (cm *ConnectionManager) RemoveConnection(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.unbindLocked(id)
	if c, ok := cm.clients[id]; ok {
		delete(cm.clients, id)
		close(c.send)
	}
}

// Broadcast sends one event to every connection bound to a room. Payloads
// are marshalled once and enqueueing never blocks; a client whose queue is
// full misses the event and catches up on the next lobby snapshot.
func (cm *ConnectionManager) Broadcast(roomCode, event string, payload any) {
	data, ok := marshalEvent(event, payload)
	if !ok {
		return
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for connID := range cm.members[roomCode] {
		if c, ok := cm.clients[connID]; ok {
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

// SendTo sends one event to a single player, if connected.
func (cm *ConnectionManager) SendTo(playerID, event string, payload any) {
	data, ok := marshalEvent(event, payload)
	if !ok {
		return
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	connID, bound := cm.byPlayer[playerID]
	if !bound {
		return
	}
	if c, ok := cm.clients[connID]; ok {
		select {
		case c.send <- data:
		default:
		}
	}
}

func marshalEvent(event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(ServerMessage{Type: event, Payload: payload})
	if err != nil {
		log.Error().Str("event", event).Err(err).Msg("Failed to marshal event")
		return nil, false
	}
	return data, true
}
