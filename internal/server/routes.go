package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Kidswaste/Chips-Prod/internal/game"
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/websocket", s.websocketHandler)

	// Everything else is the client bundle.
	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))

	return s.corsMiddleware(mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(map[string]any{
		"status": "ok",
		"rooms":  s.registry.Count(),
	})
	if err != nil {
		http.Error(w, "Failed to marshal health check response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()

	connectionID := uuid.New().String()
	log.Info().Str("conn", connectionID).Msg("New connection")
	s.connectionManager.AddConnection(connectionID, socket)

	defer func() {
		playerID, roomCode, bound := s.connectionManager.BindingFor(connectionID)
		s.connectionManager.RemoveConnection(connectionID)
		s.rateLimiter.Forget(connectionID)
		log.Info().Str("conn", connectionID).Msg("Connection closed")

		if !bound {
			return
		}
		room := s.registry.Get(roomCode)
		if room == nil {
			return
		}
		if empty := room.HandleDisconnect(playerID); empty {
			s.registry.Destroy(roomCode, "everyone left")
		}
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		if !s.rateLimiter.Allow(connectionID) {
			log.Warn().Str("conn", connectionID).Msg("Rate limited, dropping message")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(socket, ctx, "Invalid JSON")
			continue
		}

		switch msg.Type {
		case "ping":
			s.sendMessage(socket, ctx, ServerMessage{Type: "pong", Payload: struct{}{}})

		case "join":
			s.handleJoin(socket, ctx, connectionID, msg.Payload)

		case "start_game", "restart_game":
			if room, playerID, ok := s.boundRoom(connectionID); ok {
				room.StartGame(playerID)
			}

		case "return_to_menu":
			if room, playerID, ok := s.boundRoom(connectionID); ok {
				room.ReturnToMenu(playerID)
			}

		case "submit_word":
			s.handleSubmitWord(connectionID, msg.Payload)

		case "cast_vote":
			s.handleCastVote(connectionID, msg.Payload)

		default:
			s.sendError(socket, ctx, "Unknown message type")
		}
	}
}

func (s *Server) handleJoin(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req JoinRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "Invalid join payload")
		return
	}

	name := clampName(req.Name, s.cfg.MaxNameLength)
	if name == "" {
		s.sendError(socket, ctx, "Name required")
		return
	}

	code := game.NormalizeRoomCode(req.Code)
	if code == "" {
		code = game.GenerateRoomCode()
	}
	if err := game.ValidateRoomCode(code); err != nil {
		s.sendError(socket, ctx, "Invalid room code")
		return
	}

	playerID := playerIdentity(req.PlayerID)
	if !s.connectionManager.Bind(connectionID, playerID, code) {
		s.sendError(socket, ctx, "Already joined")
		return
	}

	room := s.registry.GetOrCreate(code)
	isHost, err := room.Join(playerID, name)
	if err != nil {
		// The room was torn down between lookup and join; drop the binding
		// so the connection can join elsewhere.
		s.connectionManager.Unbind(connectionID)
		s.sendError(socket, ctx, "Room no longer exists")
		return
	}

	s.sendMessage(socket, ctx, ServerMessage{
		Type: game.EventJoined,
		Payload: game.JoinedPayload{
			PlayerID: playerID,
			RoomCode: code,
			IsHost:   isHost,
		},
	})
}

func (s *Server) handleSubmitWord(connectionID string, payload json.RawMessage) {
	var req SubmitWordRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	if room, playerID, ok := s.boundRoom(connectionID); ok {
		room.SubmitWord(playerID, req.Word)
	}
}

func (s *Server) handleCastVote(connectionID string, payload json.RawMessage) {
	var req CastVoteRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	if room, playerID, ok := s.boundRoom(connectionID); ok {
		room.CastVote(playerID, req.TargetID)
	}
}

// boundRoom resolves a connection to its bound room and player. Messages
// from unbound connections, or for rooms already torn down, are dropped.
func (s *Server) boundRoom(connectionID string) (*game.Room, string, bool) {
	playerID, roomCode, ok := s.connectionManager.BindingFor(connectionID)
	if !ok {
		return nil, "", false
	}
	room := s.registry.Get(roomCode)
	if room == nil {
		return nil, "", false
	}
	return room, playerID, true
}

func (s *Server) sendMessage(socket *websocket.Conn, ctx context.Context, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("Marshal error")
		return
	}
	if err := socket.Write(ctx, websocket.MessageText, data); err != nil {
		log.Debug().Err(err).Msg("Failed to write message")
	}
}

func (s *Server) sendError(socket *websocket.Conn, ctx context.Context, msg string) {
	s.sendMessage(socket, ctx, ServerMessage{
		Type:    "error",
		Payload: ErrorMessage{Message: msg},
	})
}

// playerIdentity keeps the client-supplied id so a reconnecting player maps
// back onto their roster entry, and mints a fresh one for first-time joins.
func playerIdentity(requested string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return uuid.New().String()
	}
	return requested
}

// clampName trims a display name and truncates it to the maximum rune
// count.
func clampName(name string, maxRunes int) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > maxRunes {
		name = string(runes[:maxRunes])
	}
	return name
}
