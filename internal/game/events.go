package game

// Notifier delivers outbound events to clients. The websocket layer
// implements it; the engine never touches sockets directly. Implementations
// must not call back into the room (they are invoked under the room lock)
// and must not block.
type Notifier interface {
	Broadcast(roomCode, event string, payload any)
	SendTo(playerID, event string, payload any)
}

// Outbound event names.
const (
	EventJoined             = "joined"
	EventLobbyUpdate        = "lobby_update"
	EventRoundStarted       = "round_started"
	EventTurnStarted        = "turn_started"
	EventWordAccepted       = "word_accepted"
	EventWordRejected       = "word_rejected"
	EventSubmissionProgress = "submission_progress"
	EventTurnEnded          = "turn_ended"
	EventPlayersEliminated  = "players_eliminated"
	EventVoteResult         = "vote_result"
	EventGameOver           = "game_over"
	EventRoundEnded         = "round_ended"
	EventGameError          = "game_error"
	EventMenu               = "menu"
	EventRoomClosed         = "room_closed"
)

type JoinedPayload struct {
	PlayerID string `json:"playerId"`
	RoomCode string `json:"roomCode"`
	IsHost   bool   `json:"isHost"`
}

type LobbyPlayer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Alive  bool   `json:"alive"`
	Online bool   `json:"online"`
}

type LobbySnapshot struct {
	RoomCode string        `json:"roomCode"`
	Players  []LobbyPlayer `json:"players"`
	HostID   string        `json:"hostId"`
	Active   bool          `json:"active"`
	Round    int           `json:"round"`
	Turn     int           `json:"turn"`
	Level    int           `json:"level"`
	Theme    string        `json:"theme,omitempty"`
}

type RoundStartedPayload struct {
	Round int    `json:"round"`
	Theme string `json:"theme"`
}

type TurnStartedPayload struct {
	Turn            int      `json:"turn"`
	Level           int      `json:"level"`
	DurationMs      int64    `json:"durationMs"`
	PunishedLetters []string `json:"punishedLetters"`
}

type WordAcceptedPayload struct {
	Word string `json:"word"`
}

type WordRejectedPayload struct {
	Message string `json:"message"`
}

type SubmissionProgressPayload struct {
	Submitted int `json:"submitted"`
	Alive     int `json:"alive"`
}

type RevealedSubmission struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Word     string `json:"word"`
}

type TurnEndedPayload struct {
	Submissions    []RevealedSubmission `json:"submissions"`
	Eliminated     []string             `json:"eliminated"`
	UsedWords      []string             `json:"usedWords"`
	VoteDurationMs int64                `json:"voteDurationMs"`
}

type Elimination struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Reason   string `json:"reason"`
}

type PlayersEliminatedPayload struct {
	Eliminations []Elimination `json:"eliminations"`
}

type VoteResultPayload struct {
	Disqualified []Elimination `json:"disqualified"`
}

type ScoreLine struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

type GameOverPayload struct {
	WinnerID   string      `json:"winnerId,omitempty"`
	WinnerName string      `json:"winnerName,omitempty"`
	Round      int         `json:"round"`
	Scoreboard []ScoreLine `json:"scoreboard"`
}

type RoundEndedPayload struct {
	WinnerID   string      `json:"winnerId,omitempty"`
	WinnerName string      `json:"winnerName,omitempty"`
	Round      int         `json:"round"`
	Scoreboard []ScoreLine `json:"scoreboard"`
}

type GameErrorPayload struct {
	Message string `json:"message"`
}

type RoomClosedPayload struct {
	Reason string `json:"reason"`
}
