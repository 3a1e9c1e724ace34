package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartGame_RequiresHost(t *testing.T) {
	room, _, notify := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 2)
	notify.reset()

	room.StartGame("p2")

	assert.Equal(t, PhaseLobby, room.currentPhase())
	assert.Equal(t, 0, notify.count(EventRoundStarted))
}

func TestStartGame_RejectsWhenActive(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")
	notify.reset()

	room.StartGame("p1")

	ev, ok := notify.last(EventGameError)
	require.True(t, ok, "expected a generic error for the host")
	assert.Equal(t, "p1", ev.Target)
}

func TestStartGame_InjectsBotForLonePlayer(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), []string{"chat", "chien"})
	joinN(t, room, 1)

	room.StartGame("p1")

	room.mu.Lock()
	botID := room.botID
	playerCount := len(room.players)
	room.mu.Unlock()

	require.NotEmpty(t, botID, "bot should be injected for a lone player")
	assert.Equal(t, 2, playerCount)
	assert.Equal(t, 1, notify.count(EventRoundStarted))

	clk.advance(room.cfg.RoundStartDelay)
	assert.Equal(t, PhaseTurnActive, room.currentPhase())
	assert.True(t, room.playerAlive(botID))
}

func TestStartGame_ResetsState(t *testing.T) {
	room, clk, _ := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 2)

	room.mu.Lock()
	room.players["p1"].Score = 42
	room.level = 7
	room.mu.Unlock()

	startToFirstTurn(t, room, clk, "p1")

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, 0, room.players["p1"].Score)
	assert.Equal(t, 1, room.level, "level restarts from scratch on a new game")
	assert.Equal(t, 1, room.round)
	assert.Equal(t, 1, room.turn)
	assert.True(t, room.active)
}

func TestTurnStart_BroadcastsDurationAndArmsTimeout(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	ev, ok := notify.last(EventTurnStarted)
	require.True(t, ok)
	payload := ev.Payload.(TurnStartedPayload)
	assert.Equal(t, 1, payload.Turn)
	assert.Equal(t, 1, payload.Level)
	assert.Equal(t, int64(10000), payload.DurationMs)
	assert.Empty(t, payload.PunishedLetters, "no punished letters at level 1")

	// The timeout fires without any submission and eliminates everyone.
	clk.advance(10 * time.Second)
	assert.Equal(t, 1, notify.count(EventPlayersEliminated))
}

func TestSubmitWord_AcceptAndAcknowledge(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), []string{"chat", "chien"})
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "  Chat ")

	ev, ok := notify.last(EventWordAccepted)
	require.True(t, ok)
	assert.Equal(t, "p1", ev.Target)
	assert.Equal(t, "chat", ev.Payload.(WordAcceptedPayload).Word)

	prog, ok := notify.last(EventSubmissionProgress)
	require.True(t, ok)
	assert.Equal(t, 1, prog.Payload.(SubmissionProgressPayload).Submitted)
}

func TestSubmitWord_SecondSubmissionIgnored(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), []string{"chat", "chien"})
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "chat")
	notify.reset()
	room.SubmitWord("p1", "chien")

	assert.Equal(t, 0, notify.count(EventWordAccepted))
	assert.Equal(t, 0, notify.count(EventWordRejected))

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, "chat", room.submissions["p1"])
	assert.Len(t, room.submissions, 1)
}

func TestSubmitWord_RejectionsShareOneMessage(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), []string{"chat", "chien", "zebre"})
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	room.mu.Lock()
	room.usedWords["chat"] = struct{}{}
	room.punished = map[rune]struct{}{'z': {}}
	room.mu.Unlock()

	cases := []string{
		"chat",    // already used this round
		"girafe",  // not in the word set
		"zebre",   // punished letter
	}
	for _, word := range cases {
		notify.reset()
		room.SubmitWord("p2", word)
		ev, ok := notify.last(EventWordRejected)
		require.True(t, ok, "word %q should be rejected", word)
		assert.Equal(t, "Invalid word", ev.Payload.(WordRejectedPayload).Message,
			"all rejections must be indistinguishable")
	}
}

func TestSubmitWord_EmptyWordSetDisablesBankCheck(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "anything")

	assert.Equal(t, 1, notify.count(EventWordAccepted))
}

func TestSubmitWord_WrongPhaseIsSilent(t *testing.T) {
	room, _, notify := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 2)
	notify.reset()

	room.SubmitWord("p1", "chat")

	assert.Equal(t, 0, notify.count(EventWordAccepted))
	assert.Equal(t, 0, notify.count(EventWordRejected))
}

func TestResolveTurn_DuplicatesEliminated(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), []string{"chat", "chien"})
	joinN(t, room, 3)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "chat")
	room.SubmitWord("p2", "chat")
	room.SubmitWord("p3", "chien")

	clk.advance(10 * time.Second)

	ev, ok := notify.last(EventPlayersEliminated)
	require.True(t, ok)
	elims := ev.Payload.(PlayersEliminatedPayload).Eliminations
	require.Len(t, elims, 2)
	for _, e := range elims {
		assert.Equal(t, "duplicate", e.Reason)
	}
	assert.False(t, room.playerAlive("p1"))
	assert.False(t, room.playerAlive("p2"))
	assert.True(t, room.playerAlive("p3"))

	// Scoring and reveal happen after the popup hold.
	clk.advance(room.cfg.EliminationDelay)
	assert.True(t, room.wordUsed("chien"))
	assert.False(t, room.wordUsed("chat"), "duplicate words never enter the used list")
	assert.Equal(t, 10, room.playerScore("p3"), "instant submission earns the maximum")
	assert.Equal(t, 0, room.playerScore("p1"))
	assert.Equal(t, PhaseVoting, room.currentPhase())
}

func TestResolveTurn_NoSubmissionEliminated(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "chat")
	clk.advance(10 * time.Second)

	ev, ok := notify.last(EventPlayersEliminated)
	require.True(t, ok)
	elims := ev.Payload.(PlayersEliminatedPayload).Eliminations
	require.Len(t, elims, 1)
	assert.Equal(t, "p2", elims[0].PlayerID)
	assert.Equal(t, "no submission", elims[0].Reason)
}

func TestResolveTurn_NobodySubmits_RoundEndsWithNoWinner(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	// Nobody submits; both are eliminated, voting is empty, and the game
	// ends with no winner.
	clk.advance(10 * time.Second)
	clk.advance(room.cfg.EliminationDelay)
	clk.advance(room.cfg.VoteDuration)

	ev, ok := notify.last(EventGameOver)
	require.True(t, ok)
	assert.Empty(t, ev.Payload.(GameOverPayload).WinnerID)

	clk.advance(room.cfg.GameOverDelay)
	end, ok := notify.last(EventRoundEnded)
	require.True(t, ok)
	assert.Empty(t, end.Payload.(RoundEndedPayload).WinnerID)
	assert.Equal(t, PhaseLobby, room.currentPhase())
	assert.Equal(t, 0, room.playerScore("p1"))
	assert.Equal(t, 0, room.playerScore("p2"))
}

func TestSpeedScore_DependsOnSubmissionInstant(t *testing.T) {
	room, clk, _ := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "rapide")
	clk.advance(5 * time.Second)
	room.SubmitWord("p2", "lent")
	clk.advance(5 * time.Second) // turn timeout, no eliminations

	assert.Equal(t, 10, room.playerScore("p1"))
	assert.Equal(t, 5, room.playerScore("p2"))
}

func TestFinishTurn_DisconnectedSubmitterWordStaysUsed(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 3)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "chat")
	room.SubmitWord("p2", "chien")
	room.SubmitWord("p3", "lapin")
	room.HandleDisconnect("p3")
	clk.advance(10 * time.Second)

	// The dropped player earns nothing, but their accepted word stays
	// burned for the rest of the round.
	assert.True(t, room.wordUsed("lapin"))
	assert.Equal(t, 0, room.playerScore("p3"))

	clk.advance(room.cfg.VoteDuration)
	clk.advance(room.cfg.TurnPacingDelay)
	require.Equal(t, PhaseTurnActive, room.currentPhase())
	notify.reset()

	room.SubmitWord("p1", "lapin")

	_, rejected := notify.last(EventWordRejected)
	assert.True(t, rejected)
}

func TestFinishTurn_DuplicateWithDisconnectedPartnerStaysUnused(t *testing.T) {
	room, clk, _ := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 3)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "chat")
	room.SubmitWord("p2", "chat")
	room.SubmitWord("p3", "chien")
	room.HandleDisconnect("p1")
	clk.advance(10 * time.Second)
	clk.advance(room.cfg.EliminationDelay)

	// p2 is out for the duplicate even though the other submitter already
	// left; the duplicated word never enters the used list.
	assert.False(t, room.playerAlive("p2"))
	assert.False(t, room.wordUsed("chat"))
	assert.True(t, room.wordUsed("chien"))
}

func TestUsedWord_RejectedNextTurn(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 3)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "chat")
	room.SubmitWord("p2", "chien")
	room.SubmitWord("p3", "lapin")
	clk.advance(10 * time.Second)            // resolve, nobody out
	clk.advance(room.cfg.VoteDuration)       // empty vote
	clk.advance(room.cfg.TurnPacingDelay)    // next turn

	require.Equal(t, PhaseTurnActive, room.currentPhase())
	notify.reset()
	room.SubmitWord("p1", "chien")

	ev, ok := notify.last(EventWordRejected)
	require.True(t, ok)
	assert.Equal(t, "p1", ev.Target)
}

func TestLevel_IncrementsOncePerTurn(t *testing.T) {
	cfg := testConfig()
	room, clk, _ := newTestRoom(t, cfg, nil)
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	for turn := 1; turn <= 3; turn++ {
		room.mu.Lock()
		level := room.level
		duration := room.turnDuration
		room.mu.Unlock()
		assert.Equal(t, turn, level)

		room.SubmitWord("p1", fmt.Sprintf("mot%da", turn))
		room.SubmitWord("p2", fmt.Sprintf("mot%db", turn))
		clk.advance(duration)
		clk.advance(cfg.VoteDuration)
		clk.advance(cfg.TurnPacingDelay)
	}
}

func TestGameEnd_AtLevelCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLevel = 3
	room, clk, notify := newTestRoom(t, cfg, nil)
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	for turn := 1; turn <= 3; turn++ {
		require.Equal(t, PhaseTurnActive, room.currentPhase(), "turn %d", turn)
		room.mu.Lock()
		duration := room.turnDuration
		room.mu.Unlock()

		room.SubmitWord("p1", fmt.Sprintf("mot%da", turn))
		clk.advance(duration / 2)
		room.SubmitWord("p2", fmt.Sprintf("mot%db", turn))
		clk.advance(duration - duration/2)
		clk.advance(cfg.VoteDuration)
		clk.advance(cfg.TurnPacingDelay)
	}

	ev, ok := notify.last(EventGameOver)
	require.True(t, ok, "game should end once the level cap is reached")
	payload := ev.Payload.(GameOverPayload)
	// p1 submitted instantly each turn, p2 at the midpoint; p1 has the
	// strictly highest score among the survivors.
	assert.Equal(t, "p1", payload.WinnerID)

	clk.advance(cfg.GameOverDelay)
	assert.Equal(t, PhaseLobby, room.currentPhase())

	// Winner bonus: +3 for winning plus +1 for surviving.
	assert.Equal(t, 3*10+4, room.playerScore("p1"))
}

func TestRoundEnd_ClearsPerGameState(t *testing.T) {
	room, clk, _ := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "chat")
	clk.advance(10 * time.Second)
	clk.advance(room.cfg.EliminationDelay) // p2 eliminated for no submission
	clk.advance(room.cfg.VoteDuration)     // one player left, game ends
	clk.advance(room.cfg.GameOverDelay)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, PhaseLobby, room.phase)
	assert.False(t, room.active)
	assert.Empty(t, room.theme)
	assert.Empty(t, room.usedWords)
	assert.Empty(t, room.submissions)
	assert.Equal(t, 0, room.turn)
	for _, p := range room.players {
		assert.False(t, p.Alive)
	}
	// Winner keeps the scores earned during the game.
	assert.Equal(t, 10+3+1, room.players["p1"].Score)
}

func TestGameEnd_WhenOnlyOneSurvives(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	// p2 disconnects mid-turn; a bot joins for next game but stays out of
	// this round. After the turn resolves only p1 can remain.
	room.HandleDisconnect("p2")
	room.SubmitWord("p1", "chat")
	clk.advance(10 * time.Second)
	clk.advance(room.cfg.VoteDuration)

	ev, ok := notify.last(EventGameOver)
	require.True(t, ok)
	assert.Equal(t, "p1", ev.Payload.(GameOverPayload).WinnerID)
}

func TestBeginTurn_SkipsToRoundEndWhenOneAlive(t *testing.T) {
	room, clk, notify := newTestRoom(t, testConfig(), nil)
	joinN(t, room, 3)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "chat")
	room.SubmitWord("p2", "chien")
	room.SubmitWord("p3", "lapin")
	clk.advance(10 * time.Second)
	clk.advance(room.cfg.VoteDuration)

	// Two players drop during the pacing pause; the next turn cannot start
	// and the round ends immediately with the survivor as winner.
	room.HandleDisconnect("p2")
	room.HandleDisconnect("p3")
	clk.advance(room.cfg.TurnPacingDelay)

	end, ok := notify.last(EventRoundEnded)
	require.True(t, ok)
	assert.Equal(t, "p1", end.Payload.(RoundEndedPayload).WinnerID)
	assert.Equal(t, PhaseLobby, room.currentPhase())
}

func TestPunishedLetters_AppearAtThreshold(t *testing.T) {
	cfg := testConfig()
	// Compress the ramp so the threshold is reached quickly.
	cfg.PunishThresholds = []PunishThreshold{{Level: 2, Letters: 1}}
	room, clk, notify := newTestRoom(t, cfg, nil)
	joinN(t, room, 2)
	startToFirstTurn(t, room, clk, "p1")

	room.SubmitWord("p1", "unmota")
	room.SubmitWord("p2", "unmotb")
	room.mu.Lock()
	duration := room.turnDuration
	room.mu.Unlock()
	clk.advance(duration)
	clk.advance(cfg.VoteDuration)
	clk.advance(cfg.TurnPacingDelay)

	require.Equal(t, PhaseTurnActive, room.currentPhase())
	ev, ok := notify.last(EventTurnStarted)
	require.True(t, ok)
	assert.Len(t, ev.Payload.(TurnStartedPayload).PunishedLetters, 1)
}
