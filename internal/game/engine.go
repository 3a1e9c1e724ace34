package game

import (
	"sort"
	"time"

	"github.com/Kidswaste/Chips-Prod/internal/words"
)

// StartGame starts (or restarts) a game. Host-only and only from the lobby.
// With fewer than two online humans the bot is injected first; if the room
// still cannot field two players the sender gets one generic error that
// never says which precondition failed.
func (r *Room) StartGame(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || playerID != r.hostID {
		return
	}
	r.touch()

	if r.active {
		r.notify.SendTo(playerID, EventGameError, GameErrorPayload{Message: msgCannotStart})
		return
	}

	if r.onlineHumans() < 2 && r.botID == "" {
		r.injectBot()
	}
	if r.onlineCount() < 2 {
		r.notify.SendTo(playerID, EventGameError, GameErrorPayload{Message: msgCannotStart})
		return
	}

	r.active = true
	r.level = 0
	r.punished = nil
	for _, p := range r.players {
		p.Score = 0
	}

	r.log.Info().Int("players", r.onlineCount()).Msg("Game started")
	r.beginRound()
}

// beginRound enters RoundStarting: new round counter, fresh theme, cleared
// per-round state, word set resolution kicked off, everyone online revived.
// Callers must hold the room lock.
func (r *Room) beginRound() {
	r.cancelAllTimers()
	r.phase = PhaseRoundStarting
	r.round++
	r.theme = r.cfg.Themes[r.rng.Intn(len(r.cfg.Themes))]
	r.wordSet = nil
	r.usedWords = make(map[string]struct{})
	r.submissions = make(map[string]string)
	r.submittedAt = make(map[string]time.Time)
	r.votes = nil
	r.voted = nil

	// The bank read is off the room lock; the result is only adopted if the
	// room is still in the same round when it lands.
	round := r.round
	go func() {
		set := r.bank.Load(r.theme)
		r.mu.Lock()
		if !r.closed && r.active && r.round == round {
			r.wordSet = set
		}
		r.mu.Unlock()
	}()

	for _, p := range r.players {
		p.Alive = p.Online
	}

	r.notify.Broadcast(r.code, EventRoundStarted, RoundStartedPayload{Round: r.round, Theme: r.theme})
	r.schedule(timerNextPhase, r.cfg.RoundStartDelay, r.beginTurn)
}

// beginTurn enters TurnActive. With one or zero players left alive the
// round ends immediately instead, the lone survivor (if any) winning.
// Callers must hold the room lock.
func (r *Room) beginTurn() {
	r.cancelAllTimers()

	if r.aliveCount() <= 1 {
		winner := ""
		if alive := r.alivePlayers(); len(alive) == 1 {
			winner = alive[0]
		}
		r.endRound(winner)
		return
	}

	r.phase = PhaseTurnActive
	r.turn++
	r.level++
	r.turnDuration = TurnDuration(r.level, r.cfg.LevelRanges)
	r.turnStarted = r.clk.Now()
	r.submissions = make(map[string]string)
	r.submittedAt = make(map[string]time.Time)
	r.accepting = true

	if n := PunishedLetterCount(r.level, r.cfg.PunishThresholds); n > 0 {
		r.punished = drawPunishedLetters(n, r.rng)
	} else {
		r.punished = nil
	}

	r.notify.Broadcast(r.code, EventTurnStarted, TurnStartedPayload{
		Turn:            r.turn,
		Level:           r.level,
		DurationMs:      r.turnDuration.Milliseconds(),
		PunishedLetters: punishedString(r.punished),
	})

	r.schedule(timerTurnTimeout, r.turnDuration, r.resolveTurn)
	r.scheduleBotSubmission()
}

// SubmitWord records a player's submission for the current turn. Wrong
// phase, dead or unknown sender and repeat submissions are dropped without
// a reply; a word failing validation gets the one generic rejection message.
func (r *Room) SubmitWord(playerID, raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.phase != PhaseTurnActive || !r.accepting {
		return
	}
	p, ok := r.players[playerID]
	if !ok || !p.Alive {
		return
	}
	if _, dup := r.submissions[playerID]; dup {
		return
	}
	r.touch()

	word := words.Normalize(raw)
	if !r.wordAllowed(word) {
		r.notify.SendTo(playerID, EventWordRejected, WordRejectedPayload{Message: msgInvalidWord})
		return
	}

	r.acceptSubmission(playerID, word)
	r.notify.SendTo(playerID, EventWordAccepted, WordAcceptedPayload{Word: word})
	r.notify.Broadcast(r.code, EventSubmissionProgress, SubmissionProgressPayload{
		Submitted: len(r.submissions),
		Alive:     r.aliveCount(),
	})
}

// wordAllowed applies the three rejection rules. They share one caller-side
// message on purpose; the reasons must stay indistinguishable to clients.
func (r *Room) wordAllowed(word string) bool {
	if word == "" {
		return false
	}
	if _, used := r.usedWords[word]; used {
		return false
	}
	if r.wordSet.Len() > 0 && !r.wordSet.Has(word) {
		return false
	}
	return !containsPunished(word, r.punished)
}

func (r *Room) acceptSubmission(playerID, word string) {
	r.submissions[playerID] = word
	r.submittedAt[playerID] = r.clk.Now()
}

// resolveTurn enters TurnResolving on turn timeout: duplicates and
// non-submitters are eliminated immediately, then the flow continues to
// scoring, after a popup hold if anyone was eliminated. Callers must hold
// the room lock.
func (r *Room) resolveTurn() {
	r.cancelAllTimers()
	r.phase = PhaseTurnResolving
	r.accepting = false
	r.touch()

	dups := duplicateWords(r.submissions)
	var eliminated []Elimination
	for _, id := range r.alivePlayers() {
		word, submitted := r.submissions[id]
		switch {
		case !submitted:
			eliminated = append(eliminated, Elimination{
				PlayerID: id, Name: r.players[id].Name, Reason: msgElimNoWord,
			})
		default:
			if _, dup := dups[word]; dup {
				eliminated = append(eliminated, Elimination{
					PlayerID: id, Name: r.players[id].Name, Reason: msgElimDuplicate,
				})
			}
		}
	}
	for _, e := range eliminated {
		r.players[e.PlayerID].Alive = false
	}

	// Majority arithmetic during voting counts against the roster as it
	// stands right now, after turn eliminations.
	r.voterBase = r.alivePlayers()

	if len(eliminated) > 0 {
		r.notify.Broadcast(r.code, EventPlayersEliminated, PlayersEliminatedPayload{Eliminations: eliminated})
		ids := eliminatedIDs(eliminated)
		r.schedule(timerEndTurnPopup, r.cfg.EliminationDelay, func() { r.finishTurn(ids) })
		return
	}
	r.finishTurn(nil)
}

// finishTurn awards speed points to the surviving submitters, commits the
// accepted words to the round's used list, reveals the turn and opens
// voting. Only disqualification withholds a word: a submitter who merely
// disconnected after submitting still burns their word for the round.
// Callers must hold the room lock.
func (r *Room) finishTurn(eliminated []string) {
	out := make(map[string]struct{}, len(eliminated))
	for _, id := range eliminated {
		out[id] = struct{}{}
	}
	dups := duplicateWords(r.submissions)

	for id, word := range r.submissions {
		if _, dq := out[id]; dq {
			continue
		}
		if _, dup := dups[word]; dup {
			continue
		}
		if p := r.players[id]; p != nil && p.Alive {
			p.Score += SpeedScore(r.submittedAt[id].Sub(r.turnStarted), r.turnDuration)
		}
		r.usedWords[word] = struct{}{}
	}

	reveal := make([]RevealedSubmission, 0, len(r.submissions))
	for _, id := range r.joinOrder {
		if word, ok := r.submissions[id]; ok {
			reveal = append(reveal, RevealedSubmission{PlayerID: id, Name: r.players[id].Name, Word: word})
		}
	}
	r.notify.Broadcast(r.code, EventTurnEnded, TurnEndedPayload{
		Submissions:    reveal,
		Eliminated:     eliminated,
		UsedWords:      r.usedWordList(),
		VoteDurationMs: r.cfg.VoteDuration.Milliseconds(),
	})

	r.openVoting()
}

// endRound closes out the game: +3 for the winner, +1 for everyone still
// alive, final scoreboard, then back to the lobby with all per-game state
// cleared. Level survives until the next start. Callers must hold the room
// lock.
func (r *Room) endRound(winnerID string) {
	r.cancelAllTimers()

	winnerName := ""
	if p := r.players[winnerID]; p != nil {
		p.Score += 3
		winnerName = p.Name
	}
	for _, p := range r.players {
		if p.Alive {
			p.Score++
		}
	}

	r.notify.Broadcast(r.code, EventRoundEnded, RoundEndedPayload{
		WinnerID:   winnerID,
		WinnerName: winnerName,
		Round:      r.round,
		Scoreboard: r.scoreboard(),
	})

	r.active = false
	r.accepting = false
	r.turn = 0
	r.theme = ""
	r.wordSet = nil
	r.usedWords = make(map[string]struct{})
	r.submissions = make(map[string]string)
	r.submittedAt = make(map[string]time.Time)
	r.punished = nil
	r.votes = nil
	r.voted = nil
	for _, p := range r.players {
		p.Alive = false
	}
	r.phase = PhaseLobby

	r.log.Info().Str("winner", winnerID).Int("round", r.round).Msg("Round ended")
	r.broadcastLobby()
}

func (r *Room) usedWordList() []string {
	out := make([]string, 0, len(r.usedWords))
	for w := range r.usedWords {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func eliminatedIDs(eliminations []Elimination) []string {
	ids := make([]string, 0, len(eliminations))
	for _, e := range eliminations {
		ids = append(ids, e.PlayerID)
	}
	return ids
}
