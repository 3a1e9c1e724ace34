package game

import (
	"time"

	"github.com/google/uuid"
)

// injectBot adds the synthetic player to the roster. It enters not-alive;
// the next round start revives it along with everyone online, so a bot
// injected mid-turn never shows up as a "no submission" elimination.
// Callers must hold the room lock.
func (r *Room) injectBot() {
	if r.botID != "" {
		return
	}
	id := uuid.New().String()
	r.botID = id
	r.players[id] = &Player{ID: id, Name: r.cfg.BotName, Online: true}
	r.joinOrder = append(r.joinOrder, id)
	r.log.Info().Str("bot", id).Msg("Bot injected")
	r.broadcastLobby()
}

// removeBot drops the bot from the roster once enough humans are present.
// Callers must hold the room lock.
func (r *Room) removeBot() {
	id := r.botID
	if id == "" {
		return
	}
	r.botID = ""
	delete(r.players, id)
	for i, pid := range r.joinOrder {
		if pid == id {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}
	delete(r.submissions, id)
	delete(r.submittedAt, id)
	r.cancelTimer(timerBotSubmission)
	if r.hostID == id {
		r.hostID = r.firstOnlineHuman()
	}
	r.log.Info().Str("bot", id).Msg("Bot removed")
}

// scheduleBotSubmission arms the bot's submission timer for the current
// turn, at the configured fraction of the turn duration but always at least
// BotMinLead before the turn timeout. Callers must hold the room lock.
func (r *Room) scheduleBotSubmission() {
	if r.botID == "" {
		return
	}
	bot := r.players[r.botID]
	if bot == nil || !bot.Alive {
		return
	}
	delay := time.Duration(float64(r.turnDuration) * r.cfg.BotDelayFraction)
	if max := r.turnDuration - r.cfg.BotMinLead; delay > max {
		delay = max
	}
	if delay < 0 {
		delay = 0
	}
	r.schedule(timerBotSubmission, delay, r.botSubmit)
}

// botSubmit fires from the bot's timer. The timer plumbing already drops
// stale fires, but the turn can legitimately have moved on (early resolve),
// so the phase is rechecked. Callers must hold the room lock.
func (r *Room) botSubmit() {
	if r.phase != PhaseTurnActive || !r.accepting {
		return
	}
	bot := r.players[r.botID]
	if bot == nil || !bot.Alive {
		return
	}
	if _, done := r.submissions[r.botID]; done {
		return
	}

	word, ok := r.pickBotWord()
	if !ok {
		r.log.Warn().Msg("Bot found no eligible word")
		return
	}

	r.acceptSubmission(r.botID, word)
	r.notify.Broadcast(r.code, EventSubmissionProgress, SubmissionProgressPayload{
		Submitted: len(r.submissions),
		Alive:     r.aliveCount(),
	})
}

// pickBotWord walks the theme's word list in its natural order and returns
// the first word that is not used this round, not already submitted this
// turn, and free of punished letters. Callers must hold the room lock.
func (r *Room) pickBotWord() (string, bool) {
	taken := make(map[string]struct{}, len(r.submissions))
	for _, w := range r.submissions {
		taken[w] = struct{}{}
	}
	for _, w := range r.wordSet.Words() {
		if _, used := r.usedWords[w]; used {
			continue
		}
		if _, dup := taken[w]; dup {
			continue
		}
		if containsPunished(w, r.punished) {
			continue
		}
		return w, true
	}
	return "", false
}
