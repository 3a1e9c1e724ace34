package game

// openVoting initializes one empty ballot per alive submitter and arms the
// vote timeout. Callers must hold the room lock.
func (r *Room) openVoting() {
	r.phase = PhaseVoting
	r.votes = make(map[string]map[string]struct{})
	r.voted = make(map[string]struct{})
	for id := range r.submissions {
		if p := r.players[id]; p != nil && p.Alive {
			r.votes[id] = make(map[string]struct{})
		}
	}
	r.schedule(timerVoteTimeout, r.cfg.VoteDuration, r.resolveVotes)
}

// CastVote records one ballot against another alive player's current-turn
// submission. A ballot that completes a majority disqualifies the target on
// the spot, without waiting for the vote timeout. Invalid votes (wrong
// phase, dead voter, self-vote, target without a live submission, repeat
// ballot) are silent no-ops.
func (r *Room) CastVote(voterID, targetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.phase != PhaseVoting {
		return
	}
	voter, ok := r.players[voterID]
	if !ok || !voter.Alive || voterID == targetID {
		return
	}
	target, ok := r.players[targetID]
	if !ok || !target.Alive {
		return
	}
	ballots, ok := r.votes[targetID]
	if !ok {
		return
	}
	if _, already := r.voted[voterID]; already {
		return
	}
	r.touch()

	ballots[voterID] = struct{}{}
	r.voted[voterID] = struct{}{}

	if len(ballots) >= MajorityThreshold(r.voterCountAgainst(targetID)) {
		dq := r.disqualifyByVote(targetID)
		// The target leaves the ballot table too, so the timeout pass below
		// cannot count it a second time.
		delete(r.votes, targetID)
		r.notify.Broadcast(r.code, EventVoteResult, VoteResultPayload{Disqualified: []Elimination{dq}})
	}
}

// resolveVotes enters VoteResolving on vote timeout: every still-alive
// target whose ballots meet the majority is disqualified, then the game
// either ends or moves to the next turn. Callers must hold the room lock.
func (r *Room) resolveVotes() {
	r.cancelAllTimers()
	r.phase = PhaseVoteResolving

	var disqualified []Elimination
	for _, id := range r.joinOrder {
		ballots, targeted := r.votes[id]
		if !targeted || len(ballots) == 0 {
			continue
		}
		p := r.players[id]
		if p == nil || !p.Alive {
			continue
		}
		if len(ballots) >= MajorityThreshold(r.voterCountAgainst(id)) {
			disqualified = append(disqualified, r.disqualifyByVote(id))
		}
	}

	if len(disqualified) > 0 {
		r.notify.Broadcast(r.code, EventVoteResult, VoteResultPayload{Disqualified: disqualified})
		r.schedule(timerNextPhase, r.cfg.VoteResultDelay, r.afterVoting)
		return
	}
	r.afterVoting()
}

// voterCountAgainst is the size of the alive-roster snapshot taken at turn
// resolution, minus the target. Eliminations during the voting phase do not
// shrink it; the snapshot is what the majority is measured against.
func (r *Room) voterCountAgainst(targetID string) int {
	n := 0
	for _, id := range r.voterBase {
		if id != targetID {
			n++
		}
	}
	return n
}

// disqualifyByVote marks the target dead and releases their word back into
// the round. Callers must hold the room lock.
func (r *Room) disqualifyByVote(targetID string) Elimination {
	p := r.players[targetID]
	p.Alive = false
	if word, ok := r.submissions[targetID]; ok {
		delete(r.usedWords, word)
	}
	r.log.Info().Str("player", targetID).Msg("Player voted off-topic")
	return Elimination{PlayerID: targetID, Name: p.Name, Reason: msgOffTopic}
}

// afterVoting applies the end-of-game rule: the game ends once the level
// cap is reached or at most one player is left alive; otherwise the next
// turn starts, after a pacing pause at low levels. Callers must hold the
// room lock.
func (r *Room) afterVoting() {
	r.votes = nil
	r.voted = nil

	if r.level >= r.cfg.MaxLevel || r.aliveCount() <= 1 {
		r.endGame()
		return
	}

	delay := r.cfg.TurnPacingDelay
	if r.level >= r.cfg.FastPaceLevel {
		delay = 0
	}
	r.schedule(timerNextPhase, delay, r.beginTurn)
}

// endGame picks the winner and announces it, then hands off to endRound
// after the display hold. A lone survivor wins outright; at the level cap
// the highest scorer among the survivors wins, ties broken by roster join
// order; with nobody left alive there is no winner. Callers must hold the
// room lock.
func (r *Room) endGame() {
	r.phase = PhaseGameEnding

	winnerID := ""
	alive := r.alivePlayers()
	switch {
	case len(alive) == 1:
		winnerID = alive[0]
	case len(alive) > 1:
		best := -1
		for _, id := range alive {
			if s := r.players[id].Score; s > best {
				best = s
				winnerID = id
			}
		}
	}

	winnerName := ""
	if p := r.players[winnerID]; p != nil {
		winnerName = p.Name
	}
	r.notify.Broadcast(r.code, EventGameOver, GameOverPayload{
		WinnerID:   winnerID,
		WinnerName: winnerName,
		Round:      r.round,
		Scoreboard: r.scoreboard(),
	})

	r.schedule(timerNextPhase, r.cfg.GameOverDelay, func() { r.endRound(winnerID) })
}
