package server

// ============================================================================
// ERROR RESPONSES
// ============================================================================
type ErrorMessage struct {
	Message string `json:"message"`
}

// ============================================================================
// JOIN (join)
// ============================================================================
type JoinRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
	// PlayerID is set by clients reconnecting to a room they already sat in.
	PlayerID string `json:"playerId,omitempty"`
}

// ============================================================================
// SUBMIT WORD (submit_word)
// ============================================================================
type SubmitWordRequest struct {
	Word string `json:"word"`
}

// ============================================================================
// CAST VOTE (cast_vote)
// ============================================================================
type CastVoteRequest struct {
	TargetID string `json:"targetId"`
}
