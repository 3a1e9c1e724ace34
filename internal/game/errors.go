package game

import "errors"

var ErrRoomClosed = errors.New("ROOM_CLOSED: room no longer exists")

// User-facing rejection messages. Deliberately generic: a submission
// rejection never says which rule failed, and a failed start never says why
// the lobby could not be created, so a client cannot probe hidden state.
const (
	msgInvalidWord   = "Invalid word"
	msgCannotStart   = "Unable to start the game"
	msgOffTopic      = "Word voted off-topic"
	msgElimDuplicate = "duplicate"
	msgElimNoWord    = "no submission"
)
