package game

import (
	"errors"
	"math/rand"
	"strings"
)

const (
	minCodeLength = 1
	maxCodeLength = 16
)

// GenerateRoomCode returns a short random code for clients that join
// without naming a room.
func GenerateRoomCode() string {
	code := make([]byte, 4)
	for i := range code {
		code[i] = 'a' + byte(rand.Intn(26))
	}
	return string(code)
}

// NormalizeRoomCode lowercases and trims a client-supplied code so the same
// room is reached regardless of casing.
func NormalizeRoomCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ValidateRoomCode checks a normalized code: 1-16 characters, letters,
// digits and dashes only.
func ValidateRoomCode(code string) error {
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return errors.New("INVALID_CODE: Room code must be 1-16 characters")
	}
	for _, ch := range code {
		if ch >= 'a' && ch <= 'z' {
			continue
		}
		if ch >= '0' && ch <= '9' {
			continue
		}
		if ch == '-' {
			continue
		}
		return errors.New("INVALID_CODE: Room code must contain only letters, digits and dashes")
	}
	return nil
}
