package game

import (
	"math"
	"math/rand"
	"time"
)

// TurnDuration interpolates the duration for a level over the configured
// ranges. Below the first range it returns that range's start duration,
// above the last range its end duration; inside a range the duration falls
// linearly from FromDuration to ToDuration.
func TurnDuration(level int, ranges []LevelRange) time.Duration {
	if len(ranges) == 0 {
		return 10 * time.Second
	}
	if level <= ranges[0].FromLevel {
		return ranges[0].FromDuration
	}
	for _, r := range ranges {
		if level > r.ToLevel {
			continue
		}
		span := r.ToLevel - r.FromLevel
		if span <= 0 {
			return r.ToDuration
		}
		frac := float64(level-r.FromLevel) / float64(span)
		return r.FromDuration + time.Duration(frac*float64(r.ToDuration-r.FromDuration))
	}
	return ranges[len(ranges)-1].ToDuration
}

// PunishedLetterCount returns how many letters are forbidden at the given
// level. Thresholds must be sorted ascending by level.
func PunishedLetterCount(level int, thresholds []PunishThreshold) int {
	count := 0
	for _, t := range thresholds {
		if level >= t.Level {
			count = t.Letters
		}
	}
	return count
}

// drawPunishedLetters picks n distinct lowercase letters.
func drawPunishedLetters(n int, rng *rand.Rand) map[rune]struct{} {
	letters := make(map[rune]struct{}, n)
	for len(letters) < n {
		letters['a'+rune(rng.Intn(26))] = struct{}{}
	}
	return letters
}

// containsPunished reports whether a normalized word uses a forbidden letter.
func containsPunished(word string, punished map[rune]struct{}) bool {
	for _, r := range word {
		if _, bad := punished[r]; bad {
			return true
		}
	}
	return false
}

// SpeedScore awards points for a submission by how early it arrived within
// the turn: 10 - floor(elapsed/duration * 10), clamped to [1, 10].
func SpeedScore(elapsed, duration time.Duration) int {
	if duration <= 0 {
		return 1
	}
	frac := float64(elapsed) / float64(duration)
	score := 10 - int(math.Floor(frac*10))
	if score > 10 {
		score = 10
	}
	if score < 1 {
		score = 1
	}
	return score
}

// MajorityThreshold is the ballot count needed to disqualify a vote target,
// given the number of alive voters excluding the target.
func MajorityThreshold(voters int) int {
	return voters/2 + 1
}

// duplicateWords returns the set of words submitted by two or more players.
func duplicateWords(submissions map[string]string) map[string]struct{} {
	freq := make(map[string]int, len(submissions))
	for _, w := range submissions {
		freq[w]++
	}
	dups := make(map[string]struct{})
	for w, n := range freq {
		if n >= 2 {
			dups[w] = struct{}{}
		}
	}
	return dups
}

// punishedString renders the forbidden letters in stable alphabetical order
// for client display.
func punishedString(punished map[rune]struct{}) []string {
	out := make([]string, 0, len(punished))
	for r := 'a'; r <= 'z'; r++ {
		if _, ok := punished[r]; ok {
			out = append(out, string(r))
		}
	}
	return out
}
