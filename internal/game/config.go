package game

import "time"

// LevelRange gives the turn duration at its two endpoint levels; within the
// range the duration is interpolated linearly.
type LevelRange struct {
	FromLevel    int
	ToLevel      int
	FromDuration time.Duration
	ToDuration   time.Duration
}

// PunishThreshold maps a level floor to the number of forbidden letters
// drawn for each turn at or above it.
type PunishThreshold struct {
	Level   int
	Letters int
}

// Config holds all gameplay tuning for a room. Values are defaults, not
// contractual; tests override freely.
type Config struct {
	Themes []string

	// Turn duration by level, piecewise linear.
	LevelRanges []LevelRange

	// Level at which the game ends once a turn completes.
	MaxLevel int

	// Forbidden-letter counts by level floor, ascending.
	PunishThresholds []PunishThreshold

	RoundStartDelay  time.Duration // grace before the first turn of a round
	VoteDuration     time.Duration
	EliminationDelay time.Duration // popup hold after turn disqualifications
	VoteResultDelay  time.Duration // popup hold after vote disqualifications
	GameOverDelay    time.Duration // hold before the final scoreboard
	TurnPacingDelay  time.Duration // pause between turns below FastPaceLevel
	FastPaceLevel    int           // at or above: no pause between turns

	BotName          string
	BotDelayFraction float64       // bot submits at this fraction of the turn
	BotMinLead       time.Duration // bot always submits at least this early

	MaxNameLength int

	RoomMaxAge    time.Duration
	RoomIdleLimit time.Duration
	SweepInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Themes: []string{
			"animaux", "pays", "fruits et legumes", "metiers",
			"sports", "prenoms", "marques", "villes",
		},
		LevelRanges: []LevelRange{
			{FromLevel: 1, ToLevel: 10, FromDuration: 10 * time.Second, ToDuration: 8 * time.Second},
			{FromLevel: 10, ToLevel: 13, FromDuration: 8 * time.Second, ToDuration: 6 * time.Second},
			{FromLevel: 13, ToLevel: 16, FromDuration: 6 * time.Second, ToDuration: 4 * time.Second},
			{FromLevel: 16, ToLevel: 20, FromDuration: 4 * time.Second, ToDuration: 3 * time.Second},
		},
		MaxLevel: 20,
		PunishThresholds: []PunishThreshold{
			{Level: 10, Letters: 1},
			{Level: 13, Letters: 2},
			{Level: 16, Letters: 3},
		},
		RoundStartDelay:  600 * time.Millisecond,
		VoteDuration:     2000 * time.Millisecond,
		EliminationDelay: 2500 * time.Millisecond,
		VoteResultDelay:  2500 * time.Millisecond,
		GameOverDelay:    3 * time.Second,
		TurnPacingDelay:  1500 * time.Millisecond,
		FastPaceLevel:    10,
		BotName:          "Bot",
		BotDelayFraction: 0.5,
		BotMinLead:       50 * time.Millisecond,
		MaxNameLength:    20,
		RoomMaxAge:       6 * time.Hour,
		RoomIdleLimit:    20 * time.Minute,
		SweepInterval:    60 * time.Second,
	}
}
