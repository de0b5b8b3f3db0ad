package model

import "time"

// SessionStatus represents the current phase of the game session
type SessionStatus string

// Starting and RoundEnd cover the countdown windows before the first round
// and between rounds respectively.
const (
	SessionStatusWaiting         SessionStatus = "waiting"
	SessionStatusStarting        SessionStatus = "starting"
	SessionStatusRoundInProgress SessionStatus = "round_in_progress"
	SessionStatusRoundEnd        SessionStatus = "round_end"
	SessionStatusPaused          SessionStatus = "paused"
	SessionStatusFinished        SessionStatus = "finished"
)

// IsActive returns true if a game is underway (anything between start and finish)
func (s SessionStatus) IsActive() bool {
	switch s {
	case SessionStatusStarting, SessionStatusRoundInProgress, SessionStatusRoundEnd, SessionStatusPaused:
		return true
	}
	return false
}

// RoundResult records the outcome of a single round. Immutable once appended
// to the session history.
type RoundResult struct {
	RoundNumber int           `json:"roundNumber"`
	Winner      PlayerScore   `json:"winner"`
	Scores      []PlayerScore `json:"scores"` // All players' scores at round end
	IsLastRound bool          `json:"isLastRound"`
}

// GameWinner is a ranked entry in the final standings. Players with equal
// scores share a position; positions increment only when the score strictly
// decreases going down the ranking.
type GameWinner struct {
	ID       PlayerID `json:"id"`
	Username string   `json:"username"`
	Score    int      `json:"score"`
	Position int      `json:"position"`
}

// GameStats summarizes a completed game
type GameStats struct {
	TotalRounds  int           `json:"totalRounds"`
	Duration     time.Duration `json:"duration"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	TotalPlayers int           `json:"totalPlayers"`
}

// GameEndResult is computed once at game end from final player scores
type GameEndResult struct {
	Winners     []GameWinner `json:"winners"` // All entries sharing position 1
	FinalScores []GameWinner `json:"finalScores"`
	Stats       GameStats    `json:"gameStats"`
}
