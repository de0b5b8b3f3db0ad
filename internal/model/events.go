package model

import "time"

// EventType identifies the type of broadcast event
type EventType string

const (
	// Roster events
	EventPlayerUpdate EventType = "player_update"
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"

	// Session lifecycle events
	EventAutoStartPending   EventType = "game_auto_start_pending"
	EventAutoStartCancelled EventType = "game_auto_start_cancelled"
	EventGameStart          EventType = "game_start"
	EventNewRound           EventType = "new_round"
	EventRoundResult        EventType = "round_result"
	EventGameOver           EventType = "game_over"
	EventNewGameReady       EventType = "new_game_ready"
	EventGameStateUpdate    EventType = "game_state_update"

	EventError EventType = "error"
)

// Event is a state-change notification published to all connected clients
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

// PlayerUpdatePayload is the full roster broadcast
type PlayerUpdatePayload struct {
	Players      []PlayerScore `json:"players"`
	TotalPlayers int           `json:"totalPlayers"`
}

// PlayerJoinedPayload announces a new player to existing clients
type PlayerJoinedPayload struct {
	ID       PlayerID  `json:"id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

// PlayerLeftPayload announces a departure
type PlayerLeftPayload struct {
	ID       PlayerID `json:"id"`
	Username string   `json:"username"`
	Reason   string   `json:"reason,omitempty"`
}

// AutoStartPendingPayload announces a pending automatic game start
type AutoStartPendingPayload struct {
	StartingIn      time.Duration `json:"startingIn"`
	CurrentPlayers  int           `json:"currentPlayers"`
	RequiredPlayers int           `json:"requiredPlayers"`
	Message         string        `json:"message"`
}

// AutoStartCancelledPayload announces a cancelled automatic start
type AutoStartCancelledPayload struct {
	CurrentPlayers  int    `json:"currentPlayers"`
	RequiredPlayers int    `json:"requiredPlayers"`
	Reason          string `json:"reason"`
}

// GameStartPayload announces the session starting
type GameStartPayload struct {
	TotalRounds       int           `json:"totalRounds"`
	Players           []PlayerScore `json:"players"`
	StartTime         time.Time     `json:"startTime"`
	IsAutoStarted     bool          `json:"isAutoStarted"`
	CountdownDuration time.Duration `json:"countdownDuration"`
}

// NewRoundPayload announces a round beginning. StartTime and EndTime let
// clients render a countdown synchronized to the server's clock.
type NewRoundPayload struct {
	RoundNumber  int           `json:"roundNumber"`
	TotalRounds  int           `json:"totalRounds"`
	SpinDuration time.Duration `json:"spinDuration"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	Players      []PlayerScore `json:"players"`
}

// RoundResultPayload announces a resolved round
type RoundResultPayload struct {
	RoundNumber       int           `json:"roundNumber"`
	Winner            PlayerScore   `json:"winner"`
	AllScores         []PlayerScore `json:"allScores"`
	IsLastRound       bool          `json:"isLastRound"`
	NextRoundStartsIn time.Duration `json:"nextRoundStartsIn,omitempty"`
}

// GameStateUpdatePayload is a snapshot of the session, sent on explicit
// state changes that have no dedicated event (pause/resume)
type GameStateUpdatePayload struct {
	Status       SessionStatus `json:"status"`
	CurrentRound int           `json:"currentRound"`
	TotalRounds  int           `json:"totalRounds"`
	Players      []PlayerScore `json:"players"`
}

// NewGameReadyPayload announces that scores are reset and a rematch can begin
type NewGameReadyPayload struct {
	Message string        `json:"message"`
	Players []PlayerScore `json:"players"`
}

// ErrorPayload is a broadcast error notice (session-ending conditions)
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
