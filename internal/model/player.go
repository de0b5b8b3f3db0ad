package model

import "time"

// PlayerID uniquely identifies a player for the life of a session.
// Distinct from ConnectionID so identity survives reconnection.
type PlayerID string

// ConnectionID identifies the transport connection a player is attached to
type ConnectionID string

// ConnectionState represents a player's connection status
type ConnectionState string

const (
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateLeft         ConnectionState = "left"
)

// Player represents a game participant
type Player struct {
	ID           PlayerID
	ConnectionID ConnectionID
	Username     string
	Score        int
	JoinedAt     time.Time

	ConnectionState     ConnectionState
	DisconnectedAt      *time.Time
	DisconnectionCount  int
	TemporaryDisconnect bool // true when the current disconnect is recoverable
}

// IsConnected returns true if the player currently holds a live connection
func (p *Player) IsConnected() bool {
	return p.ConnectionState == ConnectionStateConnected
}

// PlayerScore is the public view of a player used in broadcasts and snapshots
type PlayerScore struct {
	ID       PlayerID `json:"id"`
	Username string   `json:"username"`
	Score    int      `json:"score"`
}

// ScoreView returns the broadcast view of the player
func (p *Player) ScoreView() PlayerScore {
	return PlayerScore{
		ID:       p.ID,
		Username: p.Username,
		Score:    p.Score,
	}
}
