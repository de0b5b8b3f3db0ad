package ws

import (
	"encoding/json"
	"time"

	"github.com/mcoot/spinwheel-go/internal/model"
)

// Message is the wire envelope for all server-to-client traffic
type Message struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
	Data      any    `json:"data,omitempty"`
}

// ClientMessage is the wire envelope for client-to-server traffic
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound message types
const (
	MessageJoinGame  = "join_game"
	MessageLeaveGame = "leave_game"
	MessageStartGame = "start_game"
	MessageHeartbeat = "heartbeat"
)

// Per-client reply types (not broadcast)
const (
	MessageJoinSuccess  = "join_game_success"
	MessageHeartbeatAck = "heartbeat_ack"
	MessageError        = "error"
)

// JoinGameRequest is the payload of a join_game message
type JoinGameRequest struct {
	Username string `json:"username"`
}

// JoinedPlayer is the payload of a join_game_success reply
type JoinedPlayer struct {
	ID       model.PlayerID `json:"id"`
	Username string         `json:"username"`
	Score    int            `json:"score"`
	JoinedAt time.Time      `json:"joinedAt"`
}

// ErrorData is the payload of a per-client error reply
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// encodeEvent converts a broadcast event to its wire form
func encodeEvent(event model.Event) ([]byte, error) {
	return json.Marshal(Message{
		Type:      string(event.Type),
		Timestamp: event.Timestamp.UnixMilli(),
		Data:      event.Payload,
	})
}

// encodeReply builds a per-client message
func encodeReply(msgType string, now time.Time, data any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Timestamp: now.UnixMilli(),
		Data:      data,
	})
}
