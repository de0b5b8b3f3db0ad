package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/spinwheel-go/internal/config"
	"github.com/mcoot/spinwheel-go/internal/model"
	"github.com/mcoot/spinwheel-go/internal/services/scheduler"
)

// Handler upgrades HTTP requests to WebSocket connections and bridges inbound
// client messages to the game core. A client that reconnects with its
// previous connection_id resumes its player slot if the grace period has not
// elapsed.
type Handler struct {
	hub       *Hub
	scheduler *scheduler.Scheduler
	cfg       config.Server
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

// NewHandler creates a WebSocket handler
func NewHandler(hub *Hub, sched *scheduler.Scheduler, cfg config.Server, logger *slog.Logger) *Handler {
	return &Handler{
		hub:       hub,
		scheduler: sched,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Single shared session, no cross-origin restrictions
				return true
			},
		},
	}
}

func (h *Handler) pingInterval() time.Duration {
	return h.cfg.HeartbeatInterval
}

func (h *Handler) readTimeout() time.Duration {
	return 2 * h.cfg.HeartbeatInterval
}

// ServeHTTP handles a WebSocket upgrade request
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	connectionID := model.ConnectionID(r.URL.Query().Get("connection_id"))
	if connectionID == "" {
		connectionID = model.ConnectionID(uuid.NewString())
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(h.hub, h, conn, connectionID, h.logger)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump()

	h.logger.Info("ws client connected", slog.String("connection_id", string(connectionID)))

	// A returning connection resumes its player slot
	if player := h.scheduler.Reconnect(connectionID); player != nil {
		h.reply(client, MessageJoinSuccess, JoinedPlayer{
			ID:       player.ID,
			Username: player.Username,
			Score:    player.Score,
			JoinedAt: player.JoinedAt,
		})
	}
}

// dispatch routes an inbound client message
func (h *Handler) dispatch(c *Client, msg ClientMessage) {
	switch msg.Type {
	case MessageJoinGame:
		h.handleJoin(c, msg.Data)
	case MessageLeaveGame:
		h.scheduler.Leave(c.connectionID)
	case MessageStartGame:
		if !h.scheduler.StartGame() {
			h.replyError(c, "CANNOT_START", "game cannot start right now")
		}
	case MessageHeartbeat:
		h.reply(c, MessageHeartbeatAck, nil)
	default:
		h.replyError(c, "UNKNOWN_MESSAGE", "unknown message type: "+msg.Type)
	}
}

func (h *Handler) handleJoin(c *Client, data json.RawMessage) {
	var req JoinGameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.replyError(c, "INVALID_PAYLOAD", "malformed join_game payload")
		return
	}

	player, err := h.scheduler.Join(c.connectionID, req.Username)
	if err != nil {
		h.replyError(c, joinErrorCode(err), err.Error())
		return
	}

	h.reply(c, MessageJoinSuccess, JoinedPlayer{
		ID:       player.ID,
		Username: player.Username,
		Score:    player.Score,
		JoinedAt: player.JoinedAt,
	})
}

// onDisconnect reports a transport loss to the game core as a temporary
// disconnect; the player keeps their slot for the grace period
func (h *Handler) onDisconnect(c *Client) {
	h.logger.Info("ws client disconnected", slog.String("connection_id", string(c.connectionID)))
	h.scheduler.Disconnect(c.connectionID)
}

// reply sends a per-client message (not a broadcast)
func (h *Handler) reply(c *Client, msgType string, data any) {
	encoded, err := encodeReply(msgType, time.Now(), data)
	if err != nil {
		h.logger.Error("failed to encode reply",
			slog.String("type", msgType),
			slog.String("error", err.Error()))
		return
	}
	c.Send(encoded)
}

func (h *Handler) replyError(c *Client, code, message string) {
	h.reply(c, MessageError, ErrorData{Code: code, Message: message})
}

// joinErrorCode maps a join failure to its wire error code
func joinErrorCode(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidUsername):
		return "INVALID_USERNAME"
	case errors.Is(err, model.ErrUsernameTaken):
		return "USERNAME_TAKEN"
	case errors.Is(err, model.ErrGameInProgress):
		return "GAME_IN_PROGRESS"
	default:
		return "JOIN_GAME_ERROR"
	}
}
