package registry

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mcoot/spinwheel-go/internal/config"
	"github.com/mcoot/spinwheel-go/internal/model"
)

// Registry owns the player roster: connection-state transitions, username
// uniqueness and purge eligibility. It performs no locking of its own; the
// scheduler serializes all access.
type Registry struct {
	cfg    config.Game
	clock  clockwork.Clock
	logger *slog.Logger

	players    []*model.Player // insertion order
	byConn     map[model.ConnectionID]*model.Player
	byUsername map[string]*model.Player // normalized username -> player
}

// New creates a new Registry
func New(cfg config.Game, clock clockwork.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		cfg:        cfg,
		clock:      clock,
		logger:     logger,
		byConn:     make(map[model.ConnectionID]*model.Player),
		byUsername: make(map[string]*model.Player),
	}
}

// normalize maps a username to its uniqueness key
func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Join registers a new player on the given connection. The username must be
// valid and not held by a different connection; a rejoin on the same
// connection replaces the stale record.
func (r *Registry) Join(connectionID model.ConnectionID, username string) (*model.Player, error) {
	trimmed := strings.TrimSpace(username)
	if len(trimmed) < r.cfg.MinUsernameLength || len(trimmed) > r.cfg.MaxUsernameLength {
		return nil, model.ErrInvalidUsername
	}

	if existing, ok := r.byUsername[normalize(trimmed)]; ok {
		if existing.ConnectionID != connectionID {
			return nil, model.ErrUsernameTaken
		}
		// Idempotent rejoin: drop the stale record and fall through
		r.purge(existing)
	}

	// A connection holds at most one player record
	if stale, ok := r.byConn[connectionID]; ok {
		r.purge(stale)
	}

	player := &model.Player{
		ID:              model.PlayerID(uuid.NewString()),
		ConnectionID:    connectionID,
		Username:        trimmed,
		Score:           0,
		JoinedAt:        r.clock.Now(),
		ConnectionState: model.ConnectionStateConnected,
	}

	r.players = append(r.players, player)
	r.byConn[connectionID] = player
	r.byUsername[normalize(trimmed)] = player

	r.logger.Info("player joined",
		slog.String("player_id", string(player.ID)),
		slog.String("username", player.Username),
		slog.Int("total_players", len(r.players)),
	)

	return player, nil
}

// MarkDisconnected transitions a connected player to Disconnected (temporary
// loss) or Left (explicit departure). No-op if the player is absent or not
// connected.
func (r *Registry) MarkDisconnected(connectionID model.ConnectionID, temporary bool) *model.Player {
	player, ok := r.byConn[connectionID]
	if !ok || player.ConnectionState != model.ConnectionStateConnected {
		return nil
	}

	now := r.clock.Now()
	player.DisconnectedAt = &now
	player.DisconnectionCount++
	player.TemporaryDisconnect = temporary
	if temporary {
		player.ConnectionState = model.ConnectionStateDisconnected
	} else {
		player.ConnectionState = model.ConnectionStateLeft
	}

	r.logger.Info("player disconnected",
		slog.String("player_id", string(player.ID)),
		slog.String("username", player.Username),
		slog.Bool("temporary", temporary),
		slog.Int("disconnection_count", player.DisconnectionCount),
	)

	return player
}

// MarkReconnected transitions a temporarily disconnected player back to
// Connected. A player who explicitly left cannot silently reconnect.
func (r *Registry) MarkReconnected(connectionID model.ConnectionID) *model.Player {
	player, ok := r.byConn[connectionID]
	if !ok || player.ConnectionState != model.ConnectionStateDisconnected || !player.TemporaryDisconnect {
		return nil
	}

	player.ConnectionState = model.ConnectionStateConnected
	player.DisconnectedAt = nil
	player.TemporaryDisconnect = false

	r.logger.Info("player reconnected",
		slog.String("player_id", string(player.ID)),
		slog.String("username", player.Username),
	)

	return player
}

// Remove purges a player if removal-eligible: Left, disconnected
// non-temporarily, or disconnected past the grace period. Returns the removed
// player, or nil if the player is absent or not yet eligible.
func (r *Registry) Remove(connectionID model.ConnectionID) *model.Player {
	player, ok := r.byConn[connectionID]
	if !ok || !r.removable(player) {
		return nil
	}

	r.purge(player)

	r.logger.Info("player removed",
		slog.String("player_id", string(player.ID)),
		slog.String("username", player.Username),
		slog.Int("total_players", len(r.players)),
	)

	return player
}

func (r *Registry) removable(player *model.Player) bool {
	switch player.ConnectionState {
	case model.ConnectionStateLeft:
		return true
	case model.ConnectionStateDisconnected:
		if !player.TemporaryDisconnect {
			return true
		}
		return player.DisconnectedAt != nil &&
			r.clock.Now().Sub(*player.DisconnectedAt) >= r.cfg.DisconnectGrace
	}
	return false
}

// purge drops the player from all indexes regardless of eligibility
func (r *Registry) purge(player *model.Player) {
	for i, p := range r.players {
		if p == player {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	delete(r.byConn, player.ConnectionID)
	delete(r.byUsername, normalize(player.Username))
}

// List returns all players in insertion order
func (r *Registry) List() []*model.Player {
	out := make([]*model.Player, len(r.players))
	copy(out, r.players)
	return out
}

// ListConnected returns currently connected players in insertion order
func (r *Registry) ListConnected() []*model.Player {
	var out []*model.Player
	for _, p := range r.players {
		if p.IsConnected() {
			out = append(out, p)
		}
	}
	return out
}

// CountConnected returns the number of currently connected players
func (r *Registry) CountConnected() int {
	count := 0
	for _, p := range r.players {
		if p.IsConnected() {
			count++
		}
	}
	return count
}

// FindByUsername looks up a player by username (case-insensitive)
func (r *Registry) FindByUsername(username string) *model.Player {
	return r.byUsername[normalize(username)]
}

// FindByConnection looks up a player by connection
func (r *Registry) FindByConnection(connectionID model.ConnectionID) *model.Player {
	return r.byConn[connectionID]
}

// AddPoint increments a player's score
func (r *Registry) AddPoint(id model.PlayerID) error {
	for _, p := range r.players {
		if p.ID == id {
			p.Score++
			return nil
		}
	}
	return model.ErrPlayerNotFound
}

// ResetScores zeroes every player's score
func (r *Registry) ResetScores() {
	for _, p := range r.players {
		p.Score = 0
	}
}

// ScoreViews returns the broadcast view of all players in insertion order
func (r *Registry) ScoreViews() []model.PlayerScore {
	out := make([]model.PlayerScore, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p.ScoreView())
	}
	return out
}
