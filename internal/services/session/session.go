package session

import (
	"log/slog"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/spinwheel-go/internal/config"
	"github.com/mcoot/spinwheel-go/internal/dependencies/random"
	"github.com/mcoot/spinwheel-go/internal/model"
	"github.com/mcoot/spinwheel-go/internal/services/registry"
)

// Session owns the game lifecycle state machine, round counter and history.
// It holds no timers and performs no locking; the scheduler serializes all
// access and drives time-based transitions.
type Session struct {
	cfg      config.Game
	registry *registry.Registry
	clock    clockwork.Clock
	random   random.Random
	logger   *slog.Logger

	status         model.SessionStatus
	currentRound   int
	startedAt      time.Time
	roundStartedAt time.Time
	history        []model.RoundResult
}

// New creates a Session in the Waiting state
func New(
	cfg config.Game,
	reg *registry.Registry,
	clock clockwork.Clock,
	random random.Random,
	logger *slog.Logger,
) *Session {
	return &Session{
		cfg:      cfg,
		registry: reg,
		clock:    clock,
		random:   random,
		logger:   logger,
		status:   model.SessionStatusWaiting,
	}
}

// Status returns the current lifecycle status
func (s *Session) Status() model.SessionStatus {
	return s.status
}

// CurrentRound returns the round counter (0 before the first round)
func (s *Session) CurrentRound() int {
	return s.currentRound
}

// TotalRounds returns the fixed number of rounds per game
func (s *Session) TotalRounds() int {
	return s.cfg.TotalRounds
}

// StartedAt returns when the current game started (zero if not started)
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// RoundStartedAt returns when the current round started (zero outside a round)
func (s *Session) RoundStartedAt() time.Time {
	return s.roundStartedAt
}

// History returns the round results recorded so far, in chronological order
func (s *Session) History() []model.RoundResult {
	out := make([]model.RoundResult, len(s.history))
	copy(out, s.history)
	return out
}

// CanStart reports whether a game can begin right now
func (s *Session) CanStart() bool {
	if s.status != model.SessionStatusWaiting {
		return false
	}
	connected := s.registry.CountConnected()
	return connected >= s.cfg.MinPlayers && connected <= s.cfg.MaxPlayers
}

// Start transitions Waiting -> Starting. Returns false with no state change
// if the session cannot start.
func (s *Session) Start() bool {
	if !s.CanStart() {
		return false
	}

	s.status = model.SessionStatusStarting
	s.currentRound = 0
	s.startedAt = s.clock.Now()

	s.logger.Info("game starting",
		slog.Int("players", s.registry.CountConnected()),
		slog.Int("total_rounds", s.cfg.TotalRounds),
	)
	return true
}

// BeginRound transitions Starting|RoundEnd -> RoundInProgress and advances
// the round counter
func (s *Session) BeginRound() (int, error) {
	if s.status != model.SessionStatusStarting && s.status != model.SessionStatusRoundEnd {
		return 0, model.ErrInvalidTransition
	}

	s.currentRound++
	s.status = model.SessionStatusRoundInProgress
	s.roundStartedAt = s.clock.Now()

	s.logger.Info("round started",
		slog.Int("round", s.currentRound),
		slog.Int("total_rounds", s.cfg.TotalRounds),
	)
	return s.currentRound, nil
}

// ResolveRound picks a winner uniformly at random among the players connected
// at this moment, awards a point, appends the result to history, and
// transitions to RoundEnd (or Finished on the last round). Fails with
// ErrNoPlayers if nobody is connected; the caller must then force game end.
func (s *Session) ResolveRound() (model.RoundResult, error) {
	if s.status != model.SessionStatusRoundInProgress {
		return model.RoundResult{}, model.ErrInvalidTransition
	}

	connected := s.registry.ListConnected()
	if len(connected) == 0 {
		return model.RoundResult{}, model.ErrNoPlayers
	}

	winner := connected[s.random.Intn(len(connected))]
	if err := s.registry.AddPoint(winner.ID); err != nil {
		return model.RoundResult{}, err
	}

	isLast := s.currentRound >= s.cfg.TotalRounds
	if isLast {
		s.status = model.SessionStatusFinished
	} else {
		s.status = model.SessionStatusRoundEnd
	}
	s.roundStartedAt = time.Time{}

	result := model.RoundResult{
		RoundNumber: s.currentRound,
		Winner:      winner.ScoreView(),
		Scores:      s.registry.ScoreViews(),
		IsLastRound: isLast,
	}
	s.history = append(s.history, result)

	s.logger.Info("round resolved",
		slog.Int("round", result.RoundNumber),
		slog.String("winner", winner.Username),
		slog.Int("winner_score", winner.Score),
		slog.Bool("last_round", isLast),
	)
	return result, nil
}

// Pause transitions RoundInProgress -> Paused
func (s *Session) Pause() error {
	if s.status != model.SessionStatusRoundInProgress {
		return model.ErrInvalidTransition
	}
	s.status = model.SessionStatusPaused
	s.logger.Info("game paused", slog.Int("round", s.currentRound))
	return nil
}

// Resume transitions Paused -> RoundInProgress
func (s *Session) Resume() error {
	if s.status != model.SessionStatusPaused {
		return model.ErrInvalidTransition
	}
	s.status = model.SessionStatusRoundInProgress
	s.logger.Info("game resumed", slog.Int("round", s.currentRound))
	return nil
}

// ForceFinish drives the session to Finished from any earlier state,
// bypassing remaining rounds. Used on abnormal termination. Returns false if
// already Finished or still Waiting.
func (s *Session) ForceFinish(reason string) bool {
	if !s.status.IsActive() {
		return false
	}
	s.status = model.SessionStatusFinished
	s.roundStartedAt = time.Time{}
	s.logger.Warn("game force-finished",
		slog.String("reason", reason),
		slog.Int("round", s.currentRound),
	)
	return true
}

// ComputeFinalStandings ranks players by score descending, preserving roster
// order between equal scores. Equal scores share a position; the position
// increments only when the score strictly decreases.
func (s *Session) ComputeFinalStandings() []model.GameWinner {
	players := s.registry.List()
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})

	standings := make([]model.GameWinner, 0, len(players))
	position := 0
	lastScore := -1
	for _, p := range players {
		if p.Score != lastScore {
			position++
			lastScore = p.Score
		}
		standings = append(standings, model.GameWinner{
			ID:       p.ID,
			Username: p.Username,
			Score:    p.Score,
			Position: position,
		})
	}
	return standings
}

// GameEndResult computes the final report for a finished game
func (s *Session) GameEndResult() model.GameEndResult {
	standings := s.ComputeFinalStandings()

	var winners []model.GameWinner
	for _, w := range standings {
		if w.Position == 1 {
			winners = append(winners, w)
		}
	}

	end := s.clock.Now()
	start := s.startedAt
	if start.IsZero() {
		start = end
	}

	return model.GameEndResult{
		Winners:     winners,
		FinalScores: standings,
		Stats: model.GameStats{
			TotalRounds:  s.currentRound,
			Duration:     end.Sub(start),
			StartTime:    start,
			EndTime:      end,
			TotalPlayers: len(standings),
		},
	}
}

// PrepareRematch resets scores, round counter and history while keeping all
// players registered, returning the session to Waiting
func (s *Session) PrepareRematch() {
	s.registry.ResetScores()
	s.currentRound = 0
	s.history = nil
	s.startedAt = time.Time{}
	s.roundStartedAt = time.Time{}
	s.status = model.SessionStatusWaiting

	s.logger.Info("session reset for rematch")
}

// Snapshot returns the current state for broadcast or HTTP queries
func (s *Session) Snapshot() model.GameStateUpdatePayload {
	return model.GameStateUpdatePayload{
		Status:       s.status,
		CurrentRound: s.currentRound,
		TotalRounds:  s.cfg.TotalRounds,
		Players:      s.registry.ScoreViews(),
	}
}
