package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/spinwheel-go/internal/config"
	"github.com/mcoot/spinwheel-go/internal/model"
	"github.com/mcoot/spinwheel-go/internal/notify"
	"github.com/mcoot/spinwheel-go/internal/services/registry"
	"github.com/mcoot/spinwheel-go/internal/services/session"
)

// Scheduler drives all time-based session transitions: the auto-start
// countdown, the per-round flow, the post-game settle delay and the
// disconnect-grace purge. It is also the serialization point for the whole
// core: every inbound event and every timer firing takes s.mu before touching
// the registry or session, so state mutations are atomic with respect to each
// other. Timer firings never trust the schedule; every fire path re-checks
// its preconditions under the lock.
type Scheduler struct {
	cfg      config.Game
	registry *registry.Registry
	session  *session.Session
	notifier notify.Notifier
	clock    clockwork.Clock
	logger   *slog.Logger

	mu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Auto-start timer. autoStartGen invalidates a pending fire on cancel.
	autoStartGen   int
	autoStartTimer clockwork.Timer
	autoStartArmed bool

	// Round flow. flowGen invalidates goroutines from a superseded flow.
	flowGen         int
	flowCancel      context.CancelFunc
	roundDeadline   time.Time
	pausedRemaining time.Duration

	// Disconnect-grace purge timers. gracePending maps a connection to the
	// generation of its live purge timer; absent means no purge is pending.
	graceGen     int
	gracePending map[model.ConnectionID]int
}

// New creates a Scheduler. Close must be called to release timer goroutines.
func New(
	cfg config.Game,
	reg *registry.Registry,
	sess *session.Session,
	notifier notify.Notifier,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:      cfg,
		registry: reg,
		session:  sess,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		gracePending: make(map[model.ConnectionID]int),
	}
}

// Close cancels all live timers and waits for their goroutines to exit
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
}

// publish emits an event through the notification port. Callers hold s.mu,
// so roster updates always precede the game events that depend on them.
func (s *Scheduler) publish(t model.EventType, payload any) {
	s.notifier.Broadcast(model.Event{
		Type:      t,
		Timestamp: s.clock.Now(),
		Payload:   payload,
	})
}

// Join handles a join request. Errors are local to the initiating client and
// cause no state change.
func (s *Scheduler) Join(connectionID model.ConnectionID, username string) (*model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status() != model.SessionStatusWaiting {
		return nil, model.ErrGameInProgress
	}

	player, err := s.registry.Join(connectionID, username)
	if err != nil {
		return nil, err
	}

	s.publish(model.EventPlayerUpdate, model.PlayerUpdatePayload{
		Players:      s.registry.ScoreViews(),
		TotalPlayers: len(s.registry.List()),
	})
	s.publish(model.EventPlayerJoined, model.PlayerJoinedPayload{
		ID:       player.ID,
		Username: player.Username,
		JoinedAt: player.JoinedAt,
	})

	s.evaluateAutoStartLocked()
	return player, nil
}

// Leave handles an explicit departure: the player is marked Left and purged
// immediately
func (s *Scheduler) Leave(connectionID model.ConnectionID) {
	s.handleDeparture(connectionID, false)
}

// Disconnect handles a transport loss: the player keeps their slot until the
// grace period elapses
func (s *Scheduler) Disconnect(connectionID model.ConnectionID) {
	s.handleDeparture(connectionID, true)
}

func (s *Scheduler) handleDeparture(connectionID model.ConnectionID, temporary bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.registry.MarkDisconnected(connectionID, temporary)
	if player == nil {
		return
	}

	reason := "left"
	if temporary {
		reason = "disconnected"
	}
	s.publish(model.EventPlayerLeft, model.PlayerLeftPayload{
		ID:       player.ID,
		Username: player.Username,
		Reason:   reason,
	})

	if temporary {
		s.armGraceLocked(connectionID)
	} else {
		s.registry.Remove(connectionID)
	}

	s.publish(model.EventPlayerUpdate, model.PlayerUpdatePayload{
		Players:      s.registry.ScoreViews(),
		TotalPlayers: len(s.registry.List()),
	})

	s.afterRosterShrinkLocked()
}

// Reconnect restores a temporarily disconnected player. Returns nil if the
// connection has no recoverable player (explicit leavers cannot silently
// reconnect).
func (s *Scheduler) Reconnect(connectionID model.ConnectionID) *model.Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.registry.MarkReconnected(connectionID)
	if player == nil {
		return nil
	}

	// Invalidate any pending grace purge
	delete(s.gracePending, connectionID)

	s.publish(model.EventPlayerUpdate, model.PlayerUpdatePayload{
		Players:      s.registry.ScoreViews(),
		TotalPlayers: len(s.registry.List()),
	})

	if s.session.Status() == model.SessionStatusWaiting {
		s.evaluateAutoStartLocked()
	}
	return player
}

// StartGame handles an explicit start request. Returns false with no state
// change if the session cannot start.
func (s *Scheduler) StartGame() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(false)
}

// Pause freezes the in-progress round, retaining its remaining duration
func (s *Scheduler) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Pause(); err != nil {
		return err
	}

	// Freeze the round clock at its remaining duration
	s.pausedRemaining = s.roundDeadline.Sub(s.clock.Now())
	if s.pausedRemaining < 0 {
		s.pausedRemaining = 0
	}

	s.cancelFlowLocked()
	s.publish(model.EventGameStateUpdate, s.session.Snapshot())
	return nil
}

// Resume re-arms the paused round with its remaining duration
func (s *Scheduler) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Resume(); err != nil {
		return err
	}

	remaining := s.pausedRemaining
	s.roundDeadline = s.clock.Now().Add(remaining)

	s.publish(model.EventGameStateUpdate, s.session.Snapshot())
	s.startFlowLocked(remaining, true)
	return nil
}

// Snapshot returns the current session state for HTTP queries
func (s *Scheduler) Snapshot() model.GameStateUpdatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Snapshot()
}

// History returns the round results of the current game
func (s *Scheduler) History() []model.RoundResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.History()
}

// ----- auto-start -----

// evaluateAutoStartLocked arms the auto-start countdown when the session is
// Waiting with a startable player count. A no-op while a countdown is already
// pending, so joins do not reset the clock.
func (s *Scheduler) evaluateAutoStartLocked() {
	if s.autoStartArmed || !s.session.CanStart() {
		return
	}
	s.armAutoStartLocked()
}

func (s *Scheduler) armAutoStartLocked() {
	// At most one auto-start timer is live at a time
	s.stopAutoStartTimerLocked()

	s.autoStartGen++
	gen := s.autoStartGen
	timer := s.clock.NewTimer(s.cfg.CountdownDuration)
	s.autoStartTimer = timer
	s.autoStartArmed = true

	count := s.registry.CountConnected()
	s.publish(model.EventAutoStartPending, model.AutoStartPendingPayload{
		StartingIn:      s.cfg.CountdownDuration,
		CurrentPlayers:  count,
		RequiredPlayers: s.cfg.MinPlayers,
		Message:         fmt.Sprintf("Game starting in %s", s.cfg.CountdownDuration),
	})

	s.logger.Info("auto-start armed",
		slog.Int("players", count),
		slog.Duration("countdown", s.cfg.CountdownDuration),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-timer.Chan():
		case <-s.ctx.Done():
			stopAndDrain(timer)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if gen != s.autoStartGen {
			// Cancelled or re-armed while this fire was in flight
			return
		}
		s.autoStartArmed = false
		s.autoStartTimer = nil

		// The player count may have changed since arming
		if !s.startLocked(true) {
			s.logger.Info("auto-start fired but session no longer startable")
			s.evaluateAutoStartLocked()
		}
	}()
}

// cancelAutoStartLocked cancels a pending auto-start and notifies clients
func (s *Scheduler) cancelAutoStartLocked(reason string) {
	if !s.autoStartArmed {
		return
	}
	s.autoStartGen++
	s.stopAutoStartTimerLocked()
	s.autoStartArmed = false

	s.publish(model.EventAutoStartCancelled, model.AutoStartCancelledPayload{
		CurrentPlayers:  s.registry.CountConnected(),
		RequiredPlayers: s.cfg.MinPlayers,
		Reason:          reason,
	})
	s.logger.Info("auto-start cancelled", slog.String("reason", reason))
}

// stopAutoStartTimerLocked stops the live timer without emitting events
func (s *Scheduler) stopAutoStartTimerLocked() {
	if s.autoStartTimer != nil {
		stopAndDrain(s.autoStartTimer)
		s.autoStartTimer = nil
	}
}

// ----- game flow -----

// startLocked begins the game and arms the round flow. Returns false with no
// state change if preconditions fail.
func (s *Scheduler) startLocked(auto bool) bool {
	if !s.session.Start() {
		return false
	}

	// A pending auto-start is consumed or superseded by the start itself
	s.autoStartGen++
	s.stopAutoStartTimerLocked()
	s.autoStartArmed = false

	s.publish(model.EventGameStart, model.GameStartPayload{
		TotalRounds:       s.session.TotalRounds(),
		Players:           s.registry.ScoreViews(),
		StartTime:         s.clock.Now(),
		IsAutoStarted:     auto,
		CountdownDuration: s.cfg.CountdownDuration,
	})

	s.startFlowLocked(s.cfg.CountdownDuration, false)
	return true
}

// startFlowLocked spawns the round-flow goroutine. midRound resumes directly
// at round resolution after the given wait instead of beginning a new round.
func (s *Scheduler) startFlowLocked(wait time.Duration, midRound bool) {
	ctx, cancel := context.WithCancel(s.ctx)
	s.flowGen++
	s.flowCancel = cancel
	gen := s.flowGen

	s.wg.Add(1)
	go s.runRoundFlow(ctx, gen, wait, midRound)
}

// cancelFlowLocked invalidates and wakes the active round flow, if any
func (s *Scheduler) cancelFlowLocked() {
	s.flowGen++
	if s.flowCancel != nil {
		s.flowCancel()
		s.flowCancel = nil
	}
}

// runRoundFlow is the per-round loop: countdown, begin round, run the round,
// resolve it, and either repeat or proceed to game end. Every wake re-checks
// the flow generation under the lock before mutating.
func (s *Scheduler) runRoundFlow(ctx context.Context, gen int, wait time.Duration, midRound bool) {
	defer s.wg.Done()

	for {
		if !midRound {
			// Pre-round countdown
			if !s.sleep(ctx, wait) {
				return
			}
			if !s.beginRound(gen) {
				return
			}
			wait = s.cfg.RoundDuration
		}
		midRound = false

		// Round running
		if !s.sleep(ctx, wait) {
			return
		}

		gameOver, ok := s.resolveRound(gen)
		if !ok {
			return
		}
		if gameOver {
			s.runGameEnd(ctx, gen)
			return
		}
		wait = s.cfg.CountdownDuration
	}
}

// beginRound starts the next round and publishes the synchronized countdown
// window. Returns false if the flow is stale or the transition is invalid.
func (s *Scheduler) beginRound(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.flowGen {
		return false
	}

	round, err := s.session.BeginRound()
	if err != nil {
		s.logger.Warn("round flow woke in unexpected state",
			slog.String("status", string(s.session.Status())),
		)
		return false
	}

	start := s.clock.Now()
	s.roundDeadline = start.Add(s.cfg.RoundDuration)

	s.publish(model.EventNewRound, model.NewRoundPayload{
		RoundNumber:  round,
		TotalRounds:  s.session.TotalRounds(),
		SpinDuration: s.cfg.RoundDuration,
		StartTime:    start,
		EndTime:      s.roundDeadline,
		Players:      s.registry.ScoreViews(),
	})
	return true
}

// resolveRound settles the running round. Returns (gameOver, ok); ok is false
// when the flow is stale and must exit without further action.
func (s *Scheduler) resolveRound(gen int) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.flowGen {
		return false, false
	}

	result, err := s.session.ResolveRound()
	if err != nil {
		if errors.Is(err, model.ErrNoPlayers) {
			// Fatal to the round: abort straight to game end
			s.logger.Error("no connected players at round resolution")
			s.session.ForceFinish("no connected players")
			return true, true
		}
		s.logger.Warn("round resolution skipped",
			slog.String("status", string(s.session.Status())),
			slog.String("error", err.Error()),
		)
		return false, false
	}

	payload := model.RoundResultPayload{
		RoundNumber: result.RoundNumber,
		Winner:      result.Winner,
		AllScores:   result.Scores,
		IsLastRound: result.IsLastRound,
	}
	if !result.IsLastRound {
		payload.NextRoundStartsIn = s.cfg.CountdownDuration
	}
	s.publish(model.EventRoundResult, payload)

	return result.IsLastRound, true
}

// runGameEnd publishes final standings, waits out the settle delay, resets
// for a rematch and re-evaluates auto-start
func (s *Scheduler) runGameEnd(ctx context.Context, gen int) {
	s.mu.Lock()
	if gen != s.flowGen {
		s.mu.Unlock()
		return
	}
	end := s.session.GameEndResult()
	s.publish(model.EventGameOver, end)
	s.logger.Info("game over",
		slog.Int("rounds_played", end.Stats.TotalRounds),
		slog.Int("players", end.Stats.TotalPlayers),
		slog.Duration("duration", end.Stats.Duration),
	)
	s.mu.Unlock()

	if !s.sleep(ctx, s.cfg.SettleDelay) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.flowGen {
		return
	}

	s.session.PrepareRematch()

	// Roster broadcast first: the rematch announcement depends on it
	s.publish(model.EventPlayerUpdate, model.PlayerUpdatePayload{
		Players:      s.registry.ScoreViews(),
		TotalPlayers: len(s.registry.List()),
	})
	s.publish(model.EventNewGameReady, model.NewGameReadyPayload{
		Message: "Scores reset, ready for a new game",
		Players: s.registry.ScoreViews(),
	})

	s.evaluateAutoStartLocked()
}

// forceGameEndLocked aborts an active game, broadcasting a session-ending
// notice. The abort path always lands in Finished and then rematch-ready, so
// the session never wedges mid-round.
func (s *Scheduler) forceGameEndLocked(code, message string) {
	if !s.session.ForceFinish(message) {
		return
	}

	s.cancelFlowLocked()
	s.publish(model.EventError, model.ErrorPayload{Code: code, Message: message})

	ctx, cancel := context.WithCancel(s.ctx)
	s.flowGen++
	s.flowCancel = cancel
	gen := s.flowGen

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runGameEnd(ctx, gen)
	}()
}

// afterRosterShrinkLocked reacts to the connected count dropping: cancels a
// pending auto-start while Waiting, or force-ends an active game that fell
// below the minimum
func (s *Scheduler) afterRosterShrinkLocked() {
	count := s.registry.CountConnected()
	status := s.session.Status()

	if status == model.SessionStatusWaiting {
		if count < s.cfg.MinPlayers {
			s.cancelAutoStartLocked("not enough players")
		}
		return
	}

	if status.IsActive() && count < s.cfg.MinPlayers {
		s.forceGameEndLocked("INSUFFICIENT_PLAYERS",
			fmt.Sprintf("Game ended: %d connected player(s), %d required", count, s.cfg.MinPlayers))
	}
}

// ----- disconnect grace -----

// armGraceLocked schedules a purge for a temporarily disconnected player.
// Reconnection clears the pending entry, turning the fire into a no-op. The
// generation counter is process-global so a stale fire can never match a
// later timer for the same connection.
func (s *Scheduler) armGraceLocked(connectionID model.ConnectionID) {
	s.graceGen++
	gen := s.graceGen
	s.gracePending[connectionID] = gen
	timer := s.clock.NewTimer(s.cfg.DisconnectGrace)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-timer.Chan():
		case <-s.ctx.Done():
			stopAndDrain(timer)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.gracePending[connectionID] != gen {
			return
		}
		delete(s.gracePending, connectionID)

		if removed := s.registry.Remove(connectionID); removed != nil {
			s.logger.Info("disconnected player purged after grace period",
				slog.String("player_id", string(removed.ID)),
				slog.String("username", removed.Username),
			)
			s.publish(model.EventPlayerUpdate, model.PlayerUpdatePayload{
				Players:      s.registry.ScoreViews(),
				TotalPlayers: len(s.registry.List()),
			})
		}
	}()
}

// ----- timing -----

// sleep suspends the calling flow for d on the injected clock. Returns false
// if the context was cancelled first.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := s.clock.NewTimer(d)
	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		stopAndDrain(timer)
		return false
	}
}

// stopAndDrain stops a timer and drains its channel so a concurrent fire
// cannot leak into a later select
func stopAndDrain(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
