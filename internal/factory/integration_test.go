package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/spinwheel-go/internal/config"
	"github.com/mcoot/spinwheel-go/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	cfg := config.Default()
	cfg.Game.TotalRounds = 2
	s.app = NewTestAppWithConfig(cfg)
}

func (s *IntegrationSuite) TearDownTest() {
	s.app.Close()
}

// advance moves the fake clock once at least n timers are waiting on it
func (s *IntegrationSuite) advance(n int, d time.Duration) {
	s.app.FakeClock.BlockUntil(n)
	s.app.FakeClock.Advance(d)
}

// awaitEvent blocks until at least minCount events of the given type have
// been broadcast, returning the latest one
func (s *IntegrationSuite) awaitEvent(t model.EventType, minCount int) model.Event {
	s.Require().Eventually(func() bool {
		return s.app.MockNotifier.CountOfType(t) >= minCount
	}, 2*time.Second, 5*time.Millisecond, "waiting for event %q (#%d)", t, minCount)

	events := s.app.MockNotifier.EventsOfType(t)
	return events[len(events)-1]
}

func (s *IntegrationSuite) TestNewWiresAllComponents() {
	app := New(config.Default(), nil)
	defer app.Close()

	s.NotNil(app.Registry)
	s.NotNil(app.Session)
	s.NotNil(app.Scheduler)
	s.NotNil(app.Hub)
	s.NotNil(app.WSHandler)
}

// TestBackToBackGames drives two full games through the wired core: auto
// start, every round, tied winners, the rematch reset, and the automatic
// countdown into the next game.
func (s *IntegrationSuite) TestBackToBackGames() {
	game := s.app.Config.Game

	_, err := s.app.Scheduler.Join("conn-1", "alice")
	s.Require().NoError(err)
	_, err = s.app.Scheduler.Join("conn-2", "bob")
	s.Require().NoError(err)
	_, err = s.app.Scheduler.Join("conn-3", "carol")
	s.Require().NoError(err)

	// bob takes round 1, carol round 2
	s.app.MockRandom.QueueIntn(1, 2)

	s.advance(1, game.CountdownDuration)
	start := s.awaitEvent(model.EventGameStart, 1).Payload.(model.GameStartPayload)
	s.True(start.IsAutoStarted)
	s.Len(start.Players, 3)

	for round := 1; round <= game.TotalRounds; round++ {
		s.advance(1, game.CountdownDuration)
		newRound := s.awaitEvent(model.EventNewRound, round).Payload.(model.NewRoundPayload)
		s.Equal(round, newRound.RoundNumber)

		s.advance(1, game.RoundDuration)
		s.awaitEvent(model.EventRoundResult, round)
	}

	end := s.awaitEvent(model.EventGameOver, 1).Payload.(model.GameEndResult)
	s.Require().Len(end.Winners, 2)
	s.Equal("bob", end.Winners[0].Username)
	s.Equal("carol", end.Winners[1].Username)
	s.Equal(1, end.Winners[0].Position)
	s.Equal(1, end.Winners[1].Position)
	s.Require().Len(end.FinalScores, 3)
	s.Equal("alice", end.FinalScores[2].Username)
	s.Equal(2, end.FinalScores[2].Position)

	// Settle delay resets the session with everyone still present
	s.advance(1, game.SettleDelay)
	ready := s.awaitEvent(model.EventNewGameReady, 1).Payload.(model.NewGameReadyPayload)
	s.Require().Len(ready.Players, 3)
	for _, p := range ready.Players {
		s.Equal(0, p.Score)
	}

	// Three players remain, so the next countdown arms and fires on its own
	s.awaitEvent(model.EventAutoStartPending, 2)
	s.advance(1, game.CountdownDuration)
	second := s.awaitEvent(model.EventGameStart, 2).Payload.(model.GameStartPayload)
	s.True(second.IsAutoStarted)
	s.Len(second.Players, 3)

	snapshot := s.app.Scheduler.Snapshot()
	s.Equal(model.SessionStatusStarting, snapshot.Status)
	s.Empty(s.app.Scheduler.History())
}
