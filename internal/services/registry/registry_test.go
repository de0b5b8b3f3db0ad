package registry

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/spinwheel-go/internal/config"
	"github.com/mcoot/spinwheel-go/internal/model"
	"github.com/mcoot/spinwheel-go/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	clock    *clockwork.FakeClock
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.clock = clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.registry = New(config.Default().Game, s.clock, testutil.NopLogger())
}

// Join tests

func (s *RegistrySuite) TestJoinSucceeds() {
	player, err := s.registry.Join("conn-1", "alice")
	s.Require().NoError(err)

	s.NotEmpty(player.ID)
	s.Equal(model.ConnectionID("conn-1"), player.ConnectionID)
	s.Equal("alice", player.Username)
	s.Equal(0, player.Score)
	s.Equal(model.ConnectionStateConnected, player.ConnectionState)
	s.Equal(s.clock.Now(), player.JoinedAt)
}

func (s *RegistrySuite) TestJoinTrimsUsername() {
	player, err := s.registry.Join("conn-1", "  alice  ")
	s.Require().NoError(err)
	s.Equal("alice", player.Username)
}

func (s *RegistrySuite) TestJoinRejectsShortUsername() {
	_, err := s.registry.Join("conn-1", "a")
	s.ErrorIs(err, model.ErrInvalidUsername)

	_, err = s.registry.Join("conn-1", " x ")
	s.ErrorIs(err, model.ErrInvalidUsername)
}

func (s *RegistrySuite) TestJoinRejectsLongUsername() {
	_, err := s.registry.Join("conn-1", "abcdefghijklmnopqrstu") // 21 chars
	s.ErrorIs(err, model.ErrInvalidUsername)
}

func (s *RegistrySuite) TestJoinRejectsDuplicateUsername() {
	_, err := s.registry.Join("conn-1", "alice")
	s.Require().NoError(err)

	_, err = s.registry.Join("conn-2", "alice")
	s.ErrorIs(err, model.ErrUsernameTaken)
}

func (s *RegistrySuite) TestJoinUsernameUniquenessIsCaseInsensitive() {
	_, err := s.registry.Join("conn-1", "Alice")
	s.Require().NoError(err)

	_, err = s.registry.Join("conn-2", "ALICE")
	s.ErrorIs(err, model.ErrUsernameTaken)
}

func (s *RegistrySuite) TestRejoinSameConnectionIsIdempotent() {
	first, err := s.registry.Join("conn-1", "alice")
	s.Require().NoError(err)

	second, err := s.registry.Join("conn-1", "alice")
	s.Require().NoError(err)

	s.NotEqual(first.ID, second.ID) // stale record replaced
	s.Len(s.registry.List(), 1)
	s.Equal(second, s.registry.FindByConnection("conn-1"))
}

func (s *RegistrySuite) TestRejoinSameConnectionNewUsernameReplacesRecord() {
	_, err := s.registry.Join("conn-1", "alice")
	s.Require().NoError(err)

	_, err = s.registry.Join("conn-1", "bob")
	s.Require().NoError(err)

	s.Len(s.registry.List(), 1)
	s.Nil(s.registry.FindByUsername("alice"))
	s.NotNil(s.registry.FindByUsername("bob"))
}

func (s *RegistrySuite) TestListPreservesInsertionOrder() {
	_, _ = s.registry.Join("conn-1", "alice")
	_, _ = s.registry.Join("conn-2", "bob")
	_, _ = s.registry.Join("conn-3", "carol")

	players := s.registry.List()
	s.Require().Len(players, 3)
	s.Equal("alice", players[0].Username)
	s.Equal("bob", players[1].Username)
	s.Equal("carol", players[2].Username)
}

// Disconnect / reconnect tests

func (s *RegistrySuite) TestMarkDisconnectedTemporary() {
	_, _ = s.registry.Join("conn-1", "alice")

	player := s.registry.MarkDisconnected("conn-1", true)
	s.Require().NotNil(player)

	s.Equal(model.ConnectionStateDisconnected, player.ConnectionState)
	s.True(player.TemporaryDisconnect)
	s.Equal(1, player.DisconnectionCount)
	s.Require().NotNil(player.DisconnectedAt)
	s.Equal(s.clock.Now(), *player.DisconnectedAt)
}

func (s *RegistrySuite) TestMarkDisconnectedExplicitLeave() {
	_, _ = s.registry.Join("conn-1", "alice")

	player := s.registry.MarkDisconnected("conn-1", false)
	s.Require().NotNil(player)
	s.Equal(model.ConnectionStateLeft, player.ConnectionState)
	s.False(player.TemporaryDisconnect)
}

func (s *RegistrySuite) TestMarkDisconnectedAbsentPlayerIsNoop() {
	s.Nil(s.registry.MarkDisconnected("conn-404", true))
}

func (s *RegistrySuite) TestMarkReconnectedRestoresTemporaryDisconnect() {
	_, _ = s.registry.Join("conn-1", "alice")
	s.registry.MarkDisconnected("conn-1", true)

	player := s.registry.MarkReconnected("conn-1")
	s.Require().NotNil(player)
	s.Equal(model.ConnectionStateConnected, player.ConnectionState)
	s.Nil(player.DisconnectedAt)
	s.Equal(1, player.DisconnectionCount)
}

func (s *RegistrySuite) TestMarkReconnectedRejectsExplicitLeaver() {
	_, _ = s.registry.Join("conn-1", "alice")
	s.registry.MarkDisconnected("conn-1", false)

	s.Nil(s.registry.MarkReconnected("conn-1"))
}

func (s *RegistrySuite) TestDisconnectionCountAccumulates() {
	_, _ = s.registry.Join("conn-1", "alice")

	s.registry.MarkDisconnected("conn-1", true)
	s.registry.MarkReconnected("conn-1")
	s.registry.MarkDisconnected("conn-1", true)

	player := s.registry.FindByConnection("conn-1")
	s.Equal(2, player.DisconnectionCount)
}

// Remove tests

func (s *RegistrySuite) TestRemoveConnectedPlayerIsNotEligible() {
	_, _ = s.registry.Join("conn-1", "alice")

	s.Nil(s.registry.Remove("conn-1"))
	s.Len(s.registry.List(), 1)
}

func (s *RegistrySuite) TestRemoveLeftPlayer() {
	_, _ = s.registry.Join("conn-1", "alice")
	s.registry.MarkDisconnected("conn-1", false)

	removed := s.registry.Remove("conn-1")
	s.Require().NotNil(removed)
	s.Equal("alice", removed.Username)
	s.Empty(s.registry.List())
	s.Nil(s.registry.FindByUsername("alice"))
}

func (s *RegistrySuite) TestRemoveTemporaryDisconnectWithinGraceIsNotEligible() {
	_, _ = s.registry.Join("conn-1", "alice")
	s.registry.MarkDisconnected("conn-1", true)

	s.clock.Advance(30 * time.Second)
	s.Nil(s.registry.Remove("conn-1"))
	s.Len(s.registry.List(), 1)
}

func (s *RegistrySuite) TestRemoveTemporaryDisconnectAfterGrace() {
	_, _ = s.registry.Join("conn-1", "alice")
	s.registry.MarkDisconnected("conn-1", true)

	s.clock.Advance(60 * time.Second)
	removed := s.registry.Remove("conn-1")
	s.Require().NotNil(removed)
	s.Empty(s.registry.List())
}

func (s *RegistrySuite) TestUsernameFreedAfterRemoval() {
	_, _ = s.registry.Join("conn-1", "alice")
	s.registry.MarkDisconnected("conn-1", false)
	s.registry.Remove("conn-1")

	_, err := s.registry.Join("conn-2", "alice")
	s.NoError(err)
}

// Counting and scoring tests

func (s *RegistrySuite) TestCountConnectedExcludesDisconnected() {
	_, _ = s.registry.Join("conn-1", "alice")
	_, _ = s.registry.Join("conn-2", "bob")
	_, _ = s.registry.Join("conn-3", "carol")

	s.Equal(3, s.registry.CountConnected())

	s.registry.MarkDisconnected("conn-2", true)
	s.Equal(2, s.registry.CountConnected())

	connected := s.registry.ListConnected()
	s.Require().Len(connected, 2)
	s.Equal("alice", connected[0].Username)
	s.Equal("carol", connected[1].Username)
}

func (s *RegistrySuite) TestAddPointAndResetScores() {
	alice, _ := s.registry.Join("conn-1", "alice")
	_, _ = s.registry.Join("conn-2", "bob")

	s.Require().NoError(s.registry.AddPoint(alice.ID))
	s.Require().NoError(s.registry.AddPoint(alice.ID))
	s.Equal(2, s.registry.FindByConnection("conn-1").Score)

	s.registry.ResetScores()
	s.Equal(0, s.registry.FindByConnection("conn-1").Score)
	s.Equal(0, s.registry.FindByConnection("conn-2").Score)
}

func (s *RegistrySuite) TestAddPointUnknownPlayer() {
	s.ErrorIs(s.registry.AddPoint("nope"), model.ErrPlayerNotFound)
}
