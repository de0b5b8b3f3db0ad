package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestLoadAppliesDefaults() {
	cfg, err := Load()
	s.Require().NoError(err)

	s.Equal(2, cfg.Game.MinPlayers)
	s.Equal(10, cfg.Game.MaxPlayers)
	s.Equal(5, cfg.Game.TotalRounds)
	s.Equal(5*time.Second, cfg.Game.RoundDuration)
	s.Equal(3*time.Second, cfg.Game.CountdownDuration)
	s.Equal(60*time.Second, cfg.Game.DisconnectGrace)
	s.Equal(8080, cfg.Server.Port)
	s.Equal(30*time.Second, cfg.Server.HeartbeatInterval)
}

func (s *ConfigSuite) TestLoadReadsEnvironment() {
	s.T().Setenv("GAME_TOTAL_ROUNDS", "3")
	s.T().Setenv("GAME_ROUND_DURATION", "10s")
	s.T().Setenv("PORT", "9090")

	cfg, err := Load()
	s.Require().NoError(err)

	s.Equal(3, cfg.Game.TotalRounds)
	s.Equal(10*time.Second, cfg.Game.RoundDuration)
	s.Equal(9090, cfg.Server.Port)
}

func (s *ConfigSuite) TestLoadRejectsInvalidBounds() {
	s.T().Setenv("GAME_MAX_PLAYERS", "1")

	_, err := Load()
	s.Require().Error(err)
	s.Contains(err.Error(), "GAME_MAX_PLAYERS")
}

func (s *ConfigSuite) TestValidateRejectsZeroRounds() {
	cfg := Default()
	cfg.Game.TotalRounds = 0
	s.Error(cfg.Validate())
}

func (s *ConfigSuite) TestValidateRejectsUsernameBounds() {
	cfg := Default()
	cfg.Game.MaxUsernameLength = 1
	s.Error(cfg.Validate())
}

func (s *ConfigSuite) TestDefaultIsValid() {
	s.NoError(Default().Validate())
}
