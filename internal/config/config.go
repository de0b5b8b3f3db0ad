package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Game holds the tunable parameters of a session. The core treats these as
// read-only once the server is up.
type Game struct {
	MinPlayers        int           `env:"GAME_MIN_PLAYERS" envDefault:"2"`
	MaxPlayers        int           `env:"GAME_MAX_PLAYERS" envDefault:"10"`
	TotalRounds       int           `env:"GAME_TOTAL_ROUNDS" envDefault:"5"`
	RoundDuration     time.Duration `env:"GAME_ROUND_DURATION" envDefault:"5s"`
	CountdownDuration time.Duration `env:"GAME_COUNTDOWN_DURATION" envDefault:"3s"`
	SettleDelay       time.Duration `env:"GAME_SETTLE_DELAY" envDefault:"5s"`
	DisconnectGrace   time.Duration `env:"GAME_DISCONNECT_GRACE" envDefault:"60s"`

	MinUsernameLength int `env:"GAME_MIN_USERNAME_LENGTH" envDefault:"2"`
	MaxUsernameLength int `env:"GAME_MAX_USERNAME_LENGTH" envDefault:"20"`

	// RandomSeed makes winner selection reproducible when non-zero
	RandomSeed int64 `env:"GAME_RANDOM_SEED"`
}

// Server holds HTTP/WebSocket server settings
type Server struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT" envDefault:"8080"`

	HeartbeatInterval time.Duration `env:"WS_HEARTBEAT_INTERVAL" envDefault:"30s"`
}

// Config is the full application configuration
type Config struct {
	Game   Game
	Server Server
}

// Load reads configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration with all defaults applied and no
// environment lookups. Used by tests.
func Default() Config {
	return Config{
		Game: Game{
			MinPlayers:        2,
			MaxPlayers:        10,
			TotalRounds:       5,
			RoundDuration:     5 * time.Second,
			CountdownDuration: 3 * time.Second,
			SettleDelay:       5 * time.Second,
			DisconnectGrace:   60 * time.Second,
			MinUsernameLength: 2,
			MaxUsernameLength: 20,
		},
		Server: Server{
			Port:              8080,
			HeartbeatInterval: 30 * time.Second,
		},
	}
}

// Validate checks configuration consistency
func (c Config) Validate() error {
	if c.Game.MinPlayers < 1 {
		return fmt.Errorf("GAME_MIN_PLAYERS must be at least 1, got %d", c.Game.MinPlayers)
	}
	if c.Game.MaxPlayers < c.Game.MinPlayers {
		return fmt.Errorf("GAME_MAX_PLAYERS (%d) must be >= GAME_MIN_PLAYERS (%d)",
			c.Game.MaxPlayers, c.Game.MinPlayers)
	}
	if c.Game.TotalRounds < 1 {
		return fmt.Errorf("GAME_TOTAL_ROUNDS must be at least 1, got %d", c.Game.TotalRounds)
	}
	if c.Game.MinUsernameLength < 1 || c.Game.MaxUsernameLength < c.Game.MinUsernameLength {
		return fmt.Errorf("invalid username length bounds [%d, %d]",
			c.Game.MinUsernameLength, c.Game.MaxUsernameLength)
	}
	return nil
}
