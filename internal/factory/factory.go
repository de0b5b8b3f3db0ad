package factory

import (
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/spinwheel-go/internal/config"
	"github.com/mcoot/spinwheel-go/internal/dependencies/random"
	"github.com/mcoot/spinwheel-go/internal/notify"
	"github.com/mcoot/spinwheel-go/internal/services/registry"
	"github.com/mcoot/spinwheel-go/internal/services/scheduler"
	"github.com/mcoot/spinwheel-go/internal/services/session"
	"github.com/mcoot/spinwheel-go/internal/ws"
)

// App contains all wired application components
type App struct {
	Config config.Config

	// External dependencies
	Clock  clockwork.Clock
	Random random.Random

	// Core
	Registry  *registry.Registry
	Session   *session.Session
	Scheduler *scheduler.Scheduler

	// Transport
	Hub       *ws.Hub
	WSHandler *ws.Handler
}

// New creates a new application with all dependencies wired. The caller must
// run app.Hub.Run and close the app on shutdown.
func New(cfg config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clockwork.NewRealClock()

	var rnd random.Random
	if cfg.Game.RandomSeed != 0 {
		rnd = random.NewSeeded(cfg.Game.RandomSeed)
	} else {
		rnd = random.New()
	}

	hub := ws.NewHub(logger)
	app := newWithDependencies(cfg, clk, rnd, hub, logger)
	app.Hub = hub
	app.WSHandler = ws.NewHandler(hub, app.Scheduler, cfg.Server, logger)

	return app
}

// newWithDependencies wires the core with the given dependencies (useful for
// testing, where the notifier and clock are replaced)
func newWithDependencies(
	cfg config.Config,
	clk clockwork.Clock,
	rnd random.Random,
	notifier notify.Notifier,
	logger *slog.Logger,
) *App {
	reg := registry.New(cfg.Game, clk, logger)
	sess := session.New(cfg.Game, reg, clk, rnd, logger)
	sched := scheduler.New(cfg.Game, reg, sess, notifier, clk, logger)

	return &App{
		Config:    cfg,
		Clock:     clk,
		Random:    rnd,
		Registry:  reg,
		Session:   sess,
		Scheduler: sched,
	}
}

// Close releases all background resources
func (a *App) Close() {
	a.Scheduler.Close()
	if a.Hub != nil {
		a.Hub.Close()
	}
}
