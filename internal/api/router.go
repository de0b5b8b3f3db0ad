package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/spinwheel-go/internal/api/handler"
	"github.com/mcoot/spinwheel-go/internal/api/response"
	"github.com/mcoot/spinwheel-go/internal/middleware"
	"github.com/mcoot/spinwheel-go/internal/services/scheduler"
	"github.com/mcoot/spinwheel-go/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger    *slog.Logger
	Scheduler *scheduler.Scheduler
	WSHandler *ws.Handler
}

// NewRouter creates the HTTP router: health, session state queries, explicit
// game controls, and the WebSocket upgrade endpoint
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	gameHandler := handler.NewGameHandler(cfg.Scheduler)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, panicResponse)

	r.HandleFunc("/healthz", handler.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/game", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/game/history", gameHandler.History).Methods(http.MethodGet)
	api.HandleFunc("/game/start", gameHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/game/pause", gameHandler.Pause).Methods(http.MethodPost)
	api.HandleFunc("/game/resume", gameHandler.Resume).Methods(http.MethodPost)

	// WebSocket upgrade lives outside the logging middleware; the connection
	// is long-lived and hijacked from the HTTP server
	r.Handle("/ws", cfg.WSHandler).Methods(http.MethodGet)

	return r
}

// panicResponse converts a recovered panic into the API's JSON error shape
func panicResponse(w http.ResponseWriter, _ *http.Request, _ any) {
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
