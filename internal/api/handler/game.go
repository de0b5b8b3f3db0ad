package handler

import (
	"net/http"

	"github.com/mcoot/spinwheel-go/internal/api/response"
	"github.com/mcoot/spinwheel-go/internal/services/scheduler"
)

// GameHandler serves session state queries and explicit game controls
type GameHandler struct {
	scheduler *scheduler.Scheduler
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(sched *scheduler.Scheduler) *GameHandler {
	return &GameHandler{scheduler: sched}
}

// Get returns the current session snapshot
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.scheduler.Snapshot())
}

// History returns the round results of the current game
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"rounds": h.scheduler.History(),
	})
}

// Start explicitly starts the game
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	if !h.scheduler.StartGame() {
		response.Error(w, http.StatusConflict, "CANNOT_START", "game cannot start right now")
		return
	}
	response.JSON(w, http.StatusOK, h.scheduler.Snapshot())
}

// Pause freezes the round in progress
func (h *GameHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.Pause(); err != nil {
		response.Error(w, http.StatusConflict, "CANNOT_PAUSE", err.Error())
		return
	}
	response.JSON(w, http.StatusOK, h.scheduler.Snapshot())
}

// Resume continues a paused round
func (h *GameHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.Resume(); err != nil {
		response.Error(w, http.StatusConflict, "CANNOT_RESUME", err.Error())
		return
	}
	response.JSON(w, http.StatusOK, h.scheduler.Snapshot())
}

// Health is a liveness probe
func Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
