package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dandantas/starling/internal/scheduler"
	"github.com/dandantas/starling/internal/store"
	"github.com/dandantas/starling/pkg/middleware"
)

// ScheduleHandler serves the current schedule and its maintenance operations
type ScheduleHandler struct {
	manager *store.Manager
	sched   *scheduler.Scheduler
	state   *scheduler.State
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(manager *store.Manager, sched *scheduler.Scheduler, state *scheduler.State) *ScheduleHandler {
	return &ScheduleHandler{
		manager: manager,
		sched:   sched,
		state:   state,
	}
}

// Get returns the current schedule, creating one if none exists
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.manager.LoadOrCreate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule")
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}

// StatisticsResponse bundles schedule statistics with live scheduler state
type StatisticsResponse struct {
	Statistics interface{}        `json:"statistics"`
	CreatedAt  time.Time          `json:"created_at"`
	ExpiresAt  time.Time          `json:"expires_at"`
	Scheduler  scheduler.Status   `json:"scheduler"`
	Liveness   scheduler.Snapshot `json:"liveness"`
}

// Statistics returns schedule counters plus scheduler timer state
func (h *ScheduleHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.manager.LoadOrCreate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule")
		return
	}

	writeJSON(w, http.StatusOK, StatisticsResponse{
		Statistics: schedule.Statistics,
		CreatedAt:  schedule.CreatedAt,
		ExpiresAt:  schedule.ExpiresAt,
		Scheduler:  h.sched.Status(),
		Liveness:   h.state.Snapshot(time.Now()),
	})
}

// Recreate discards the current schedule and builds a fresh one
func (h *ScheduleHandler) Recreate(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	schedule, err := h.manager.ForceRecreate(r.Context())
	if err != nil {
		slog.Error("Failed to recreate schedule",
			"error", err,
			"correlation_id", correlationID,
		)
		writeError(w, http.StatusInternalServerError, "Failed to recreate schedule")
		return
	}

	slog.Info("Schedule recreated on request",
		"total_slots", len(schedule.Slots),
		"correlation_id", correlationID,
	)

	writeJSON(w, http.StatusCreated, schedule)
}

// Reset rewinds completed slots back to scheduled so they run again
func (h *ScheduleHandler) Reset(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	count, err := h.manager.ResetCompletedSlots(r.Context())
	if err != nil {
		slog.Error("Failed to reset completed slots",
			"error", err,
			"correlation_id", correlationID,
		)
		writeError(w, http.StatusInternalServerError, "Failed to reset completed slots")
		return
	}

	slog.Info("Completed slots reset",
		"count", count,
		"correlation_id", correlationID,
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reset_count": count,
	})
}
