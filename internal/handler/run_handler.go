package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dandantas/starling/internal/model"
	"github.com/dandantas/starling/internal/scheduler"
	"github.com/dandantas/starling/pkg/middleware"
)

// RunHandler triggers engagement runs and serves their status and history
type RunHandler struct {
	coordinator *scheduler.Coordinator
	runner      *scheduler.AsyncRunner
	runLog      model.RunLog
	state       *scheduler.State
}

// NewRunHandler creates a new run handler
func NewRunHandler(coordinator *scheduler.Coordinator, runner *scheduler.AsyncRunner, runLog model.RunLog, state *scheduler.State) *RunHandler {
	return &RunHandler{
		coordinator: coordinator,
		runner:      runner,
		runLog:      runLog,
		state:       state,
	}
}

// JobAcceptedResponse is returned when an async run is queued
type JobAcceptedResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RunRandom triggers a run against a randomly picked eligible profile.
// Default is async (202 + job id); sync=true holds the request open and
// returns the settled record. bypass_cooldowns=true ignores cooldown gates.
func (h *RunHandler) RunRandom(w http.ResponseWriter, r *http.Request) {
	bypass := parseQueryBool(r, "bypass_cooldowns")

	if parseQueryBool(r, "sync") {
		record, err := h.coordinator.RunRandomEligible(r.Context(), bypass)
		if err != nil {
			writeRunError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
		return
	}

	jobID := h.runner.SubmitRandom(bypass)

	slog.Info("Random run queued",
		"job_id", jobID,
		"bypass_cooldowns", bypass,
		"correlation_id", middleware.GetCorrelationID(r.Context()),
	)

	writeJSON(w, http.StatusAccepted, JobAcceptedResponse{
		JobID:   jobID,
		Status:  "queued",
		Message: "Run queued; poll /api/v1/jobs/" + jobID + " for the result",
	})
}

// RunProfile queues a run for one profile. The path carries the profile ID;
// action defaults to comment.
func (h *RunHandler) RunProfile(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/profiles/")
	profileID := strings.TrimSuffix(path, "/run")
	if profileID == "" || profileID == path {
		writeError(w, http.StatusBadRequest, "Profile ID is required")
		return
	}

	action := model.ActionComment
	if raw := r.URL.Query().Get("action"); raw != "" {
		parsed, err := model.ParseActionType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		action = parsed
	}

	bypass := parseQueryBool(r, "bypass_cooldowns")

	if parseQueryBool(r, "sync") {
		record, err := h.coordinator.RunProfile(r.Context(), profileID, action, bypass)
		if err != nil {
			writeRunError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
		return
	}

	jobID := h.runner.SubmitProfile(profileID, action, bypass)

	slog.Info("Profile run queued",
		"job_id", jobID,
		"profile_id", profileID,
		"action", action,
		"bypass_cooldowns", bypass,
		"correlation_id", middleware.GetCorrelationID(r.Context()),
	)

	writeJSON(w, http.StatusAccepted, JobAcceptedResponse{
		JobID:   jobID,
		Status:  "queued",
		Message: "Run queued; poll /api/v1/jobs/" + jobID + " for the result",
	})
}

// writeRunError maps coordinator errors onto HTTP statuses for sync runs
func writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduler.ErrBlocked):
		writeError(w, http.StatusConflict, err.Error())
	case strings.Contains(err.Error(), "not found"):
		writeError(w, http.StatusNotFound, err.Error())
	case strings.Contains(err.Error(), "in flight"),
		strings.Contains(err.Error(), "no eligible profiles"):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// GetJob returns the status of an async run
func (h *RunHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	status, ok := h.runner.GetJobStatus(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// ListRuns returns recent run records, newest first
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", 50)
	if limit < 1 || limit > 500 {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
		return
	}

	records := h.runLog.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  records,
		"count": len(records),
	})
}

// ResetCooldowns clears all per-profile cooldowns
func (h *RunHandler) ResetCooldowns(w http.ResponseWriter, r *http.Request) {
	h.state.ResetCooldowns()

	slog.Info("Profile cooldowns reset",
		"correlation_id", middleware.GetCorrelationID(r.Context()),
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "cooldowns reset",
	})
}
