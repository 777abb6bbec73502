package handler

import (
	"net/http"
	"strings"

	"github.com/dandantas/starling/pkg/middleware"
)

// Router handles HTTP routing
type Router struct {
	scheduleHandler *ScheduleHandler
	runHandler      *RunHandler
	profileHandler  *ProfileHandler
	healthHandler   *HealthHandler
	corsConfig      middleware.CORSConfig
}

// NewRouter creates a new router
func NewRouter(
	scheduleHandler *ScheduleHandler,
	runHandler *RunHandler,
	profileHandler *ProfileHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
) *Router {
	return &Router{
		scheduleHandler: scheduleHandler,
		runHandler:      runHandler,
		profileHandler:  profileHandler,
		healthHandler:   healthHandler,
		corsConfig:      corsConfig,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints (no middleware)
	mux.HandleFunc("/health", rt.healthHandler.Health)
	mux.HandleFunc("/ready", rt.healthHandler.Ready)

	// API endpoints
	mux.HandleFunc("/api/v1/schedule", rt.handleSchedule)
	mux.HandleFunc("/api/v1/schedule/statistics", get(rt.scheduleHandler.Statistics))
	mux.HandleFunc("/api/v1/schedule/recreate", post(rt.scheduleHandler.Recreate))
	mux.HandleFunc("/api/v1/schedule/reset", post(rt.scheduleHandler.Reset))
	mux.HandleFunc("/api/v1/cooldowns/reset", post(rt.runHandler.ResetCooldowns))
	mux.HandleFunc("/api/v1/runs", get(rt.runHandler.ListRuns))
	mux.HandleFunc("/api/v1/runs/random", post(rt.runHandler.RunRandom))
	mux.HandleFunc("/api/v1/jobs/", get(rt.runHandler.GetJob))
	mux.HandleFunc("/api/v1/profiles", get(rt.profileHandler.List))
	mux.HandleFunc("/api/v1/profiles/", rt.handleProfilesWithID)

	// Apply middleware (CORS first to handle preflight requests)
	handler := middleware.CORS(rt.corsConfig)(mux)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CorrelationID(handler)

	return handler
}

// handleSchedule routes the schedule collection endpoint
func (rt *Router) handleSchedule(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.scheduleHandler.Get(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleProfilesWithID routes per-profile endpoints
func (rt *Router) handleProfilesWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/profiles/")

	if strings.HasSuffix(path, "/run") {
		if r.Method != http.MethodPost && r.Method != http.MethodOptions {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.runHandler.RunProfile(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "Endpoint not found")
}

func get(fn http.HandlerFunc) http.HandlerFunc {
	return allow(http.MethodGet, fn)
}

func post(fn http.HandlerFunc) http.HandlerFunc {
	return allow(http.MethodPost, fn)
}

// allow rejects methods other than the expected one, letting OPTIONS through
// for CORS preflight
func allow(method string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && r.Method != http.MethodOptions {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		fn(w, r)
	}
}
