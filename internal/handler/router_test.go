package handler

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dandantas/starling/internal/config"
	"github.com/dandantas/starling/internal/model"
	"github.com/dandantas/starling/internal/scheduler"
	"github.com/dandantas/starling/internal/store"
	"github.com/dandantas/starling/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okExecutor struct{}

func (okExecutor) Execute(ctx context.Context, profile model.Profile, action model.ActionType, correlationID string) (*model.SlotResult, error) {
	return &model.SlotResult{ActionType: action, Success: true, CommentText: "done"}, nil
}

type silentNotifier struct{}

func (silentNotifier) Notify(ctx context.Context, subject, body string) {}

type stubProfileStore struct {
	profiles []model.Profile
}

func (s stubProfileStore) List(ctx context.Context) ([]model.Profile, error) {
	return s.profiles, nil
}

// serverFixture assembles the full HTTP surface over a file-backed store
func serverFixture(t *testing.T) (*httptest.Server, *scheduler.Coordinator) {
	t.Helper()

	cfg := &config.Config{
		SchedulerEnabled:     false,
		TickSchedule:         "* * * * *",
		RandomPickSchedule:   "0 */3 * * *",
		ImmediateDelay:       time.Minute,
		StaggerBase:          2 * time.Hour,
		StaggerStep:          3 * time.Hour,
		ScheduleTTL:          24 * time.Hour,
		ProfileCooldown:      180 * time.Minute,
		MinExecutionInterval: 15 * time.Minute,
	}

	profiles := []model.Profile{
		{ID: "p1", ExternalAccountID: "acct-1", Enabled: true},
		{ID: "p2", ExternalAccountID: "acct-2", Enabled: true},
	}

	builder := scheduler.NewBuilder(cfg).WithRand(rand.New(rand.NewSource(1)))
	fileStore := store.NewFileScheduleStore(filepath.Join(t.TempDir(), "schedule.json"))
	manager := store.NewManager(fileStore,
		func() *model.Schedule { return builder.Build(profiles) },
		store.ManagerConfig{Vocabulary: model.DefaultVocabulary()},
	)

	state := scheduler.NewState(cfg.ProfileCooldown, cfg.MinExecutionInterval)
	runLog := model.NewMemoryRunLog(20)
	coordinator := scheduler.NewCoordinator(manager, profiles, state, okExecutor{}, silentNotifier{}, runLog)

	sched, err := scheduler.NewScheduler(cfg, coordinator)
	require.NoError(t, err)

	router := NewRouter(
		NewScheduleHandler(manager, sched, state),
		NewRunHandler(coordinator, scheduler.NewAsyncRunner(coordinator), runLog, state),
		NewProfileHandler(stubProfileStore{profiles: profiles}),
		NewHealthHandler(nil, "file", "test"),
		middleware.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET, POST, OPTIONS", AllowedHeaders: "*"},
	)

	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)
	return srv, coordinator
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthAndReadyWithoutPinger(t *testing.T) {
	srv, _ := serverFixture(t)

	var health HealthResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "file", health.Store)
	assert.Equal(t, "local", health.StoreStatus)

	var ready ReadyResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/ready", &ready))
	assert.True(t, ready.Ready)
}

func TestGetScheduleCreatesOnDemand(t *testing.T) {
	srv, _ := serverFixture(t)

	var schedule model.Schedule
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/schedule", &schedule))
	assert.Len(t, schedule.Slots, 2)
	assert.Equal(t, 2, schedule.TotalProfiles)
}

func TestStatisticsEndpoint(t *testing.T) {
	srv, _ := serverFixture(t)

	var stats StatisticsResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/schedule/statistics", &stats))
	assert.False(t, stats.Scheduler.Enabled)
	assert.Empty(t, stats.Liveness.InFlight)
}

func TestRecreateEndpoint(t *testing.T) {
	srv, _ := serverFixture(t)

	var first model.Schedule
	getJSON(t, srv.URL+"/api/v1/schedule", &first)

	var recreated model.Schedule
	assert.Equal(t, http.StatusCreated, postJSON(t, srv.URL+"/api/v1/schedule/recreate", &recreated))
	assert.Len(t, recreated.Slots, 2)
	assert.False(t, recreated.CreatedAt.Before(first.CreatedAt))
}

func TestResetEndpoint(t *testing.T) {
	srv, coordinator := serverFixture(t)

	// Prime the schedule and complete one slot
	_, err := coordinator.Manager().LoadOrCreate(context.Background())
	require.NoError(t, err)
	_, err = coordinator.RunProfile(context.Background(), "p1", model.ActionComment, true)
	require.NoError(t, err)

	var out map[string]int
	assert.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/v1/schedule/reset", &out))
	assert.Equal(t, 1, out["reset_count"])
}

func TestCooldownResetEndpoint(t *testing.T) {
	srv, coordinator := serverFixture(t)

	coordinator.State().RecordCompletion("p1", time.Now().UTC())
	assert.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/v1/cooldowns/reset", nil))
	assert.False(t, coordinator.State().OnCooldown("p1", time.Now().UTC()))
}

func TestProfilesEndpoint(t *testing.T) {
	srv, _ := serverFixture(t)

	var out struct {
		Profiles []model.Profile `json:"profiles"`
		Count    int             `json:"count"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/profiles", &out))
	assert.Equal(t, 2, out.Count)
}

func TestRunProfileAsyncLifecycle(t *testing.T) {
	srv, _ := serverFixture(t)

	var accepted JobAcceptedResponse
	status := postJSON(t, srv.URL+"/api/v1/profiles/p1/run?action=like&bypass_cooldowns=true", &accepted)
	require.Equal(t, http.StatusAccepted, status)
	require.NotEmpty(t, accepted.JobID)

	require.Eventually(t, func() bool {
		var job model.JobStatus
		if getJSON(t, srv.URL+"/api/v1/jobs/"+accepted.JobID, &job) != http.StatusOK {
			return false
		}
		return job.Status == "completed"
	}, 5*time.Second, 20*time.Millisecond)

	// The settlement is visible in the run log
	var runs struct {
		Runs  []model.RunRecord `json:"runs"`
		Count int               `json:"count"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/runs", &runs))
	require.Equal(t, 1, runs.Count)
	assert.Equal(t, "p1", runs.Runs[0].ProfileID)
	assert.Equal(t, model.ActionLike, runs.Runs[0].ActionType)
}

func TestRunProfileRejectsUnknownAction(t *testing.T) {
	srv, _ := serverFixture(t)

	status := postJSON(t, srv.URL+"/api/v1/profiles/p1/run?action=follow", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRunRandomBlockedJob(t *testing.T) {
	srv, coordinator := serverFixture(t)

	// Arm the global gate so the run is rejected as blocked
	coordinator.State().RecordCompletion("p2", time.Now().UTC())

	var accepted JobAcceptedResponse
	require.Equal(t, http.StatusAccepted, postJSON(t, srv.URL+"/api/v1/runs/random", &accepted))

	require.Eventually(t, func() bool {
		var job model.JobStatus
		if getJSON(t, srv.URL+"/api/v1/jobs/"+accepted.JobID, &job) != http.StatusOK {
			return false
		}
		return job.Status == "blocked"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRunProfileSync(t *testing.T) {
	srv, _ := serverFixture(t)

	var record model.RunRecord
	status := postJSON(t, srv.URL+"/api/v1/profiles/p2/run?sync=true&bypass_cooldowns=true", &record)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "p2", record.ProfileID)
	assert.Equal(t, model.TriggerManual, record.Trigger)
	assert.Equal(t, "completed", record.Status)
}

func TestRunRandomSyncBlocked(t *testing.T) {
	srv, coordinator := serverFixture(t)
	coordinator.State().RecordCompletion("p1", time.Now().UTC())

	status := postJSON(t, srv.URL+"/api/v1/runs/random?sync=true", nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestRunProfileSyncUnknownProfile(t *testing.T) {
	srv, _ := serverFixture(t)

	status := postJSON(t, srv.URL+"/api/v1/profiles/ghost/run?sync=true", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUnknownJob(t *testing.T) {
	srv, _ := serverFixture(t)
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/jobs/nope", nil))
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := serverFixture(t)

	assert.Equal(t, http.StatusMethodNotAllowed, postJSON(t, srv.URL+"/api/v1/schedule", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, getJSON(t, srv.URL+"/api/v1/schedule/recreate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, getJSON(t, srv.URL+"/api/v1/profiles/p1/run", nil))
}

func TestCorrelationIDHeaderEchoed(t *testing.T) {
	srv, _ := serverFixture(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/schedule", nil)
	require.NoError(t, err)
	req.Header.Set("X-Correlation-ID", "test-corr-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "test-corr-42", resp.Header.Get("X-Correlation-ID"))
}
