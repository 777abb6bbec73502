package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dandantas/starling/internal/model"
	"github.com/google/uuid"
)

// AsyncRunner executes operator-triggered runs in the background. Browser
// driven engagements can take minutes, too long to hold an HTTP request open.
type AsyncRunner struct {
	coordinator *Coordinator
	jobStore    *model.JobStatusStore
}

// NewAsyncRunner creates an async runner around a coordinator
func NewAsyncRunner(coordinator *Coordinator) *AsyncRunner {
	return &AsyncRunner{
		coordinator: coordinator,
		jobStore:    model.NewJobStatusStore(),
	}
}

// SubmitRandom queues a random-eligible run and returns its job ID
func (ar *AsyncRunner) SubmitRandom(bypassCooldowns bool) string {
	jobID := uuid.New().String()
	ar.jobStore.Set(jobID, &model.JobStatus{JobID: jobID, Status: "queued"})

	go ar.run(jobID, func(ctx context.Context) (*model.RunRecord, error) {
		return ar.coordinator.RunRandomEligible(ctx, bypassCooldowns)
	})

	return jobID
}

// SubmitProfile queues a specific-profile run and returns its job ID
func (ar *AsyncRunner) SubmitProfile(profileID string, action model.ActionType, bypassCooldowns bool) string {
	jobID := uuid.New().String()
	ar.jobStore.Set(jobID, &model.JobStatus{JobID: jobID, Status: "queued", ProfileID: profileID})

	go ar.run(jobID, func(ctx context.Context) (*model.RunRecord, error) {
		return ar.coordinator.RunProfile(ctx, profileID, action, bypassCooldowns)
	})

	return jobID
}

// GetJobStatus retrieves the status of an async run
func (ar *AsyncRunner) GetJobStatus(jobID string) (*model.JobStatus, bool) {
	return ar.jobStore.Get(jobID)
}

func (ar *AsyncRunner) run(jobID string, fn func(ctx context.Context) (*model.RunRecord, error)) {
	if status, exists := ar.jobStore.Get(jobID); exists {
		status.Status = "processing"
		ar.jobStore.Set(jobID, status)
	}

	slog.Info("Starting async run", "job_id", jobID)

	record, err := fn(context.Background())

	status, exists := ar.jobStore.Get(jobID)
	if !exists {
		return
	}

	switch {
	case err != nil:
		status.Status = "failed"
		status.Error = err.Error()
		if errors.Is(err, ErrBlocked) {
			status.Status = "blocked"
		}
	default:
		status.Status = "completed"
		status.Result = record
		if record != nil {
			status.CorrelationID = record.CorrelationID
			status.ProfileID = record.ProfileID
		}
	}
	ar.jobStore.Set(jobID, status)

	slog.Info("Async run settled", "job_id", jobID, "status", status.Status)
}
