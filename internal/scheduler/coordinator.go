package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/dandantas/starling/internal/model"
	"github.com/dandantas/starling/internal/store"
	"github.com/google/uuid"
)

// Executor performs the actual engagement action. Implementations live
// outside the scheduler core (browser-automation driver, API client, ...).
type Executor interface {
	Execute(ctx context.Context, profile model.Profile, action model.ActionType, correlationID string) (*model.SlotResult, error)
}

// Notifier delivers run summaries. Fire-and-forget: implementations log
// their own failures and never propagate them.
type Notifier interface {
	Notify(ctx context.Context, subject, body string)
}

// ErrBlocked is returned when an operator-triggered run is rejected by the
// global gate or a cooldown rather than by an execution failure.
var ErrBlocked = errors.New("execution blocked by cooldown")

// Coordinator dispatches due slots to the executor and keeps the schedule
// store and liveness state consistent across settlements. At most one slot
// is dispatched per invocation.
type Coordinator struct {
	manager  *store.Manager
	profiles []model.Profile
	state    *State
	executor Executor
	notifier Notifier
	runLog   model.RunLog
	rng      *rand.Rand
	now      func() time.Time
}

// NewCoordinator creates an execution coordinator over a fixed profile list
func NewCoordinator(
	manager *store.Manager,
	profiles []model.Profile,
	state *State,
	executor Executor,
	notifier Notifier,
	runLog model.RunLog,
) *Coordinator {
	return &Coordinator{
		manager:  manager,
		profiles: profiles,
		state:    state,
		executor: executor,
		notifier: notifier,
		runLog:   runLog,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNow replaces the clock (tests)
func (c *Coordinator) WithNow(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// WithRand replaces the random source (tests)
func (c *Coordinator) WithRand(rng *rand.Rand) *Coordinator {
	c.rng = rng
	return c
}

// Manager exposes the schedule store manager for the operator surface
func (c *Coordinator) Manager() *store.Manager {
	return c.manager
}

// State exposes the liveness state for the operator surface
func (c *Coordinator) State() *State {
	return c.state
}

// Profiles returns the profile list loaded at startup
func (c *Coordinator) Profiles() []model.Profile {
	return c.profiles
}

// RunDueSlot processes one scheduler tick: if the global gate allows it and
// a slot is due and eligible, that slot is dispatched. Blocked or idle ticks
// are logged and otherwise no-ops.
func (c *Coordinator) RunDueSlot(ctx context.Context) {
	now := c.now()

	if !c.state.CanExecuteNow(false, now) {
		slog.Info("Tick rejected by global cooldown",
			"min_interval", c.state.minExecutionInterval.String(),
		)
		return
	}

	schedule, err := c.manager.LoadOrCreate(ctx)
	if err != nil {
		slog.Error("Failed to load schedule on tick", "error", err)
		return
	}

	slot := NextEligibleSlot(schedule, c.state, now, false)
	if slot == nil {
		slog.Debug("No eligible slot due")
		return
	}

	profile := c.profileByID(slot.ProfileID)
	if profile == nil {
		slog.Error("Scheduled slot references unknown profile", "profile_id", slot.ProfileID)
		return
	}

	c.dispatch(ctx, *profile, slot.ActionType, model.TriggerSchedule)
}

// RunRandomEligible is the forward-progress valve: it ignores the schedule's
// timing and dispatches a comment for a uniformly random eligible profile.
func (c *Coordinator) RunRandomEligible(ctx context.Context, bypassCooldowns bool) (*model.RunRecord, error) {
	now := c.now()

	if !c.state.CanExecuteNow(bypassCooldowns, now) {
		slog.Info("Random pick rejected by global cooldown")
		return nil, ErrBlocked
	}

	candidates := EligibleProfiles(c.profiles, c.state, now, bypassCooldowns)
	if len(candidates) == 0 {
		slog.Info("Random pick found no eligible profiles")
		return nil, fmt.Errorf("no eligible profiles")
	}

	profile := candidates[c.rng.Intn(len(candidates))]
	record := c.dispatch(ctx, profile, model.ActionComment, model.TriggerRandom)
	if record == nil {
		return nil, fmt.Errorf("profile %s already in flight", profile.ID)
	}
	return record, nil
}

// RunProfile dispatches a specific profile with a specific action, for
// operator-triggered manual runs.
func (c *Coordinator) RunProfile(ctx context.Context, profileID string, action model.ActionType, bypassCooldowns bool) (*model.RunRecord, error) {
	profile := c.profileByID(profileID)
	if profile == nil {
		return nil, fmt.Errorf("profile not found: %s", profileID)
	}

	now := c.now()
	if !bypassCooldowns {
		if !c.state.CanExecuteNow(false, now) {
			return nil, ErrBlocked
		}
		if c.state.OnCooldown(profileID, now) {
			return nil, fmt.Errorf("%w: profile %s", ErrBlocked, profileID)
		}
	}

	record := c.dispatch(ctx, *profile, action, model.TriggerManual)
	if record == nil {
		return nil, fmt.Errorf("profile %s already in flight", profileID)
	}
	return record, nil
}

// dispatch runs one execution end to end. The in-flight release and the
// cooldown stamps are deferred so they apply on every settlement, including
// a panicking executor.
func (c *Coordinator) dispatch(ctx context.Context, profile model.Profile, action model.ActionType, trigger model.RunTrigger) *model.RunRecord {
	if !c.state.MarkInFlight(profile.ID) {
		slog.Warn("Profile already in flight, skipping dispatch",
			"profile_id", profile.ID,
			"trigger", trigger,
		)
		return nil
	}

	defer func() {
		c.state.Release(profile.ID)
		c.state.RecordCompletion(profile.ID, c.now())
	}()

	correlationID := uuid.New().String()
	start := c.now()

	slog.Info("Dispatching engagement",
		"correlation_id", correlationID,
		"profile_id", profile.ID,
		"action", action,
		"trigger", trigger,
	)

	if err := c.manager.UpdateSlotStatus(ctx, profile.ID, model.StatusRunning, store.SlotUpdate{}); err != nil {
		// Manual and random runs may target a profile whose slot is already
		// terminal; the run still proceeds and is captured in the run log.
		slog.Warn("Could not mark slot running",
			"correlation_id", correlationID,
			"profile_id", profile.ID,
			"error", err,
		)
	}

	result, execErr := c.execute(ctx, profile, action, correlationID)
	duration := c.now().Sub(start)

	record := model.RunRecord{
		CorrelationID: correlationID,
		ProfileID:     profile.ID,
		ActionType:    action,
		Trigger:       trigger,
		ExecutedAt:    start,
		DurationMs:    duration.Milliseconds(),
	}

	if execErr == nil && result != nil && result.Success {
		record.Status = string(model.StatusCompleted)
		record.Result = result
		if err := c.manager.UpdateSlotStatus(ctx, profile.ID, model.StatusCompleted, store.SlotUpdate{Result: result}); err != nil {
			c.logSlotUpdateFailure("completed", correlationID, profile.ID, err)
		}
	} else {
		if execErr == nil {
			execErr = errors.New("driver reported failure")
		}
		record.Status = string(model.StatusFailed)
		record.Error = execErr.Error()
		if err := c.manager.UpdateSlotStatus(ctx, profile.ID, model.StatusFailed, store.SlotUpdate{Error: execErr.Error()}); err != nil {
			c.logSlotUpdateFailure("failed", correlationID, profile.ID, err)
		}
	}

	c.runLog.Append(record)

	slog.Info("Engagement settled",
		"correlation_id", correlationID,
		"profile_id", profile.ID,
		"action", action,
		"status", record.Status,
		"duration_ms", record.DurationMs,
	)

	c.notify(record)

	return &record
}

// logSlotUpdateFailure logs a slot persistence failure. An already-settled
// slot is the expected outcome of a manual or random run against a terminal
// slot, not a fault.
func (c *Coordinator) logSlotUpdateFailure(status, correlationID, profileID string, err error) {
	if errors.Is(err, store.ErrSlotSettled) {
		slog.Debug("Slot already settled, run recorded in log only",
			"correlation_id", correlationID,
			"profile_id", profileID,
		)
		return
	}
	slog.Error("Failed to record "+status+" slot",
		"correlation_id", correlationID,
		"profile_id", profileID,
		"error", err,
	)
}

// execute invokes the external executor, converting a panic into an error so
// settlement bookkeeping always runs.
func (c *Coordinator) execute(ctx context.Context, profile model.Profile, action model.ActionType, correlationID string) (result *model.SlotResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return c.executor.Execute(ctx, profile, action, correlationID)
}

func (c *Coordinator) notify(record model.RunRecord) {
	var subject, body string
	if record.Status == string(model.StatusCompleted) {
		subject = fmt.Sprintf("✅ %s by %s succeeded", record.ActionType, record.ProfileID)
		body = fmt.Sprintf("trigger=%s duration_ms=%d correlation_id=%s",
			record.Trigger, record.DurationMs, record.CorrelationID)
		if record.Result != nil && record.Result.CommentText != "" {
			body += "\ncomment: " + record.Result.CommentText
		}
	} else {
		subject = fmt.Sprintf("🚨 %s by %s failed", record.ActionType, record.ProfileID)
		body = fmt.Sprintf("trigger=%s error=%s correlation_id=%s",
			record.Trigger, record.Error, record.CorrelationID)
	}

	// Notification delivery must never hold up or fail a settlement.
	go c.notifier.Notify(context.Background(), subject, body)
}

func (c *Coordinator) profileByID(id string) *model.Profile {
	for i := range c.profiles {
		if c.profiles[i].ID == id {
			return &c.profiles[i]
		}
	}
	return nil
}
