package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dandantas/starling/internal/model"
)

// BuildFunc constructs a fresh schedule over the current profile list
type BuildFunc func() *model.Schedule

// ManagerConfig tunes the health check applied to loaded schedules. The
// thresholds are configurable on purpose: the balance heuristic is a guard
// against degenerate schedules, not a hard contract.
type ManagerConfig struct {
	Vocabulary          []model.ActionType
	BalanceCheckEnabled bool
	BalanceMinPerAction int
}

// Manager owns the persisted schedule: load-or-create with healing, slot
// status transitions, wholesale recreation, and resets. Every mutation is
// serialized through one mutex so concurrent operator calls and ticks cannot
// interleave read-modify-write cycles within the process. Cross-process
// writers remain unguarded; last write wins.
type Manager struct {
	mu    sync.Mutex
	store ScheduleStore
	build BuildFunc
	cfg   ManagerConfig
	now   func() time.Time
}

// NewManager creates a schedule manager over a storage backend
func NewManager(store ScheduleStore, build BuildFunc, cfg ManagerConfig) *Manager {
	if len(cfg.Vocabulary) == 0 {
		cfg.Vocabulary = model.DefaultVocabulary()
	}
	return &Manager{
		store: store,
		build: build,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithNow replaces the clock (tests)
func (m *Manager) WithNow(now func() time.Time) *Manager {
	m.now = now
	return m
}

// LoadOrCreate returns the current schedule, building a fresh one when the
// persisted schedule is absent, unreadable, expired, or fails the balance
// check. A healthy persisted schedule is returned as-is: repeated calls
// without mutation are pure reads.
func (m *Manager) LoadOrCreate(ctx context.Context) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedule, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			// Fail open: a corrupt store is treated as an empty one.
			slog.Warn("Schedule store unreadable, rebuilding", "error", err)
		} else {
			slog.Info("No persisted schedule, building a new one")
		}
		return m.recreateLocked(ctx)
	}

	if schedule.IsExpired(m.now()) {
		slog.Info("Schedule expired, rebuilding",
			"expired_at", schedule.ExpiresAt.Format(time.RFC3339),
		)
		return m.recreateLocked(ctx)
	}

	if reason := m.unhealthyReason(schedule); reason != "" {
		slog.Warn("Schedule failed balance check, rebuilding", "reason", reason)
		return m.recreateLocked(ctx)
	}

	return schedule, nil
}

// ForceRecreate discards the persisted schedule and builds a fresh one
func (m *Manager) ForceRecreate(ctx context.Context) (*model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recreateLocked(ctx)
}

// SlotUpdate carries the terminal details attached on a status transition
type SlotUpdate struct {
	Result *model.SlotResult
	Error  string
}

// UpdateSlotStatus transitions a profile's slot and persists the whole
// schedule with recomputed statistics
func (m *Manager) UpdateSlotStatus(ctx context.Context, profileID string, status model.SlotStatus, update SlotUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedule, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedule for slot update: %w", err)
	}

	slot := schedule.FindSlot(profileID)
	if slot == nil {
		return fmt.Errorf("no slot for profile %s", profileID)
	}

	// Settled slots stay settled. Manual and random runs against a profile
	// whose slot is already terminal are tracked in the run log only.
	if slot.Status.IsTerminal() {
		return fmt.Errorf("%w: profile %s is %s", ErrSlotSettled, profileID, slot.Status)
	}

	now := m.now()
	slot.SetStatus(status, now)

	switch status {
	case model.StatusCompleted:
		if update.Result != nil {
			result := *update.Result
			result.Truncate()
			slot.Result = &result
		}
		slot.Error = ""
	case model.StatusFailed:
		slot.Error = update.Error
		slot.Result = nil
	}

	schedule.SortSlots()
	schedule.RecomputeStatistics()

	if err := m.store.Save(ctx, schedule); err != nil {
		return fmt.Errorf("failed to persist slot update: %w", err)
	}

	slog.Debug("Slot status updated",
		"profile_id", profileID,
		"status", status,
	)

	return nil
}

// ResetCompletedSlots re-arms every terminal slot back to scheduled,
// clearing results and errors. Returns the number of slots reset.
func (m *Manager) ResetCompletedSlots(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedule, err := m.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load schedule for reset: %w", err)
	}

	now := m.now()
	reset := 0
	for i := range schedule.Slots {
		if schedule.Slots[i].Status.IsTerminal() {
			schedule.Slots[i].ResetToScheduled(now)
			reset++
		}
	}

	if reset == 0 {
		return 0, nil
	}

	schedule.SortSlots()
	schedule.RecomputeStatistics()

	if err := m.store.Save(ctx, schedule); err != nil {
		return 0, fmt.Errorf("failed to persist reset: %w", err)
	}

	slog.Info("Reset completed slots", "count", reset)
	return reset, nil
}

// recreateLocked deletes, rebuilds, and persists the schedule. Caller holds
// the mutex.
func (m *Manager) recreateLocked(ctx context.Context) (*model.Schedule, error) {
	if err := m.store.Delete(ctx); err != nil {
		slog.Warn("Failed to delete old schedule before rebuild", "error", err)
	}

	schedule := m.build()

	if err := m.store.Save(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to persist new schedule: %w", err)
	}

	return schedule, nil
}

// unhealthyReason applies the balance check to a loaded schedule. An empty
// string means healthy. An empty schedule is healthy by definition; rebuilt
// emptiness would be identical.
func (m *Manager) unhealthyReason(schedule *model.Schedule) string {
	if !m.cfg.BalanceCheckEnabled || len(schedule.Slots) == 0 {
		return ""
	}

	counts := schedule.ActionCounts(false)
	if counts[model.ActionComment] == 0 {
		return "no comment slots"
	}

	immediate := schedule.ImmediateSlot()
	if immediate == nil || immediate.ActionType != model.ActionComment {
		return "no immediate comment slot"
	}

	nonImmediate := len(schedule.Slots) - 1
	if m.cfg.BalanceMinPerAction > 0 && nonImmediate >= len(m.cfg.Vocabulary) {
		nonImmediateCounts := schedule.ActionCounts(true)
		for _, action := range m.cfg.Vocabulary {
			if nonImmediateCounts[action] < m.cfg.BalanceMinPerAction {
				return fmt.Sprintf("action %q below minimum count %d", action, m.cfg.BalanceMinPerAction)
			}
		}
	}

	return ""
}
