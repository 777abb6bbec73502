package scheduler

import (
	"sync"
	"time"
)

// State holds the process-local execution liveness bookkeeping: which
// profiles are mid-execution, when each profile last finished, and when any
// execution last finished. It is deliberately not persisted; a restart
// resets all cooldowns.
type State struct {
	mu sync.Mutex

	inFlight            map[string]struct{}
	recentExecutions    map[string]time.Time
	lastGlobalExecution time.Time

	profileCooldown      time.Duration
	minExecutionInterval time.Duration
}

// NewState creates liveness state with the given cooldown windows
func NewState(profileCooldown, minExecutionInterval time.Duration) *State {
	return &State{
		inFlight:             make(map[string]struct{}),
		recentExecutions:     make(map[string]time.Time),
		profileCooldown:      profileCooldown,
		minExecutionInterval: minExecutionInterval,
	}
}

// MarkInFlight records a profile as executing. Returns false if the profile
// is already in flight, which prevents duplicate dispatch when a tick
// overlaps a slow execution.
func (s *State) MarkInFlight(profileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.inFlight[profileID]; exists {
		return false
	}
	s.inFlight[profileID] = struct{}{}
	return true
}

// Release removes the in-flight mark for a profile
func (s *State) Release(profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, profileID)
}

// IsInFlight reports whether a profile is currently executing
func (s *State) IsInFlight(profileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.inFlight[profileID]
	return exists
}

// RecordCompletion stamps both the per-profile and the global last-execution
// times. Called on every settlement, success or failure.
func (s *State) RecordCompletion(profileID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentExecutions[profileID] = now
	s.lastGlobalExecution = now
}

// OnCooldown reports whether a profile executed too recently to run again
func (s *State) OnCooldown(profileID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, exists := s.recentExecutions[profileID]
	if !exists {
		return false
	}
	return now.Sub(last) < s.profileCooldown
}

// CanExecuteNow is the global gate: no slot may run while the minimum
// inter-execution interval since the last settlement has not elapsed.
// bypass skips the gate entirely (operator-triggered runs).
func (s *State) CanExecuteNow(bypass bool, now time.Time) bool {
	if bypass {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastGlobalExecution.IsZero() {
		return true
	}
	return now.Sub(s.lastGlobalExecution) >= s.minExecutionInterval
}

// ResetCooldowns clears all per-profile cooldowns. The global gate and the
// in-flight set are left intact.
func (s *State) ResetCooldowns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentExecutions = make(map[string]time.Time)
}

// Snapshot is a read-only view of the liveness state for the status endpoint
type Snapshot struct {
	InFlight            []string  `json:"in_flight"`
	LastGlobalExecution time.Time `json:"last_global_execution,omitempty"`
	CooldownProfiles    int       `json:"cooldown_profiles"`
}

// Snapshot returns the current liveness state
func (s *State) Snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		InFlight:            make([]string, 0, len(s.inFlight)),
		LastGlobalExecution: s.lastGlobalExecution,
	}
	for id := range s.inFlight {
		snap.InFlight = append(snap.InFlight, id)
	}
	for _, last := range s.recentExecutions {
		if now.Sub(last) < s.profileCooldown {
			snap.CooldownProfiles++
		}
	}
	return snap
}
