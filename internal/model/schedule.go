package model

import (
	"sort"
	"time"
	"unicode/utf8"
)

const resultTextLimit = 200

// SlotResult captures the outcome of a completed slot execution
type SlotResult struct {
	ActionType      ActionType `json:"action_type" bson:"action_type"`
	Success         bool       `json:"success" bson:"success"`
	CommentText     string     `json:"comment_text,omitempty" bson:"comment_text,omitempty"`
	OriginalContent string     `json:"original_content,omitempty" bson:"original_content,omitempty"`
}

// Truncate caps the free-text fields so persisted schedules stay small
func (r *SlotResult) Truncate() {
	r.CommentText = truncate(r.CommentText, resultTextLimit)
	r.OriginalContent = truncate(r.OriginalContent, resultTextLimit)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character, comment text is arbitrary UTF-8.
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}

// Slot is one scheduled (profile, action, time) assignment within a Schedule
type Slot struct {
	ProfileID         string     `json:"profile_id" bson:"profile_id"`
	ExternalAccountID string     `json:"external_account_id" bson:"external_account_id"`
	ScheduledTime     time.Time  `json:"scheduled_time" bson:"scheduled_time"`
	ActionType        ActionType `json:"action_type" bson:"action_type"`
	IsImmediate       bool       `json:"is_immediate" bson:"is_immediate"`
	Status            SlotStatus `json:"status" bson:"status"`

	// Completed is derived from Status and kept as a persisted field for
	// external consumers that filter on it. Status is the source of truth.
	Completed bool `json:"completed" bson:"completed"`

	Result      *SlotResult `json:"result,omitempty" bson:"result,omitempty"`
	Error       string      `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt   time.Time   `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt time.Time   `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	FailedAt    time.Time   `json:"failed_at,omitempty" bson:"failed_at,omitempty"`
	LastUpdated time.Time   `json:"last_updated,omitempty" bson:"last_updated,omitempty"`
}

// SetStatus applies a status transition and stamps the matching timestamps.
// Terminal details (result/error) are attached by the caller before or after;
// derived fields are kept in sync here.
func (s *Slot) SetStatus(status SlotStatus, now time.Time) {
	s.Status = status
	s.LastUpdated = now
	switch status {
	case StatusRunning:
		s.StartedAt = now
	case StatusCompleted:
		s.CompletedAt = now
	case StatusFailed:
		s.FailedAt = now
	}
	s.Completed = status.IsTerminal()
}

// ResetToScheduled re-arms a terminal slot, clearing all terminal fields
func (s *Slot) ResetToScheduled(now time.Time) {
	s.Status = StatusScheduled
	s.Completed = false
	s.Result = nil
	s.Error = ""
	s.StartedAt = time.Time{}
	s.CompletedAt = time.Time{}
	s.FailedAt = time.Time{}
	s.LastUpdated = now
}

// IsDue reports whether the slot is runnable at the given time, ignoring
// cooldowns (those are the eligibility engine's concern)
func (s *Slot) IsDue(now time.Time) bool {
	return s.Status == StatusScheduled && !s.Completed && !s.ScheduledTime.After(now)
}

// Statistics holds derived counts over a schedule's slots, recomputed on
// every status mutation
type Statistics struct {
	Scheduled int `json:"scheduled" bson:"scheduled"`
	Running   int `json:"running" bson:"running"`
	Completed int `json:"completed" bson:"completed"`
	Failed    int `json:"failed" bson:"failed"`

	ByAction          map[ActionType]int `json:"by_action" bson:"by_action"`
	CompletedByAction map[ActionType]int `json:"completed_by_action" bson:"completed_by_action"`
}

// Schedule is a full 24-hour assignment of engagement slots across profiles
type Schedule struct {
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at" bson:"expires_at"`
	TotalProfiles int        `json:"total_profiles" bson:"total_profiles"`
	Slots         []Slot     `json:"slots" bson:"slots"`
	Statistics    Statistics `json:"statistics" bson:"statistics"`
}

// IsExpired reports whether the schedule's validity window has passed
func (sc *Schedule) IsExpired(now time.Time) bool {
	return now.After(sc.ExpiresAt)
}

// SortSlots orders slots by scheduled time ascending. Sorting is stable so
// original list order breaks ties.
func (sc *Schedule) SortSlots() {
	sort.SliceStable(sc.Slots, func(i, j int) bool {
		return sc.Slots[i].ScheduledTime.Before(sc.Slots[j].ScheduledTime)
	})
}

// FindSlot returns the slot assigned to a profile, or nil
func (sc *Schedule) FindSlot(profileID string) *Slot {
	for i := range sc.Slots {
		if sc.Slots[i].ProfileID == profileID {
			return &sc.Slots[i]
		}
	}
	return nil
}

// ImmediateSlot returns the slot flagged immediate, or nil
func (sc *Schedule) ImmediateSlot() *Slot {
	for i := range sc.Slots {
		if sc.Slots[i].IsImmediate {
			return &sc.Slots[i]
		}
	}
	return nil
}

// ActionCounts returns per-action slot counts. When nonImmediateOnly is set,
// the immediate slot is excluded (the balance check looks only at the
// distributed remainder).
func (sc *Schedule) ActionCounts(nonImmediateOnly bool) map[ActionType]int {
	counts := make(map[ActionType]int)
	for i := range sc.Slots {
		if nonImmediateOnly && sc.Slots[i].IsImmediate {
			continue
		}
		counts[sc.Slots[i].ActionType]++
	}
	return counts
}

// RecomputeStatistics rebuilds the derived statistics from the slot list
func (sc *Schedule) RecomputeStatistics() {
	stats := Statistics{
		ByAction:          make(map[ActionType]int),
		CompletedByAction: make(map[ActionType]int),
	}

	for i := range sc.Slots {
		slot := &sc.Slots[i]
		switch slot.Status {
		case StatusScheduled:
			stats.Scheduled++
		case StatusRunning:
			stats.Running++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		}

		stats.ByAction[slot.ActionType]++
		if slot.Status == StatusCompleted {
			stats.CompletedByAction[slot.ActionType]++
		}
	}

	sc.Statistics = stats
}
