package scheduler

import (
	"time"

	"github.com/dandantas/starling/internal/model"
)

// NextEligibleSlot returns the due slot with the earliest scheduled time, or
// nil when nothing is runnable. A slot is a candidate when it is still
// scheduled and its time has arrived; unless bypassCooldowns is set,
// candidates are further filtered by the in-flight mark and the per-profile
// cooldown. The global gate is the caller's responsibility.
func NextEligibleSlot(schedule *model.Schedule, state *State, now time.Time, bypassCooldowns bool) *model.Slot {
	var best *model.Slot

	for i := range schedule.Slots {
		slot := &schedule.Slots[i]
		if !slot.IsDue(now) {
			continue
		}

		if !bypassCooldowns {
			if state.IsInFlight(slot.ProfileID) {
				continue
			}
			if state.OnCooldown(slot.ProfileID, now) {
				continue
			}
		}

		// Strict before keeps ties resolved by slot order, which is the
		// original list order after the stable sort.
		if best == nil || slot.ScheduledTime.Before(best.ScheduledTime) {
			best = slot
		}
	}

	return best
}

// EligibleProfiles returns the enabled profiles that could be dispatched
// right now, ignoring the schedule's timing. Used by the random-pick mode.
func EligibleProfiles(profiles []model.Profile, state *State, now time.Time, bypassCooldowns bool) []model.Profile {
	out := make([]model.Profile, 0, len(profiles))
	for _, p := range profiles {
		if !p.Enabled {
			continue
		}
		if !bypassCooldowns {
			if state.IsInFlight(p.ID) {
				continue
			}
			if state.OnCooldown(p.ID, now) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
