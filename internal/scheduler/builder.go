package scheduler

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/dandantas/starling/internal/config"
	"github.com/dandantas/starling/internal/model"
)

// Builder constructs engagement schedules. Construction is pure apart from
// consuming randomness: one profile chosen uniformly at random receives the
// immediate comment slot, the rest are staggered across the validity window
// with actions drawn from a pre-shuffled balanced distribution.
type Builder struct {
	immediateDelay time.Duration
	staggerBase    time.Duration
	staggerStep    time.Duration
	ttl            time.Duration
	vocabulary     []model.ActionType
	rng            *rand.Rand
	now            func() time.Time
}

// NewBuilder creates a builder from configuration
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		immediateDelay: cfg.ImmediateDelay,
		staggerBase:    cfg.StaggerBase,
		staggerStep:    cfg.StaggerStep,
		ttl:            cfg.ScheduleTTL,
		vocabulary:     model.DefaultVocabulary(),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithRand replaces the random source (tests)
func (b *Builder) WithRand(rng *rand.Rand) *Builder {
	b.rng = rng
	return b
}

// WithNow replaces the clock (tests)
func (b *Builder) WithNow(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build constructs a schedule covering one validity window over the given
// profiles. Exactly one slot is immediate and is always a comment; every
// profile gets exactly one slot.
func (b *Builder) Build(profiles []model.Profile) *model.Schedule {
	now := b.now()

	schedule := &model.Schedule{
		CreatedAt:     now,
		ExpiresAt:     now.Add(b.ttl),
		TotalProfiles: len(profiles),
		Slots:         make([]model.Slot, 0, len(profiles)),
	}

	if len(profiles) == 0 {
		slog.Warn("Building schedule with no profiles")
		schedule.RecomputeStatistics()
		return schedule
	}

	immediateIdx := b.rng.Intn(len(profiles))
	distribution := PickDistribution(len(profiles)-1, b.vocabulary, b.rng)

	pos := 0 // position among non-immediate slots, in original list order
	for i, profile := range profiles {
		slot := model.Slot{
			ProfileID:         profile.ID,
			ExternalAccountID: profile.ExternalAccountID,
			Status:            model.StatusScheduled,
			LastUpdated:       now,
		}

		if i == immediateIdx {
			// The immediate slot is always a comment, never overridden by
			// the picked distribution.
			slot.ScheduledTime = now.Add(b.immediateDelay)
			slot.ActionType = model.ActionComment
			slot.IsImmediate = true
		} else {
			base := b.staggerBase + time.Duration(pos)*b.staggerStep
			// A non-positive step is a misconfiguration; build without jitter
			// instead of panicking in rand.Int63n.
			var jitter time.Duration
			if b.staggerStep > 0 {
				jitter = time.Duration(b.rng.Int63n(int64(b.staggerStep)))
			}
			slot.ScheduledTime = now.Add(base + jitter)
			slot.ActionType = b.nextAction(distribution, pos, profile.ID)
			pos++
		}

		schedule.Slots = append(schedule.Slots, slot)
	}

	schedule.SortSlots()
	schedule.RecomputeStatistics()

	slog.Info("Built new schedule",
		"total_profiles", schedule.TotalProfiles,
		"created_at", schedule.CreatedAt.Format(time.RFC3339),
		"expires_at", schedule.ExpiresAt.Format(time.RFC3339),
	)

	return schedule
}

// nextAction consumes the distribution list in order. The fallback branch
// implies a sizing bug in PickDistribution, so it is logged loudly rather
// than hidden.
func (b *Builder) nextAction(distribution []model.ActionType, pos int, profileID string) model.ActionType {
	if pos < len(distribution) {
		return distribution[pos]
	}

	action := b.vocabulary[b.rng.Intn(len(b.vocabulary))]
	slog.Warn("Action distribution exhausted, falling back to random pick",
		"profile_id", profileID,
		"position", pos,
		"distribution_len", len(distribution),
		"action", action,
	)
	return action
}
