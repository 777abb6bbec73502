package scheduler

import (
	"math/rand"
	"testing"
	"time"

	"github.com/dandantas/starling/internal/config"
	"github.com/dandantas/starling/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilderConfig() *config.Config {
	return &config.Config{
		ImmediateDelay: time.Minute,
		StaggerBase:    2 * time.Hour,
		StaggerStep:    3 * time.Hour,
		ScheduleTTL:    24 * time.Hour,
	}
}

func testProfiles(n int) []model.Profile {
	profiles := make([]model.Profile, 0, n)
	for i := 0; i < n; i++ {
		profiles = append(profiles, model.Profile{
			ID:                string(rune('a' + i)),
			Name:              "profile",
			ExternalAccountID: "acct-" + string(rune('a'+i)),
			Enabled:           true,
		})
	}
	return profiles
}

func TestBuildAssignsOneSlotPerProfile(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	builder := NewBuilder(testBuilderConfig()).
		WithRand(rand.New(rand.NewSource(99))).
		WithNow(func() time.Time { return now })

	profiles := testProfiles(11)
	schedule := builder.Build(profiles)

	require.Len(t, schedule.Slots, 11)
	assert.Equal(t, 11, schedule.TotalProfiles)
	assert.Equal(t, now, schedule.CreatedAt)
	assert.Equal(t, now.Add(24*time.Hour), schedule.ExpiresAt)

	seen := make(map[string]bool)
	for _, slot := range schedule.Slots {
		assert.False(t, seen[slot.ProfileID], "profile %s assigned twice", slot.ProfileID)
		seen[slot.ProfileID] = true
		assert.Equal(t, model.StatusScheduled, slot.Status)
		assert.False(t, slot.Completed)
	}
}

func TestBuildExactlyOneImmediateCommentSlot(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for seed := int64(0); seed < 25; seed++ {
		builder := NewBuilder(testBuilderConfig()).
			WithRand(rand.New(rand.NewSource(seed))).
			WithNow(func() time.Time { return now })

		schedule := builder.Build(testProfiles(11))

		immediates := 0
		for _, slot := range schedule.Slots {
			if slot.IsImmediate {
				immediates++
				assert.Equal(t, model.ActionComment, slot.ActionType)
				assert.Equal(t, now.Add(time.Minute), slot.ScheduledTime)
			}
		}
		assert.Equal(t, 1, immediates, "seed %d", seed)
	}
}

func TestBuildStaggersNonImmediateSlots(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := testBuilderConfig()
	builder := NewBuilder(cfg).
		WithRand(rand.New(rand.NewSource(3))).
		WithNow(func() time.Time { return now })

	schedule := builder.Build(testProfiles(6))

	for _, slot := range schedule.Slots {
		if slot.IsImmediate {
			continue
		}
		offset := slot.ScheduledTime.Sub(now)
		// base + position*step + jitter, jitter in [0, step)
		assert.GreaterOrEqual(t, offset, cfg.StaggerBase)
		assert.Less(t, offset, cfg.StaggerBase+time.Duration(5)*cfg.StaggerStep)
	}
}

func TestBuildBalancesActionsAcrossNonImmediateSlots(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for seed := int64(0); seed < 25; seed++ {
		builder := NewBuilder(testBuilderConfig()).
			WithRand(rand.New(rand.NewSource(seed))).
			WithNow(func() time.Time { return now })

		schedule := builder.Build(testProfiles(10))

		counts := schedule.ActionCounts(true)
		for _, action := range model.DefaultVocabulary() {
			assert.GreaterOrEqual(t, counts[action], 1,
				"seed %d: action %s missing from distributed slots", seed, action)
		}
	}
}

func TestBuildCoversVocabularyOnSmallRosters(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	vocab := model.DefaultVocabulary()

	// Rosters barely above the vocabulary size leave the distribution no
	// slack: with 4 or 5 profiles a single missing action type starves a
	// whole action for the day. Every seed must still cover the vocabulary.
	for _, n := range []int{4, 5} {
		for seed := int64(0); seed < 200; seed++ {
			builder := NewBuilder(testBuilderConfig()).
				WithRand(rand.New(rand.NewSource(seed))).
				WithNow(func() time.Time { return now })

			schedule := builder.Build(testProfiles(n))

			counts := schedule.ActionCounts(true)
			for _, action := range vocab {
				require.GreaterOrEqual(t, counts[action], 1,
					"%d profiles, seed %d: action %s has no distributed slot (counts %v)",
					n, seed, action, counts)
			}
		}
	}
}

func TestBuildZeroStaggerStepDoesNotPanic(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := testBuilderConfig()
	cfg.StaggerStep = 0

	builder := NewBuilder(cfg).
		WithRand(rand.New(rand.NewSource(2))).
		WithNow(func() time.Time { return now })

	var schedule *model.Schedule
	require.NotPanics(t, func() { schedule = builder.Build(testProfiles(5)) })
	require.Len(t, schedule.Slots, 5)

	for _, slot := range schedule.Slots {
		if slot.IsImmediate {
			continue
		}
		// No step and no jitter collapses every distributed slot onto the base
		assert.Equal(t, now.Add(cfg.StaggerBase), slot.ScheduledTime)
	}
}

func TestBuildSortsSlotsByScheduledTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	builder := NewBuilder(testBuilderConfig()).
		WithRand(rand.New(rand.NewSource(17))).
		WithNow(func() time.Time { return now })

	schedule := builder.Build(testProfiles(8))

	for i := 1; i < len(schedule.Slots); i++ {
		assert.False(t, schedule.Slots[i].ScheduledTime.Before(schedule.Slots[i-1].ScheduledTime))
	}

	// The immediate slot sorts first
	assert.True(t, schedule.Slots[0].IsImmediate)
}

func TestBuildEmptyProfileList(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	builder := NewBuilder(testBuilderConfig()).
		WithNow(func() time.Time { return now })

	schedule := builder.Build(nil)

	require.NotNil(t, schedule)
	assert.Empty(t, schedule.Slots)
	assert.Equal(t, 0, schedule.TotalProfiles)
	assert.Equal(t, 0, schedule.Statistics.Scheduled)
}

func TestBuildSingleProfile(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	builder := NewBuilder(testBuilderConfig()).
		WithRand(rand.New(rand.NewSource(5))).
		WithNow(func() time.Time { return now })

	schedule := builder.Build(testProfiles(1))

	require.Len(t, schedule.Slots, 1)
	assert.True(t, schedule.Slots[0].IsImmediate)
	assert.Equal(t, model.ActionComment, schedule.Slots[0].ActionType)
}

func TestBuildStatisticsRecomputed(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	builder := NewBuilder(testBuilderConfig()).
		WithRand(rand.New(rand.NewSource(11))).
		WithNow(func() time.Time { return now })

	schedule := builder.Build(testProfiles(7))

	assert.Equal(t, 7, schedule.Statistics.Scheduled)
	assert.Equal(t, 0, schedule.Statistics.Completed)

	total := 0
	for _, n := range schedule.Statistics.ByAction {
		total += n
	}
	assert.Equal(t, 7, total)
}
