package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dandantas/starling/internal/config"
	"github.com/robfig/cron/v3"
)

// Scheduler drives the coordinator on two cadences: the minute-by-minute
// schedule walk and the slower random-pick valve. Cadences are standard
// 5-field cron expressions.
type Scheduler struct {
	cfg         *config.Config
	coordinator *Coordinator

	tickSchedule   cron.Schedule
	randomSchedule cron.Schedule

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu             sync.Mutex
	nextTick       time.Time
	nextRandomPick time.Time
}

// NewScheduler parses the configured cadences and creates the scheduler
func NewScheduler(cfg *config.Config, coordinator *Coordinator) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	tickSchedule, err := parser.Parse(cfg.TickSchedule)
	if err != nil {
		return nil, fmt.Errorf("invalid tick schedule %q: %w", cfg.TickSchedule, err)
	}

	randomSchedule, err := parser.Parse(cfg.RandomPickSchedule)
	if err != nil {
		return nil, fmt.Errorf("invalid random pick schedule %q: %w", cfg.RandomPickSchedule, err)
	}

	return &Scheduler{
		cfg:            cfg,
		coordinator:    coordinator,
		tickSchedule:   tickSchedule,
		randomSchedule: randomSchedule,
		stopChan:       make(chan struct{}),
	}, nil
}

// Start begins both cadence loops
func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.SchedulerEnabled {
		slog.Info("Scheduler is disabled by configuration")
		return
	}

	slog.Info("Starting scheduler",
		"tick_schedule", s.cfg.TickSchedule,
		"random_pick_schedule", s.cfg.RandomPickSchedule,
	)

	s.wg.Add(2)
	go s.runLoop(ctx, "tick", s.tickSchedule, s.setNextTick, func() {
		s.coordinator.RunDueSlot(ctx)
	})
	go s.runLoop(ctx, "random_pick", s.randomSchedule, s.setNextRandomPick, func() {
		if _, err := s.coordinator.RunRandomEligible(ctx, false); err != nil {
			slog.Info("Random pick skipped", "reason", err.Error())
		}
	})

	// Walk the schedule once right away so the immediate slot does not wait
	// for the first cron fire.
	s.coordinator.RunDueSlot(ctx)
}

// Stop gracefully stops the scheduler, waiting for in-flight work
func (s *Scheduler) Stop(ctx context.Context) {
	if !s.cfg.SchedulerEnabled {
		return
	}

	slog.Info("Stopping scheduler")
	s.stopOnce.Do(func() { close(s.stopChan) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Scheduler stopped")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for scheduler loops to stop")
	}
}

// runLoop sleeps until each next fire time of the cron schedule and invokes
// the handler. Fires are serialized per loop; a slow execution delays the
// next fire rather than overlapping it.
func (s *Scheduler) runLoop(ctx context.Context, name string, schedule cron.Schedule, setNext func(time.Time), fn func()) {
	defer s.wg.Done()

	for {
		next := schedule.Next(time.Now())
		setNext(next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			slog.Debug("Scheduler fire", "loop", name, "fire_time", next.Format(time.RFC3339))
			fn()
		case <-s.stopChan:
			timer.Stop()
			slog.Info("Scheduler loop stopped", "loop", name)
			return
		case <-ctx.Done():
			timer.Stop()
			slog.Info("Scheduler loop context done", "loop", name)
			return
		}
	}
}

func (s *Scheduler) setNextTick(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTick = t
}

func (s *Scheduler) setNextRandomPick(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRandomPick = t
}

// Status describes the scheduler's timers for the operator surface
type Status struct {
	Enabled        bool      `json:"enabled"`
	NextTick       time.Time `json:"next_tick,omitempty"`
	NextRandomPick time.Time `json:"next_random_pick,omitempty"`
}

// Status returns the current timer state
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Enabled:        s.cfg.SchedulerEnabled,
		NextTick:       s.nextTick,
		NextRandomPick: s.nextRandomPick,
	}
}
