package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/hojoonlee/pilltick/internal/config"
	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/schedule"
)

// SnoozeScheduler defers re-fires for snoozed alarms. Each deferral gets a
// numbered tag ("alarm-08:00-daily-snooze-2") so re-shows never replace a
// live notification, and each group carries a per-firing cap so an alarm
// cannot be pushed away indefinitely.
type SnoozeScheduler struct {
	deliver func(tag string, data model.NotificationData)

	defaultDelay time.Duration
	defaultMax   int

	mu     sync.Mutex
	counts map[string]int
	timers map[string]*time.Timer
}

// NewSnoozeScheduler creates a snooze scheduler. The deliver callback runs
// when a deferral elapses.
func NewSnoozeScheduler(deliver func(tag string, data model.NotificationData)) *SnoozeScheduler {
	cfg := config.Global.Snooze
	return &SnoozeScheduler{
		deliver:      deliver,
		defaultDelay: cfg.DefaultInterval,
		defaultMax:   cfg.DefaultMaxPerFiring,
		counts:       make(map[string]int),
		timers:       make(map[string]*time.Timer),
	}
}

// Snooze defers the group's alarm. The strictest medicine in the group
// governs: the smallest cap and the shortest interval win. Returns the
// applied delay, or ErrSnoozeLimitReached once the cap for this firing is
// spent.
func (s *SnoozeScheduler) Snooze(group *schedule.TriggerGroup, medicines []*model.Medicine) (time.Duration, error) {
	limit, delay := s.resolve(medicines)

	s.mu.Lock()
	count := s.counts[group.ID]
	if count >= limit {
		s.mu.Unlock()
		return 0, errors.ErrSnoozeLimitReached
	}
	s.counts[group.ID] = count + 1
	s.mu.Unlock()

	n := count + 1
	tag := fmt.Sprintf("%s-snooze-%d", group.Tag(), n)
	data := group.Data()

	timer := time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, tag)
		s.mu.Unlock()
		s.deliver(tag, data)
	})

	s.mu.Lock()
	s.timers[tag] = timer
	s.mu.Unlock()

	logging.Info("alarm snoozed",
		logging.KeyGroup, group.ID,
		logging.KeyDuration, delay,
		"snooze", n)
	return delay, nil
}

// resolve picks the cap and delay for a group from its medicines.
func (s *SnoozeScheduler) resolve(medicines []*model.Medicine) (int, time.Duration) {
	maxSnoozes := s.defaultMax
	delay := s.defaultDelay

	for _, med := range medicines {
		if c := med.MaxSnoozes(s.defaultMax); c < maxSnoozes {
			maxSnoozes = c
		}
		if d := med.SnoozeDelay(s.defaultDelay); d < delay {
			delay = d
		}
	}
	return maxSnoozes, delay
}

// Count returns how many snoozes the group has spent this firing.
func (s *SnoozeScheduler) Count(groupID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[groupID]
}

// ResetDay clears snooze counts for the new day. Wired to the evaluator's
// midnight reset.
func (s *SnoozeScheduler) ResetDay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[string]int)
}

// StopAll cancels every pending deferral. Counts are kept; stopping the
// daemon does not refund snoozes.
func (s *SnoozeScheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tag, timer := range s.timers {
		timer.Stop()
		delete(s.timers, tag)
	}
}
