// Package scheduler runs the clock-driven trigger evaluator: a minute-aligned
// loop that rebuilds the trigger groups, fires the ones due now, and dedupes
// so each group fires at most once per day.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/hojoonlee/pilltick/internal/config"
	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/schedule"
)

// Deliverer routes a fired trigger group to the user.
type Deliverer interface {
	Deliver(ctx context.Context, group *schedule.TriggerGroup) error
}

// MedicineSource provides the medicine list each pass rebuilds from.
// Satisfied by storage.MedicineCache.
type MedicineSource interface {
	List(userID string) ([]*model.Medicine, error)
}

// Evaluator is the minute-aligned trigger loop.
type Evaluator struct {
	source    MedicineSource
	deliverer Deliverer
	userID    string

	now            func() time.Time
	sleepThreshold time.Duration

	// onDayReset runs at each midnight reset, after the fired set clears.
	onDayReset func()
	// onPass runs at the start of each evaluation pass.
	onPass func()

	mu       sync.Mutex
	fired    map[string]bool
	lastPass time.Time
	cancel   context.CancelFunc
	running  bool
	done     chan struct{}
}

// Options configures an evaluator.
type Options struct {
	Source    MedicineSource
	Deliverer Deliverer
	UserID    string

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time

	// OnDayReset runs after each midnight reset of the fired set.
	OnDayReset func()

	// OnPass runs at the start of each evaluation pass.
	OnPass func()
}

// NewEvaluator creates a trigger evaluator.
func NewEvaluator(opts Options) *Evaluator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Evaluator{
		source:         opts.Source,
		deliverer:      opts.Deliverer,
		userID:         opts.UserID,
		now:            now,
		sleepThreshold: config.Global.Scheduler.SleepThreshold,
		onDayReset:     opts.OnDayReset,
		onPass:         opts.OnPass,
		fired:          make(map[string]bool),
	}
}

// firedKey identifies one group firing on one calendar day.
func firedKey(day time.Time, groupID string) string {
	return day.Format("2006-01-02") + "-" + groupID
}

// Start begins the evaluation loop: one immediate pass, then a one-shot to
// the next minute boundary, then a fixed 60-second cadence. Starting a
// running evaluator is a no-op.
func (e *Evaluator) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	e.mu.Unlock()

	logging.Info("trigger evaluator started", logging.KeyUser, e.userID)

	go e.loop(ctx)
	go e.midnightLoop(ctx)
}

// Stop halts the loop. The fired set survives so a same-day restart does
// not re-fire groups already delivered today.
func (e *Evaluator) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	cancel()
	<-done
	logging.Info("trigger evaluator stopped")
}

func (e *Evaluator) loop(ctx context.Context) {
	defer close(e.done)

	e.pass(ctx)

	// One-shot to the next minute boundary so the steady cadence lands on
	// ":00 seconds" and HH:MM comparisons never straddle a minute.
	boundary := time.NewTimer(untilNextMinute(e.now()))
	defer boundary.Stop()

	select {
	case <-ctx.Done():
		return
	case <-boundary.C:
		e.pass(ctx)
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pass(ctx)
		}
	}
}

// midnightLoop clears the fired set at each local midnight. It reschedules
// itself independently of the evaluation cadence.
func (e *Evaluator) midnightLoop(ctx context.Context) {
	for {
		timer := time.NewTimer(untilNextMidnight(e.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			e.resetDay()
		}
	}
}

// resetDay clears the per-day fired set and notifies the reset hook.
func (e *Evaluator) resetDay() {
	e.mu.Lock()
	e.fired = make(map[string]bool)
	e.mu.Unlock()

	logging.Info("daily fired set reset")
	if e.onDayReset != nil {
		e.onDayReset()
	}
}

// pass runs one evaluation: rebuild groups from the current medicine list
// and fire every group due at the current minute that has not fired today.
func (e *Evaluator) pass(ctx context.Context) {
	if e.onPass != nil {
		e.onPass()
	}
	now := e.now()

	e.mu.Lock()
	last := e.lastPass
	e.lastPass = now
	e.mu.Unlock()

	// A gap much larger than the cadence means the host slept. Missed
	// minutes are not replayed; stale alarms are worse than none.
	if !last.IsZero() && now.Sub(last) > e.sleepThreshold {
		logging.Warn("large gap since last pass, skipping catch-up",
			logging.KeyDuration, now.Sub(last))
		if now.YearDay() != last.YearDay() || now.Year() != last.Year() {
			e.resetDay()
		}
		return
	}

	medicines, err := e.source.List(e.userID)
	if err != nil {
		logging.Error("failed to load medicines for pass", logging.KeyError, err)
		return
	}

	groups := schedule.BuildTriggerGroups(medicines)
	day := model.WeekdayOf(now.Weekday())
	timeOfDay := now.Format("15:04")

	for _, group := range groups {
		if !group.Matches(day, timeOfDay) {
			continue
		}

		key := firedKey(now, group.ID)
		e.mu.Lock()
		already := e.fired[key]
		if !already {
			e.fired[key] = true
		}
		e.mu.Unlock()
		if already {
			continue
		}

		e.fire(ctx, group)
	}
}

// fire delivers one group. A panic or error in delivery is contained to
// this group; the rest of the pass continues.
func (e *Evaluator) fire(ctx context.Context, group *schedule.TriggerGroup) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("panic during delivery",
				logging.KeyGroup, group.ID,
				"panic", r)
		}
	}()

	if err := e.deliverer.Deliver(ctx, group); err != nil {
		logging.Error("delivery failed",
			logging.KeyGroup, group.ID,
			logging.KeyError, err)
	}
}

// Fired reports whether the group already fired on the given day. Used by
// status surfaces.
func (e *Evaluator) Fired(day time.Time, groupID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fired[firedKey(day, groupID)]
}

// untilNextMinute returns the wait to the next minute boundary.
func untilNextMinute(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now)
}

// untilNextMidnight returns the wait to the next local midnight.
func untilNextMidnight(now time.Time) time.Duration {
	year, month, day := now.Date()
	midnight := time.Date(year, month, day+1, 0, 0, 0, 0, now.Location())
	return midnight.Sub(now)
}
