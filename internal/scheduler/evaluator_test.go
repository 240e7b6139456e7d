package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/schedule"
)

type staticSource struct {
	mu        sync.Mutex
	medicines []*model.Medicine
	err       error
}

func (s *staticSource) List(userID string) ([]*model.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.medicines, nil
}

func (s *staticSource) set(medicines []*model.Medicine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.medicines = medicines
}

type recordingDeliverer struct {
	mu        sync.Mutex
	delivered []string
	err       error
	panics    bool
}

func (d *recordingDeliverer) Deliver(ctx context.Context, group *schedule.TriggerGroup) error {
	if d.panics {
		panic("deliverer exploded")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.delivered = append(d.delivered, group.ID)
	return nil
}

func (d *recordingDeliverer) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.delivered...)
}

// fakeClock is a settable clock for driving passes by hand.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func dailyMedicine(name string, times ...string) *model.Medicine {
	return &model.Medicine{
		Key:     model.GenerateMedicineKey(name),
		UserID:  "user-1",
		Name:    name,
		Times:   times,
		Enabled: true,
	}
}

// A Monday, so weekday-restricted schedules are predictable.
var monday8am = time.Date(2026, 8, 31, 8, 0, 0, 0, time.Local)

func newTestEvaluator(source *staticSource, deliverer *recordingDeliverer, clock *fakeClock) *Evaluator {
	return NewEvaluator(Options{
		Source:    source,
		Deliverer: deliverer,
		UserID:    "user-1",
		Now:       clock.now,
	})
}

func TestPassFiresDueGroupOnce(t *testing.T) {
	source := &staticSource{medicines: []*model.Medicine{dailyMedicine("Aspirin", "08:00")}}
	deliverer := &recordingDeliverer{}
	clock := &fakeClock{t: monday8am}
	e := newTestEvaluator(source, deliverer, clock)

	e.pass(context.Background())
	assert.Equal(t, []string{"08:00-daily"}, deliverer.snapshot())

	// Another pass in the same minute is deduped.
	clock.set(monday8am.Add(30 * time.Second))
	e.pass(context.Background())
	assert.Equal(t, []string{"08:00-daily"}, deliverer.snapshot())
}

func TestPassSkipsGroupsNotDueNow(t *testing.T) {
	source := &staticSource{medicines: []*model.Medicine{
		dailyMedicine("Aspirin", "08:00"),
		dailyMedicine("Melatonin", "22:00"),
	}}
	deliverer := &recordingDeliverer{}
	clock := &fakeClock{t: monday8am}
	e := newTestEvaluator(source, deliverer, clock)

	e.pass(context.Background())
	assert.Equal(t, []string{"08:00-daily"}, deliverer.snapshot())
}

func TestPassRespectsWeekdaySet(t *testing.T) {
	weekend := dailyMedicine("Supplement", "08:00")
	weekend.Days = []model.Weekday{model.Saturday, model.Sunday}

	source := &staticSource{medicines: []*model.Medicine{weekend}}
	deliverer := &recordingDeliverer{}
	clock := &fakeClock{t: monday8am}
	e := newTestEvaluator(source, deliverer, clock)

	e.pass(context.Background())
	assert.Empty(t, deliverer.snapshot())
}

func TestMidnightResetAllowsNextDayFire(t *testing.T) {
	source := &staticSource{medicines: []*model.Medicine{dailyMedicine("Aspirin", "08:00")}}
	deliverer := &recordingDeliverer{}
	clock := &fakeClock{t: monday8am}
	e := newTestEvaluator(source, deliverer, clock)

	e.pass(context.Background())
	require.Len(t, deliverer.snapshot(), 1)

	e.resetDay()
	clock.set(monday8am.AddDate(0, 0, 1))
	e.pass(context.Background())
	assert.Len(t, deliverer.snapshot(), 2)
}

func TestDayResetHookRuns(t *testing.T) {
	ran := 0
	e := NewEvaluator(Options{
		Source:     &staticSource{},
		Deliverer:  &recordingDeliverer{},
		UserID:     "user-1",
		OnDayReset: func() { ran++ },
	})

	e.resetDay()
	assert.Equal(t, 1, ran)
}

func TestDisableThenReEnableDoesNotRefireSameDay(t *testing.T) {
	med := dailyMedicine("Aspirin", "08:00")
	source := &staticSource{medicines: []*model.Medicine{med}}
	deliverer := &recordingDeliverer{}
	clock := &fakeClock{t: monday8am}
	e := newTestEvaluator(source, deliverer, clock)

	e.pass(context.Background())
	require.Len(t, deliverer.snapshot(), 1)

	// Disable, pass, re-enable within the same minute: the fired key for
	// today persists across the rebuild.
	disabled := *med
	disabled.Enabled = false
	source.set([]*model.Medicine{&disabled})
	e.pass(context.Background())

	source.set([]*model.Medicine{med})
	e.pass(context.Background())

	assert.Len(t, deliverer.snapshot(), 1)
}

func TestEnableJustBeforeBoundaryFires(t *testing.T) {
	source := &staticSource{}
	deliverer := &recordingDeliverer{}
	clock := &fakeClock{t: monday8am.Add(-time.Second)} // 07:59:59
	e := newTestEvaluator(source, deliverer, clock)

	e.pass(context.Background())
	assert.Empty(t, deliverer.snapshot())

	// Medicine added at 07:59:59; the boundary pass at 08:00 picks it up.
	source.set([]*model.Medicine{dailyMedicine("Aspirin", "08:00")})
	clock.set(monday8am)
	e.pass(context.Background())
	assert.Equal(t, []string{"08:00-daily"}, deliverer.snapshot())
}

func TestSleepGapSkipsCatchUp(t *testing.T) {
	source := &staticSource{medicines: []*model.Medicine{dailyMedicine("Aspirin", "10:00")}}
	deliverer := &recordingDeliverer{}
	clock := &fakeClock{t: monday8am}
	e := newTestEvaluator(source, deliverer, clock)

	e.pass(context.Background())

	// Host slept past the 10:00 dose. The wake pass lands at 10:00 but
	// with a 2 hour gap; it is skipped rather than replayed.
	clock.set(monday8am.Add(2 * time.Hour))
	e.pass(context.Background())
	assert.Empty(t, deliverer.snapshot())

	// The next pass runs normally again.
	clock.set(monday8am.Add(2*time.Hour + time.Minute))
	e.pass(context.Background())
	assert.Empty(t, deliverer.snapshot()) // 10:01, nothing due
}

func TestSleepGapAcrossMidnightResetsFiredSet(t *testing.T) {
	source := &staticSource{medicines: []*model.Medicine{dailyMedicine("Aspirin", "08:00")}}
	deliverer := &recordingDeliverer{}
	clock := &fakeClock{t: monday8am}
	e := newTestEvaluator(source, deliverer, clock)

	e.pass(context.Background())
	require.Len(t, deliverer.snapshot(), 1)

	// Sleep through midnight; the wake pass is skipped but the fired set
	// rolls over so tomorrow's 08:00 can fire.
	clock.set(monday8am.AddDate(0, 0, 1).Add(-time.Minute)) // 07:59 next day
	e.pass(context.Background())
	require.Len(t, deliverer.snapshot(), 1)

	clock.set(monday8am.AddDate(0, 0, 1))
	e.pass(context.Background())
	assert.Len(t, deliverer.snapshot(), 2)
}

func TestDeliveryErrorDoesNotAbortPass(t *testing.T) {
	source := &staticSource{medicines: []*model.Medicine{
		dailyMedicine("Aspirin", "08:00"),
		dailyMedicine("Iron", "08:00"), // merges with Aspirin
	}}
	deliverer := &recordingDeliverer{err: errors.New("delivery down")}
	clock := &fakeClock{t: monday8am}
	e := newTestEvaluator(source, deliverer, clock)

	// Must not panic or loop; the group is marked fired despite the error.
	e.pass(context.Background())
	e.pass(context.Background())
	assert.Empty(t, deliverer.snapshot())
	assert.True(t, e.Fired(monday8am, "08:00-daily"))
}

func TestDeliveryPanicIsContained(t *testing.T) {
	source := &staticSource{medicines: []*model.Medicine{dailyMedicine("Aspirin", "08:00")}}
	deliverer := &recordingDeliverer{panics: true}
	clock := &fakeClock{t: monday8am}
	e := newTestEvaluator(source, deliverer, clock)

	assert.NotPanics(t, func() { e.pass(context.Background()) })
}

func TestSourceFailureSkipsPass(t *testing.T) {
	source := &staticSource{err: errors.New("store down")}
	deliverer := &recordingDeliverer{}
	clock := &fakeClock{t: monday8am}
	e := newTestEvaluator(source, deliverer, clock)

	assert.NotPanics(t, func() { e.pass(context.Background()) })
	assert.Empty(t, deliverer.snapshot())
}

func TestStartStopLifecycle(t *testing.T) {
	source := &staticSource{}
	deliverer := &recordingDeliverer{}
	e := newTestEvaluator(source, deliverer, &fakeClock{t: monday8am})

	e.Start(context.Background())
	e.Start(context.Background()) // second start is a no-op
	e.Stop()
	e.Stop() // second stop is a no-op
}

func TestStopKeepsFiredSet(t *testing.T) {
	source := &staticSource{medicines: []*model.Medicine{dailyMedicine("Aspirin", "08:00")}}
	deliverer := &recordingDeliverer{}
	clock := &fakeClock{t: monday8am}
	e := newTestEvaluator(source, deliverer, clock)

	e.Start(context.Background())
	require.Eventually(t, func() bool {
		return len(deliverer.snapshot()) == 1
	}, time.Second, time.Millisecond)
	e.Stop()

	assert.True(t, e.Fired(monday8am, "08:00-daily"))
}

func TestUntilNextMinute(t *testing.T) {
	at := time.Date(2026, 8, 31, 8, 0, 45, 0, time.Local)
	assert.Equal(t, 15*time.Second, untilNextMinute(at))

	exact := time.Date(2026, 8, 31, 8, 0, 0, 0, time.Local)
	assert.Equal(t, time.Minute, untilNextMinute(exact))
}

func TestUntilNextMidnight(t *testing.T) {
	at := time.Date(2026, 8, 31, 23, 0, 0, 0, time.Local)
	assert.Equal(t, time.Hour, untilNextMidnight(at))
}
