package ack

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/schedule"
	"github.com/hojoonlee/pilltick/internal/storage"
)

type fakeSounder struct {
	started int
	stopped int
}

func (s *fakeSounder) Start() { s.started++ }
func (s *fakeSounder) Stop()  { s.stopped++ }

type fakeVerifier struct {
	err   error
	block time.Duration
	calls int
}

func (v *fakeVerifier) VerifyEvidence(ctx context.Context, userID string, image []byte) error {
	v.calls++
	if v.block > 0 {
		select {
		case <-ctx.Done():
			return errors.NewStoreError("verifyEvidence", "verification call failed", ctx.Err())
		case <-time.After(v.block):
		}
	}
	return v.err
}

type fakeSnoozer struct {
	delay time.Duration
	err   error
	calls int
}

func (s *fakeSnoozer) Snooze(group *schedule.TriggerGroup, medicines []*model.Medicine) (time.Duration, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.delay, nil
}

func ackGroup() *schedule.TriggerGroup {
	return &schedule.TriggerGroup{
		ID:            "08:00-daily",
		Time:          "08:00",
		Days:          model.AllWeekdays(),
		MedicineNames: []string{"Aspirin", "Iron"},
	}
}

func ackMedicines() []*model.Medicine {
	return []*model.Medicine{
		{Name: "Aspirin", UserID: "user-1"},
		{Name: "Iron", UserID: "user-1"},
	}
}

func setupLogs(t *testing.T) *storage.DoseLogRepo {
	t.Helper()
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewDoseLogRepo(db)
}

func newTestSession(t *testing.T, camera *CountingCamera, verifier *fakeVerifier, snoozer *fakeSnoozer) (*Session, *fakeSounder, *storage.DoseLogRepo) {
	t.Helper()
	sounder := &fakeSounder{}
	logs := setupLogs(t)
	s := NewSession(SessionOptions{
		Group:     ackGroup(),
		Medicines: ackMedicines(),
		UserID:    "user-1",
		Sounder:   sounder,
		Camera:    camera,
		Verifier:  verifier,
		Snoozer:   snoozer,
		Logs:      logs,
	})
	return s, sounder, logs
}

func TestSessionOpensFiringWithAlarm(t *testing.T) {
	s, sounder, _ := newTestSession(t, &CountingCamera{}, &fakeVerifier{}, &fakeSnoozer{})
	assert.Equal(t, StateFiring, s.State())
	assert.Equal(t, 1, sounder.started)
	assert.Zero(t, sounder.stopped)
}

func TestHappyPathToAcknowledged(t *testing.T) {
	camera := &CountingCamera{Frame: []byte{0xFF, 0xD8}}
	s, sounder, logs := newTestSession(t, camera, &fakeVerifier{}, &fakeSnoozer{})
	ctx := context.Background()

	require.NoError(t, s.BeginEvidence(ctx))
	assert.Equal(t, StateAwaitingEvidence, s.State())
	assert.Equal(t, 1, camera.Acquired())

	require.NoError(t, s.SubmitEvidence(ctx))
	assert.Equal(t, StateAcknowledged, s.State())
	assert.Equal(t, 1, sounder.stopped)
	assert.True(t, camera.Balanced())

	entries, err := logs.List("user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	names := []string{entries[0].MedicineName, entries[1].MedicineName}
	assert.ElementsMatch(t, []string{"Aspirin", "Iron"}, names)
	assert.Equal(t, "08:00", entries[0].ScheduledTime)
}

func TestCameraFailureStaysFiring(t *testing.T) {
	camera := &CountingCamera{AcquireErr: errors.ErrCameraUnavailable}
	s, sounder, _ := newTestSession(t, camera, &fakeVerifier{}, &fakeSnoozer{})

	err := s.BeginEvidence(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsHardwareError(err))
	assert.Equal(t, StateFiring, s.State())
	assert.True(t, camera.Balanced())
	assert.Zero(t, sounder.stopped) // alarm keeps sounding
}

func TestCancelEvidenceReleasesCameraAndReturnsToFiring(t *testing.T) {
	camera := &CountingCamera{}
	s, _, _ := newTestSession(t, camera, &fakeVerifier{}, &fakeSnoozer{})

	require.NoError(t, s.BeginEvidence(context.Background()))
	s.CancelEvidence()

	assert.Equal(t, StateFiring, s.State())
	assert.True(t, camera.Balanced())
}

func TestRejectedEvidenceReturnsToAwaiting(t *testing.T) {
	camera := &CountingCamera{Frame: []byte{0xFF, 0xD8}}
	verifier := &fakeVerifier{err: errors.NewVerificationError("no pill visible", nil)}
	s, sounder, logs := newTestSession(t, camera, verifier, &fakeSnoozer{})
	ctx := context.Background()

	require.NoError(t, s.BeginEvidence(ctx))
	err := s.SubmitEvidence(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsVerificationError(err))
	assert.Equal(t, StateAwaitingEvidence, s.State())
	assert.Zero(t, sounder.stopped)

	// The camera was released the moment the frame was captured; only the
	// image travels through verification.
	assert.Equal(t, 1, camera.Acquired())
	assert.Equal(t, 1, camera.Released())

	entries, lerr := logs.List("user-1")
	require.NoError(t, lerr)
	assert.Empty(t, entries) // a rejected dose is never logged

	// A retry re-acquires the device.
	verifier.err = nil
	require.NoError(t, s.SubmitEvidence(ctx))
	assert.Equal(t, StateAcknowledged, s.State())
	assert.Equal(t, 2, camera.Acquired())
	assert.True(t, camera.Balanced())
}

func TestCameraReleasedOnCapture(t *testing.T) {
	camera := &CountingCamera{Frame: []byte{0xFF, 0xD8}}
	verifier := &fakeVerifier{block: 50 * time.Millisecond}
	s, _, _ := newTestSession(t, camera, verifier, &fakeSnoozer{})
	ctx := context.Background()

	require.NoError(t, s.BeginEvidence(ctx))

	done := make(chan error, 1)
	go func() { done <- s.SubmitEvidence(ctx) }()

	// While verification is still in flight the device is already free.
	assert.Eventually(t, func() bool {
		return s.State() == StateVerifying && camera.Released() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, <-done)
	assert.True(t, camera.Balanced())
}

func TestVerifyTimeoutReturnsToAwaiting(t *testing.T) {
	camera := &CountingCamera{Frame: []byte{0xFF, 0xD8}}
	verifier := &fakeVerifier{block: time.Second}
	sounder := &fakeSounder{}
	s := NewSession(SessionOptions{
		Group:         ackGroup(),
		Medicines:     ackMedicines(),
		UserID:        "user-1",
		Sounder:       sounder,
		Camera:        camera,
		Verifier:      verifier,
		Snoozer:       &fakeSnoozer{},
		Logs:          setupLogs(t),
		VerifyTimeout: 20 * time.Millisecond,
	})
	ctx := context.Background()

	require.NoError(t, s.BeginEvidence(ctx))
	err := s.SubmitEvidence(ctx)
	assert.True(t, errors.Is(err, errors.ErrVerifyTimeout))
	assert.Equal(t, StateAwaitingEvidence, s.State())
}

func TestCaptureFailureReturnsToAwaiting(t *testing.T) {
	camera := &CountingCamera{CaptureErr: errors.New("sensor fault")}
	s, _, _ := newTestSession(t, camera, &fakeVerifier{}, &fakeSnoozer{})
	ctx := context.Background()

	require.NoError(t, s.BeginEvidence(ctx))
	err := s.SubmitEvidence(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsHardwareError(err))
	assert.Equal(t, StateAwaitingEvidence, s.State())
	assert.True(t, camera.Balanced())
}

func TestSnoozeClosesSession(t *testing.T) {
	snoozer := &fakeSnoozer{delay: 5 * time.Minute}
	s, sounder, _ := newTestSession(t, &CountingCamera{}, &fakeVerifier{}, snoozer)

	delay, err := s.Snooze()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, delay)
	assert.Equal(t, StateSnoozed, s.State())
	assert.Equal(t, 1, sounder.stopped)
}

func TestSnoozeFromAwaitingReleasesCamera(t *testing.T) {
	camera := &CountingCamera{}
	snoozer := &fakeSnoozer{delay: 5 * time.Minute}
	s, _, _ := newTestSession(t, camera, &fakeVerifier{}, snoozer)

	require.NoError(t, s.BeginEvidence(context.Background()))
	_, err := s.Snooze()
	require.NoError(t, err)
	assert.True(t, camera.Balanced())
}

func TestSnoozeCapSpentStaysFiring(t *testing.T) {
	snoozer := &fakeSnoozer{err: errors.ErrSnoozeLimitReached}
	s, sounder, _ := newTestSession(t, &CountingCamera{}, &fakeVerifier{}, snoozer)

	_, err := s.Snooze()
	assert.True(t, errors.Is(err, errors.ErrSnoozeLimitReached))
	assert.Equal(t, StateFiring, s.State())
	assert.Zero(t, sounder.stopped)
}

func TestInvalidTransitionsRejected(t *testing.T) {
	s, _, _ := newTestSession(t, &CountingCamera{}, &fakeVerifier{}, &fakeSnoozer{})
	ctx := context.Background()

	// Submit before begin.
	assert.Error(t, s.SubmitEvidence(ctx))

	require.NoError(t, s.BeginEvidence(ctx))
	// Begin twice.
	assert.Error(t, s.BeginEvidence(ctx))

	require.NoError(t, s.SubmitEvidence(ctx))
	// Anything after acknowledged.
	assert.Error(t, s.BeginEvidence(ctx))
	_, err := s.Snooze()
	assert.Error(t, err)
}

func TestCloseReleasesEverything(t *testing.T) {
	camera := &CountingCamera{}
	s, sounder, _ := newTestSession(t, camera, &fakeVerifier{}, &fakeSnoozer{})

	require.NoError(t, s.BeginEvidence(context.Background()))
	s.Close()

	assert.True(t, camera.Balanced())
	assert.Equal(t, 1, sounder.stopped)
}
