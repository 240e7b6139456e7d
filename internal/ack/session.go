package ack

import (
	"context"
	"sync"
	"time"

	"github.com/hojoonlee/pilltick/internal/config"
	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/schedule"
	"github.com/hojoonlee/pilltick/internal/storage"
)

// State is an acknowledgment session state.
type State string

// Session states. Firing is the entry state; Acknowledged and Snoozed are
// terminal for the session.
const (
	StateFiring           State = "firing"
	StateAwaitingEvidence State = "awaiting_evidence"
	StateVerifying        State = "verifying"
	StateAcknowledged     State = "acknowledged"
	StateSnoozed          State = "snoozed"
)

// Sounder is the audible alarm the session controls.
type Sounder interface {
	Start()
	Stop()
}

// Verifier validates captured dose evidence. Satisfied by api.Client.
type Verifier interface {
	VerifyEvidence(ctx context.Context, userID string, image []byte) error
}

// Snoozer defers the alarm. Satisfied by scheduler.SnoozeScheduler.
type Snoozer interface {
	Snooze(group *schedule.TriggerGroup, medicines []*model.Medicine) (time.Duration, error)
}

// Session is one alarm acknowledgment in flight. It owns the alarm sound,
// the camera acquisition, and the state transitions; every exit path leaves
// the hardware released and the sound stopped.
type Session struct {
	group     *schedule.TriggerGroup
	medicines []*model.Medicine
	userID    string

	sounder  Sounder
	camera   Camera
	verifier Verifier
	snoozer  Snoozer
	logs     *storage.DoseLogRepo

	verifyTimeout time.Duration

	mu     sync.Mutex
	state  State
	handle CameraHandle
}

// SessionOptions wires a session's collaborators.
type SessionOptions struct {
	Group     *schedule.TriggerGroup
	Medicines []*model.Medicine
	UserID    string
	Sounder   Sounder
	Camera    Camera
	Verifier  Verifier
	Snoozer   Snoozer
	Logs      *storage.DoseLogRepo

	// VerifyTimeout overrides the configured evidence verification bound.
	VerifyTimeout time.Duration
}

// NewSession opens an acknowledgment session in Firing and starts the alarm.
func NewSession(opts SessionOptions) *Session {
	timeout := opts.VerifyTimeout
	if timeout <= 0 {
		timeout = config.Global.Ack.VerifyTimeout
	}

	s := &Session{
		group:         opts.Group,
		medicines:     opts.Medicines,
		userID:        opts.UserID,
		sounder:       opts.Sounder,
		camera:        opts.Camera,
		verifier:      opts.Verifier,
		snoozer:       opts.Snoozer,
		logs:          opts.Logs,
		verifyTimeout: timeout,
		state:         StateFiring,
	}

	if s.sounder != nil {
		s.sounder.Start()
	}
	logging.Info("acknowledgment session opened",
		logging.KeyGroup, opts.Group.ID,
		logging.KeyUser, opts.UserID)
	return s
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BeginEvidence moves Firing to AwaitingEvidence by acquiring the camera.
// A camera failure keeps the session Firing; the alarm does not stop just
// because the camera is broken.
func (s *Session) BeginEvidence(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateFiring {
		state := s.state
		s.mu.Unlock()
		return errors.New("cannot begin evidence from state " + string(state))
	}
	s.mu.Unlock()

	handle, err := s.camera.Acquire(ctx)
	if err != nil {
		logging.Warn("camera acquisition failed, staying in firing",
			logging.KeyGroup, s.group.ID,
			logging.KeyError, err)
		return err
	}

	s.mu.Lock()
	s.handle = handle
	s.state = StateAwaitingEvidence
	s.mu.Unlock()
	return nil
}

// CancelEvidence abandons evidence capture: the camera is released and the
// session returns to Firing, alarm still sounding.
func (s *Session) CancelEvidence() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingEvidence {
		return
	}
	if s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
	s.state = StateFiring
}

// SubmitEvidence captures one frame and verifies it. The camera is released
// as soon as the frame is captured; only the image is retained through
// verification. Rejection and timeout both return to AwaitingEvidence, and a
// retry re-acquires the device.
func (s *Session) SubmitEvidence(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAwaitingEvidence {
		state := s.state
		s.mu.Unlock()
		return errors.New("cannot submit evidence from state " + string(state))
	}
	handle := s.handle
	s.handle = nil
	s.state = StateVerifying
	s.mu.Unlock()

	if handle == nil {
		h, err := s.camera.Acquire(ctx)
		if err != nil {
			s.backToAwaiting()
			return err
		}
		handle = h
	}

	frame, err := handle.Capture(ctx)
	handle.Release()
	if err != nil {
		s.backToAwaiting()
		return err
	}

	verifyCtx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()

	err = s.verifier.VerifyEvidence(verifyCtx, s.userID, frame)
	if err != nil {
		s.backToAwaiting()
		if errors.Is(verifyCtx.Err(), context.DeadlineExceeded) {
			logging.Warn("evidence verification timed out",
				logging.KeyGroup, s.group.ID)
			return errors.ErrVerifyTimeout
		}
		return err
	}

	s.acknowledge()
	return nil
}

func (s *Session) backToAwaiting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateVerifying {
		s.state = StateAwaitingEvidence
	}
}

// acknowledge finishes the session: hardware released, alarm stopped, one
// dose log per medicine in the group.
func (s *Session) acknowledge() {
	s.mu.Lock()
	if s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
	s.state = StateAcknowledged
	s.mu.Unlock()

	if s.sounder != nil {
		s.sounder.Stop()
	}

	if s.logs != nil {
		for _, med := range s.medicines {
			entry := model.NewDoseLog(s.userID, med.Name, s.group.Time)
			if err := s.logs.Record(entry); err != nil {
				logging.Error("failed to record dose",
					logging.KeyMedicine, med.Name,
					logging.KeyError, err)
			}
		}
	}

	logging.Info("dose acknowledged",
		logging.KeyGroup, s.group.ID,
		logging.KeyUser, s.userID)
}

// Snooze defers the alarm and closes the session as Snoozed. With the
// snooze budget spent the session stays Firing and the error says so.
func (s *Session) Snooze() (time.Duration, error) {
	s.mu.Lock()
	if s.state != StateFiring && s.state != StateAwaitingEvidence {
		state := s.state
		s.mu.Unlock()
		return 0, errors.New("cannot snooze from state " + string(state))
	}
	s.mu.Unlock()

	delay, err := s.snoozer.Snooze(s.group, s.medicines)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
	s.state = StateSnoozed
	s.mu.Unlock()

	if s.sounder != nil {
		s.sounder.Stop()
	}
	return delay, nil
}

// Close releases anything the session still holds. Safe in any state; used
// when the surface showing the session goes away.
func (s *Session) Close() {
	s.mu.Lock()
	if s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
	s.mu.Unlock()

	if s.sounder != nil {
		s.sounder.Stop()
	}
}
