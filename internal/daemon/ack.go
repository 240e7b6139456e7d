package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/hojoonlee/pilltick/internal/ack"
	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/schedule"
	"github.com/hojoonlee/pilltick/internal/scheduler"
	"github.com/hojoonlee/pilltick/internal/storage"
	"github.com/hojoonlee/pilltick/internal/worker"
)

// notificationSurface is the worker-side banner the flow keeps in step with
// the acknowledgment session.
type notificationSurface interface {
	HandleAction(tag, action string) bool
	Dismiss(tag string)
}

// alarmFlow owns the acknowledgment session for the alarm that is currently
// firing. The delivery channel opens a session on each foreground delivery;
// take and snooze requests from the control socket drive it. One alarm
// sounds at a time: a new delivery closes the previous session.
type alarmFlow struct {
	userID   string
	source   scheduler.MedicineSource
	sounder  ack.Sounder
	camera   *ack.FileCamera
	verifier ack.Verifier
	snoozer  ack.Snoozer
	logs     *storage.DoseLogRepo
	surface  notificationSurface

	mu      sync.Mutex
	session *ack.Session
	group   *schedule.TriggerGroup
}

// alarmFlowOptions wires the flow's collaborators.
type alarmFlowOptions struct {
	UserID   string
	Source   scheduler.MedicineSource
	Sounder  ack.Sounder
	Verifier ack.Verifier
	Snoozer  ack.Snoozer
	Logs     *storage.DoseLogRepo
	Surface  notificationSurface
}

func newAlarmFlow(opts alarmFlowOptions) *alarmFlow {
	return &alarmFlow{
		userID:   opts.UserID,
		source:   opts.Source,
		sounder:  opts.Sounder,
		camera:   &ack.FileCamera{},
		verifier: opts.Verifier,
		snoozer:  opts.Snoozer,
		logs:     opts.Logs,
		surface:  opts.Surface,
	}
}

// Open starts an acknowledgment session for a delivered alarm.
func (f *alarmFlow) Open(data model.NotificationData) {
	group, medicines := f.resolve(data)

	f.mu.Lock()
	prev := f.session
	f.mu.Unlock()
	if prev != nil {
		logging.Warn("closing unresolved acknowledgment session",
			logging.KeyGroup, data.GroupID)
		prev.Close()
	}

	session := ack.NewSession(ack.SessionOptions{
		Group:     group,
		Medicines: medicines,
		UserID:    f.userID,
		Sounder:   f.sounder,
		Camera:    f.camera,
		Verifier:  f.verifier,
		Snoozer:   f.snoozer,
		Logs:      f.logs,
	})

	f.mu.Lock()
	f.session = session
	f.group = group
	f.mu.Unlock()
}

// resolve rebuilds the trigger group from the live medicine list so snooze
// caps and dose logs follow the medicines' own settings. When the list
// cannot be matched, the envelope data carries enough to acknowledge.
func (f *alarmFlow) resolve(data model.NotificationData) (*schedule.TriggerGroup, []*model.Medicine) {
	if medicines, err := f.source.List(f.userID); err == nil {
		for _, group := range schedule.BuildTriggerGroups(medicines) {
			if group.ID != data.GroupID {
				continue
			}
			var owned []*model.Medicine
			for _, med := range medicines {
				for _, name := range group.MedicineNames {
					if med.Name == name {
						owned = append(owned, med)
						break
					}
				}
			}
			return group, owned
		}
	}

	group := &schedule.TriggerGroup{
		ID:            data.GroupID,
		Time:          data.Time,
		Days:          model.AllWeekdays(),
		MedicineNames: data.MedicineNames,
	}
	medicines := make([]*model.Medicine, 0, len(data.MedicineNames))
	for _, name := range data.MedicineNames {
		medicines = append(medicines, &model.Medicine{UserID: f.userID, Name: name})
	}
	return group, medicines
}

// Take acknowledges the firing alarm. With an evidence image the session
// runs the verification flow; without one the take lands the same way as
// the notification's take button.
func (f *alarmFlow) Take(ctx context.Context, evidencePath string) error {
	f.mu.Lock()
	session := f.session
	group := f.group
	f.mu.Unlock()
	if session == nil {
		return errors.ErrNoActiveAlarm
	}

	if evidencePath == "" {
		return f.takeWithoutEvidence(session, group)
	}

	f.camera.SetPath(evidencePath)
	if session.State() == ack.StateFiring {
		if err := session.BeginEvidence(ctx); err != nil {
			return err
		}
	}
	if err := session.SubmitEvidence(ctx); err != nil {
		// Rejection and timeout keep the session open for another attempt.
		return err
	}

	for range group.MedicineNames {
		GlobalMetrics.RecordDoseTaken()
	}
	f.finish(session, group)
	return nil
}

// takeWithoutEvidence closes the session and routes the gesture through the
// notification's take action, which records the doses. When the banner is
// already gone the doses are recorded here instead.
func (f *alarmFlow) takeWithoutEvidence(session *ack.Session, group *schedule.TriggerGroup) error {
	session.Close()
	f.clear(session)

	if f.surface != nil && f.surface.HandleAction(group.Tag(), worker.ActionTake) {
		return nil
	}

	for _, name := range group.MedicineNames {
		entry := model.NewDoseLog(f.userID, name, group.Time)
		if err := f.logs.Record(entry); err != nil {
			logging.Error("failed to record dose",
				logging.KeyMedicine, name,
				logging.KeyError, err)
			continue
		}
		GlobalMetrics.RecordDoseTaken()
	}
	return nil
}

// Snooze defers the firing alarm. With the snooze budget spent the session
// stays open and the alarm keeps sounding.
func (f *alarmFlow) Snooze() (time.Duration, error) {
	f.mu.Lock()
	session := f.session
	group := f.group
	f.mu.Unlock()
	if session == nil {
		return 0, errors.ErrNoActiveAlarm
	}

	delay, err := session.Snooze()
	if err != nil {
		return 0, err
	}

	f.finish(session, group)
	return delay, nil
}

// Status reports the active session, if any.
func (f *alarmFlow) Status() (groupID string, state ack.State, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return "", "", false
	}
	return f.group.ID, f.session.State(), true
}

// finish clears a resolved session and dismisses its stale banner.
func (f *alarmFlow) finish(session *ack.Session, group *schedule.TriggerGroup) {
	f.clear(session)
	if f.surface != nil {
		f.surface.Dismiss(group.Tag())
	}
}

func (f *alarmFlow) clear(session *ack.Session) {
	f.mu.Lock()
	if f.session == session {
		f.session = nil
		f.group = nil
	}
	f.mu.Unlock()
}

// Close tears down any session still in flight.
func (f *alarmFlow) Close() {
	f.mu.Lock()
	session := f.session
	f.session = nil
	f.group = nil
	f.mu.Unlock()
	if session != nil {
		session.Close()
	}
}
