// Package worker runs the background delivery task. It owns system
// notifications end to end: requests arrive as envelopes on an inbox, user
// actions on a shown notification come back through HandleAction, and push
// messages arrive raw through HandlePush. Windows attach to receive taken
// broadcasts; the worker shares no other state with the rest of the app.
package worker

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hojoonlee/pilltick/internal/config"
	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/model"
)

// Notification action identifiers.
const (
	ActionTake   = "take"
	ActionSnooze = "snooze"
)

// SnoozeTagSuffix marks a re-shown snoozed notification so it never
// replaces a live original.
const SnoozeTagSuffix = "-snooze"

// Action is a button on a system notification.
type Action struct {
	ID    string
	Label string
}

// Notification is what the worker asks the platform to display.
type Notification struct {
	Title              string
	Body               string
	Icon               string
	Badge              string
	Tag                string
	RequireInteraction bool
	Vibrate            []int
	Actions            []Action
	Data               model.NotificationData
}

// SystemNotifier is the platform notification surface the worker drives.
type SystemNotifier interface {
	Show(n Notification) error
	// Close dismisses the notification with the given tag, if shown.
	Close(tag string)
}

// Options configures a worker.
type Options struct {
	Notifier SystemNotifier

	// SnoozeDelay overrides the configured snooze re-show delay.
	SnoozeDelay time.Duration

	// OnOpenApp is called when a take action lands with no window attached.
	OnOpenApp func(data model.NotificationData)

	// InboxSize bounds the envelope inbox. Defaults to 16.
	InboxSize int
}

// Worker is the background delivery task.
type Worker struct {
	notifier    SystemNotifier
	snoozeDelay time.Duration
	onOpenApp   func(model.NotificationData)

	inbox chan model.Envelope
	ready atomic.Bool

	mu      sync.Mutex
	windows map[int]chan model.Envelope
	nextWin int
	shown   map[string]model.NotificationData
	timers  []*time.Timer
}

// New creates a worker. It is not ready until Run is called.
func New(opts Options) *Worker {
	delay := opts.SnoozeDelay
	if delay <= 0 {
		delay = config.Global.Snooze.DefaultInterval
	}
	size := opts.InboxSize
	if size <= 0 {
		size = 16
	}
	return &Worker{
		notifier:    opts.Notifier,
		snoozeDelay: delay,
		onOpenApp:   opts.OnOpenApp,
		inbox:       make(chan model.Envelope, size),
		windows:     make(map[int]chan model.Envelope),
		shown:       make(map[string]model.NotificationData),
	}
}

// Ready reports whether the worker loop is running and controls delivery.
func (w *Worker) Ready() bool {
	return w.ready.Load()
}

// Post hands the worker a notification request. It never blocks: a full
// inbox is a delivery failure the caller can fall back from.
func (w *Worker) Post(env model.Envelope) error {
	if !w.ready.Load() {
		return errors.ErrWorkerNotReady
	}
	select {
	case w.inbox <- env:
		return nil
	default:
		return errors.NewTransientError("worker inbox full", env.Data.GroupID, nil)
	}
}

// Run processes the inbox until the context is canceled. It marks the
// worker ready on entry and not-ready on exit.
func (w *Worker) Run(ctx context.Context) {
	w.ready.Store(true)
	defer w.ready.Store(false)
	defer w.cancelTimers()

	logging.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			logging.Info("worker stopped")
			return
		case env := <-w.inbox:
			w.handle(env)
		}
	}
}

func (w *Worker) handle(env model.Envelope) {
	switch env.Type {
	case model.TypeShowNotification:
		w.showAlarm(env.Title, env.Body, env.Tag, env.Data)
	default:
		logging.DebugLog("ignoring envelope", "type", string(env.Type))
	}
}

// showAlarm displays an alarm notification with take and snooze actions.
func (w *Worker) showAlarm(title, body, tag string, data model.NotificationData) {
	n := Notification{
		Title:              title,
		Body:               body,
		Icon:               model.DefaultPushIcon,
		Badge:              model.DefaultPushBadge,
		Tag:                tag,
		RequireInteraction: true,
		Vibrate:            model.DefaultVibratePattern(),
		Actions: []Action{
			{ID: ActionTake, Label: "복용했어요"},
			{ID: ActionSnooze, Label: "5분 후에"},
		},
		Data: data,
	}

	if err := w.notifier.Show(n); err != nil {
		logging.Error("failed to show notification",
			logging.KeyTag, tag,
			logging.KeyError, err)
		return
	}

	w.mu.Lock()
	w.shown[tag] = data
	w.mu.Unlock()

	logging.DebugLog("notification shown", logging.KeyTag, tag)
}

// HandleAction processes a user action on a shown notification. It reports
// whether the tag matched a shown notification; an unknown tag is ignored.
func (w *Worker) HandleAction(tag, action string) bool {
	w.mu.Lock()
	data, ok := w.shown[tag]
	if ok {
		delete(w.shown, tag)
	}
	w.mu.Unlock()

	if !ok {
		logging.DebugLog("action on unknown notification", logging.KeyTag, tag)
		return false
	}

	w.notifier.Close(tag)

	switch action {
	case ActionSnooze:
		w.scheduleSnooze(tag, data)
	case ActionTake, "":
		// Tapping the notification body counts as taking it.
		w.broadcastTaken(data)
	default:
		logging.DebugLog("unknown action", logging.KeyTag, tag, "action", action)
	}
	return true
}

// Dismiss closes a shown notification without routing an action. Used when
// the alarm was resolved somewhere else and the banner is now stale.
func (w *Worker) Dismiss(tag string) {
	w.mu.Lock()
	_, ok := w.shown[tag]
	if ok {
		delete(w.shown, tag)
	}
	w.mu.Unlock()

	if ok {
		w.notifier.Close(tag)
	}
}

// scheduleSnooze re-shows the notification after the snooze delay under a
// suffixed tag so it cannot collide with a newer original.
func (w *Worker) scheduleSnooze(tag string, data model.NotificationData) {
	logging.Info("notification snoozed",
		logging.KeyTag, tag,
		logging.KeyGroup, data.GroupID)

	snoozeTag := tag
	if !strings.HasSuffix(snoozeTag, SnoozeTagSuffix) {
		snoozeTag += SnoozeTagSuffix
	}

	timer := time.AfterFunc(w.snoozeDelay, func() {
		title := model.DefaultPushTitle
		body := data.Time
		if len(data.MedicineNames) > 0 {
			body = data.Time + " - " + strings.Join(data.MedicineNames, ", ")
		}
		w.showAlarm(title, body, snoozeTag, data)
	})

	w.mu.Lock()
	w.timers = append(w.timers, timer)
	w.mu.Unlock()
}

// broadcastTaken tells every attached window the dose was taken. With no
// window attached the open-app hook carries the event instead.
func (w *Worker) broadcastTaken(data model.NotificationData) {
	env := model.NewMedicineTaken(data)

	w.mu.Lock()
	targets := make([]chan model.Envelope, 0, len(w.windows))
	for _, ch := range w.windows {
		targets = append(targets, ch)
	}
	w.mu.Unlock()

	if len(targets) == 0 {
		logging.Info("no window attached, opening app",
			logging.KeyGroup, data.GroupID)
		if w.onOpenApp != nil {
			w.onOpenApp(data)
		}
		return
	}

	for _, ch := range targets {
		select {
		case ch <- env:
		default:
			// A window that stopped draining loses the broadcast.
		}
	}
	logging.Info("taken broadcast delivered",
		logging.KeyGroup, data.GroupID,
		"windows", len(targets))
}

// AttachWindow registers a window for taken broadcasts. The returned detach
// func must be called when the window goes away.
func (w *Worker) AttachWindow() (<-chan model.Envelope, func()) {
	ch := make(chan model.Envelope, 4)

	w.mu.Lock()
	id := w.nextWin
	w.nextWin++
	w.windows[id] = ch
	w.mu.Unlock()

	detach := func() {
		w.mu.Lock()
		delete(w.windows, id)
		w.mu.Unlock()
	}
	return ch, detach
}

// HandlePush displays a notification for a raw server push message body.
func (w *Worker) HandlePush(body []byte) {
	payload := model.ParsePushPayload(body)

	n := Notification{
		Title:              payload.Title,
		Body:               payload.Body,
		Icon:               payload.Icon,
		Badge:              payload.Badge,
		Tag:                payload.Tag,
		RequireInteraction: payload.RequireInteraction,
		Vibrate:            payload.Vibrate,
		Actions: []Action{
			{ID: ActionTake, Label: "복용했어요"},
			{ID: ActionSnooze, Label: "5분 후에"},
		},
		Data: payload.Data,
	}

	if err := w.notifier.Show(n); err != nil {
		logging.Error("failed to show push notification",
			logging.KeyTag, payload.Tag,
			logging.KeyError, err)
		return
	}

	w.mu.Lock()
	w.shown[payload.Tag] = payload.Data
	w.mu.Unlock()
}

func (w *Worker) cancelTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = nil
}
