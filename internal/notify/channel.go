package notify

import (
	"context"

	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/schedule"
)

// WorkerPort is the delivery channel into the background worker. Ready
// reports whether a worker currently controls delivery; Post hands it a
// notification request.
type WorkerPort interface {
	Ready() bool
	Post(model.Envelope) error
}

// DirectNotifier shows a notification without going through the worker.
// It is the degraded fallback when no worker controls delivery.
type DirectNotifier interface {
	Show(title, body, tag string, data model.NotificationData) error
}

// Vibrator triggers a haptic pattern. Implementations that have no haptics
// simply ignore the call.
type Vibrator interface {
	Vibrate(pattern []int)
}

// Channel routes a fired trigger group to the user. Exactly one of two
// notification paths is taken per delivery: the worker when it is ready,
// a direct notification otherwise. Foreground deliveries additionally
// start the audible alarm, vibrate, and hand the group to the
// acknowledgment flow.
type Channel struct {
	prompter Prompter
	worker   WorkerPort
	direct   DirectNotifier
	sounder  AlarmSounder
	vibrator Vibrator

	// foreground reports whether the user is actively looking at the app.
	foreground func() bool
	// onForeground opens the acknowledgment flow for a foreground delivery.
	onForeground func(model.NotificationData)
}

// ChannelOptions configures a delivery channel. Prompter is required;
// everything else degrades gracefully when nil.
type ChannelOptions struct {
	Prompter     Prompter
	Worker       WorkerPort
	Direct       DirectNotifier
	Sounder      AlarmSounder
	Vibrator     Vibrator
	Foreground   func() bool
	OnForeground func(model.NotificationData)
}

// NewChannel creates a delivery channel.
func NewChannel(opts ChannelOptions) *Channel {
	return &Channel{
		prompter:     opts.Prompter,
		worker:       opts.Worker,
		direct:       opts.Direct,
		sounder:      opts.Sounder,
		vibrator:     opts.Vibrator,
		foreground:   opts.Foreground,
		onForeground: opts.OnForeground,
	}
}

// Deliver routes one fired trigger group. Permission gating is silent:
// without a granted permission nothing is shown and no error is returned,
// so the evaluator still marks the group fired and does not retry every
// minute against a denied permission.
func (c *Channel) Deliver(ctx context.Context, group *schedule.TriggerGroup) error {
	if state := c.prompter.State(); state != PermissionGranted {
		logging.Info("skipping delivery, notification permission not granted",
			logging.KeyGroup, group.ID,
			"permission", string(state))
		return nil
	}

	envelope := model.NewShowNotification(group.Title(), group.Body(), group.Tag(), group.Data())

	showErr := c.show(envelope)

	// The foreground extras run whether or not a notification was shown:
	// with the user right there, a failed banner must not also mean a
	// silent alarm.
	if c.foreground != nil && c.foreground() {
		c.alarmForeground(group)
	}

	if showErr != nil {
		return errors.NewTransientError("notification delivery failed", group.ID, showErr)
	}

	logging.Info("alarm delivered",
		logging.KeyGroup, group.ID,
		logging.KeyTime, group.Time)
	return nil
}

// show takes exactly one notification path: the worker when it is ready,
// the direct notifier otherwise.
func (c *Channel) show(envelope model.Envelope) error {
	if c.worker != nil && c.worker.Ready() {
		return c.worker.Post(envelope)
	}

	logging.DebugLog("worker not ready, using direct notification",
		logging.KeyTag, envelope.Tag)
	if c.direct == nil {
		return errors.ErrWorkerNotReady
	}
	return c.direct.Show(envelope.Title, envelope.Body, envelope.Tag, envelope.Data)
}

// alarmForeground runs the foreground extras: audible alarm, haptics, and
// the acknowledgment flow. None of these affect the delivery outcome.
func (c *Channel) alarmForeground(group *schedule.TriggerGroup) {
	if c.sounder != nil {
		c.sounder.Start()
	}
	if c.vibrator != nil {
		c.vibrator.Vibrate(model.DefaultVibratePattern())
	}
	if c.onForeground != nil {
		c.onForeground(group.Data())
	}
}

// Silence stops the audible alarm. Safe to call when nothing is playing.
func (c *Channel) Silence() {
	if c.sounder != nil {
		c.sounder.Stop()
	}
}
