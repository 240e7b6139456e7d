package notify

import (
	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/model"
)

// LogNotifier is a DirectNotifier that records the notification in the
// structured log. It is the last-resort delivery path when no worker
// controls delivery and no richer surface exists.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed direct notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Show logs the notification.
func (n *LogNotifier) Show(title, body, tag string, data model.NotificationData) error {
	logging.Info("direct notification",
		logging.KeyTag, tag,
		"title", title,
		"body", body,
		logging.KeyGroup, data.GroupID)
	return nil
}
